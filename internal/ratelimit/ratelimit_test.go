package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	krl := New(1, 2)
	defer krl.Stop()

	assert.True(t, krl.Allow("10.0.0.1"))
	assert.True(t, krl.Allow("10.0.0.1"))
	assert.False(t, krl.Allow("10.0.0.1"), "burst of 2 exhausted")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	krl := New(1, 1)
	defer krl.Stop()

	assert.True(t, krl.Allow("10.0.0.1"))
	assert.False(t, krl.Allow("10.0.0.1"))
	assert.True(t, krl.Allow("10.0.0.2"), "separate key has its own bucket")
}

func TestWait_RespectsContextCancellation(t *testing.T) {
	krl := New(0.001, 1)
	defer krl.Stop()

	require.True(t, krl.Allow("igdb"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := krl.Wait(ctx, "igdb")
	assert.Error(t, err, "wait should give up when the context expires")
}

func TestWait_ProceedsWhenTokenAvailable(t *testing.T) {
	krl := New(100, 1)
	defer krl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, krl.Wait(ctx, "igdb"))
	assert.NoError(t, krl.Wait(ctx, "igdb"))
}

func TestStop_Idempotent(t *testing.T) {
	krl := New(1, 1)
	krl.Stop()
	krl.Stop()
}
