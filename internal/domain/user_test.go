package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_CanManage(t *testing.T) {
	admin := &User{ID: "user-admin", IsAdmin: true}
	member := &User{ID: "user-member"}

	assert.True(t, admin.CanManage("user-member"))
	assert.True(t, member.CanManage("user-member"))
	assert.False(t, member.CanManage("user-admin"))
}

func TestSession_IsExpired(t *testing.T) {
	live := &Session{ExpiresAt: time.Now().Add(time.Hour)}
	expired := &Session{ExpiresAt: time.Now().Add(-time.Hour)}

	assert.False(t, live.IsExpired())
	assert.True(t, expired.IsExpired())
}
