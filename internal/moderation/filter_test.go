package moderation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain word", "Bandits", "bandits"},
		{"leet digits", "r4p3", "rape"},
		{"leet symbols", "r@pe", "rape"},
		{"pipe folds to i", "h|tler", "hitler"},
		{"separators stripped", "r.a-p_e", "rape"},
		{"spaces stripped", "open world", "openworld"},
		{"unicode stripped", "störy", "stry"},
		{"empty", "", ""},
		{"only punctuation", "...!!!", "iii"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestFilter_IsBlocked(t *testing.T) {
	f := NewFilter(nil)

	tests := []struct {
		name    string
		input   string
		blocked bool
	}{
		{"exact match", "rape", true},
		{"uppercase", "RAPE", true},
		{"leet digits", "r4p3", true},
		{"leet symbols", "r@p3", true},
		{"separators", "r.a.p.e", true},
		{"embedded in longer tag", "r4p3fest", true},
		// Benign containments are scrubbed before matching.
		{"benign containment", "grape", false},
		{"benign containment leet", "gr4p3", false},
		{"benign compound", "grapefruit", false},
		{"benign derived form", "scraped", false},
		{"blocked term beside benign word", "grape rape", true},
		{"clean tag", "open-world", false},
		{"clean tag with digits", "top10", false},
		{"empty", "", false},
		{"symbols only", "---", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blocked, f.IsBlocked(tt.input))
		})
	}
}

func TestFilter_NilBlocksNothing(t *testing.T) {
	var f *Filter
	assert.False(t, f.IsBlocked("rape"))
}

func TestNewFilterFromFile_MergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("# extras\nbloodbath\n"), 0o600))

	f, err := NewFilterFromFile(path, nil)
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, f.IsBlocked("bloodbath"), "file term should be active")
	assert.True(t, f.IsBlocked("rape"), "embedded defaults must survive a file load")
}

func TestNewFilterFromFile_MissingFile(t *testing.T) {
	_, err := NewFilterFromFile(filepath.Join(t.TempDir(), "nope.txt"), nil)
	assert.Error(t, err)
}

func TestFilter_HotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("firstterm\n"), 0o600))

	f, err := NewFilterFromFile(path, nil)
	require.NoError(t, err)
	defer f.Close()

	require.True(t, f.IsBlocked("firstterm"))
	require.False(t, f.IsBlocked("secondterm"))

	require.NoError(t, os.WriteFile(path, []byte("firstterm\nsecondterm\n"), 0o600))

	// The watcher reloads asynchronously, so poll briefly.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if f.IsBlocked("secondterm") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("blocklist was not reloaded after file change")
}

func TestParseBlocklist(t *testing.T) {
	terms := parseBlocklist("# comment\n\nFoo\nf.o.o\nbar\n")

	// "Foo" and "f.o.o" normalize to the same term.
	assert.Equal(t, []string{"foo", "bar"}, terms)
}
