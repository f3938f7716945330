package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/tmp/kohai-test"},
		Cache:  CacheConfig{SearchCapacity: 50, DetailCapacity: 50, TTL: 10 * time.Minute},
	}

	assert.NoError(t, cfg.Validate())
}

func TestValidate_InvalidEnvironment(t *testing.T) {
	cfg := &Config{
		App:    AppConfig{Environment: "carnival"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/tmp/kohai-test"},
		Cache:  CacheConfig{SearchCapacity: 50, DetailCapacity: 50},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment")
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{
		App:    AppConfig{Environment: "production"},
		Logger: LoggerConfig{Level: "loud"},
		Data:   DataConfig{BasePath: "/tmp/kohai-test"},
		Cache:  CacheConfig{SearchCapacity: 50, DetailCapacity: 50},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestValidate_ZeroCacheCapacity(t *testing.T) {
	cfg := &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/tmp/kohai-test"},
		Cache:  CacheConfig{SearchCapacity: 0, DetailCapacity: 50},
	}

	assert.Error(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/kohai-data", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "kohai-data"), got)

	got, err = expandPath("", "/default/path")
	require.NoError(t, err)
	assert.Equal(t, "/default/path", got)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitList("*"))
	assert.Equal(t,
		[]string{"http://localhost:5173", "https://kohai.app"},
		splitList(" http://localhost:5173 , https://kohai.app "),
	)
	assert.Empty(t, splitList(" , "))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("KOHAI_TEST_VALUE", "from-env")

	// Flag wins over env.
	assert.Equal(t, "from-flag", getConfigValue("from-flag", "KOHAI_TEST_VALUE", "fallback"))
	// Env wins over default.
	assert.Equal(t, "from-env", getConfigValue("", "KOHAI_TEST_VALUE", "fallback"))
	// Default when nothing else set.
	assert.Equal(t, "fallback", getConfigValue("", "KOHAI_TEST_MISSING", "fallback"))
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("", "KOHAI_TEST_DURATION_MISSING", "10m")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, d)

	_, err = parseDurationValue("not-a-duration", "KOHAI_TEST_DURATION_MISSING", "10m")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("# comment\nKOHAI_ENV_FILE_TEST=hello\n"), 0o600))

	t.Setenv("KOHAI_ENV_FILE_TEST", "")
	os.Unsetenv("KOHAI_ENV_FILE_TEST")

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("KOHAI_ENV_FILE_TEST"))
}
