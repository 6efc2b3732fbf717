package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "example_db")
	t.Setenv("MONGODB_COLLECTION", "example_collection")
	t.Setenv("MONGODB_TIMEOUT", "3")
	t.Setenv("REDIS_HOST", "localhost")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "example_db", cfg.MongoDB.Database)
	require.Equal(t, "example_collection", cfg.MongoDB.Collection)
	require.Equal(t, 3*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, "6379", cfg.Redis.Port)
	require.Equal(t, "5010", cfg.Server.Port)
	require.False(t, cfg.Auth.Enabled())
}

func TestLoadConfigRequiresCollectionWithURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "example_db")
	t.Setenv("MONGODB_COLLECTION", "")

	_, err := LoadConfig("")
	require.ErrorIs(t, err, ErrMissingSetting)
	require.Contains(t, err.Error(), "MONGODB_COLLECTION")
}

func TestLoadConfigWithoutURIUsesMemory(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Empty(t, cfg.MongoDB.URI)
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set
	os.Unsetenv("MONGODB_URI")
	os.Unsetenv("MONGODB_DATABASE")
	os.Unsetenv("MONGODB_COLLECTION")
	t.Cleanup(func() {
		os.Unsetenv("MONGODB_URI")
		os.Unsetenv("MONGODB_DATABASE")
		os.Unsetenv("MONGODB_COLLECTION")
	})

	path := filepath.Join(t.TempDir(), ".env")
	content := "MONGODB_URI=mongodb://db:27017\nMONGODB_DATABASE=from_file\nMONGODB_COLLECTION=things\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "from_file", cfg.MongoDB.Database)
	require.Equal(t, "things", cfg.MongoDB.Collection)
}

func TestLoadConfigMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestLoadConfigRedisLimiterNeedsHost(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_USE_REDIS", "true")
	_, err := LoadConfig("")
	require.ErrorIs(t, err, ErrMissingSetting)
}
