package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMA_STORAGE_DRIVER", "")
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, StorageSQLite, cfg.StorageDriver)
	require.Equal(t, "penilaianSiswa", cfg.RosterKey)
	require.Equal(t, "isLoggedIn", cfg.SessionKey)
	require.Equal(t, "guru", cfg.TeacherUsername)
	require.Equal(t, 12*time.Hour, cfg.JWTTTL)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.True(t, cfg.UsesDatabase())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("GEMA_STORAGE_DRIVER", "Redis")
	t.Setenv("GEMA_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GEMA_APP_PORT", ":9090")
	t.Setenv("GEMA_JWT_TTL", "30m")
	t.Setenv("GEMA_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, StorageRedis, cfg.StorageDriver)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 30*time.Minute, cfg.JWTTTL)
	require.False(t, cfg.UsesDatabase())
	require.NoError(t, cfg.RequireAuth())
}

func TestLoadRejectsIncompleteStorage(t *testing.T) {
	t.Setenv("GEMA_STORAGE_DRIVER", "postgres")
	t.Setenv("GEMA_DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("GEMA_STORAGE_DRIVER", "mongo")
	_, err = Load()
	require.ErrorContains(t, err, "unsupported storage driver")
}

func TestRequireAuthNeedsSecret(t *testing.T) {
	cfg := Config{TeacherUsername: "guru", TeacherPassword: "123456"}
	require.Error(t, cfg.RequireAuth())

	cfg.JWTSecret = "secret"
	require.NoError(t, cfg.RequireAuth())
}
