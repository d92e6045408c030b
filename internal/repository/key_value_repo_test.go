package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-roster-api/internal/models"
)

func TestKeyValueRepositories(t *testing.T) {
	backends := map[string]func(t *testing.T) KeyValueRepository{
		"memory": func(t *testing.T) KeyValueRepository {
			return NewMemoryKeyValueRepository()
		},
		"gorm": func(t *testing.T) KeyValueRepository {
			return NewGormKeyValueRepository(setupTestDB(t))
		},
		"redis": func(t *testing.T) KeyValueRepository {
			mini, err := miniredis.Run()
			require.NoError(t, err)
			t.Cleanup(mini.Close)
			return NewRedisKeyValueRepository(redis.NewClient(&redis.Options{Addr: mini.Addr()}), "gema:")
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			repo := build(t)
			ctx := context.Background()

			_, err := repo.Get(ctx, "penilaianSiswa")
			require.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, repo.Set(ctx, "penilaianSiswa", `{"Ana":{}}`))
			value, err := repo.Get(ctx, "penilaianSiswa")
			require.NoError(t, err)
			require.Equal(t, `{"Ana":{}}`, value)

			require.NoError(t, repo.Set(ctx, "penilaianSiswa", `{}`))
			value, err = repo.Get(ctx, "penilaianSiswa")
			require.NoError(t, err)
			require.Equal(t, `{}`, value, "set overwrites the previous snapshot")

			require.NoError(t, repo.Delete(ctx, "penilaianSiswa"))
			_, err = repo.Get(ctx, "penilaianSiswa")
			require.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, repo.Delete(ctx, "missing"), "deleting an absent key is not an error")
		})
	}
}

func TestRedisKeyValueRepositoryUsesPrefix(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	repo := NewRedisKeyValueRepository(redis.NewClient(&redis.Options{Addr: mini.Addr()}), "gema:")
	require.NoError(t, repo.Set(context.Background(), "isLoggedIn", "true"))

	stored, err := mini.Get("gema:isLoggedIn")
	require.NoError(t, err)
	require.Equal(t, "true", stored)
}

func TestActivityLogRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	entries := []models.ActivityLog{
		{ActorName: "guru", ActorRole: "teacher", Action: "student.added", EntityType: "student", EntityKey: "Ana", CreatedAt: base},
		{ActorName: "guru", ActorRole: "teacher", Action: "record.toggled", EntityType: "record", EntityKey: "Ana/2024-01-01", CreatedAt: base.Add(time.Minute)},
		{ActorName: "cli", ActorRole: "system", Action: "student.removed", EntityType: "student", EntityKey: "Ana", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	items, total, err := repo.List(ctx, ActivityLogFilter{ActorName: "guru"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, "record.toggled", items[0].Action, "expected newest entry first")

	items, total, err = repo.List(ctx, ActivityLogFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	require.Equal(t, "student.added", items[0].Action)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.KeyValueEntry{}, &models.ActivityLog{}))
	return db
}
