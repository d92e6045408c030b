package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-roster-api/internal/config"
	"github.com/noah-isme/gema-roster-api/internal/models"
	"github.com/noah-isme/gema-roster-api/internal/repository"
)

// Storage bundles the persistence handles selected by configuration.
// DB is nil unless the driver is SQL backed.
type Storage struct {
	KeyValue repository.KeyValueRepository
	DB       *gorm.DB
	redis    *redis.Client
}

// Open connects the storage driver named in cfg and migrates SQL schemas.
func Open(cfg config.Config) (*Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return &Storage{KeyValue: repository.NewMemoryKeyValueRepository()}, nil
	case config.StorageRedis:
		client, err := ConnectRedis(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &Storage{KeyValue: repository.NewRedisKeyValueRepository(client, cfg.RedisKeyPrefix), redis: client}, nil
	case config.StorageSQLite, config.StoragePostgres:
		var (
			db  *gorm.DB
			err error
		)
		if cfg.StorageDriver == config.StorageSQLite {
			db, err = ConnectSQLite(cfg.SQLitePath)
		} else {
			db, err = ConnectPostgres(cfg.DatabaseURL)
		}
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.KeyValueEntry{}, &models.ActivityLog{}); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &Storage{KeyValue: repository.NewGormKeyValueRepository(db), DB: db}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// Ping checks that the backing store is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	switch {
	case s.redis != nil:
		return s.redis.Ping(ctx).Err()
	case s.DB != nil:
		sqlDB, err := s.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	default:
		return nil
	}
}

// Close releases the underlying connections.
func (s *Storage) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	if s.DB != nil {
		sqlDB, err := s.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
