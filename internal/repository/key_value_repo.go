package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-roster-api/internal/models"
)

// ErrKeyNotFound indicates no value is stored under the requested key.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueRepository persists opaque string values under fixed keys.
type KeyValueRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type redisKeyValueRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisKeyValueRepository stores values as plain redis strings, optionally namespaced by prefix.
func NewRedisKeyValueRepository(client *redis.Client, prefix string) KeyValueRepository {
	return &redisKeyValueRepository{client: client, prefix: prefix}
}

func (r *redisKeyValueRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *redisKeyValueRepository) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *redisKeyValueRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

type gormKeyValueRepository struct {
	db *gorm.DB
}

// NewGormKeyValueRepository stores values in the key_value_entries table.
func NewGormKeyValueRepository(db *gorm.DB) KeyValueRepository {
	return &gormKeyValueRepository{db: db}
}

func (r *gormKeyValueRepository) Get(ctx context.Context, key string) (string, error) {
	var entry models.KeyValueEntry
	err := r.db.WithContext(ctx).Where(keyEquals(key)).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (r *gormKeyValueRepository) Set(ctx context.Context, key, value string) error {
	entry := models.KeyValueEntry{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (r *gormKeyValueRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where(keyEquals(key)).Delete(&models.KeyValueEntry{}).Error
}

// keyEquals lets the dialect quote the key column.
func keyEquals(key string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: key}
}

type memoryKeyValueRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKeyValueRepository keeps values in process memory. Data is lost on restart.
func NewMemoryKeyValueRepository() KeyValueRepository {
	return &memoryKeyValueRepository{values: make(map[string]string)}
}

func (r *memoryKeyValueRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (r *memoryKeyValueRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	r.values[key] = value
	r.mu.Unlock()
	return nil
}

func (r *memoryKeyValueRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.values, key)
	r.mu.Unlock()
	return nil
}
