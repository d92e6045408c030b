package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers understood by the roster persistence layer.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds runtime configuration values for the roster service and CLI.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	LogLevel        string
	StorageDriver   string
	DatabaseURL     string
	SQLitePath      string
	RedisURL        string
	RedisKeyPrefix  string
	RosterKey       string
	SessionKey      string
	TeacherUsername string
	TeacherPassword string
	JWTSecret       string
	JWTTTL          time.Duration
	NATSURL         string
	EventChannel    string
	LoginRateLimit  int
	LoginRateWindow time.Duration
	CORSOrigins     string
	AccessLog       bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// UsesDatabase reports whether the storage driver is backed by gorm.
func (c Config) UsesDatabase() bool {
	return c.StorageDriver == StorageSQLite || c.StorageDriver == StoragePostgres
}

// RequireAuth validates the settings only the HTTP server needs.
func (c Config) RequireAuth() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be provided")
	}
	if c.TeacherUsername == "" || c.TeacherPassword == "" {
		return fmt.Errorf("teacher credentials must be provided")
	}
	return nil
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Roster API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.driver", StorageSQLite)
	v.SetDefault("sqlite.path", "roster.db")
	v.SetDefault("redis.key_prefix", "gema:")
	v.SetDefault("roster.key", "penilaianSiswa")
	v.SetDefault("session.key", "isLoggedIn")
	v.SetDefault("teacher.username", "guru")
	v.SetDefault("teacher.password", "123456")
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("events.channel", "gema")
	v.SetDefault("login.rate_limit", 5)
	v.SetDefault("login.rate_window", "1m")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("http.access_log", true)

	ttl, err := time.ParseDuration(v.GetString("jwt.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	window, err := time.ParseDuration(v.GetString("login.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate window: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		StorageDriver:   strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		DatabaseURL:     v.GetString("database.url"),
		SQLitePath:      v.GetString("sqlite.path"),
		RedisURL:        v.GetString("redis.url"),
		RedisKeyPrefix:  v.GetString("redis.key_prefix"),
		RosterKey:       v.GetString("roster.key"),
		SessionKey:      v.GetString("session.key"),
		TeacherUsername: v.GetString("teacher.username"),
		TeacherPassword: v.GetString("teacher.password"),
		JWTSecret:       v.GetString("jwt.secret"),
		JWTTTL:          ttl,
		NATSURL:         v.GetString("nats.url"),
		EventChannel:    v.GetString("events.channel"),
		LoginRateLimit:  v.GetInt("login.rate_limit"),
		LoginRateWindow: window,
		CORSOrigins:     v.GetString("cors.allow_origins"),
		AccessLog:       v.GetBool("http.access_log"),
	}

	switch cfg.StorageDriver {
	case StorageMemory:
	case StorageRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis url must be provided for the redis storage driver")
		}
	case StorageSQLite:
		if cfg.SQLitePath == "" {
			return Config{}, fmt.Errorf("sqlite path must be provided for the sqlite storage driver")
		}
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database url must be provided for the postgres storage driver")
		}
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 12 * time.Hour
	}

	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 5
	}

	return cfg, nil
}
