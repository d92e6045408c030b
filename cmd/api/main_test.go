package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-roster-api/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		AppName:         "Roster Test",
		AppPort:         "8080",
		StorageDriver:   config.StorageMemory,
		TeacherUsername: "guru",
		TeacherPassword: "123456",
		JWTSecret:       "secret",
		JWTTTL:          time.Hour,
		LoginRateLimit:  5,
		LoginRateWindow: time.Minute,
		CORSOrigins:     "*",
	}
}

func TestRunReturnsStorageErrors(t *testing.T) {
	cfg := testConfig()
	cfg.StorageDriver = "cassandra"

	err := run(context.Background(), cfg, zerolog.Nop())
	require.ErrorContains(t, err, "open cassandra storage")
}

func TestRunReturnsListenErrors(t *testing.T) {
	cfg := testConfig()
	cfg.AppPort = "not-a-port"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx, cfg, zerolog.Nop())
	require.ErrorContains(t, err, "start server")
}
