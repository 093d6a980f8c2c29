package postgres

import (
	"context"
	"io"
	"testing"
	"time"

	"webhook-dispatcher/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableDB() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "testuser",
		Password:       "testpass",
		DBName:         "testdb",
		SSLMode:        "disable",
		MaxConns:       2,
		MinConns:       0,
		ConnectTimeout: 300 * time.Millisecond,
	}
}

func TestNewPool_InvalidConfig(t *testing.T) {
	cfg := unreachableDB()
	cfg.SSLMode = "sometimes"

	_, err := NewPool(context.Background(), cfg, zerolog.New(io.Discard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing database config")
}

func TestNewPool_GivesUpAfterConnectTimeout(t *testing.T) {
	start := time.Now()
	_, err := NewPool(context.Background(), unreachableDB(), zerolog.New(io.Discard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinging database")
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestMigrate_UnreachableDatabase(t *testing.T) {
	err := Migrate(context.Background(), unreachableDB().DSN(), MigrateUp, zerolog.New(io.Discard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping migrations database")
}

// Applying migrations against a live PostgreSQL is covered by the
// integration build tag.
