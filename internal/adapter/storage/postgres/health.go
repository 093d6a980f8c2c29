package postgres

import (
	"context"
	"errors"
	"fmt"
)

// ErrSchemaMissing is reported when the database answers but the outbox
// table does not exist yet.
var ErrSchemaMissing = errors.New("schema not migrated")

// HealthCheck implements ports.HealthChecker for PostgreSQL. It also verifies
// that migrations have been applied.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping checks connectivity and the presence of the outbox table.
func (h *HealthCheck) Ping(ctx context.Context) error {
	var present bool
	if err := h.pool.QueryRow(ctx, `SELECT to_regclass('domain_events') IS NOT NULL`).Scan(&present); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	if !present {
		return ErrSchemaMissing
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
