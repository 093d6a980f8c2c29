package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func endpointColumns() []string {
	return []string{"id", "context_id", "url", "method", "secret_enc", "signature_header", "headers", "timeout_seconds",
		"is_active", "is_verified", "max_attempts", "base_backoff_seconds", "backoff_multiplier",
		"rate_limit_per_second", "last_used_at", "deleted_at", "created_at", "updated_at"}
}

func TestEndpointRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEndpointRepo(mock)
	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)
	maxAttempts := 7

	mock.ExpectQuery("SELECT .+ FROM webhook_endpoints WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(endpointColumns()).AddRow(
			id, nil, "https://hooks.example.com/in", "POST", "sealed", "X-Webhook-Signature",
			[]byte(`{"X-Team":"billing"}`), 30, true, true, &maxAttempts, nil, nil,
			5.0, nil, nil, now, now,
		))

	e, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "https://hooks.example.com/in", e.URL)
	assert.Equal(t, "billing", e.Headers["X-Team"])
	assert.Equal(t, 7, *e.MaxAttempts)
	assert.Nil(t, e.BaseBackoffSeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEndpointRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("FROM webhook_endpoints").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	e, err := NewEndpointRepo(mock).GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestEndpointRepo_UpdateLastUsed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	at := time.Now().UTC()
	mock.ExpectExec("UPDATE webhook_endpoints SET last_used_at .+ last_used_at < ").
		WithArgs(at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.NoError(t, NewEndpointRepo(mock).UpdateLastUsed(context.Background(), id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
