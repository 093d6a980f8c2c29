package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"webhook-dispatcher/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatchEventColumns() []string {
	return []string{"id", "event_type", "aggregate_type", "aggregate_id", "payload",
		"context_id", "correlation_id", "causation_id", "occurred_at"}
}

func TestEventRepo_GetUnprocessedForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock, 2*time.Minute)
	base := time.Now().UTC().Truncate(time.Microsecond)
	first, second := uuid.New(), uuid.New()
	corr := "corr-1"

	rows := pgxmock.NewRows(dispatchEventColumns()).
		AddRow(second, "order.shipped", "order", "o-2", []byte(`{"total":12}`), nil, nil, nil, base.Add(time.Second)).
		AddRow(first, "order.created", "order", "o-1", []byte(`{"total":10}`), nil, &corr, nil, base)

	mock.ExpectQuery("WITH claimed AS .+ FOR UPDATE SKIP LOCKED .+ UPDATE domain_events SET claimed_until").
		WithArgs(50, 120.0).
		WillReturnRows(rows)

	events, err := repo.GetUnprocessedForUpdate(context.Background(), 50, true, ports.ProjectionDispatch)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first, events[0].ID, "ordered by occurrence")
	assert.Equal(t, "corr-1", *events[0].CorrelationID)
	assert.Equal(t, float64(10), events[0].Payload["total"])
	assert.Nil(t, events[0].ProcessedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_GetUnprocessedForUpdate_NoSkipLocked(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock, 0)

	mock.ExpectQuery(`FOR UPDATE\s+\)`).
		WithArgs(10, DefaultClaimLease.Seconds()).
		WillReturnRows(pgxmock.NewRows(append(dispatchEventColumns(), "processed_at")))

	events, err := repo.GetUnprocessedForUpdate(context.Background(), 10, false, ports.ProjectionFull)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_GetUnprocessedForUpdate_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock, time.Minute)
	mock.ExpectQuery("WITH claimed AS").WillReturnError(errors.New("connection reset"))

	_, err = repo.GetUnprocessedForUpdate(context.Background(), 10, true, ports.ProjectionDispatch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claim unprocessed events")
}

func TestEventRepo_GetUnprocessedPaginated(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock, time.Minute)
	now := time.Now().UTC().Truncate(time.Microsecond)
	ctxID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM domain_events WHERE processed_at IS NULL .+ LIMIT").
		WithArgs(20, 40).
		WillReturnRows(pgxmock.NewRows(append(dispatchEventColumns(), "processed_at")).
			AddRow(uuid.New(), "user.deleted", "user", "u-1", nil, &ctxID, nil, nil, now, nil))

	events, err := repo.GetUnprocessedPaginated(context.Background(), 20, 40)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ctxID, *events[0].ContextID)
	assert.Nil(t, events[0].Payload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_MarkProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock, time.Minute)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	mock.ExpectExec("UPDATE domain_events SET processed_at = now").
		WithArgs(ids).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := repo.MarkProcessed(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "already processed rows are not counted")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_MarkProcessed_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := NewEventRepo(mock, time.Minute).MarkProcessed(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_CountUnprocessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1234)))

	n, err := NewEventRepo(mock, time.Minute).CountUnprocessed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT .+ FROM domain_events WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	e, err := NewEventRepo(mock, time.Minute).GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, e)
	assert.NoError(t, mock.ExpectationsWereMet())
}
