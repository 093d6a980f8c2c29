package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Ping(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(m pgxmock.PgxPoolIface)
		wantErr error
		errText string
	}{
		{
			name: "migrated",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery("to_regclass").WillReturnRows(pgxmock.NewRows([]string{"present"}).AddRow(true))
			},
		},
		{
			name: "schema missing",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery("to_regclass").WillReturnRows(pgxmock.NewRows([]string{"present"}).AddRow(false))
			},
			wantErr: ErrSchemaMissing,
		},
		{
			name: "unreachable",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery("to_regclass").WillReturnError(errors.New("dial tcp: refused"))
			},
			errText: "postgres ping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setup(mock)

			hc := NewHealthCheck(mock)
			assert.Equal(t, "postgresql", hc.Name())

			err = hc.Ping(context.Background())
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
