package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/booking-backend/internal/models"
)

func TestReferenceRepository_Delete(t *testing.T) {
	t.Run("BlockedWhenReferenced", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewReferenceRepository(db, newTestExecutor())

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tours WHERE ship_id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		err := repo.Delete(context.Background(), models.ReferenceShip, 3)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrReferenced))
		assert.Equal(t, "cannot delete ship: used in 2 tours", err.Error())

		// no DELETE was issued
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AgentCountsBookingsAndLineItems", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewReferenceRepository(db, newTestExecutor())

		mock.ExpectQuery(`FROM bookings WHERE agent_id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.Delete(context.Background(), models.ReferenceAgent, 5)
		assert.Equal(t, "cannot delete agent: used in 1 bookings", err.Error())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnreferencedDeleteThenNotFound", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewReferenceRepository(db, newTestExecutor())

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tours WHERE location_id`).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`DELETE FROM locations WHERE id = \$1`).
			WithArgs(int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), models.ReferenceLocation, 9))

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tours WHERE location_id`).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`DELETE FROM locations WHERE id = \$1`).
			WithArgs(int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), models.ReferenceLocation, 9)
		assert.True(t, errors.Is(err, models.ErrEntityNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownKind", func(t *testing.T) {
		db, _ := setupTestDB(t)
		repo := NewReferenceRepository(db, newTestExecutor())

		err := repo.Delete(context.Background(), models.ReferenceKind("boats"), 1)
		assert.Error(t, err)
	})
}

func TestReferenceRepository_CreateAndRename(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewReferenceRepository(db, newTestExecutor())
	now := time.Now()
	cols := []string{"id", "name", "created_at", "updated_at"}

	mock.ExpectQuery(`INSERT INTO booking_agents`).
		WithArgs("Mariam").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "Mariam", now, now))

	item, err := repo.Create(context.Background(), models.ReferenceBookingAgent, "Mariam")
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)

	mock.ExpectQuery(`UPDATE booking_agents SET name = \$2`).
		WithArgs(int64(1), "Mariam K.").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "Mariam K.", now, now))

	item, err = repo.Rename(context.Background(), models.ReferenceBookingAgent, 1, "Mariam K.")
	require.NoError(t, err)
	assert.Equal(t, "Mariam K.", item.Name)

	mock.ExpectQuery(`UPDATE booking_agents SET name`).
		WithArgs(int64(2), "Nobody").
		WillReturnRows(sqlmock.NewRows(cols))

	_, err = repo.Rename(context.Background(), models.ReferenceBookingAgent, 2, "Nobody")
	assert.True(t, errors.Is(err, models.ErrEntityNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
