package trainer

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recogym/internal/apperr"
)

var trainerRowColumns = []string{"id", "code", "name", "specialty", "phone", "hired_on", "salary", "created_at"}

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return NewRepository(sqlxDB), mock, func() { sqlxDB.Close() }
}

func TestRepository_Create(t *testing.T) {
	repo, mock, closeFn := setupMock(t)
	defer closeFn()

	hired := time.Date(2023, 1, 10, 0, 0, 0, 0, time.Local)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO trainers (code, name, specialty, phone, hired_on, salary)")).
		WithArgs("E01", "Carla", "Yoga", "", hired, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(trainerRowColumns).
			AddRow(1, "E01", "Carla", "Yoga", "", hired, "9000.00", time.Now()))

	created, err := repo.Create(context.Background(), &Trainer{
		Code: "E01", Name: "Carla", Specialty: "Yoga", HiredOn: hired, Salary: decimal.NewFromInt(9000),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.True(t, created.Salary.Equal(decimal.NewFromInt(9000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateDuplicate(t *testing.T) {
	repo, mock, closeFn := setupMock(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO trainers")).WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &Trainer{Code: "E01"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRepository_GetNotFound(t *testing.T) {
	repo, mock, closeFn := setupMock(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta("FROM trainers WHERE id = $1")).
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows(trainerRowColumns))

	_, err := repo.Get(context.Background(), 8)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	repo, mock, closeFn := setupMock(t)
	defer closeFn()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trainers WHERE id = $1")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trainers WHERE id = $1")).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
