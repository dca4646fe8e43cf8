package product

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recogym/internal/apperr"
)

var productRowColumns = []string{"id", "name", "price", "active", "created_at"}

func setupMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return sqlxDB, mock, func() { sqlxDB.Close() }
}

func TestService_Create(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()
	svc := NewService(NewRepository(conn))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products (name, price, active)")).
		WithArgs("Agua 600ml", sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows(productRowColumns).AddRow(1, "Agua 600ml", "15.00", true, time.Now()))

	p, err := svc.Create(context.Background(), ProductRequest{Name: "  Agua 600ml ", Price: decimal.NewFromInt(15)})
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(15)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateRejects(t *testing.T) {
	svc := NewService(nil)

	tests := []struct {
		name string
		req  ProductRequest
	}{
		{name: "missing name", req: ProductRequest{Price: decimal.NewFromInt(1)}},
		{name: "negative price", req: ProductRequest{Name: "Agua", Price: decimal.NewFromInt(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestRepository_List(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()
	repo := NewRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE ($1 OR active) ORDER BY name, id")).
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(1, "Agua", "15.00", true, time.Now()).
			AddRow(2, "Barra", "30.00", true, time.Now()))

	products, err := repo.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetNotFound(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	_, err := NewRepository(conn).Get(context.Background(), 5)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_UpdateMissing(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()

	inactive := false
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products SET name = $2, price = $3, active = $4")).
		WithArgs(5, "Agua", sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	_, err := NewService(NewRepository(conn)).Update(context.Background(), 5,
		ProductRequest{Name: "Agua", Price: decimal.NewFromInt(15), Active: &inactive})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
