package sale_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recogym/internal/apperr"
	"recogym/internal/db/dbtest"
	"recogym/internal/ledger"
	"recogym/internal/ledger/ledgertest"
	"recogym/internal/product"
	"recogym/internal/sale"
)

type fakeProducts struct {
	product.Repository
	rows map[int]product.Product
}

func (f *fakeProducts) WithTx(tx *sqlx.Tx) product.Repository { return f }

func (f *fakeProducts) Get(ctx context.Context, id int) (*product.Product, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("product %d not found", id)
	}
	return &p, nil
}

type fakeSales struct {
	next      int
	nextItem  int
	sales     map[int]sale.Sale
	items     []sale.Item
	insertErr error
}

func newFakeSales() *fakeSales {
	return &fakeSales{sales: map[int]sale.Sale{}}
}

func (f *fakeSales) WithTx(tx *sqlx.Tx) sale.Repository { return f }

func (f *fakeSales) Insert(ctx context.Context, s *sale.Sale) (*sale.Sale, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.next++
	row := *s
	row.ID = f.next
	row.CreatedAt = time.Now()
	f.sales[row.ID] = row
	return &row, nil
}

func (f *fakeSales) InsertItem(ctx context.Context, item *sale.Item) (*sale.Item, error) {
	f.nextItem++
	row := *item
	row.ID = f.nextItem
	f.items = append(f.items, row)
	return &row, nil
}

func (f *fakeSales) Get(ctx context.Context, id int) (*sale.Sale, error) {
	s, ok := f.sales[id]
	if !ok {
		return nil, apperr.NotFound("sale %d not found", id)
	}
	return &s, nil
}

func (f *fakeSales) Items(ctx context.Context, saleID int) ([]sale.Item, error) {
	out := []sale.Item{}
	for _, it := range f.items {
		if it.SaleID == saleID {
			out = append(out, it)
		}
	}
	return out, nil
}

type fixture struct {
	sales   *fakeSales
	entries *ledgertest.Store
	svc     sale.Service
}

func newFixture() *fixture {
	f := &fixture{sales: newFakeSales(), entries: ledgertest.NewStore()}
	products := &fakeProducts{rows: map[int]product.Product{
		1: {ID: 1, Name: "Agua", Price: decimal.NewFromInt(15), Active: true},
		2: {ID: 2, Name: "Proteína", Price: decimal.RequireFromString("45.50"), Active: true},
		3: {ID: 3, Name: "Toalla", Price: decimal.NewFromInt(80), Active: false},
	}}
	f.svc = sale.NewService(&dbtest.Transactor{}, f.sales, products, f.entries, "ReCo Gym")
	return f
}

func id(v int) *int { return &v }

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestRegisterSale(t *testing.T) {
	ctx := context.Background()

	t.Run("total is the sum of subtotals and one ledger entry is linked", func(t *testing.T) {
		f := newFixture()

		receipt, err := f.svc.RegisterSale(ctx, sale.RegisterRequest{
			PaymentMethod: "cash",
			ClientName:    "Luis",
			Items: []sale.ItemRequest{
				{ProductID: id(1), Quantity: 2, UnitPrice: price("15.00")},
				{ProductID: id(2), Quantity: 1, UnitPrice: price("45.50")},
			},
		})
		require.NoError(t, err)

		s := receipt.Sale
		assert.True(t, s.Total.Equal(decimal.RequireFromString("75.50")), s.Total.String())
		require.Len(t, s.Items, 2)
		assert.True(t, s.Items[0].Subtotal.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, s.ID, s.Items[0].SaleID)

		entries := f.entries.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, ledger.TypeProductSale, entries[0].Type)
		assert.True(t, entries[0].Amount.Equal(s.Total))
		require.NotNil(t, entries[0].SaleID)
		assert.Equal(t, s.ID, *entries[0].SaleID)
		assert.Equal(t, "Venta #1 Luis", entries[0].Description)
	})

	t.Run("invalid items are skipped", func(t *testing.T) {
		f := newFixture()

		receipt, err := f.svc.RegisterSale(ctx, sale.RegisterRequest{
			PaymentMethod: "card",
			Items: []sale.ItemRequest{
				{ProductID: nil, Quantity: 1, UnitPrice: price("10")},
				{ProductID: id(1), Quantity: 0, UnitPrice: price("10")},
				{ProductID: id(1), Quantity: 1, UnitPrice: price("-1")},
				{ProductID: id(1), Quantity: 3, UnitPrice: price("10")},
			},
		})
		require.NoError(t, err)
		require.Len(t, receipt.Sale.Items, 1)
		assert.True(t, receipt.Sale.Total.Equal(decimal.NewFromInt(30)))
	})

	t.Run("missing unit price uses the catalogue price", func(t *testing.T) {
		f := newFixture()

		receipt, err := f.svc.RegisterSale(ctx, sale.RegisterRequest{
			PaymentMethod: "cash",
			Items:         []sale.ItemRequest{{ProductID: id(2), Quantity: 2}},
		})
		require.NoError(t, err)
		assert.True(t, receipt.Sale.Total.Equal(decimal.NewFromInt(91)))
	})
}

func TestRegisterSaleRejections(t *testing.T) {
	tests := []struct {
		name    string
		req     sale.RegisterRequest
		wantErr error
	}{
		{
			name:    "no items",
			req:     sale.RegisterRequest{PaymentMethod: "cash"},
			wantErr: apperr.ErrValidation,
		},
		{
			name: "only invalid items",
			req: sale.RegisterRequest{PaymentMethod: "cash", Items: []sale.ItemRequest{
				{ProductID: id(1), Quantity: -2},
			}},
			wantErr: apperr.ErrValidation,
		},
		{
			name: "missing payment method",
			req: sale.RegisterRequest{Items: []sale.ItemRequest{
				{ProductID: id(1), Quantity: 1},
			}},
			wantErr: apperr.ErrValidation,
		},
		{
			name: "unknown product",
			req: sale.RegisterRequest{PaymentMethod: "cash", Items: []sale.ItemRequest{
				{ProductID: id(1), Quantity: 1},
				{ProductID: id(99), Quantity: 1},
			}},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "inactive product",
			req: sale.RegisterRequest{PaymentMethod: "cash", Items: []sale.ItemRequest{
				{ProductID: id(3), Quantity: 1},
			}},
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.svc.RegisterSale(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.sales.sales)
			assert.Equal(t, 0, f.entries.Len())
		})
	}
}

func TestRegisterSaleStoreFailure(t *testing.T) {
	f := newFixture()
	f.sales.insertErr = errors.New("db down")

	_, err := f.svc.RegisterSale(context.Background(), sale.RegisterRequest{
		PaymentMethod: "cash",
		Items:         []sale.ItemRequest{{ProductID: id(1), Quantity: 1}},
	})

	assert.Error(t, err)
	assert.Equal(t, 0, f.entries.Len())
}

func TestGetAndTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	receipt, err := f.svc.RegisterSale(ctx, sale.RegisterRequest{
		PaymentMethod: "cash",
		ClientName:    "Peña",
		Observation:   "Pagó con billete grande",
		Items:         []sale.ItemRequest{{ProductID: id(2), Quantity: 1}},
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, receipt.Sale.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	pdf, err := f.svc.Ticket(ctx, receipt.Sale.ID)
	require.NoError(t, err)
	assert.True(t, len(pdf) > 4)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	_, err = f.svc.Ticket(ctx, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
