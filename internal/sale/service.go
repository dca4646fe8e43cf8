// Package sale registers front-desk product sales. Each sale is written with
// its line items and exactly one product_sale ledger entry.
package sale

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"recogym/internal/apperr"
	"recogym/internal/db"
	"recogym/internal/ledger"
	"recogym/internal/logger"
	"recogym/internal/metrics"
	"recogym/internal/product"
	"recogym/internal/validate"
)

type Service interface {
	RegisterSale(ctx context.Context, req RegisterRequest) (*Receipt, error)
	Get(ctx context.Context, id int) (*Sale, error)
	Ticket(ctx context.Context, id int) ([]byte, error)
}

type service struct {
	tx       db.Transactor
	repo     Repository
	products product.Repository
	entries  ledger.Repository
	gymName  string
}

func NewService(tx db.Transactor, repo Repository, products product.Repository, entries ledger.Repository, gymName string) Service {
	return &service{
		tx:       tx,
		repo:     repo,
		products: products,
		entries:  entries,
		gymName:  gymName,
	}
}

func (s *service) RegisterSale(ctx context.Context, req RegisterRequest) (*Receipt, error) {
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	req.ClientName = validate.Text(req.ClientName)
	req.Observation = validate.Text(req.Observation)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var lines []ItemRequest
	for _, item := range req.Items {
		if item.usable() {
			lines = append(lines, item)
		}
	}
	if len(lines) == 0 {
		return nil, apperr.Validation("a sale needs at least one valid item")
	}
	if skipped := len(req.Items) - len(lines); skipped > 0 {
		logger.Debug("sale items skipped", "skipped", skipped)
	}

	receipt := &Receipt{}
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		products := s.products.WithTx(tx)

		items := make([]Item, 0, len(lines))
		total := decimal.Zero
		for _, line := range lines {
			p, err := products.Get(ctx, *line.ProductID)
			if err != nil {
				return err
			}
			if !p.Active {
				return apperr.Validation("product %q is not for sale", p.Name)
			}

			price := p.Price
			if line.UnitPrice != nil {
				price = line.UnitPrice.Round(2)
			}
			subtotal := price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			total = total.Add(subtotal)

			items = append(items, Item{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   price,
				Subtotal:    subtotal,
			})
		}

		sale, err := repo.Insert(ctx, &Sale{
			PaymentMethod: req.PaymentMethod,
			ClientName:    req.ClientName,
			Observation:   req.Observation,
			Total:         total,
		})
		if err != nil {
			return err
		}

		for i := range items {
			items[i].SaleID = sale.ID
			created, err := repo.InsertItem(ctx, &items[i])
			if err != nil {
				return err
			}
			items[i] = *created
		}
		sale.Items = items
		receipt.Sale = sale

		description := fmt.Sprintf("Venta #%d", sale.ID)
		if sale.ClientName != "" {
			description += " " + sale.ClientName
		}
		receipt.LedgerEntry, err = ledger.Append(ctx, s.entries.WithTx(tx), ledger.NewEntry{
			Type:          ledger.TypeProductSale,
			Amount:        total,
			PaymentMethod: req.PaymentMethod,
			Description:   description,
			SaleID:        ledger.IntPtr(sale.ID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	ledger.Observe(receipt.LedgerEntry)
	metrics.RecordSale(receipt.Sale.PaymentMethod)
	logger.Info("sale registered",
		"sale_id", receipt.Sale.ID,
		"items", len(receipt.Sale.Items),
		"total", receipt.Sale.Total.StringFixed(2),
	)

	return receipt, nil
}

// Get returns the sale with its line items.
func (s *service) Get(ctx context.Context, id int) (*Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Items, err = s.repo.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *service) Ticket(ctx context.Context, id int) ([]byte, error) {
	sale, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderTicket(s.gymName, sale)
}
