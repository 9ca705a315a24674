package catalog

import (
	"context"

	"github.com/qepting91/caption-importer/internal/domain"
)

// Store persists imported products.
type Store interface {
	CreateProducts(ctx context.Context, products []domain.Product) error
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*JSONStore)(nil)
)
