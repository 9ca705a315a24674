package review

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/qepting91/caption-importer/internal/catalog"
	"github.com/qepting91/caption-importer/internal/domain"
	"github.com/qepting91/caption-importer/internal/metrics"
)

const defaultStock = 10

type Publisher interface {
	PublishProductImported(ctx context.Context, product domain.Product) error
}

// Importer turns the selected drafts of a session into catalog products.
type Importer struct {
	Session   *Session
	Store     catalog.Store
	Publisher Publisher
	Metrics   *metrics.PipelineMetrics
	Logger    *slog.Logger

	Now   func() time.Time
	NewID func() string
}

// ImportSelected stores all selected drafts as one batch. The session is
// cleared only after the store accepted the batch.
func (im *Importer) ImportSelected(ctx context.Context) ([]domain.Product, error) {
	logger := im.Logger
	if logger == nil {
		logger = slog.Default()
	}

	selected, gen := im.Session.Selected()
	if len(selected) == 0 {
		return nil, domain.ErrNothingSelected
	}

	now := time.Now
	if im.Now != nil {
		now = im.Now
	}
	newID := uuid.NewString
	if im.NewID != nil {
		newID = im.NewID
	}

	createdAt := now().UTC()
	products := make([]domain.Product, 0, len(selected))
	for _, it := range selected {
		products = append(products, productFromDraft(newID(), it, createdAt))
	}

	if err := im.Store.CreateProducts(ctx, products); err != nil {
		return nil, fmt.Errorf("import drafts: %w", err)
	}
	im.Metrics.AddImported(len(products))

	if im.Publisher != nil {
		for _, p := range products {
			// products are already stored; a lost event is logged, not fatal
			if err := im.Publisher.PublishProductImported(ctx, p); err != nil {
				logger.Warn("Import event not published", "product_id", p.ID, "err", err)
			}
		}
	}

	if !im.Session.ClearGeneration(gen) {
		logger.Info("Session reloaded during import; keeping new drafts")
	}
	logger.Info("Imported drafts", "count", len(products))
	return products, nil
}

func productFromDraft(id string, it Item, createdAt time.Time) domain.Product {
	d := it.Draft
	return domain.Product{
		ID:            id,
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		OriginalPrice: d.OriginalPrice,
		Images:        slices.Clone(d.Images),
		Category:      d.Category,
		Sizes:         slices.Clone(d.Sizes),
		Colors:        slices.Clone(d.Colors),
		Stock:         defaultStock,
		Featured:      false,
		SourcePostID:  it.Post.ID,
		CreatedAt:     createdAt,
	}
}
