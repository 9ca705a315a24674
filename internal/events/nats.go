package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/qepting91/caption-importer/internal/domain"
)

// ProductImportedEvent is the payload published for every imported product.
type ProductImportedEvent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Price        int       `json:"price"`
	SourcePostID string    `json:"source_post_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("caption-importer"),
		nats.Timeout(2*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(60),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

func NewNATSPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject}
}

func (p *NATSPublisher) PublishProductImported(ctx context.Context, product domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeProductImported(product)
	if err != nil {
		return err
	}
	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Nats-Msg-Id", product.ID)
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func encodeProductImported(product domain.Product) ([]byte, error) {
	data, err := json.Marshal(ProductImportedEvent{
		ID:           product.ID,
		Name:         product.Name,
		Category:     product.Category,
		Price:        product.Price,
		SourcePostID: product.SourcePostID,
		CreatedAt:    product.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling error: %w", err)
	}
	return data, nil
}

// NopPublisher is used when no NATS_URL is configured.
type NopPublisher struct{}

func (NopPublisher) PublishProductImported(context.Context, domain.Product) error { return nil }
