package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/qepting91/caption-importer/internal/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price INTEGER NOT NULL CHECK (price > 0),
	original_price INTEGER,
	images JSONB NOT NULL DEFAULT '[]'::jsonb,
	category TEXT NOT NULL,
	sizes JSONB NOT NULL DEFAULT '[]'::jsonb,
	colors JSONB NOT NULL DEFAULT '[]'::jsonb,
	stock INTEGER NOT NULL DEFAULT 0,
	featured BOOLEAN NOT NULL DEFAULT FALSE,
	source_post_id TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC);
`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure products schema: %w", err)
	}
	return nil
}

// CreateProducts inserts the whole batch in one transaction.
func (s *PostgresStore) CreateProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, p := range products {
		images, sizes, colors, err := marshalLists(p)
		if err != nil {
			return fmt.Errorf("encode product %s: %w", p.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO products (id, name, description, price, original_price, images, category, sizes, colors, stock, featured, source_post_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`, p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, images, p.Category, sizes, colors, p.Stock, p.Featured, p.SourcePostID, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, description, price, original_price, images, category, sizes, colors, stock, featured, source_post_id, created_at
FROM products
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

type productScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row productScanner) (domain.Product, error) {
	var (
		p                     domain.Product
		original              sql.NullInt64
		sourcePostID          sql.NullString
		images, sizes, colors []byte
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&original,
		&images,
		&p.Category,
		&sizes,
		&colors,
		&p.Stock,
		&p.Featured,
		&sourcePostID,
		&p.CreatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	if original.Valid {
		v := int(original.Int64)
		p.OriginalPrice = &v
	}
	p.SourcePostID = sourcePostID.String
	for _, f := range []struct {
		raw []byte
		dst *[]string
	}{{images, &p.Images}, {sizes, &p.Sizes}, {colors, &p.Colors}} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return domain.Product{}, err
		}
	}
	return p, nil
}

func marshalLists(p domain.Product) (images, sizes, colors []byte, err error) {
	if images, err = json.Marshal(nonNil(p.Images)); err != nil {
		return
	}
	if sizes, err = json.Marshal(nonNil(p.Sizes)); err != nil {
		return
	}
	colors, err = json.Marshal(nonNil(p.Colors))
	return
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
