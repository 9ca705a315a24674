package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/qepting91/caption-importer/internal/domain"
)

func sampleProducts() []domain.Product {
	orig := 1899
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Product{
		{ID: "p-1", Name: "Kurti", Price: 1299, OriginalPrice: &orig, Images: []string{"https://cdn/1.jpg"}, Category: "Kurtis", Sizes: []string{"M"}, Colors: []string{"Mustard"}, Stock: 10, SourcePostID: "ig-1", CreatedAt: now},
		{ID: "p-2", Name: "Saree", Price: 2450, Category: "Pure Cottons", Stock: 10, CreatedAt: now},
	}
}

func TestPostgresStoreCreateProductsCommitsBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	products := sampleProducts()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO products").
		WithArgs("p-1", "Kurti", "", 1299, 1899, []byte(`["https://cdn/1.jpg"]`), "Kurtis", []byte(`["M"]`), []byte(`["Mustard"]`), 10, false, "ig-1", products[0].CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO products").
		WithArgs("p-2", "Saree", "", 2450, nil, []byte(`[]`), "Pure Cottons", []byte(`[]`), []byte(`[]`), 10, false, "", products[1].CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewPostgresStore(db).CreateProducts(context.Background(), products); err != nil {
		t.Fatalf("CreateProducts() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStoreCreateProductsRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO products").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO products").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err = NewPostgresStore(db).CreateProducts(context.Background(), sampleProducts())
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStoreListProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	cols := []string{"id", "name", "description", "price", "original_price", "images", "category", "sizes", "colors", "stock", "featured", "source_post_id", "created_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("p-1", "Kurti", "Soft rayon", 1299, 1899, []byte(`["a.jpg"]`), "Kurtis", []byte(`["M","L"]`), []byte(`["Red"]`), 10, false, "ig-1", time.Now()).
		AddRow("p-2", "Saree", "", 2450, nil, []byte(`[]`), "Pure Cottons", []byte(`[]`), []byte(`[]`), 3, true, nil, time.Now())
	mock.ExpectQuery("FROM products").WithArgs(100).WillReturnRows(rows)

	got, err := NewPostgresStore(db).ListProducts(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	if got[0].OriginalPrice == nil || *got[0].OriginalPrice != 1899 || len(got[0].Sizes) != 2 {
		t.Fatalf("unexpected first product %+v", got[0])
	}
	if got[1].OriginalPrice != nil || got[1].SourcePostID != "" || !got[1].Featured {
		t.Fatalf("unexpected second product %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStoreEmptyBatchIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	if err := NewPostgresStore(db).CreateProducts(context.Background(), nil); err != nil {
		t.Fatalf("CreateProducts() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
