package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/qepting91/caption-importer/internal/domain"
)

// JSONStore keeps the catalog in a single JSON file. It is the fallback when
// no DATABASE_URL is configured.
type JSONStore struct {
	FilePath string
	mu       sync.RWMutex
	Data     catalogData
}

type catalogData struct {
	Products []domain.Product `json:"products"`
}

func NewJSONStore(filePath string) (*JSONStore, error) {
	s := &JSONStore{FilePath: filePath}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}
	if err := s.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) loadFromFile() error {
	file, err := os.ReadFile(s.FilePath)
	if err != nil {
		return err
	}
	return json.Unmarshal(file, &s.Data)
}

func (s *JSONStore) saveToFile() error {
	data, err := json.MarshalIndent(s.Data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.FilePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.FilePath)
}

func (s *JSONStore) CreateProducts(_ context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := len(s.Data.Products)
	s.Data.Products = append(s.Data.Products, products...)
	if err := s.saveToFile(); err != nil {
		s.Data.Products = s.Data.Products[:prev]
		return err
	}
	return nil
}

// ListProducts returns the newest products first.
func (s *JSONStore) ListProducts(_ context.Context, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.Data.Products)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []domain.Product{}
	}
	return out, nil
}
