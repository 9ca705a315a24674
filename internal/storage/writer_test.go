package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/qepting91/caption-importer/internal/domain"
)

func TestWriterAppendsAndLoadHistoryReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "drafts.ndjson")
	w := &WriterService{FilePath: path}

	for round := 0; round < 2; round++ {
		input := make(chan Record, 2)
		var wg sync.WaitGroup
		wg.Add(1)
		go w.Start(&wg, input)

		input <- Record{
			FetchedAt: time.Now().UTC(),
			Candidate: domain.Candidate{
				Post:  domain.SourcePost{ID: "p1"},
				Draft: domain.ProductDraft{Name: "Kurti", Price: 999, Category: "Kurtis"},
			},
		}
		close(input)
		wg.Wait()
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("not json\n")
	f.Close()

	records := LoadHistory(path)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Post.ID != "p1" || records[1].Draft.Price != 999 {
		t.Fatalf("unexpected record %+v", records[1])
	}
}

func TestLoadHistoryMissingFile(t *testing.T) {
	if got := LoadHistory(filepath.Join(t.TempDir(), "nope.ndjson")); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
