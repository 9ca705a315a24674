package storage

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/qepting91/caption-importer/internal/domain"
)

// Record is one line of the draft history file.
type Record struct {
	FetchedAt time.Time `json:"fetched_at"`
	domain.Candidate
}

// WriterService implements the Monitor Pattern for thread safety: it is the
// only goroutine touching the history file.
type WriterService struct {
	FilePath string
	Logger   *slog.Logger
}

func (w *WriterService) Start(wg *sync.WaitGroup, input <-chan Record) {
	defer wg.Done()
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(w.FilePath), 0o755); err != nil {
		logger.Error("history dir unavailable", "path", w.FilePath, "err", err)
		drain(input)
		return
	}
	f, err := os.OpenFile(w.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.Error("history file unavailable", "path", w.FilePath, "err", err)
		drain(input)
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)

	for rec := range input {
		// Write as NDJSON
		if err := enc.Encode(rec); err != nil {
			logger.Error("history write failed", "post_id", rec.Post.ID, "err", err)
		}
	}
}

// drain keeps producers from blocking when the file cannot be opened.
func drain(input <-chan Record) {
	for range input {
	}
}

// LoadHistory reads every decodable record; malformed lines are skipped and
// a missing file yields no records.
func LoadHistory(path string) []Record {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err == nil {
			records = append(records, r)
		}
	}
	return records
}
