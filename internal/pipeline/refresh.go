package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qepting91/caption-importer/internal/domain"
	"github.com/qepting91/caption-importer/internal/metrics"
	"github.com/qepting91/caption-importer/internal/storage"
)

// ErrClosed is returned by Refresh once Close has been called.
var ErrClosed = errors.New("refresher closed")

// Refresher runs one fetch-and-parse cycle per call.
type Refresher struct {
	Collector domain.Collector
	Assembler *Assembler
	Timeout   time.Duration

	// History receives every produced candidate when set. The Refresher owns
	// the channel from then on and closes it in Close.
	History chan<- storage.Record
	Metrics *metrics.PipelineMetrics
	Logger  *slog.Logger

	mu        sync.Mutex
	closed    bool
	inflight  sync.WaitGroup
	closeOnce sync.Once
}

// Close rejects new refreshes, waits for running ones to deliver their
// history records and then closes History.
func (r *Refresher) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		r.inflight.Wait()
		if r.History != nil {
			close(r.History)
		}
	})
}

// Refresh either returns the full candidate list or an error; a failed fetch
// never degrades into an empty result.
func (r *Refresher) Refresh(ctx context.Context, limit int) ([]domain.Candidate, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.inflight.Add(1)
	r.mu.Unlock()
	defer r.inflight.Done()

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	posts, err := r.Collector.FetchRecentPosts(ctx, limit)
	r.Metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		logger.Error("Fetch failed", "err", err, "duration", time.Since(start))
		return nil, fmt.Errorf("refresh: %w", err)
	}

	candidates := r.Assembler.Assemble(posts)
	logger.Info("Refresh complete", "posts", len(posts), "drafts", len(candidates))

	if r.History != nil {
		now := time.Now().UTC()
		for _, c := range candidates {
			r.History <- storage.Record{FetchedAt: now, Candidate: c}
		}
	}
	return candidates, nil
}
