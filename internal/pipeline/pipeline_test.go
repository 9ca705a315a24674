package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/qepting91/caption-importer/internal/caption"
	"github.com/qepting91/caption-importer/internal/domain"
	"github.com/qepting91/caption-importer/internal/metrics"
	"github.com/qepting91/caption-importer/internal/storage"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubCollector struct {
	posts []domain.SourcePost
	err   error
	limit int
}

func (s *stubCollector) FetchRecentPosts(ctx context.Context, limit int) ([]domain.SourcePost, error) {
	s.limit = limit
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("expected a deadline on the fetch context")
	}
	return s.posts, s.err
}

func image(id, text string) domain.SourcePost {
	return domain.SourcePost{ID: id, MediaKind: domain.MediaKindImage, MediaURL: "https://cdn/" + id + ".jpg", Caption: text}
}

func TestAssembleFiltersAndKeepsOrder(t *testing.T) {
	posts := []domain.SourcePost{
		image("1", "Pink kurti ₹999"),
		{ID: "2", MediaKind: domain.MediaKindVideo, Caption: "Lehenga ₹4999"},
		image("3", "Sunset"),
		image("4", "Beautiful kurti available now"),
		{ID: "5", MediaKind: domain.MediaKindCarouselAlbum, Caption: "Set ₹1599"},
		image("6", "Navy co-ord Rs. 1,450"),
		image("1", "Pink kurti ₹999"),
	}
	a := &Assembler{Parser: caption.NewParser(nil), Workers: 3, Metrics: metrics.NewPipelineMetrics("test")}

	got := a.Assemble(posts)
	var ids []string
	for _, c := range got {
		ids = append(ids, c.Post.ID)
		if len(c.Draft.Images) != 1 || c.Draft.Images[0] != c.Post.MediaURL {
			t.Fatalf("draft images %v do not match media url %s", c.Draft.Images, c.Post.MediaURL)
		}
	}
	if fmt.Sprint(ids) != "[1 6 1]" {
		t.Fatalf("ids = %v, want [1 6 1]", ids)
	}
}

func TestAssembleManyPostsPreservesOrder(t *testing.T) {
	var posts []domain.SourcePost
	for i := 0; i < 100; i++ {
		posts = append(posts, image(fmt.Sprint(i), fmt.Sprintf("Item %d\n₹%d", i, i+1)))
	}
	got := (&Assembler{Parser: caption.NewParser(nil), Workers: 8}).Assemble(posts)
	if len(got) != 100 {
		t.Fatalf("expected 100 candidates, got %d", len(got))
	}
	for i, c := range got {
		if c.Draft.Price != i+1 {
			t.Fatalf("candidate %d has price %d", i, c.Draft.Price)
		}
	}
}

func TestAssembleEmpty(t *testing.T) {
	if got := (&Assembler{Parser: caption.NewParser(nil)}).Assemble(nil); len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
}

func TestRefreshPropagatesFetchError(t *testing.T) {
	stub := &stubCollector{err: domain.WrapError(domain.ErrUpstreamFetch, "stub", errors.New("down"))}
	r := &Refresher{Collector: stub, Assembler: &Assembler{Parser: caption.NewParser(nil)}, Timeout: time.Second}

	got, err := r.Refresh(context.Background(), 20)
	if !errors.Is(err, domain.ErrUpstreamFetch) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no candidates on failure, got %v", got)
	}
}

func TestRefreshWritesHistory(t *testing.T) {
	stub := &stubCollector{posts: []domain.SourcePost{image("a", "Kurti ₹500"), image("b", "hello")}}
	history := make(chan storage.Record, 4)
	r := &Refresher{
		Collector: stub,
		Assembler: &Assembler{Parser: caption.NewParser(nil)},
		Timeout:   time.Second,
		History:   history,
	}

	got, err := r.Refresh(context.Background(), 7)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if stub.limit != 7 {
		t.Fatalf("limit = %d, want 7", stub.limit)
	}
	if len(got) != 1 || got[0].Post.ID != "a" {
		t.Fatalf("unexpected candidates %+v", got)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history))
	}
	if rec := <-history; rec.Post.ID != "a" || rec.FetchedAt.IsZero() {
		t.Fatalf("unexpected history record %+v", rec)
	}
}

func TestAssembleBuildsFullCandidate(t *testing.T) {
	post := image("42", "Red Anarkali Suit\nFloral anarkali with dupatta\nPrice: ₹1,999 ₹2,999\nSizes: S, M, XL\n#anarkali")
	got := (&Assembler{Parser: caption.NewParser(nil), Workers: 2}).Assemble([]domain.SourcePost{post})

	original := 2999
	want := []domain.Candidate{{
		Post: post,
		Draft: domain.ProductDraft{
			Name:          "Red Anarkali Suit",
			Description:   "Red Anarkali Suit Floral anarkali with dupatta Sizes: S, M, XL",
			Price:         1999,
			OriginalPrice: &original,
			Category:      "Anarkali Sets",
			Sizes:         []string{"S", "M", "XL"},
			Colors:        []string{"Red"},
			Images:        []string{post.MediaURL},
			Hashtags:      []string{"#anarkali"},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Assemble() mismatch (-want +got):\n%s", diff)
	}
}

type blockingCollector struct {
	started chan struct{}
	release chan struct{}
	posts   []domain.SourcePost
}

func (b *blockingCollector) FetchRecentPosts(ctx context.Context, _ int) ([]domain.SourcePost, error) {
	close(b.started)
	select {
	case <-b.release:
		return b.posts, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCloseWaitsForRunningRefresh(t *testing.T) {
	c := &blockingCollector{
		started: make(chan struct{}),
		release: make(chan struct{}),
		posts:   []domain.SourcePost{image("a", "Kurti ₹500")},
	}
	history := make(chan storage.Record, 4)
	r := &Refresher{Collector: c, Assembler: &Assembler{Parser: caption.NewParser(nil)}, History: history}

	done := make(chan error, 1)
	go func() {
		_, err := r.Refresh(context.Background(), 5)
		done <- err
	}()
	<-c.started

	closed := make(chan struct{})
	go func() {
		r.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatalf("Close returned while a refresh was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(c.release)
	if err := <-done; err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	<-closed

	var n int
	for range history {
		n++
	}
	if n != 1 {
		t.Fatalf("expected the running refresh to deliver 1 record, got %d", n)
	}

	if _, err := r.Refresh(context.Background(), 5); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
	r.Close()
}
