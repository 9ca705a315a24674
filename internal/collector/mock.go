package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/qepting91/caption-importer/internal/domain"
)

var mockCaptions = []struct {
	kind    domain.MediaKind
	caption string
}{
	{domain.MediaKindImage, "Mustard Kurti Set ✨\nSoft rayon with mirror work\nSize: M, L, XL\n₹1,299 ₹1,899\n#kurti #festive"},
	{domain.MediaKindImage, "Handloom cotton saree\nRs. 2450\nDM to order"},
	{domain.MediaKindVideo, "Reel: styling our lehenga ₹4999"},
	{domain.MediaKindImage, "Behind the scenes at the studio"},
	{domain.MediaKindImage, "New arrivals available now, stay tuned!"},
	{domain.MediaKindCarouselAlbum, "Co-ord sets in 4 colours Price: 1599"},
	{domain.MediaKindImage, "Maroon Lehenga with golden zari\nPrice: ₹5,499\nSizes S M L\n#lehenga #bridal"},
}

// MockClient implements domain.Collector but returns canned posts
type MockClient struct {
	Latency time.Duration
}

func NewMockClient() *MockClient {
	return &MockClient{Latency: 200 * time.Millisecond}
}

func (mc *MockClient) FetchRecentPosts(ctx context.Context, limit int) ([]domain.SourcePost, error) {
	// Simulate network latency
	select {
	case <-time.After(mc.Latency):
	case <-ctx.Done():
		return nil, domain.WrapError(domain.ErrUpstreamFetch, "mock fetch", ctx.Err())
	}

	if limit <= 0 {
		limit = defaultFetchLimit
	}
	now := time.Now().UTC()
	posts := make([]domain.SourcePost, 0, limit)
	for i := 0; i < limit; i++ {
		m := mockCaptions[i%len(mockCaptions)]
		posts = append(posts, domain.SourcePost{
			ID:          fmt.Sprintf("mock_%d", i),
			MediaURL:    fmt.Sprintf("http://localhost/mock-media/%d.jpg", i),
			MediaKind:   m.kind,
			Caption:     m.caption,
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
			Permalink:   fmt.Sprintf("http://localhost/p/mock_%d", i),
		})
	}
	return posts, nil
}
