package domain

import (
	"context"
	"time"
)

// MediaKind mirrors the media_type values of the Instagram Graph API.
type MediaKind string

const (
	MediaKindImage         MediaKind = "IMAGE"
	MediaKindVideo         MediaKind = "VIDEO"
	MediaKindCarouselAlbum MediaKind = "CAROUSEL_ALBUM"
)

// SourcePost is one fetched social post. Collectors return it by value and
// nothing downstream mutates it.
type SourcePost struct {
	ID          string    `json:"id"`
	MediaURL    string    `json:"media_url"`
	MediaKind   MediaKind `json:"media_kind"`
	Caption     string    `json:"caption"`
	PublishedAt time.Time `json:"published_at"`
	Permalink   string    `json:"permalink"`
}

// ProductDraft is a candidate catalog entry extracted from a caption.
// It always carries a positive Price.
type ProductDraft struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         int      `json:"price"`
	OriginalPrice *int     `json:"original_price,omitempty"`
	Category      string   `json:"category"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Images        []string `json:"images"`
	Hashtags      []string `json:"hashtags"`
}

// Candidate pairs a draft with the post it was extracted from.
type Candidate struct {
	Post  SourcePost   `json:"post"`
	Draft ProductDraft `json:"draft"`
}

// Product is a confirmed catalog entry created from a reviewed draft.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int       `json:"price"`
	OriginalPrice *int      `json:"original_price,omitempty"`
	Images        []string  `json:"images"`
	Category      string    `json:"category"`
	Sizes         []string  `json:"sizes"`
	Colors        []string  `json:"colors"`
	Stock         int       `json:"stock"`
	Featured      bool      `json:"featured"`
	SourcePostID  string    `json:"source_post_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Collector defines the interface for fetching recent posts of one account
type Collector interface {
	FetchRecentPosts(ctx context.Context, limit int) ([]SourcePost, error)
}
