package collector

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/caption-importer/internal/config"
	"github.com/qepting91/caption-importer/internal/domain"
	"golang.org/x/time/rate"
)

// RedditClient treats a shop's subreddit as the post source: the title and
// self text together play the role of a caption.
type RedditClient struct {
	client    *reddit.Client
	limiter   *rate.Limiter
	subreddit string
}

// NewRedditClient requires a userAgent string to comply with Reddit's API rules
func NewRedditClient(cfg config.Collector) (*RedditClient, error) {
	if cfg.RedditSubreddit == "" {
		return nil, fmt.Errorf("REDDIT_SUBREDDIT is required for reddit mode")
	}
	if cfg.RedditClientID == "" || cfg.RedditClientSecret == "" {
		return nil, domain.WrapError(domain.ErrCredentials, "reddit client", nil)
	}
	creds := reddit.Credentials{
		ID:       cfg.RedditClientID,
		Secret:   cfg.RedditClientSecret,
		Username: cfg.RedditUsername,
		Password: cfg.RedditPassword,
	}

	client, err := reddit.NewClient(creds, reddit.WithUserAgent(cfg.UserAgent))
	if err != nil {
		return nil, err
	}

	// API Rate Limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &RedditClient{client: client, limiter: limiter, subreddit: cfg.RedditSubreddit}, nil
}

func (rc *RedditClient) FetchRecentPosts(ctx context.Context, limit int) ([]domain.SourcePost, error) {
	if limit <= 0 {
		limit = defaultFetchLimit
	}
	if err := rc.limiter.Wait(ctx); err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamFetch, "reddit rate limit", err)
	}

	posts, _, err := rc.client.Subreddit.NewPosts(ctx, rc.subreddit, &reddit.ListOptions{Limit: limit})
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamFetch, "reddit api", err)
	}

	result := make([]domain.SourcePost, 0, len(posts))
	for _, p := range posts {
		if sp, ok := sourcePostFromReddit(p); ok {
			result = append(result, sp)
		}
	}
	return result, nil
}

// sourcePostFromReddit drops link and text-only posts, which carry no media.
func sourcePostFromReddit(p *reddit.Post) (domain.SourcePost, bool) {
	if p == nil {
		return domain.SourcePost{}, false
	}
	kind, ok := redditMediaKind(p.URL)
	if !ok {
		return domain.SourcePost{}, false
	}

	caption := p.Title
	if body := strings.TrimSpace(p.Body); body != "" {
		caption += "\n" + body
	}

	permalink := p.Permalink
	if strings.HasPrefix(permalink, "/") {
		permalink = "https://www.reddit.com" + permalink
	}

	var published time.Time
	if p.Created != nil {
		published = p.Created.Time.UTC()
	}

	return domain.SourcePost{
		ID:          p.ID,
		MediaURL:    p.URL,
		MediaKind:   kind,
		Caption:     caption,
		PublishedAt: published,
		Permalink:   permalink,
	}, true
}

func redditMediaKind(rawURL string) (domain.MediaKind, bool) {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "reddit.com/gallery/"):
		return domain.MediaKindCarouselAlbum, true
	case strings.Contains(u, "v.redd.it/"):
		return domain.MediaKindVideo, true
	case strings.Contains(u, "i.redd.it/"), strings.Contains(u, "i.imgur.com/"):
		return domain.MediaKindImage, true
	}
	switch path.Ext(strings.SplitN(u, "?", 2)[0]) {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return domain.MediaKindImage, true
	case ".mp4":
		return domain.MediaKindVideo, true
	}
	return "", false
}
