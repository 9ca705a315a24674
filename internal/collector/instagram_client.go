package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/caption-importer/internal/config"
	"github.com/qepting91/caption-importer/internal/domain"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultFetchLimit = 20
	mediaFields       = "id,media_url,media_type,caption,timestamp,permalink"
	graphTimeLayout   = "2006-01-02T15:04:05-0700"
)

// InstagramClient reads recent media of a business account from the Graph API.
type InstagramClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]domain.SourcePost]

	baseURL     string
	accessToken string
	accountID   string
}

type graphMediaResponse struct {
	Data []struct {
		ID        string `json:"id"`
		MediaURL  string `json:"media_url"`
		MediaType string `json:"media_type"`
		Caption   string `json:"caption"`
		Timestamp string `json:"timestamp"`
		Permalink string `json:"permalink"`
	} `json:"data"`
}

type graphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func NewInstagramClient(cfg config.Collector) (*InstagramClient, error) {
	if cfg.InstagramAccessToken == "" || cfg.InstagramBusinessAccountID == "" {
		return nil, domain.WrapError(domain.ErrCredentials, "instagram client", errors.New("INSTAGRAM_ACCESS_TOKEN and INSTAGRAM_BUSINESS_ACCOUNT_ID are required"))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &InstagramClient{
		httpClient: &http.Client{Timeout: timeout},
		// Graph API allows ~200 calls/hour per user token
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		breaker: gobreaker.NewCircuitBreaker[[]domain.SourcePost](gobreaker.Settings{
			Name:    "instagram",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				// rejected tokens and caller cancellation say nothing about upstream health
				return err == nil ||
					errors.Is(err, domain.ErrCredentials) ||
					errors.Is(err, context.Canceled)
			},
		}),
		baseURL:     strings.TrimRight(cfg.InstagramAPIBase, "/"),
		accessToken: cfg.InstagramAccessToken,
		accountID:   cfg.InstagramBusinessAccountID,
	}, nil
}

// FetchRecentPosts performs a single page request. It never retries; a
// failure aborts the whole call.
func (ic *InstagramClient) FetchRecentPosts(ctx context.Context, limit int) ([]domain.SourcePost, error) {
	if ic.accessToken == "" || ic.accountID == "" {
		return nil, domain.WrapError(domain.ErrCredentials, "instagram fetch", nil)
	}
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	if err := ic.limiter.Wait(ctx); err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamFetch, "instagram rate limit", err)
	}

	posts, err := ic.breaker.Execute(func() ([]domain.SourcePost, error) {
		return ic.fetch(ctx, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domain.WrapError(domain.ErrUpstreamFetch, "instagram fetch", err)
		}
		return nil, err
	}
	return posts, nil
}

func (ic *InstagramClient) fetch(ctx context.Context, limit int) ([]domain.SourcePost, error) {
	q := url.Values{}
	q.Set("fields", mediaFields)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("access_token", ic.accessToken)
	endpoint := fmt.Sprintf("%s/%s/media?%s", ic.baseURL, url.PathEscape(ic.accountID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamFetch, "instagram request", err)
	}

	resp, err := ic.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamFetch, "instagram request", redactURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var gResp graphMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamFetch, "instagram decode", err)
	}

	posts := make([]domain.SourcePost, 0, len(gResp.Data))
	for _, d := range gResp.Data {
		posts = append(posts, domain.SourcePost{
			ID:          d.ID,
			MediaURL:    d.MediaURL,
			MediaKind:   domain.MediaKind(strings.ToUpper(d.MediaType)),
			Caption:     d.Caption,
			PublishedAt: parseGraphTime(d.Timestamp),
			Permalink:   d.Permalink,
		})
	}
	return posts, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var gErr graphErrorResponse
	_ = json.Unmarshal(body, &gErr)
	detail := fmt.Errorf("status %d: %s", resp.StatusCode, gErr.Error.Message)

	// 190 is the Graph API's invalid/expired token code
	if resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden ||
		gErr.Error.Type == "OAuthException" ||
		gErr.Error.Code == 190 {
		return domain.WrapError(domain.ErrCredentials, "instagram fetch", detail)
	}
	return domain.WrapError(domain.ErrUpstreamFetch, "instagram fetch", detail)
}

// redactURL strips the query string (and with it the access token) from
// transport errors before they reach logs.
func redactURL(err error) error {
	var uErr *url.Error
	if errors.As(err, &uErr) {
		if u, perr := url.Parse(uErr.URL); perr == nil {
			u.RawQuery = ""
			uErr.URL = u.String()
		}
	}
	return err
}

func parseGraphTime(s string) time.Time {
	for _, layout := range []string{graphTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
