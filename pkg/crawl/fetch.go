package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// MaxBodySize bounds a fetched page.
const MaxBodySize = 10 * 1024 * 1024

// ErrBodyTooLarge is returned for pages over MaxBodySize.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// Getter fetches a page body.
type Getter interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PageCache stores fetched pages between runs.
type PageCache interface {
	GetPage(url string) ([]byte, bool, error)
	PutPage(url string, body []byte) error
}

// Fetcher downloads pages with browser-like headers and bounded retries.
type Fetcher struct {
	http   *resty.Client
	cache  PageCache
	logger *slog.Logger
}

type FetcherOption func(*Fetcher)

// WithPageCache serves pages from c when present and stores new ones in it.
func WithPageCache(c PageCache) FetcherOption { return func(f *Fetcher) { f.cache = c } }

func WithLogger(l *slog.Logger) FetcherOption { return func(f *Fetcher) { f.logger = l } }

// WithRetryWait overrides the backoff bounds.
func WithRetryWait(min, max time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.http.SetRetryWaitTime(min).SetRetryMaxWaitTime(max)
	}
}

// NewFetcher creates a Fetcher that retries transient failures up to retries times.
func NewFetcher(retries int, opts ...FetcherOption) *Fetcher {
	client := resty.New().
		SetTimeout(30*time.Second).
		SetRetryCount(retries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		AddRetryCondition(retryable).
		SetHeaders(map[string]string{
			"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Upgrade-Insecure-Requests": "1",
		})
	f := &Fetcher{http: client}
	for _, o := range opts {
		o(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

func retryable(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= 500
}

// Fetch returns the body of url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		body, ok, err := f.cache.GetPage(url)
		if err != nil {
			f.logger.Warn("page cache read failed", "url", url, "error", err)
		} else if ok {
			f.logger.Debug("page cache hit", "url", url)
			return body, nil
		}
	}

	res, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, &StatusError{URL: url, Code: res.StatusCode()}
	}
	body := res.Body()
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("GET %s: %w (%d bytes)", url, ErrBodyTooLarge, len(body))
	}

	if f.cache != nil {
		if err := f.cache.PutPage(url, body); err != nil {
			f.logger.Warn("page cache write failed", "url", url, "error", err)
		}
	}
	return body, nil
}
