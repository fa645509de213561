package crawler

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// userAgents is the pool of client identities rotated across requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

// Fetcher issues single HTTP GET requests. Implementations must be safe for
// concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResponse, error)
}

// FetchResponse is the raw outcome of fetching one URL.
type FetchResponse struct {
	StatusCode  int
	Body        []byte
	ContentType string
	FinalURL    string // after redirects
}

// HTTPFetcher fetches pages over HTTP with a rotating User-Agent and a
// shared cookie jar (cookie passthrough across a session, no auth handling).
type HTTPFetcher struct {
	client    *http.Client
	userAgent string // fixed override; empty means rotate
}

// NewHTTPFetcher creates a fetcher with the given timeout. userAgent may be
// empty to rotate through the built-in identity pool.
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	jar, _ := cookiejar.New(nil)

	client := &http.Client{
		Timeout: timeout,
		Jar:     jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPFetcher{
		client:    client,
		userAgent: userAgent,
	}
}

// Fetch performs one GET and reads the full body. A non-2xx status is
// returned as an error so callers treat it like any other fetch failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchResponse, error) {
	resp, err := f.do(ctx, url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return resp, nil
}

// FetchWithRetry fetches with up to three attempts, backing off 2^n seconds
// when the server answers 429 or 403. Used by the single-page analysis path
// rather than the crawl loop, which never retries.
func (f *HTTPFetcher) FetchWithRetry(ctx context.Context, url string) (*FetchResponse, error) {
	const maxAttempts = 3

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := f.do(ctx, url)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
			lastErr = fmt.Errorf("HTTP error: %d", resp.StatusCode)
		} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		if attempt < maxAttempts-1 {
			backoff := time.Duration(1<<uint(attempt+1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", maxAttempts, lastErr)
}

func (f *HTTPFetcher) do(ctx context.Context, url string) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.currentUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &FetchResponse{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

func (f *HTTPFetcher) currentUserAgent() string {
	if f.userAgent != "" {
		return f.userAgent
	}
	return userAgents[rand.Intn(len(userAgents))]
}

// Close releases idle connections held by the fetcher.
func (f *HTTPFetcher) Close() {
	f.client.CloseIdleConnections()
}
