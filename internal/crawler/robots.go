package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsChecker caches parsed robots.txt per host and answers allow/deny
// questions for crawl URLs.
type RobotsChecker struct {
	fetcher      Fetcher
	mu           sync.RWMutex
	groups       map[string]*robotstxt.RobotsData
	ignoreRobots bool
	userAgent    string
}

// NewRobotsChecker creates a checker backed by the given fetcher.
func NewRobotsChecker(fetcher Fetcher, userAgent string, ignoreRobots bool) *RobotsChecker {
	if userAgent == "" {
		userAgent = "pagelore"
	}
	return &RobotsChecker{
		fetcher:      fetcher,
		groups:       make(map[string]*robotstxt.RobotsData),
		ignoreRobots: ignoreRobots,
		userAgent:    userAgent,
	}
}

// IsAllowed reports whether robots.txt permits fetching the URL. A missing
// or unfetchable robots.txt allows everything.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	if r.ignoreRobots {
		return true
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data := r.robotsFor(ctx, parsed)
	if data == nil {
		return true
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.userAgent)
}

func (r *RobotsChecker) robotsFor(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	host := u.Host

	r.mu.RLock()
	data, ok := r.groups[host]
	r.mu.RUnlock()
	if ok {
		return data
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, host)
	resp, err := r.fetcher.Fetch(ctx, robotsURL)
	if err == nil {
		if parsed, perr := robotstxt.FromBytes(resp.Body); perr == nil {
			data = parsed
		}
	}

	// Cache negative results too so each host is probed once.
	r.mu.Lock()
	r.groups[host] = data
	r.mu.Unlock()

	return data
}
