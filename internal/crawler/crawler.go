// Package crawler implements the breadth-first crawl frontier with
// domain/pattern filtering, robots.txt compliance and per-domain rate
// limiting. One Crawl call produces one DeepScrapeResult.
package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagelore/pagelore/internal/config"
	"github.com/pagelore/pagelore/internal/extract"
)

// Crawler drives a deep-crawl session.
type Crawler struct {
	cfg       *config.CrawlConfig
	fetcher   Fetcher
	filter    *LinkFilter
	limiter   *RateLimiter
	robots    *RobotsChecker
	extractor *extract.Detector
}

// New creates a crawler for the given configuration. The fetcher may be nil,
// in which case a default HTTP fetcher is used.
func New(cfg *config.CrawlConfig, fetcher Fetcher) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.StartURLs) == 0 {
		return nil, config.ErrNoStartURLs
	}

	if fetcher == nil {
		fetcher = NewHTTPFetcher(cfg.UserAgent, cfg.RequestTimeout)
	}

	return &Crawler{
		cfg:       cfg,
		fetcher:   fetcher,
		filter:    NewLinkFilter(cfg),
		limiter:   NewRateLimiter(cfg.Rate),
		robots:    NewRobotsChecker(fetcher, cfg.UserAgent, cfg.IgnoreRobots),
		extractor: extract.NewDetector(cfg.CustomSelectors),
	}, nil
}

// crawlState is the single-owner mutable state of one run. It is shared by
// the workers and guarded by one mutex.
type crawlState struct {
	mu              sync.Mutex
	pageResults     []PageResult
	tree            []CrawlNode
	errors          []string
	pagesCrawled    int
	reserved        int // budget slots handed to in-flight fetches
	linksDiscovered int
	linksFiltered   int
}

// Crawl runs the session to completion. The context cancels the run at the
// next dequeue or suspension point; the partial result is still returned.
func (c *Crawler) Crawl(ctx context.Context) *DeepScrapeResult {
	sessionID := uuid.NewString()
	start := time.Now().UTC()

	slog.Info("Starting deep crawl",
		"session_id", sessionID,
		"start_urls", len(c.cfg.StartURLs),
		"max_depth", c.cfg.MaxDepth,
		"max_pages", c.cfg.MaxPages,
		"politeness_delay", c.cfg.Delay())

	fr := newFrontier(c.cfg.StartURLs)
	state := &crawlState{}

	// Close the frontier when the caller gives up so blocked workers exit.
	watchdog := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			fr.Close()
		case <-watchdog:
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.worker(ctx, id, fr, state)
		}(i)
	}
	wg.Wait()
	close(watchdog)

	state.mu.Lock()
	defer state.mu.Unlock()

	result := &DeepScrapeResult{
		SessionID:            sessionID,
		StartTime:            start,
		EndTime:              time.Now().UTC(),
		Config:               c.cfg,
		PageResults:          state.pageResults,
		CrawlTree:            state.tree,
		TotalPagesCrawled:    state.pagesCrawled,
		TotalLinksDiscovered: state.linksDiscovered,
		TotalLinksFiltered:   state.linksFiltered,
		DomainsVisited:       domainsOf(fr.VisitedURLs()),
		Errors:               state.errors,
		Status:               determineStatus(state.pagesCrawled, len(state.errors), c.cfg.MaxPages),
	}

	slog.Info("Deep crawl finished",
		"session_id", sessionID,
		"pages", result.TotalPagesCrawled,
		"links_discovered", result.TotalLinksDiscovered,
		"errors", len(result.Errors),
		"status", result.Status)

	return result
}

func (c *Crawler) worker(ctx context.Context, id int, fr *frontier, state *crawlState) {
	for {
		item, ok := fr.Next()
		if !ok {
			return
		}

		if !c.reserveBudget(state) {
			fr.Close()
			fr.Done(nil)
			return
		}

		if err := c.limiter.Wait(ctx, item.URL); err != nil {
			c.releaseBudget(state)
			fr.Done(nil)
			return
		}

		children := c.processItem(ctx, id, item, state)
		fr.Done(children)

		state.mu.Lock()
		budgetReached := state.pagesCrawled >= c.cfg.MaxPages
		state.mu.Unlock()
		if budgetReached {
			fr.Close()
			return
		}
	}
}

// reserveBudget claims a page-budget slot before fetching, so concurrent
// workers can never push pagesCrawled past MaxPages.
func (c *Crawler) reserveBudget(state *crawlState) bool {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.reserved >= c.cfg.MaxPages {
		return false
	}
	state.reserved++
	return true
}

func (c *Crawler) releaseBudget(state *crawlState) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.reserved--
}

// processItem fetches and extracts one page, records the crawl node, and
// returns the accepted child items.
func (c *Crawler) processItem(ctx context.Context, id int, item CrawlItem, state *crawlState) []CrawlItem {
	slog.Info("Crawling page", "worker_id", id, "depth", item.Depth, "url", item.URL)

	if !c.robots.IsAllowed(ctx, item.URL) {
		c.recordFailure(state, item, "disallowed by robots.txt")
		return nil
	}

	resp, err := c.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		c.recordFailure(state, item, err.Error())
		return nil
	}

	content := c.extractor.Detect(resp.Body, resp.FinalURL)

	links := make([]string, 0, len(content.Links))
	for _, l := range content.Links {
		links = append(links, l.Href)
	}

	var children []CrawlItem
	var accepted []string
	if item.Depth < c.cfg.MaxDepth {
		accepted = c.filter.FilterLinks(item.URL, links)
		for _, u := range accepted {
			children = append(children, CrawlItem{
				URL:       u,
				Depth:     item.Depth + 1,
				ParentURL: item.URL,
			})
		}
	}

	// Pagination continues the current page, so the next-page link keeps
	// the current depth and is followed even at the depth limit. The page
	// budget still bounds the chain.
	if c.cfg.EnablePagination {
		if next := extract.NextPageURL(content, resp.FinalURL); next != "" {
			for _, u := range c.filter.FilterLinks(item.URL, []string{next}) {
				if slices.Contains(accepted, u) {
					continue
				}
				accepted = append(accepted, u)
				children = append(children, CrawlItem{
					URL:       u,
					Depth:     item.Depth,
					ParentURL: item.URL,
				})
			}
		}
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.linksDiscovered += len(links)
	if item.Depth < c.cfg.MaxDepth {
		state.linksFiltered += len(links) - len(accepted)
	}

	state.pageResults = append(state.pageResults, PageResult{
		URL:       item.URL,
		Timestamp: time.Now().UTC(),
		Status:    "success",
		Content:   content,
	})
	state.tree = append(state.tree, CrawlNode{
		URL:      item.URL,
		Depth:    item.Depth,
		Parent:   item.ParentURL,
		Children: accepted,
		Scraped:  true,
	})
	state.pagesCrawled++

	return children
}

// recordFailure notes a fetch failure without stopping the crawl. The
// failed page does not consume page budget.
func (c *Crawler) recordFailure(state *crawlState, item CrawlItem, msg string) {
	slog.Error("Failed to crawl page", "url", item.URL, "error", msg)

	state.mu.Lock()
	defer state.mu.Unlock()

	state.reserved--
	state.errors = append(state.errors, item.URL+": "+msg)
	state.tree = append(state.tree, CrawlNode{
		URL:      item.URL,
		Depth:    item.Depth,
		Parent:   item.ParentURL,
		Children: []string{},
		Scraped:  false,
		Error:    msg,
	})
}

func determineStatus(pagesCrawled, errorCount, maxPages int) CrawlStatus {
	switch {
	case pagesCrawled == 0:
		return StatusFailed
	case errorCount > 0 && pagesCrawled < maxPages:
		return StatusPartiallyCompleted
	default:
		return StatusCompleted
	}
}

// domainsOf extracts the unique sorted hostnames from a list of URLs.
func domainsOf(urls []string) []string {
	seen := make(map[string]bool)
	for _, raw := range urls {
		if parsed, err := url.Parse(raw); err == nil && parsed.Hostname() != "" {
			seen[parsed.Hostname()] = true
		}
	}

	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
