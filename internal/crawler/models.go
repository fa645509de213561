package crawler

import (
	"time"

	"github.com/pagelore/pagelore/internal/config"
	"github.com/pagelore/pagelore/internal/extract"
)

// CrawlItem is a pending entry in the frontier queue. Items are created on
// enqueue and consumed on dequeue; they never outlive the crawl run.
type CrawlItem struct {
	URL       string
	Depth     int
	ParentURL string // empty for seed URLs
}

// CrawlNode records one visited URL in the crawl tree.
type CrawlNode struct {
	URL      string   `json:"url"`
	Depth    int      `json:"depth"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children"`
	Scraped  bool     `json:"scraped"`
	Error    string   `json:"error,omitempty"`
}

// CrawlStatus is the terminal state of a crawl session.
type CrawlStatus string

const (
	// StatusRunning marks a session that has not finished yet.
	StatusRunning CrawlStatus = "running"
	// StatusCompleted marks a session that finished without errors or
	// exhausted its page budget.
	StatusCompleted CrawlStatus = "completed"
	// StatusPartiallyCompleted marks a session that finished with at least
	// one error before reaching the page budget.
	StatusPartiallyCompleted CrawlStatus = "partially_completed"
	// StatusFailed marks a session in which no page was crawled.
	StatusFailed CrawlStatus = "failed"
)

// PageResult is the outcome of fetching and extracting a single page.
type PageResult struct {
	URL       string                   `json:"url"`
	Timestamp time.Time                `json:"timestamp"`
	Status    string                   `json:"status"`
	Content   *extract.DetectedContent `json:"content"`
}

// DeepScrapeResult aggregates everything produced by one crawl session.
type DeepScrapeResult struct {
	SessionID            string              `json:"sessionId"`
	StartTime            time.Time           `json:"startTime"`
	EndTime              time.Time           `json:"endTime"`
	Config               *config.CrawlConfig `json:"config"`
	PageResults          []PageResult        `json:"pageResults"`
	CrawlTree            []CrawlNode         `json:"crawlTree"`
	TotalPagesCrawled    int                 `json:"totalPagesCrawled"`
	TotalLinksDiscovered int                 `json:"totalLinksDiscovered"`
	TotalLinksFiltered   int                 `json:"totalLinksFiltered"`
	DomainsVisited       []string            `json:"domainsVisited"`
	Errors               []string            `json:"errors"`
	Status               CrawlStatus         `json:"status"`
}
