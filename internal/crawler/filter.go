package crawler

import (
	"log/slog"
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/pagelore/pagelore/internal/config"
)

// LinkFilter decides which discovered links are eligible for crawling.
// Patterns are compiled once at construction; malformed patterns are
// skipped and treated as never matching.
type LinkFilter struct {
	stayInDomain    bool
	stayInSubdomain bool
	include         []*regexp.Regexp
	exclude         []*regexp.Regexp
}

// NewLinkFilter builds a filter from the crawl configuration.
func NewLinkFilter(cfg *config.CrawlConfig) *LinkFilter {
	return &LinkFilter{
		stayInDomain:    cfg.StayInDomain,
		stayInSubdomain: cfg.StayInSubdomain,
		include:         compilePatterns(cfg.IncludePatterns),
		exclude:         compilePatterns(cfg.ExcludePatterns),
	}
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("Skipping malformed URL pattern", "pattern", p, "error", err)
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

// FilterLinks resolves raw hrefs against the page URL, normalizes them and
// keeps the ones that pass ShouldCrawl. Unresolvable links are dropped
// silently.
func (f *LinkFilter) FilterLinks(pageURL string, links []string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	accepted := make([]string, 0, len(links))
	for _, link := range links {
		ref, err := url.Parse(link)
		if err != nil {
			continue
		}

		normalized := NormalizeURL(base.ResolveReference(ref))
		if normalized == "" {
			continue
		}

		if f.ShouldCrawl(normalized, base) {
			accepted = append(accepted, normalized)
		}
	}
	return accepted
}

// ShouldCrawl applies the filter rules in order: domain scope, subdomain
// scope, exclude patterns, include patterns.
func (f *LinkFilter) ShouldCrawl(rawURL string, base *url.URL) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if f.stayInDomain && registrableDomain(parsed.Hostname()) != registrableDomain(base.Hostname()) {
		return false
	}

	if f.stayInSubdomain && !strings.EqualFold(parsed.Hostname(), base.Hostname()) {
		return false
	}

	for _, re := range f.exclude {
		if re.MatchString(rawURL) {
			return false
		}
	}

	if len(f.include) > 0 {
		matched := false
		for _, re := range f.include {
			if re.MatchString(rawURL) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// NormalizeURL canonicalizes a resolved URL for visited-set comparison:
// the fragment is stripped, scheme and host are lowercased and default
// ports removed. Returns "" for URLs without an http(s) scheme or host.
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	out := *u
	out.Fragment = ""
	out.Scheme = strings.ToLower(out.Scheme)

	if out.Scheme != "http" && out.Scheme != "https" {
		return ""
	}

	host := strings.ToLower(out.Hostname())
	if host == "" {
		return ""
	}

	port := out.Port()
	if port != "" &&
		!((out.Scheme == "http" && port == "80") || (out.Scheme == "https" && port == "443")) {
		host = net.JoinHostPort(host, port)
	}
	out.Host = host

	return out.String()
}

// registrableDomain returns the eTLD+1 for a host, falling back to the host
// itself when the public suffix list cannot resolve it (IPs, localhost).
func registrableDomain(host string) string {
	host = strings.ToLower(host)
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
