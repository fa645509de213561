// Package extract implements single-page content extraction using ranked
// selector lists. It pulls the title, content blocks, links, images and
// metadata out of a page without per-site configuration.
package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"

	"github.com/pagelore/pagelore/internal/config"
)

// LinkData is one extracted hyperlink.
type LinkData struct {
	Text       string `json:"text"`
	Href       string `json:"href"`
	IsExternal bool   `json:"isExternal"`
}

// ImageData is one extracted image reference.
type ImageData struct {
	Src   string `json:"src"`
	Alt   string `json:"alt,omitempty"`
	Title string `json:"title,omitempty"`
}

// DetectedContent is everything extracted from one page.
type DetectedContent struct {
	Title     string            `json:"title,omitempty"`
	Content   []string          `json:"content"`
	PlainText string            `json:"plainText,omitempty"`
	Links     []LinkData        `json:"links"`
	Images    []ImageData       `json:"images"`
	Metadata  map[string]string `json:"metadata"`
}

// Detector extracts content using its configured selector lists.
type Detector struct {
	selectors config.AutoSelectors
}

// NewDetector creates a detector; custom may be nil to use the defaults.
func NewDetector(custom *config.AutoSelectors) *Detector {
	return &Detector{selectors: mergeSelectors(custom)}
}

// Detect parses the markup and extracts content relative to baseURL.
// Malformed markup never fails; goquery parses what it can.
func (d *Detector) Detect(markup []byte, baseURL string) *DetectedContent {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return &DetectedContent{
			Content:  []string{},
			Links:    []LinkData{},
			Images:   []ImageData{},
			Metadata: map[string]string{},
		}
	}

	base, _ := url.Parse(baseURL)

	// Rendering failures leave the field empty; the structured fields
	// still carry the page.
	text, _ := PlainText(markup)

	return &DetectedContent{
		Title:     d.detectTitle(doc),
		Content:   d.detectContent(doc),
		PlainText: text,
		Links:     d.detectLinks(doc, base),
		Images:    d.detectImages(doc, base),
		Metadata:  d.detectMetadata(doc),
	}
}

func (d *Detector) detectTitle(doc *goquery.Document) string {
	for _, sel := range d.selectors.Title {
		var title string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.HasPrefix(sel, "meta") {
				title = strings.TrimSpace(s.AttrOr("content", ""))
			} else {
				title = strings.TrimSpace(s.Text())
			}
			return title == ""
		})
		if title != "" {
			return title
		}
	}
	return ""
}

func (d *Detector) detectContent(doc *goquery.Document) []string {
	content := []string{}
	seen := make(map[string]bool)

	for _, sel := range d.selectors.Content {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) <= 10 || seen[text] {
				return
			}
			seen[text] = true
			content = append(content, text)
		})
	}
	return content
}

func (d *Detector) detectLinks(doc *goquery.Document, base *url.URL) []LinkData {
	links := []LinkData{}
	seen := make(map[string]bool)

	for _, sel := range d.selectors.Links {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || href == "" {
				return
			}

			abs := resolveHref(base, href)
			if seen[abs] {
				return
			}
			seen[abs] = true

			text := strings.TrimSpace(s.Text())
			if text == "" {
				text = href
			}

			links = append(links, LinkData{
				Text:       text,
				Href:       abs,
				IsExternal: isExternal(base, abs),
			})
		})
	}
	return links
}

func (d *Detector) detectImages(doc *goquery.Document, base *url.URL) []ImageData {
	images := []ImageData{}
	seen := make(map[string]bool)

	for _, sel := range d.selectors.Images {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			src, ok := s.Attr("src")
			if !ok || src == "" {
				src, ok = s.Attr("data-src")
				if !ok || src == "" {
					return
				}
			}

			abs := resolveSrc(base, src)
			if seen[abs] {
				return
			}
			seen[abs] = true

			images = append(images, ImageData{
				Src:   abs,
				Alt:   s.AttrOr("alt", ""),
				Title: s.AttrOr("title", ""),
			})
		})
	}
	return images
}

func (d *Detector) detectMetadata(doc *goquery.Document) map[string]string {
	metadata := make(map[string]string)

	for _, sel := range d.selectors.Metadata {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			content, ok := s.Attr("content")
			if !ok {
				return
			}

			key := s.AttrOr("name", "")
			if key == "" {
				key = s.AttrOr("property", "unknown")
			}
			metadata[key] = content
		})
	}
	return metadata
}

// PlainText renders markup to readable plain text, for previews and text
// exports of extracted regions.
func PlainText(markup []byte) (string, error) {
	return html2text.FromReader(bytes.NewReader(markup), html2text.Options{TextOnly: true})
}

// NextPageURL finds a likely next-page link for pagination-following:
// either an internal link whose text carries a pagination keyword, or a
// same-path link with a page=/p= query parameter.
func NextPageURL(content *DetectedContent, currentURL string) string {
	keywords := []string{"next", "next page", "→", "»", "›"}

	current, err := url.Parse(currentURL)
	if err != nil {
		return ""
	}

	for _, link := range content.Links {
		text := strings.ToLower(link.Text)
		for _, kw := range keywords {
			if strings.Contains(text, kw) && !link.IsExternal && link.Href != currentURL {
				return link.Href
			}
		}

		if strings.Contains(link.Href, "page=") || strings.Contains(link.Href, "p=") {
			if next, err := url.Parse(link.Href); err == nil {
				if next.Host == current.Host && next.Path == current.Path && link.Href != currentURL {
					return link.Href
				}
			}
		}
	}
	return ""
}

func resolveHref(base *url.URL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func resolveSrc(base *url.URL, src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return resolveHref(base, src)
}

func isExternal(base *url.URL, abs string) bool {
	if base == nil {
		return false
	}
	parsed, err := url.Parse(abs)
	if err != nil {
		return false
	}
	return parsed.Host != "" && parsed.Host != base.Host
}
