// Package analyzer implements the DOM structure scorer. It enumerates
// candidate regions against a fixed taxonomy of semantic selectors,
// computes per-region statistics, scores and ranks the regions, and
// derives extraction recommendations.
package analyzer

import (
	"bytes"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/pagelore/pagelore/internal/config"
)

const previewLength = 200

// taxonomyEntry maps one structural selector to its semantic role.
type taxonomyEntry struct {
	selector string
	matcher  goquery.Matcher
	secType  SectionType
}

// taxonomy is the fixed ordered selector list. Order matters: earlier
// entries are analyzed first and win preview-level deduplication ties only
// through their score.
var taxonomy = buildTaxonomy([]struct {
	selector string
	secType  SectionType
}{
	{"article", Article},
	{"main", MainContent},
	{"[role='main']", MainContent},
	{".content", MainContent},
	{".main-content", MainContent},
	{".post-content", Article},
	{".article-body", Article},
	{"aside", Sidebar},
	{".sidebar", Sidebar},
	{".widget", Sidebar},
	{"nav", Navigation},
	{".navigation", Navigation},
	{".menu", Navigation},
	{"header", Header},
	{"footer", Footer},
	{".comments", Comments},
	{"#comments", Comments},
	{".comment-list", Comments},
})

func buildTaxonomy(entries []struct {
	selector string
	secType  SectionType
}) []taxonomyEntry {
	out := make([]taxonomyEntry, 0, len(entries))
	for _, e := range entries {
		sel, err := cascadia.Compile(e.selector)
		if err != nil {
			continue
		}
		out = append(out, taxonomyEntry{selector: e.selector, matcher: sel, secType: e.secType})
	}
	return out
}

var (
	anchorMatcher    = cascadia.MustCompile("a")
	imageMatcher     = cascadia.MustCompile("img")
	paragraphMatcher = cascadia.MustCompile("p")
	headingMatchers  = []cascadia.Selector{
		cascadia.MustCompile("h1"),
		cascadia.MustCompile("h2"),
		cascadia.MustCompile("h3"),
	}
	anyMatcher = cascadia.MustCompile("*")
	divMatcher = cascadia.MustCompile("div")
)

// Analyzer scores DOM regions. Selector compilation happens once, at
// package initialization and construction, not per page.
type Analyzer struct {
	minContentLength int
	minWordCount     int
	detectComments   bool
	debugMode        bool
	weights          ScoringWeights
}

// New creates an analyzer with default options and weights.
func New() *Analyzer {
	return NewWithOptions(config.DefaultAnalyzeOptions(), DefaultWeights())
}

// NewWithOptions creates an analyzer with explicit options and weights.
func NewWithOptions(opts config.AnalyzeOptions, weights ScoringWeights) *Analyzer {
	minLen := opts.MinContentLength
	if minLen <= 0 {
		minLen = 200
	}

	return &Analyzer{
		minContentLength: minLen,
		minWordCount:     minLen / 5,
		detectComments:   opts.DetectComments,
		debugMode:        opts.DebugMode,
		weights:          weights,
	}
}

// Analyze parses the markup and returns the scored section list with
// recommendations. Identical markup and options always produce identical
// output; malformed or empty markup yields an empty section list.
func (a *Analyzer) Analyze(markup []byte, url string) *StructureAnalysis {
	start := time.Now()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		doc = nil
	}

	var sections []Section
	if doc != nil {
		sections = a.findSections(doc)
	}
	if sections == nil {
		sections = []Section{}
	}

	analysis := &StructureAnalysis{
		URL:             url,
		Timestamp:       time.Now().UTC(),
		Sections:        sections,
		Recommendations: a.recommendations(sections),
	}

	if a.debugMode {
		total := 0
		if doc != nil {
			total = doc.FindMatcher(anyMatcher).Length()
		}
		analysis.DebugInfo = &DebugInfo{
			TotalElements:    total,
			AnalyzedSections: len(sections),
			ProcessingTimeMS: time.Since(start).Milliseconds(),
		}
	}

	return analysis
}

func (a *Analyzer) findSections(doc *goquery.Document) []Section {
	var sections []Section

	for _, entry := range taxonomy {
		if entry.secType == Comments && !a.detectComments {
			continue
		}

		doc.FindMatcher(entry.matcher).Each(func(_ int, s *goquery.Selection) {
			section, ok := a.analyzeElement(s, entry.selector, entry.secType)
			if !ok {
				return
			}

			// Short structural regions are kept; everything else must
			// meet the minimum content length.
			if section.Stats.TextLength >= a.minContentLength || isStructural(section.SectionType) {
				sections = append(sections, section)
			}
		})
	}

	if !hasMainContent(sections) {
		sections = append(sections, a.analyzeDivs(doc)...)
	}

	sortByScore(sections)
	return a.deduplicate(sections)
}

func (a *Analyzer) analyzeElement(s *goquery.Selection, selector string, secType SectionType) (Section, bool) {
	text := strings.TrimSpace(s.Text())
	if text == "" {
		return Section{}, false
	}

	stats := a.calculateStats(s)

	if secType == MainContent && stats.TextLength > 500 && stats.DensityScore > 0.7 {
		secType = Article
	}

	return Section{
		Selector:    selector,
		SectionType: secType,
		Score:       a.score(stats, secType),
		Confidence:  a.confidence(stats, secType),
		Stats:       stats,
		Preview:     makePreview(text),
	}, true
}

// analyzeDivs is the fallback scan over generic containers, used only when
// the taxonomy produced no main-content region. Thresholds are stricter
// than the taxonomy pass.
func (a *Analyzer) analyzeDivs(doc *goquery.Document) []Section {
	var sections []Section

	doc.FindMatcher(divMatcher).Each(func(_ int, s *goquery.Selection) {
		stats := a.calculateStats(s)

		if stats.TextLength < a.minContentLength*2 ||
			stats.DensityScore <= 0.6 ||
			stats.ParagraphCount <= 2 {
			return
		}

		score := a.score(stats, MainContent)
		if score <= 0.5 {
			return
		}

		sections = append(sections, Section{
			Selector:    synthesizeSelector(s),
			SectionType: MainContent,
			Score:       score,
			Confidence:  a.confidence(stats, MainContent),
			Stats:       stats,
			Preview:     makePreview(strings.TrimSpace(s.Text())),
		})
	})

	return sections
}

func (a *Analyzer) calculateStats(s *goquery.Selection) SectionStats {
	text := strings.TrimSpace(s.Text())
	textLength := len(text)
	wordCount := len(strings.Fields(text))

	linkCount := s.FindMatcher(anchorMatcher).Length()
	imageCount := s.FindMatcher(imageMatcher).Length()
	paragraphCount := s.FindMatcher(paragraphMatcher).Length()

	headingCount := 0
	for _, m := range headingMatchers {
		headingCount += s.FindMatcher(m).Length()
	}

	// The element itself counts, so the denominator is never zero.
	elementCount := s.FindMatcher(anyMatcher).Length() + 1

	densityScore := math.Min(float64(textLength)/float64(elementCount), 1.0)

	linkDensity := 1.0
	if textLength > 0 {
		linkDensity = float64(linkCount) * 50.0 / float64(textLength)
	}

	return SectionStats{
		TextLength:     textLength,
		WordCount:      wordCount,
		LinkCount:      linkCount,
		ImageCount:     imageCount,
		ParagraphCount: paragraphCount,
		HeadingCount:   headingCount,
		DensityScore:   densityScore,
		LinkDensity:    linkDensity,
		ElementCount:   elementCount,
	}
}

func (a *Analyzer) score(stats SectionStats, secType SectionType) float64 {
	w := a.weights
	var score float64

	switch secType {
	case Article, MainContent:
		score += stats.DensityScore * w.ArticleDensity
		score += (1.0 - math.Min(stats.LinkDensity, 1.0)) * w.ArticleLinkDensity
		score += ratio(stats.ParagraphCount, 10) * w.ArticleParagraphs
		score += ratio(stats.TextLength, 5000) * w.ArticleTextLength
	case Sidebar:
		score += ratio(stats.LinkCount, 20) * w.SidebarLinks
		score += (1.0 - ratio(stats.TextLength, 2000)) * w.SidebarShortText
	case Navigation, Header, Footer:
		score += math.Min(stats.LinkDensity, 1.0) * w.NavLinkDensity
		score += (1.0 - ratio(stats.TextLength, 500)) * w.NavShortText
	case Comments:
		score += ratio(stats.ElementCount, 50) * w.CommentsElements
		score += math.Min(math.Abs(float64(stats.TextLength)-500.0)/2000.0, 1.0) * w.CommentsTextOffset
	default:
		score = w.UnknownScore
	}

	return clamp01(score)
}

func (a *Analyzer) confidence(stats SectionStats, secType SectionType) float64 {
	confidence := 0.5

	confidence += ratio(stats.WordCount, 500) * 0.2

	if secType == Article || secType == MainContent {
		confidence += ratio(stats.ParagraphCount, 10) * 0.2
	}

	if stats.LinkDensity > 0.1 && stats.LinkDensity < 0.3 {
		confidence += 0.1
	}

	return clamp01(confidence)
}

func (a *Analyzer) recommendations(sections []Section) Recommendations {
	rec := Recommendations{
		BestTitle:     "h1, h2, title",
		SuggestedMode: ModeGeneric,
	}

	hasArticle := false
	hasComments := false
	hasProduct := false

	for _, s := range sections {
		switch {
		case (s.SectionType == Article || s.SectionType == MainContent) && rec.BestMainContent == "":
			rec.BestMainContent = s.Selector
		case s.SectionType == Comments && rec.BestComments == "":
			rec.BestComments = s.Selector
		}

		if s.SectionType == Article {
			hasArticle = true
		}
		if s.SectionType == Comments {
			hasComments = true
		}
		if strings.Contains(s.Selector, "product") {
			hasProduct = true
		}
	}

	switch {
	case hasProduct:
		rec.SuggestedMode = ModeProduct
	case hasArticle:
		rec.SuggestedMode = ModeArticle
	case hasComments:
		rec.SuggestedMode = ModeForum
	}

	if len(sections) == 0 {
		rec.ConfidenceLevel = VeryLow
		return rec
	}

	top := sections[0].Score
	switch {
	case top > 0.8:
		rec.ConfidenceLevel = VeryHigh
	case top > 0.6:
		rec.ConfidenceLevel = High
	case top > 0.4:
		rec.ConfidenceLevel = Medium
	default:
		rec.ConfidenceLevel = Low
	}
	return rec
}

// deduplicate drops sections whose preview starts with the same 100
// characters as an earlier (higher-scoring) section.
func (a *Analyzer) deduplicate(sections []Section) []Section {
	result := make([]Section, 0, len(sections))
	seen := make(map[string]bool)

	for _, s := range sections {
		fingerprint := firstRunes(s.Preview, 100)
		if seen[fingerprint] {
			continue
		}
		seen[fingerprint] = true
		result = append(result, s)
	}
	return result
}

func sortByScore(sections []Section) {
	// Stable so equal scores keep taxonomy order, which keeps the whole
	// analysis deterministic.
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Score > sections[j].Score
	})
}

// synthesizeSelector derives a usable selector for an element found by the
// div fallback: id wins, then the first class, then the tag name.
func synthesizeSelector(s *goquery.Selection) string {
	if id := s.AttrOr("id", ""); id != "" {
		return "#" + id
	}

	if classes := strings.Fields(s.AttrOr("class", "")); len(classes) > 0 {
		return "." + classes[0]
	}

	if s.Length() > 0 {
		return goquery.NodeName(s)
	}
	return "div"
}

func makePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func hasMainContent(sections []Section) bool {
	for _, s := range sections {
		if s.SectionType == MainContent || s.SectionType == Article {
			return true
		}
	}
	return false
}

func isStructural(t SectionType) bool {
	return t == Header || t == Footer || t == Navigation
}

func ratio(value, limit int) float64 {
	if value > limit {
		value = limit
	}
	return float64(value) / float64(limit)
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(v, 1.0))
}
