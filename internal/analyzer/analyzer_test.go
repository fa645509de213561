package analyzer

import (
	"strings"
	"testing"

	"github.com/pagelore/pagelore/internal/config"
)

func articlePage() []byte {
	paragraphs := make([]string, 10)
	for i := range paragraphs {
		paragraphs[i] = "<p>" + strings.Repeat("A long sentence of real article prose keeps the density high. ", 9) + "</p>"
	}

	return []byte(`<html><body>
		<nav>
			<a href="/">Home</a>
			<a href="/news">News</a>
			<a href="/sports">Sports</a>
			<a href="/about">About</a>
			<a href="/contact">Contact</a>
		</nav>
		<article>` + strings.Join(paragraphs, "\n") + `</article>
		<footer><a href="/imprint">Imprint</a> All rights reserved.</footer>
	</body></html>`)
}

func TestAnalyzeRanksArticleFirst(t *testing.T) {
	a := New()
	analysis := a.Analyze(articlePage(), "https://example.com/story")

	if len(analysis.Sections) == 0 {
		t.Fatal("no sections found")
	}

	top := analysis.Sections[0]
	if top.SectionType != Article {
		t.Errorf("top section type = %s, want article", top.SectionType)
	}
	if top.Selector != "article" {
		t.Errorf("top selector = %q, want article", top.Selector)
	}

	for i := 1; i < len(analysis.Sections); i++ {
		if analysis.Sections[i].Score > analysis.Sections[i-1].Score {
			t.Errorf("sections not sorted by score at index %d", i)
		}
	}

	rec := analysis.Recommendations
	if rec.BestMainContent != "article" {
		t.Errorf("BestMainContent = %q, want article", rec.BestMainContent)
	}
	if rec.BestTitle != "h1, h2, title" {
		t.Errorf("BestTitle = %q", rec.BestTitle)
	}
	if rec.SuggestedMode != ModeArticle {
		t.Errorf("SuggestedMode = %s, want article", rec.SuggestedMode)
	}
	if rec.ConfidenceLevel != VeryHigh {
		t.Errorf("ConfidenceLevel = %s, want very_high (top score %v)", rec.ConfidenceLevel, top.Score)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := New()
	markup := articlePage()

	first := a.Analyze(markup, "https://example.com/story")
	second := a.Analyze(markup, "https://example.com/story")

	if len(first.Sections) != len(second.Sections) {
		t.Fatalf("section counts differ: %d vs %d", len(first.Sections), len(second.Sections))
	}
	for i := range first.Sections {
		f, s := first.Sections[i], second.Sections[i]
		if f.Selector != s.Selector || f.SectionType != s.SectionType || f.Score != s.Score {
			t.Errorf("section %d differs between runs: %+v vs %+v", i, f, s)
		}
	}
}

func TestAnalyzeEmptyAndMalformedMarkup(t *testing.T) {
	a := New()

	for _, markup := range [][]byte{nil, []byte(""), []byte("<<<<not html>>>")} {
		analysis := a.Analyze(markup, "https://example.com/")

		if analysis.Sections == nil {
			t.Error("Sections must be non-nil")
		}
		if len(analysis.Sections) != 0 {
			t.Errorf("Sections = %v, want empty for %q", analysis.Sections, markup)
		}
		if analysis.Recommendations.ConfidenceLevel != VeryLow {
			t.Errorf("ConfidenceLevel = %s, want very_low", analysis.Recommendations.ConfidenceLevel)
		}
		if analysis.Recommendations.SuggestedMode != ModeGeneric {
			t.Errorf("SuggestedMode = %s, want generic", analysis.Recommendations.SuggestedMode)
		}
		if analysis.Recommendations.BestTitle != "h1, h2, title" {
			t.Errorf("BestTitle = %q", analysis.Recommendations.BestTitle)
		}
	}
}

func TestScoresAndConfidencesBounded(t *testing.T) {
	a := New()
	analysis := a.Analyze(articlePage(), "https://example.com/")

	for _, s := range analysis.Sections {
		if s.Score < 0 || s.Score > 1 {
			t.Errorf("section %q score %v out of [0,1]", s.Selector, s.Score)
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			t.Errorf("section %q confidence %v out of [0,1]", s.Selector, s.Confidence)
		}
		if s.Stats.DensityScore < 0 || s.Stats.DensityScore > 1 {
			t.Errorf("section %q density %v out of [0,1]", s.Selector, s.Stats.DensityScore)
		}
	}
}

func TestMainContentPromotedToArticle(t *testing.T) {
	longText := strings.Repeat("Dense text with very few child elements in the region. ", 12)
	markup := []byte(`<html><body><main><p>` + longText + `</p></main></body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/")

	if len(analysis.Sections) == 0 {
		t.Fatal("no sections found")
	}
	if analysis.Sections[0].SectionType != Article {
		t.Errorf("dense long main region = %s, want promotion to article", analysis.Sections[0].SectionType)
	}
}

func TestShortMainContentNotPromoted(t *testing.T) {
	markup := []byte(`<html><body><main><p>` +
		strings.Repeat("Short but dense main region text. ", 7) + `</p></main></body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/")

	if len(analysis.Sections) == 0 {
		t.Fatal("no sections found")
	}
	if analysis.Sections[0].SectionType != MainContent {
		t.Errorf("short main region = %s, want main_content", analysis.Sections[0].SectionType)
	}
}

func TestDivFallback(t *testing.T) {
	longPara := "<p>" + strings.Repeat("Fallback container prose without any semantic wrapper. ", 4) + "</p>"
	markup := []byte(`<html><body><div id="story">` +
		longPara + longPara + longPara +
		`</div></body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/")

	var found bool
	for _, s := range analysis.Sections {
		if s.Selector == "#story" && s.SectionType == MainContent {
			found = true
		}
	}
	if !found {
		t.Errorf("div fallback did not surface #story: %+v", analysis.Sections)
	}
}

func TestDivFallbackSelectorFromClass(t *testing.T) {
	longPara := "<p>" + strings.Repeat("Classed container prose without an id attribute present. ", 4) + "</p>"
	markup := []byte(`<html><body><div class="story-body wide">` +
		longPara + longPara + longPara +
		`</div></body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/")

	var found bool
	for _, s := range analysis.Sections {
		if s.Selector == ".story-body" {
			found = true
		}
	}
	if !found {
		t.Errorf("div fallback selector should use the first class: %+v", analysis.Sections)
	}
}

func TestDivFallbackSkippedWhenMainContentExists(t *testing.T) {
	longPara := "<p>" + strings.Repeat("Prose that lives inside a proper article element this time. ", 4) + "</p>"
	markup := []byte(`<html><body>
		<article>` + longPara + longPara + longPara + `</article>
		<div id="wrapper">` + longPara + longPara + longPara + `</div>
	</body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/")

	for _, s := range analysis.Sections {
		if s.Selector == "#wrapper" {
			t.Error("div fallback ran despite an existing main-content section")
		}
	}
}

func TestDeduplicateByPreview(t *testing.T) {
	longText := strings.Repeat("Identical text appears in both the article and its container. ", 10)
	markup := []byte(`<html><body>
		<main><article><p>` + longText + `</p></article></main>
	</body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/")

	previews := make(map[string]int)
	for _, s := range analysis.Sections {
		key := s.Preview
		if len(key) > 100 {
			key = key[:100]
		}
		previews[key]++
	}
	for p, n := range previews {
		if n > 1 {
			t.Errorf("preview %q appears %d times, want deduplication", p[:20], n)
		}
	}
}

func TestCommentsDetectionToggle(t *testing.T) {
	markup := []byte(`<html><body>
		<article><p>` + strings.Repeat("The main article text for this page is long enough. ", 10) + `</p></article>
		<div class="comments">` + strings.Repeat("<p>A reader comment with some length to it here.</p>", 8) + `</div>
	</body></html>`)

	withComments := NewWithOptions(config.AnalyzeOptions{MinContentLength: 200, DetectComments: true}, DefaultWeights())
	analysis := withComments.Analyze(markup, "https://example.com/")

	var found bool
	for _, s := range analysis.Sections {
		if s.SectionType == Comments {
			found = true
		}
	}
	if !found {
		t.Error("comments section missing with DetectComments=true")
	}
	if analysis.Recommendations.BestComments == "" {
		t.Error("BestComments not recommended")
	}

	withoutComments := NewWithOptions(config.AnalyzeOptions{MinContentLength: 200, DetectComments: false}, DefaultWeights())
	analysis = withoutComments.Analyze(markup, "https://example.com/")

	for _, s := range analysis.Sections {
		if s.SectionType == Comments {
			t.Error("comments section present with DetectComments=false")
		}
	}
	if analysis.Recommendations.BestComments != "" {
		t.Errorf("BestComments = %q, want empty", analysis.Recommendations.BestComments)
	}
}

func TestStructuralSectionsExemptFromMinLength(t *testing.T) {
	markup := []byte(`<html><body>
		<nav><a href="/">Home</a></nav>
		<header>Site</header>
		<footer>Feet</footer>
		<article><p>Too short.</p></article>
	</body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/")

	types := make(map[SectionType]bool)
	for _, s := range analysis.Sections {
		types[s.SectionType] = true
	}

	for _, want := range []SectionType{Navigation, Header, Footer} {
		if !types[want] {
			t.Errorf("structural section %s missing despite short text", want)
		}
	}
	if types[Article] {
		t.Error("short article passed the minimum content length")
	}
}

func TestForumModeWhenOnlyComments(t *testing.T) {
	markup := []byte(`<html><body>
		<div id="comments"><ul>` + strings.Repeat("<li>Another forum post in the thread with readable length.</li>", 8) + `</ul></div>
	</body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/thread")

	if analysis.Recommendations.SuggestedMode != ModeForum {
		t.Errorf("SuggestedMode = %s, want forum", analysis.Recommendations.SuggestedMode)
	}
}

func TestProductModeFromSelector(t *testing.T) {
	longText := strings.Repeat("Product description text with details about the item for sale. ", 8)
	markup := []byte(`<html><body>
		<div class="product-details">` +
		"<p>" + longText + "</p><p>" + longText + "</p><p>" + longText + "</p>" +
		`</div></body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/item")

	if analysis.Recommendations.SuggestedMode != ModeProduct {
		t.Errorf("SuggestedMode = %s, want product (selector contains product)", analysis.Recommendations.SuggestedMode)
	}
}

func TestPreviewTruncation(t *testing.T) {
	longText := strings.Repeat("abcdefghij", 60)
	markup := []byte(`<html><body><article><p>` + longText + `</p></article></body></html>`)

	a := New()
	analysis := a.Analyze(markup, "https://example.com/")

	if len(analysis.Sections) == 0 {
		t.Fatal("no sections found")
	}
	preview := analysis.Sections[0].Preview
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("long preview should be truncated with ellipsis: %q", preview)
	}
	if got := len([]rune(preview)); got != 203 {
		t.Errorf("preview length = %d runes, want 200 plus ellipsis", got)
	}
}

func TestDebugInfo(t *testing.T) {
	a := NewWithOptions(config.AnalyzeOptions{MinContentLength: 200, DetectComments: true, DebugMode: true}, DefaultWeights())
	analysis := a.Analyze(articlePage(), "https://example.com/")

	if analysis.DebugInfo == nil {
		t.Fatal("DebugInfo missing in debug mode")
	}
	if analysis.DebugInfo.TotalElements == 0 {
		t.Error("TotalElements = 0, want element count")
	}
	if analysis.DebugInfo.AnalyzedSections != len(analysis.Sections) {
		t.Errorf("AnalyzedSections = %d, want %d",
			analysis.DebugInfo.AnalyzedSections, len(analysis.Sections))
	}

	plain := New()
	if plain.Analyze(articlePage(), "https://example.com/").DebugInfo != nil {
		t.Error("DebugInfo present without debug mode")
	}
}

func TestScoringWeightsInfluenceRanking(t *testing.T) {
	weights := DefaultWeights()
	weights.ArticleDensity = 0
	weights.ArticleLinkDensity = 0
	weights.ArticleParagraphs = 0
	weights.ArticleTextLength = 0

	muted := NewWithOptions(config.DefaultAnalyzeOptions(), weights)
	analysis := muted.Analyze(articlePage(), "https://example.com/")

	for _, s := range analysis.Sections {
		if s.SectionType == Article && s.Score != 0 {
			t.Errorf("article score = %v, want 0 with zeroed article weights", s.Score)
		}
	}
}
