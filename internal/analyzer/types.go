package analyzer

import "time"

// SectionType classifies a DOM region by semantic role.
type SectionType string

const (
	MainContent    SectionType = "main_content"
	Article        SectionType = "article"
	Sidebar        SectionType = "sidebar"
	Navigation     SectionType = "navigation"
	Header         SectionType = "header"
	Footer         SectionType = "footer"
	Comments       SectionType = "comments"
	RelatedLinks   SectionType = "related_links"
	Advertisements SectionType = "advertisements"
	Unknown        SectionType = "unknown"
)

// ExtractionMode is the recommended extraction strategy for a page.
type ExtractionMode string

const (
	ModeArticle       ExtractionMode = "article"
	ModeProduct       ExtractionMode = "product"
	ModeForum         ExtractionMode = "forum"
	ModeListPage      ExtractionMode = "list_page"
	ModeDocumentation ExtractionMode = "documentation"
	ModeGeneric       ExtractionMode = "generic"
)

// ConfidenceLevel buckets the top section score.
type ConfidenceLevel string

const (
	VeryHigh ConfidenceLevel = "very_high"
	High     ConfidenceLevel = "high"
	Medium   ConfidenceLevel = "medium"
	Low      ConfidenceLevel = "low"
	VeryLow  ConfidenceLevel = "very_low"
)

// SectionStats are the derived statistics of one DOM region.
type SectionStats struct {
	TextLength     int     `json:"textLength"`
	WordCount      int     `json:"wordCount"`
	LinkCount      int     `json:"linkCount"`
	ImageCount     int     `json:"imageCount"`
	ParagraphCount int     `json:"paragraphCount"`
	HeadingCount   int     `json:"headingCount"`
	DensityScore   float64 `json:"densityScore"`
	LinkDensity    float64 `json:"linkDensity"`
	ElementCount   int     `json:"elementCount"`
}

// Section is one scored DOM region.
type Section struct {
	Selector    string       `json:"selector"`
	SectionType SectionType  `json:"sectionType"`
	Score       float64      `json:"score"`
	Confidence  float64      `json:"confidence"`
	Stats       SectionStats `json:"stats"`
	Preview     string       `json:"preview"`
	XPath       string       `json:"xpath,omitempty"`
}

// Recommendations distill an analysis into actionable selectors.
type Recommendations struct {
	BestMainContent string          `json:"bestMainContent,omitempty"`
	BestTitle       string          `json:"bestTitle,omitempty"`
	BestComments    string          `json:"bestComments,omitempty"`
	SuggestedMode   ExtractionMode  `json:"suggestedMode"`
	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel"`
}

// DebugInfo carries analysis diagnostics when debug mode is on.
type DebugInfo struct {
	TotalElements    int   `json:"totalElements"`
	AnalyzedSections int   `json:"analyzedSections"`
	ProcessingTimeMS int64 `json:"processingTimeMs"`
}

// StructureAnalysis is the full result of analyzing one page.
type StructureAnalysis struct {
	URL             string          `json:"url"`
	Timestamp       time.Time       `json:"timestamp"`
	Sections        []Section       `json:"sections"`
	Recommendations Recommendations `json:"recommendations"`
	DebugInfo       *DebugInfo      `json:"debugInfo,omitempty"`
}
