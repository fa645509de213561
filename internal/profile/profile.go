// Package profile defines the adaptive site-profile model: the selectors
// that worked for a domain, with confidence and feedback-adjusted success
// rate, so repeat visits can skip structure analysis.
package profile

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pagelore/pagelore/internal/analyzer"
)

// EMAWeight is the weight of a new feedback observation in the success-rate
// exponential moving average.
const EMAWeight = 0.3

// ErrNotFound is returned when no profile matches the lookup.
var ErrNotFound = errors.New("profile not found")

// SiteProfile is a domain's remembered extraction strategy. Profiles are
// versioned: saving never overwrites, and retrieval prefers the highest
// confidence, then the most recently used.
type SiteProfile struct {
	ID                  string    `json:"id"`
	Domain              string    `json:"domain"`
	Pattern             string    `json:"pattern,omitempty"`
	MainContentSelector string    `json:"mainContentSelector,omitempty"`
	TitleSelector       string    `json:"titleSelector,omitempty"`
	CommentsSelector    string    `json:"commentsSelector,omitempty"`
	ExtractionMode      string    `json:"extractionMode"`
	Confidence          float64   `json:"confidence"`
	UseCount            int       `json:"useCount"`
	SuccessRate         float64   `json:"successRate"`
	CreatedAt           time.Time `json:"createdAt"`
	LastUsed            time.Time `json:"lastUsed"`
	Notes               string    `json:"notes,omitempty"`
}

// Stats aggregates the whole profile table.
type Stats struct {
	TotalProfiles  int     `json:"totalProfiles"`
	TotalUses      int     `json:"totalUses"`
	AvgConfidence  float64 `json:"avgConfidence"`
	AvgSuccessRate float64 `json:"avgSuccessRate"`
}

// Store is the capability interface over profile persistence. The SQLite
// implementation lives in internal/storage; MemoryStore below backs tests.
// Lookups and Delete return ErrNotFound when no profile matches the ID.
type Store interface {
	Insert(p *SiteProfile) error
	GetByID(id string) (*SiteProfile, error)
	GetByDomain(domain string) (*SiteProfile, error)
	GetAll() ([]*SiteProfile, error)
	GetByMode(mode string) ([]*SiteProfile, error)
	UpdateUsage(id string, success bool) error
	Delete(id string) error
	ClearAll() error
	Stats() (*Stats, error)
}

// FromAnalysis builds a new versioned profile from a structure analysis.
// The profile confidence blends the top section score with the presence of
// main-content and title recommendations.
func FromAnalysis(analysis *analyzer.StructureAnalysis) (*SiteProfile, error) {
	domain, err := domainOf(analysis.URL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &SiteProfile{
		ID:                  uuid.NewString(),
		Domain:              domain,
		MainContentSelector: analysis.Recommendations.BestMainContent,
		TitleSelector:       analysis.Recommendations.BestTitle,
		CommentsSelector:    analysis.Recommendations.BestComments,
		ExtractionMode:      string(analysis.Recommendations.SuggestedMode),
		Confidence:          ConfidenceFromAnalysis(analysis),
		UseCount:            0,
		SuccessRate:         1.0,
		CreatedAt:           now,
		LastUsed:            now,
	}, nil
}

// ConfidenceFromAnalysis computes the stored profile confidence:
// 0.7 times the top section score, plus 0.2 when a main-content selector
// was found and 0.1 when a title selector was found, capped at 1.
func ConfidenceFromAnalysis(analysis *analyzer.StructureAnalysis) float64 {
	if len(analysis.Sections) == 0 {
		return 0.0
	}

	confidence := analysis.Sections[0].Score * 0.7

	if analysis.Recommendations.BestMainContent != "" {
		confidence += 0.2
	}
	if analysis.Recommendations.BestTitle != "" {
		confidence += 0.1
	}

	return math.Min(confidence, 1.0)
}

// ApplyFeedback folds one success/failure observation into the profile:
// EMA on the success rate, use count increment, last-used refresh.
func (p *SiteProfile) ApplyFeedback(success bool) {
	observation := 0.0
	if success {
		observation = 1.0
	}

	p.SuccessRate = EMAWeight*observation + (1-EMAWeight)*p.SuccessRate
	p.UseCount++
	p.LastUsed = time.Now().UTC()
}

func domainOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("no host in URL %q", rawURL)
	}
	return parsed.Hostname(), nil
}
