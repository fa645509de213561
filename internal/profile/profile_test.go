package profile

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pagelore/pagelore/internal/analyzer"
)

func TestFromAnalysis(t *testing.T) {
	analysis := &analyzer.StructureAnalysis{
		URL: "https://example.com/articles/1",
		Sections: []analyzer.Section{
			{Selector: "article", SectionType: analyzer.Article, Score: 0.8},
		},
		Recommendations: analyzer.Recommendations{
			BestMainContent: "article",
			BestTitle:       "h1, h2, title",
			SuggestedMode:   analyzer.ModeArticle,
		},
	}

	p, err := FromAnalysis(analysis)
	if err != nil {
		t.Fatalf("FromAnalysis() error = %v", err)
	}

	if p.ID == "" {
		t.Error("expected generated profile ID")
	}
	if p.Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", p.Domain)
	}
	if p.MainContentSelector != "article" {
		t.Errorf("MainContentSelector = %q, want article", p.MainContentSelector)
	}
	if p.ExtractionMode != "article" {
		t.Errorf("ExtractionMode = %q, want article", p.ExtractionMode)
	}
	if p.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", p.SuccessRate)
	}
	if p.UseCount != 0 {
		t.Errorf("UseCount = %d, want 0", p.UseCount)
	}

	want := math.Min(0.8*0.7+0.2+0.1, 1.0)
	if math.Abs(p.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", p.Confidence, want)
	}
}

func TestFromAnalysisBadURL(t *testing.T) {
	analysis := &analyzer.StructureAnalysis{URL: "not-a-url"}
	if _, err := FromAnalysis(analysis); err == nil {
		t.Error("expected error for URL with no host")
	}
}

func TestConfidenceFromAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		topScore float64
		main     string
		title    string
		sections int
		want     float64
	}{
		{"no sections", 0, "", "", 0, 0.0},
		{"score only", 0.6, "", "", 1, 0.42},
		{"with main", 0.6, "article", "", 1, 0.62},
		{"with main and title", 0.6, "article", "h1, h2, title", 1, 0.72},
		{"capped at one", 1.0, "article", "h1, h2, title", 1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := &analyzer.StructureAnalysis{
				Recommendations: analyzer.Recommendations{
					BestMainContent: tt.main,
					BestTitle:       tt.title,
				},
			}
			for i := 0; i < tt.sections; i++ {
				analysis.Sections = append(analysis.Sections, analyzer.Section{Score: tt.topScore})
			}

			got := ConfidenceFromAnalysis(analysis)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConfidenceFromAnalysis() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFeedback(t *testing.T) {
	p := &SiteProfile{SuccessRate: 1.0, LastUsed: time.Now().Add(-time.Hour)}

	p.ApplyFeedback(false)
	if math.Abs(p.SuccessRate-0.7) > 1e-9 {
		t.Errorf("SuccessRate after failure = %v, want 0.7", p.SuccessRate)
	}
	if p.UseCount != 1 {
		t.Errorf("UseCount = %d, want 1", p.UseCount)
	}

	p.ApplyFeedback(true)
	want := 0.3*1.0 + 0.7*0.7
	if math.Abs(p.SuccessRate-want) > 1e-9 {
		t.Errorf("SuccessRate after success = %v, want %v", p.SuccessRate, want)
	}
	if p.UseCount != 2 {
		t.Errorf("UseCount = %d, want 2", p.UseCount)
	}
	if time.Since(p.LastUsed) > time.Minute {
		t.Error("LastUsed was not refreshed")
	}
}

func TestApplyFeedbackConverges(t *testing.T) {
	p := &SiteProfile{SuccessRate: 1.0}
	for i := 0; i < 50; i++ {
		p.ApplyFeedback(false)
	}
	if p.SuccessRate > 0.01 {
		t.Errorf("SuccessRate = %v, expected convergence toward 0", p.SuccessRate)
	}

	for i := 0; i < 50; i++ {
		p.ApplyFeedback(true)
	}
	if p.SuccessRate < 0.99 {
		t.Errorf("SuccessRate = %v, expected convergence toward 1", p.SuccessRate)
	}
}

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()

	p := &SiteProfile{
		ID:             "p1",
		Domain:         "example.com",
		ExtractionMode: "article",
		Confidence:     0.8,
		SuccessRate:    1.0,
		CreatedAt:      time.Now().UTC(),
		LastUsed:       time.Now().UTC(),
	}
	if err := store.Insert(p); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := store.GetByID("p1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", got.Domain)
	}

	if _, err := store.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}

	if err := store.Delete("p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByID("p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete("p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(p1) again error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreGetByDomainPrefersConfidence(t *testing.T) {
	store := NewMemoryStore()

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()

	profiles := []*SiteProfile{
		{ID: "low", Domain: "example.com", Confidence: 0.4, LastUsed: newer},
		{ID: "high", Domain: "example.com", Confidence: 0.9, LastUsed: older},
		{ID: "other", Domain: "other.com", Confidence: 1.0, LastUsed: newer},
	}
	for _, p := range profiles {
		if err := store.Insert(p); err != nil {
			t.Fatalf("Insert(%s) error = %v", p.ID, err)
		}
	}

	got, err := store.GetByDomain("example.com")
	if err != nil {
		t.Fatalf("GetByDomain() error = %v", err)
	}
	if got.ID != "high" {
		t.Errorf("GetByDomain() = %s, want high", got.ID)
	}

	if _, err := store.GetByDomain("unknown.org"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByDomain(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreGetByDomainBreaksTiesByRecency(t *testing.T) {
	store := NewMemoryStore()

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()

	store.Insert(&SiteProfile{ID: "stale", Domain: "example.com", Confidence: 0.8, LastUsed: older})
	store.Insert(&SiteProfile{ID: "fresh", Domain: "example.com", Confidence: 0.8, LastUsed: newer})

	got, err := store.GetByDomain("example.com")
	if err != nil {
		t.Fatalf("GetByDomain() error = %v", err)
	}
	if got.ID != "fresh" {
		t.Errorf("GetByDomain() = %s, want fresh", got.ID)
	}
}

func TestMemoryStoreUpdateUsage(t *testing.T) {
	store := NewMemoryStore()
	store.Insert(&SiteProfile{ID: "p1", Domain: "example.com", SuccessRate: 1.0})

	if err := store.UpdateUsage("p1", false); err != nil {
		t.Fatalf("UpdateUsage() error = %v", err)
	}

	got, err := store.GetByID("p1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if math.Abs(got.SuccessRate-0.7) > 1e-9 {
		t.Errorf("SuccessRate = %v, want 0.7", got.SuccessRate)
	}
	if got.UseCount != 1 {
		t.Errorf("UseCount = %d, want 1", got.UseCount)
	}

	if err := store.UpdateUsage("missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUsage(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalProfiles != 0 {
		t.Errorf("TotalProfiles = %d, want 0", stats.TotalProfiles)
	}

	store.Insert(&SiteProfile{ID: "a", Domain: "a.com", Confidence: 0.4, SuccessRate: 0.8, UseCount: 2})
	store.Insert(&SiteProfile{ID: "b", Domain: "b.com", Confidence: 0.8, SuccessRate: 1.0, UseCount: 4})

	stats, err = store.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalProfiles != 2 {
		t.Errorf("TotalProfiles = %d, want 2", stats.TotalProfiles)
	}
	if stats.TotalUses != 6 {
		t.Errorf("TotalUses = %d, want 6", stats.TotalUses)
	}
	if math.Abs(stats.AvgConfidence-0.6) > 1e-9 {
		t.Errorf("AvgConfidence = %v, want 0.6", stats.AvgConfidence)
	}
	if math.Abs(stats.AvgSuccessRate-0.9) > 1e-9 {
		t.Errorf("AvgSuccessRate = %v, want 0.9", stats.AvgSuccessRate)
	}
}

func TestMemoryStoreGetAllOrdering(t *testing.T) {
	store := NewMemoryStore()
	store.Insert(&SiteProfile{ID: "mid", Domain: "a.com", Confidence: 0.5})
	store.Insert(&SiteProfile{ID: "top", Domain: "b.com", Confidence: 0.9})
	store.Insert(&SiteProfile{ID: "low", Domain: "c.com", Confidence: 0.1})

	all, err := store.GetAll()
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	wantOrder := []string{"top", "mid", "low"}
	if len(all) != len(wantOrder) {
		t.Fatalf("GetAll() returned %d profiles, want %d", len(all), len(wantOrder))
	}
	for i, want := range wantOrder {
		if all[i].ID != want {
			t.Errorf("GetAll()[%d] = %s, want %s", i, all[i].ID, want)
		}
	}
}

func TestMemoryStoreClearAll(t *testing.T) {
	store := NewMemoryStore()
	store.Insert(&SiteProfile{ID: "p1", Domain: "a.com"})
	store.Insert(&SiteProfile{ID: "p2", Domain: "b.com"})

	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	all, err := store.GetAll()
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("GetAll() after clear returned %d profiles, want 0", len(all))
	}
}
