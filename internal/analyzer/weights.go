package analyzer

// ScoringWeights externalizes the scoring coefficients so the policy can be
// tuned without touching the scorer's control flow. All terms are clamped to
// [0,1] before weighting and the weighted sum is clamped again.
type ScoringWeights struct {
	// Article / main content
	ArticleDensity     float64
	ArticleLinkDensity float64 // applied to (1 - linkDensity)
	ArticleParagraphs  float64
	ArticleTextLength  float64

	// Sidebar
	SidebarLinks      float64
	SidebarShortText  float64 // applied to (1 - textLength ratio)

	// Navigation, header, footer
	NavLinkDensity float64
	NavShortText   float64

	// Comments
	CommentsElements   float64
	CommentsTextOffset float64 // distance of textLength from the 500-char sweet spot

	// Fallback score for unclassified regions
	UnknownScore float64
}

// DefaultWeights returns the stock scoring policy.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		ArticleDensity:     0.3,
		ArticleLinkDensity: 0.3,
		ArticleParagraphs:  0.2,
		ArticleTextLength:  0.2,
		SidebarLinks:       0.5,
		SidebarShortText:   0.3,
		NavLinkDensity:     0.5,
		NavShortText:       0.3,
		CommentsElements:   0.4,
		CommentsTextOffset: 0.3,
		UnknownScore:       0.5,
	}
}
