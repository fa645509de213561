package extract

import "github.com/pagelore/pagelore/internal/config"

// defaultSelectors are the built-in selector lists tried in order until one
// matches. Custom selectors from the crawl configuration replace individual
// lists, not the whole set.
func defaultSelectors() config.AutoSelectors {
	return config.AutoSelectors{
		Title: []string{
			"h1",
			"h2",
			"title",
			"meta[property='og:title']",
			".title",
			"#title",
		},
		Content: []string{
			"article",
			"main",
			"p",
			".content",
			".article-body",
			".post-content",
			"[role='main']",
		},
		Links: []string{
			"a[href]",
			"nav a",
			".nav-link",
		},
		Images: []string{
			"img[src]",
			"picture img",
			"[data-src]",
		},
		Metadata: []string{
			"meta[name='description']",
			"meta[property='og:description']",
			"meta[name='keywords']",
			"meta[name='author']",
		},
	}
}

// mergeSelectors overlays non-empty custom lists onto the defaults.
func mergeSelectors(custom *config.AutoSelectors) config.AutoSelectors {
	merged := defaultSelectors()
	if custom == nil {
		return merged
	}

	if len(custom.Title) > 0 {
		merged.Title = custom.Title
	}
	if len(custom.Content) > 0 {
		merged.Content = custom.Content
	}
	if len(custom.Links) > 0 {
		merged.Links = custom.Links
	}
	if len(custom.Images) > 0 {
		merged.Images = custom.Images
	}
	if len(custom.Metadata) > 0 {
		merged.Metadata = custom.Metadata
	}
	return merged
}
