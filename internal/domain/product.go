package domain

// ContextHints is heuristic signal derived from the product URL path, title
// and description. Recomputed on every scrape, never mutated afterward.
type ContextHints struct {
	Brand         string   `json:"brand"`
	CategoryHints []string `json:"category_hints"`
	ColorHints    []string `json:"color_hints"`
	MaterialHints []string `json:"material_hints"`
	StyleHints    []string `json:"style_hints"`
}

// ProductRecord is the result of scraping one product URL. Immutable after
// creation; a failed scrape is (nil, error), never a zeroed record.
type ProductRecord struct {
	URL         string       `json:"url"`
	Title       string       `json:"title"`
	Price       string       `json:"price"`
	Description string       `json:"description"`
	ImageURLs   []string     `json:"image_urls"`
	Context     ContextHints `json:"context"`
}
