package domain

import "time"

// WardrobeItem is a previously catalogued garment. The analysis core reads
// it only for the image path and the three label fields.
type WardrobeItem struct {
	Filename   string    `json:"filename"`
	ImagePath  string    `json:"image_path"`
	Category   string    `json:"category"`
	Color      string    `json:"color"`
	Style      string    `json:"style"`
	Confidence float64   `json:"confidence"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// WardrobeSummary aggregates catalog statistics for display.
type WardrobeSummary struct {
	TotalItems int      `json:"total_items"`
	Categories []string `json:"categories"`
	Colors     []string `json:"colors"`
}

// WardrobeMatch pairs a wardrobe item with its compatibility score against
// a candidate image.
type WardrobeMatch struct {
	Item  WardrobeItem `json:"item"`
	Score float64      `json:"score"`
}
