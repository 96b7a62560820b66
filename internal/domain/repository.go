package domain

import (
	"context"
	"time"
)

// ImageEncoder produces unit-normalized embedding vectors. The embedding
// model itself is an external collaborator behind this interface.
type ImageEncoder interface {
	EncodeImage(ctx context.Context, imagePath string) ([]float32, error)
	EncodeTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TextGenerator produces free-form text from a prompt. The language model
// is an external collaborator; Available reports whether the backend could
// be reached at startup so callers can fall back to rule-based behavior.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Available() bool
}

// ProductScraper extracts a product record from a URL and downloads
// candidate images to local storage.
type ProductScraper interface {
	Scrape(ctx context.Context, url string) (*ProductRecord, error)
	DownloadImage(ctx context.Context, imageURL, destPath string) (string, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// WardrobeRepository defines the interface for the JSON-backed garment
// catalogs. Read-modify-write with no locking; concurrent writers can
// clobber each other, an accepted limitation of the persistence layer.
type WardrobeRepository interface {
	List(ctx context.Context) ([]WardrobeItem, error)
	Add(ctx context.Context, item WardrobeItem) error
	Summary(ctx context.Context) (*WardrobeSummary, error)
}
