package domain

import "errors"

var (
	// ErrScrapeFailed is returned when a product page cannot be fetched or parsed
	ErrScrapeFailed = errors.New("failed to scrape product page")

	// ErrNoImages is returned when a scraped product page yields no candidate images
	ErrNoImages = errors.New("no images found in the product page")

	// ErrNoValidImages is returned when no candidate survives classification and validation
	ErrNoValidImages = errors.New("no valid images found after analysis")

	// ErrModelUnavailable is returned when a model backend cannot be reached
	ErrModelUnavailable = errors.New("model backend unavailable")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrDownloadFailed is returned when an image cannot be downloaded
	ErrDownloadFailed = errors.New("image download failed")
)
