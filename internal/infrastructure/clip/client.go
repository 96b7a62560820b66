package clip

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fashionassist/backend/internal/domain"
	"github.com/go-resty/resty/v2"
)

// Client talks to the Fashion-CLIP embedding sidecar. The sidecar exposes
// POST /embed/image (multipart file upload) and POST /embed/text (JSON
// batch); both return unit-normalized vectors.
type Client struct {
	http     *resty.Client
	cache    domain.CacheRepository
	cacheTTL time.Duration
}

// NewClient creates a new embedding-service client. The cache is used for
// text embeddings only: the fixed label prompts are re-embedded on every
// classification otherwise.
func NewClient(baseURL string, timeout time.Duration, cache domain.CacheRepository, cacheTTL time.Duration) *Client {
	http := resty.New()
	http.SetBaseURL(baseURL)
	http.SetTimeout(timeout)
	http.SetRetryCount(2)
	http.SetRetryWaitTime(500 * time.Millisecond)

	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Client{
		http:     http,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

type embeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EncodeImage returns the unit-normalized embedding for one image file.
func (c *Client) EncodeImage(ctx context.Context, imagePath string) ([]float32, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	var result embeddingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("image", imagePath).
		SetResult(&result).
		Post("/embed/image")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", domain.ErrModelUnavailable, resp.StatusCode())
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding for %s", domain.ErrModelUnavailable, filepath.Base(imagePath))
	}

	return normalize(result.Embeddings[0]), nil
}

// EncodeTexts returns unit-normalized embeddings for a batch of prompts.
// Results are cached per-prompt; only cache misses hit the service.
func (c *Client) EncodeTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if c.cache == nil {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
			continue
		}
		cached, err := c.cache.Get(ctx, "embed:text:"+text)
		if err == nil {
			if vec, ok := cached.([]float32); ok {
				out[i] = vec
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	var result embeddingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string][]string{"texts": missing}).
		SetResult(&result).
		Post("/embed/text")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", domain.ErrModelUnavailable, resp.StatusCode())
	}
	if len(result.Embeddings) != len(missing) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrModelUnavailable, len(result.Embeddings), len(missing))
	}

	for j, vec := range result.Embeddings {
		normalized := normalize(vec)
		out[missingIdx[j]] = normalized
		if c.cache != nil {
			if err := c.cache.Set(ctx, "embed:text:"+missing[j], normalized, c.cacheTTL); err != nil {
				log.Printf("[CLIP] failed to cache text embedding: %v", err)
			}
		}
	}

	return out, nil
}

// normalize scales a vector to unit length. The sidecar already normalizes;
// this guards against a backend that does not.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	if math.Abs(norm-1.0) < 1e-6 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
