package clip

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fashionassist/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not-a-real-jpeg"), 0o644))
	return path
}

func TestEncodeImage(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed/image", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddingResponse{
			Embeddings: [][]float32{{3, 4}},
		})
	})

	client := NewClient(srv.URL, 5*time.Second, nil, 0)
	vec, err := client.EncodeImage(context.Background(), writeTempImage(t))
	require.NoError(t, err)
	require.Len(t, vec, 2)

	// 3-4-5 triangle normalizes to 0.6, 0.8
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestEncodeImageMissingFile(t *testing.T) {
	client := NewClient("http://localhost:1", time.Second, nil, 0)
	_, err := client.EncodeImage(context.Background(), "/nonexistent/image.jpg")
	assert.Error(t, err)
}

func TestEncodeImageServerError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := NewClient(srv.URL, 5*time.Second, nil, 0)
	_, err := client.EncodeImage(context.Background(), writeTempImage(t))
	assert.Error(t, err)
}

func TestEncodeTexts(t *testing.T) {
	var calls int
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/embed/text", r.URL.Path)

		var body struct {
			Texts []string `json:"texts"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		resp := embeddingResponse{}
		for range body.Texts {
			resp.Embeddings = append(resp.Embeddings, []float32{1, 0})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	client := NewClient(srv.URL, 5*time.Second, cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()

	vecs, err := client.EncodeTexts(ctx, []string{"a photo of a shirt", "a photo of pants"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, 1, calls)

	// Second call for the same prompts is served from cache
	vecs, err = client.EncodeTexts(ctx, []string{"a photo of a shirt", "a photo of pants"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, 1, calls, "cached prompts should not hit the service again")
}

func TestEncodeTextsEmpty(t *testing.T) {
	client := NewClient("http://localhost:1", time.Second, nil, 0)
	_, err := client.EncodeTexts(context.Background(), nil)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	t.Run("scales to unit length", func(t *testing.T) {
		out := normalize([]float32{3, 4})
		var sum float64
		for _, v := range out {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
	})

	t.Run("leaves zero vector alone", func(t *testing.T) {
		out := normalize([]float32{0, 0})
		assert.Equal(t, []float32{0, 0}, out)
	})
}
