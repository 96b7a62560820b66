package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fashionassist/backend/config"
	"github.com/fashionassist/backend/internal/domain"
	"github.com/fashionassist/backend/internal/infrastructure/wardrobe"
	"github.com/fashionassist/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubEncoder returns a fixed unit vector for every input, which makes the
// classifier deterministic without a real embedding backend.
type stubEncoder struct{}

func (stubEncoder) EncodeImage(ctx context.Context, path string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (stubEncoder) EncodeTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

// stubScraper serves a canned product record
type stubScraper struct {
	record    *domain.ProductRecord
	scrapeErr error
}

func (s *stubScraper) Scrape(ctx context.Context, url string) (*domain.ProductRecord, error) {
	if s.scrapeErr != nil {
		return nil, s.scrapeErr
	}
	return s.record, nil
}

func (s *stubScraper) DownloadImage(ctx context.Context, imageURL, destPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(destPath, []byte{0xFF, 0xD8}, 0o644); err != nil {
		return "", err
	}
	return destPath, nil
}

func setupTestRouter(t *testing.T, scraper domain.ProductScraper) *gin.Engine {
	t.Helper()
	dataDir := t.TempDir()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}

	classifier := usecase.NewClassifier(stubEncoder{}, usecase.ClassifierConfig{})
	pipeline := usecase.NewPipeline(
		scraper,
		classifier,
		usecase.NewRuleValidator(),
		usecase.NewCategoryGenerator(nil, false),
		usecase.PipelineOptions{OutputDir: filepath.Join(dataDir, "pipeline_output")},
	)
	compatibility := usecase.NewCompatibilityService(classifier)
	store := wardrobe.NewStore(dataDir)

	handler := NewHandler(pipeline, classifier, compatibility, store, dataDir)
	return SetupRouter(cfg, handler)
}

func defaultScraper() *stubScraper {
	return &stubScraper{
		record: &domain.ProductRecord{
			URL:         "https://example.com/products/blue-denim-jacket",
			Title:       "Blue Denim Jacket",
			Description: "Classic blue denim jacket",
			ImageURLs:   []string{"https://example.com/a.jpg"},
			Context: domain.ContextHints{
				CategoryHints: []string{"jacket"},
				ColorHints:    []string{"blue"},
			},
		},
	}
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(t, defaultScraper())

	w := doJSON(router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("body = %s, want healthy status", w.Body.String())
	}
}

func TestRunPipelineEndpoint(t *testing.T) {
	t.Run("rejects a missing url", func(t *testing.T) {
		router := setupTestRouter(t, defaultScraper())
		w := doJSON(router, http.MethodPost, "/api/v1/pipeline/run", gin.H{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("rejects a malformed url", func(t *testing.T) {
		router := setupTestRouter(t, defaultScraper())
		w := doJSON(router, http.MethodPost, "/api/v1/pipeline/run", gin.H{"url": "not-a-url"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("returns the gallery on success", func(t *testing.T) {
		router := setupTestRouter(t, defaultScraper())
		w := doJSON(router, http.MethodPost, "/api/v1/pipeline/run",
			gin.H{"url": "https://example.com/products/blue-denim-jacket"})

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}

		var result domain.GalleryResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("parsing body: %v", err)
		}
		if !result.Success {
			t.Errorf("Success = false, Error = %q", result.Error)
		}
		if len(result.Images) != 1 {
			t.Errorf("len(Images) = %d, want 1", len(result.Images))
		}
	})

	t.Run("reports a failed run as unprocessable", func(t *testing.T) {
		router := setupTestRouter(t, &stubScraper{scrapeErr: errors.New("403 forbidden")})
		w := doJSON(router, http.MethodPost, "/api/v1/pipeline/run",
			gin.H{"url": "https://example.com/blocked"})

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
		if !strings.Contains(w.Body.String(), "\"pipeline_success\":false") {
			t.Errorf("body = %s, want pipeline_success false", w.Body.String())
		}
	})
}

func TestWardrobeEndpoints(t *testing.T) {
	router := setupTestRouter(t, defaultScraper())

	t.Run("empty catalog lists zero items", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/wardrobe", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), "\"count\":0") {
			t.Errorf("body = %s, want count 0", w.Body.String())
		}
	})

	t.Run("analyze catalogs the uploaded image", func(t *testing.T) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("image", "jacket.jpg")
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
		writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/wardrobe/analyze", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "jacket.jpg") {
			t.Errorf("body = %s, want the catalogued item", w.Body.String())
		}

		listResp := doJSON(router, http.MethodGet, "/api/v1/wardrobe", nil)
		if !strings.Contains(listResp.Body.String(), "\"count\":1") {
			t.Errorf("list body = %s, want count 1", listResp.Body.String())
		}

		summaryResp := doJSON(router, http.MethodGet, "/api/v1/wardrobe/summary", nil)
		var summary domain.WardrobeSummary
		if err := json.Unmarshal(summaryResp.Body.Bytes(), &summary); err != nil {
			t.Fatalf("parsing summary: %v", err)
		}
		if summary.TotalItems != 1 {
			t.Errorf("TotalItems = %d, want 1", summary.TotalItems)
		}
	})

	t.Run("analyze without a file is a bad request", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/wardrobe/analyze", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestCompatibilityEndpoint(t *testing.T) {
	router := setupTestRouter(t, defaultScraper())

	t.Run("requires image_a", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/compatibility", gin.H{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("scores a pair", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/compatibility",
			gin.H{"image_a": "a.jpg", "image_b": "b.jpg"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var resp struct {
			Score float64 `json:"score"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parsing body: %v", err)
		}
		// The stub encoder returns identical vectors for every image
		if resp.Score != 1.0 {
			t.Errorf("score = %v, want 1.0", resp.Score)
		}
	})

	t.Run("scores against the wardrobe when image_b is omitted", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/compatibility", gin.H{"image_a": "a.jpg"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), "matches") {
			t.Errorf("body = %s, want matches", w.Body.String())
		}
	})
}
