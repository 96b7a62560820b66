package http

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fashionassist/backend/internal/domain"
	"github.com/fashionassist/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pipeline      *usecase.Pipeline
	classifier    *usecase.Classifier
	compatibility *usecase.CompatibilityService
	wardrobe      domain.WardrobeRepository
	uploadDir     string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	pipeline *usecase.Pipeline,
	classifier *usecase.Classifier,
	compatibility *usecase.CompatibilityService,
	wardrobe domain.WardrobeRepository,
	uploadDir string,
) *Handler {
	return &Handler{
		pipeline:      pipeline,
		classifier:    classifier,
		compatibility: compatibility,
		wardrobe:      wardrobe,
		uploadDir:     uploadDir,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fashionassist-backend",
		"version": "1.0.0",
	})
}

type runPipelineRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// RunPipeline executes the full analysis pipeline for one product URL.
// Pipeline failures are reported in the body with a 422, not a 500: the
// server worked, the URL did not yield a usable gallery.
func (h *Handler) RunPipeline(c *gin.Context) {
	var req runPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid product url is required"})
		return
	}

	result := h.pipeline.Run(c.Request.Context(), req.URL)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListWardrobe returns every catalogued wardrobe item
func (h *Handler) ListWardrobe(c *gin.Context) {
	items, err := h.wardrobe.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read wardrobe catalog"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// WardrobeSummary returns aggregate catalog statistics
func (h *Handler) WardrobeSummary(c *gin.Context) {
	summary, err := h.wardrobe.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read wardrobe catalog"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// AnalyzeWardrobeItem accepts an uploaded garment image, classifies it and
// adds it to the wardrobe catalog. Re-uploading the same filename is a
// no-op on the catalog but still returns the fresh analysis.
func (h *Handler) AnalyzeWardrobeItem(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "an image file upload is required"})
		return
	}

	destPath := filepath.Join(h.uploadDir, "wardrobe", filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, destPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded image"})
		return
	}

	analysis := h.classifier.Classify(c.Request.Context(), destPath)

	item := domain.WardrobeItem{
		Filename:   filepath.Base(file.Filename),
		ImagePath:  destPath,
		Category:   analysis.Category,
		Color:      analysis.Color,
		Style:      analysis.Style,
		Confidence: analysis.Confidence,
		UploadedAt: time.Now().UTC(),
	}
	if err := h.wardrobe.Add(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update wardrobe catalog"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item, "analysis": analysis})
}

type compatibilityRequest struct {
	ImageA string `json:"image_a" binding:"required"`
	ImageB string `json:"image_b"`
}

// Compatibility scores two garment images against each other, or one image
// against the whole wardrobe when image_b is omitted.
func (h *Handler) Compatibility(c *gin.Context) {
	var req compatibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_a is required"})
		return
	}

	if req.ImageB != "" {
		score := h.compatibility.Score(c.Request.Context(), req.ImageA, req.ImageB)
		c.JSON(http.StatusOK, gin.H{"score": score})
		return
	}

	items, err := h.wardrobe.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read wardrobe catalog"})
		return
	}

	matches := h.compatibility.ScoreAgainstWardrobe(c.Request.Context(), req.ImageA, items)
	c.JSON(http.StatusOK, gin.H{"matches": matches, "count": len(matches)})
}
