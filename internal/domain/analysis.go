package domain

// ClassificationResult is the zero-shot tagger output for one image.
// On failure every label is "unknown" and every confidence is 0.0.
type ClassificationResult struct {
	Category           string  `json:"category"`
	Color              string  `json:"color"`
	Style              string  `json:"style"`
	Confidence         float64 `json:"confidence"`
	CategoryConfidence float64 `json:"category_confidence"`
	ColorConfidence    float64 `json:"color_confidence"`
	StyleConfidence    float64 `json:"style_confidence"`
}

// Unknown reports whether the classification is the failure sentinel.
func (c ClassificationResult) Unknown() bool {
	return c.Category == "unknown" && c.Confidence == 0
}

// ValidationResult is the semantic validator's verdict for one
// (classification, product) pair. Both validator strategies produce the
// same schema so callers are agnostic to which one ran.
type ValidationResult struct {
	OverallMatch   bool    `json:"overall_match"`
	Confidence     float64 `json:"confidence"`
	CategoryMatch  bool    `json:"category_match"`
	ColorMatch     bool    `json:"color_match"`
	Reason         string  `json:"reason"`
	RawModelOutput string  `json:"raw_model_output,omitempty"`
}

// LabelSimilarity pairs a generated category label with its cosine
// similarity against an image embedding.
type LabelSimilarity struct {
	Label      string  `json:"label"`
	Similarity float64 `json:"similarity"`
}

// EnhancedClassification is the secondary zero-shot pass against the
// pipeline-generated per-product categories.
type EnhancedClassification struct {
	BestCategoryMatch string            `json:"best_category_match"`
	TopMatches        []LabelSimilarity `json:"top_matches"`
	MaxSimilarity     float64           `json:"max_similarity"`
}

// CandidateImage is a downloaded image plus its accumulated analysis. It is
// the only accumulating entity in the pipeline: each stage attaches a new
// field and no stage overwrites a previous one, except FinalScore which is
// recomputed once after enhancement.
type CandidateImage struct {
	LocalPath      string                  `json:"path"`
	SourceURL      string                  `json:"url"`
	Classification ClassificationResult    `json:"analysis"`
	Validation     *ValidationResult       `json:"llm_validation,omitempty"`
	Enhanced       *EnhancedClassification `json:"enhanced_analysis,omitempty"`
	FinalScore     float64                 `json:"final_score"`
	IsValid        bool                    `json:"is_valid"`
	SavedPath      string                  `json:"saved_path,omitempty"`
}

// GalleryResult is the pipeline's terminal output for one run. Images are
// ordered by FinalScore descending; the ordering is a user-facing contract.
type GalleryResult struct {
	URL                 string           `json:"url"`
	Product             *ProductRecord   `json:"product_data,omitempty"`
	GeneratedCategories []string         `json:"generated_categories,omitempty"`
	Images              []CandidateImage `json:"all_images,omitempty"`
	OutputDir           string           `json:"output_directory,omitempty"`
	Success             bool             `json:"pipeline_success"`
	Error               string           `json:"error,omitempty"`
}
