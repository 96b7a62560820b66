package usecase

import (
	"context"
	"log"
	"math"
	"sort"

	"github.com/fashionassist/backend/internal/domain"
)

// garmentLabels is the closed vocabulary of garment types. garmentPrompts
// holds the matching natural-language phrasing handed to the text encoder.
var garmentLabels = []string{
	"shirt", "t-shirt", "pants", "jeans", "dress",
	"skirt", "jacket", "sweater", "shoes", "sneakers",
	"boots", "accessories", "shorts", "hoodie", "blazer",
}

var garmentPrompts = []string{
	"a photo of a shirt",
	"a photo of a t-shirt",
	"a photo of pants",
	"a photo of jeans",
	"a photo of a dress",
	"a photo of a skirt",
	"a photo of a jacket",
	"a photo of a sweater",
	"a photo of shoes",
	"a photo of sneakers",
	"a photo of boots",
	"a photo of accessories",
	"a photo of shorts",
	"a photo of a hoodie",
	"a photo of a blazer",
}

// colorLabels is the fixed color palette
var colorLabels = []string{
	"black", "white", "red", "blue", "green",
	"yellow", "orange", "purple", "pink", "brown",
	"gray", "navy", "beige", "cream", "maroon",
}

// styleLabels is the fixed style vocabulary
var styleLabels = []string{
	"casual", "formal", "business", "sporty",
	"elegant", "vintage", "modern", "bohemian",
	"streetwear", "minimalist",
}

// defaultLogitScale rescales raw cosine similarities (range [-1,1]) before
// the softmax so the top label stands out. Without it the distribution over
// a label set is nearly uniform and the argmax mass is a useless confidence
// signal.
const defaultLogitScale = 20.0

// ClassifierConfig holds configuration for the image classifier
type ClassifierConfig struct {
	LogitScale         float64
	EnableDebugLogging bool
}

// Classifier is the embedding-based zero-shot tagger. It never fails a
// caller: any error collapses into the "unknown"/0.0 sentinel so one bad
// image cannot abort a pipeline run.
type Classifier struct {
	encoder    domain.ImageEncoder
	logitScale float64
	debug      bool
}

// NewClassifier creates a classifier backed by the given encoder
func NewClassifier(encoder domain.ImageEncoder, config ClassifierConfig) *Classifier {
	scale := config.LogitScale
	if scale <= 0 {
		scale = defaultLogitScale
	}

	return &Classifier{
		encoder:    encoder,
		logitScale: scale,
		debug:      config.EnableDebugLogging,
	}
}

// unknownResult is the failure sentinel
func unknownResult() domain.ClassificationResult {
	return domain.ClassificationResult{
		Category: "unknown",
		Color:    "unknown",
		Style:    "unknown",
	}
}

// Classify tags one image with category, color and style plus per-axis
// confidences. The per-axis confidence is the argmax softmax mass within
// the label set, not the raw cosine similarity; the overall confidence is
// the unweighted mean of the three axes.
func (c *Classifier) Classify(ctx context.Context, imagePath string) domain.ClassificationResult {
	imageVec, err := c.encoder.EncodeImage(ctx, imagePath)
	if err != nil {
		if c.debug {
			log.Printf("[CLIP] failed to encode %s: %v", imagePath, err)
		}
		return unknownResult()
	}

	category, categoryConf, err := c.classifyAxis(ctx, imageVec, garmentLabels, garmentPrompts)
	if err != nil {
		return unknownResult()
	}

	colorPrompts := make([]string, len(colorLabels))
	for i, color := range colorLabels {
		colorPrompts[i] = "a photo of " + color + " clothing"
	}
	color, colorConf, err := c.classifyAxis(ctx, imageVec, colorLabels, colorPrompts)
	if err != nil {
		return unknownResult()
	}

	stylePrompts := make([]string, len(styleLabels))
	for i, style := range styleLabels {
		stylePrompts[i] = "a photo of " + style + " clothing"
	}
	style, styleConf, err := c.classifyAxis(ctx, imageVec, styleLabels, stylePrompts)
	if err != nil {
		return unknownResult()
	}

	return domain.ClassificationResult{
		Category:           category,
		Color:              color,
		Style:              style,
		Confidence:         (categoryConf + colorConf + styleConf) / 3,
		CategoryConfidence: categoryConf,
		ColorConfidence:    colorConf,
		StyleConfidence:    styleConf,
	}
}

// classifyAxis scores one image embedding against one label set and returns
// the argmax label with its softmax mass.
func (c *Classifier) classifyAxis(ctx context.Context, imageVec []float32, labels, prompts []string) (string, float64, error) {
	textVecs, err := c.encoder.EncodeTexts(ctx, prompts)
	if err != nil {
		return "", 0, err
	}

	sims := make([]float64, len(textVecs))
	for i, textVec := range textVecs {
		sims[i] = dot(imageVec, textVec)
	}

	probs := softmax(sims, c.logitScale)
	best := argmax(probs)
	return labels[best], probs[best], nil
}

// Embed returns the unit embedding for one image
func (c *Classifier) Embed(ctx context.Context, imagePath string) ([]float32, error) {
	return c.encoder.EncodeImage(ctx, imagePath)
}

// Similarity computes the compatibility score between two images: the
// cosine similarity of their embeddings clamped to [0,1]. Negative
// similarity means "no relation", not negative compatibility. Errors score
// 0.0 rather than propagating.
func (c *Classifier) Similarity(ctx context.Context, pathA, pathB string) float64 {
	vecA, err := c.encoder.EncodeImage(ctx, pathA)
	if err != nil {
		return 0
	}
	vecB, err := c.encoder.EncodeImage(ctx, pathB)
	if err != nil {
		return 0
	}

	return clamp01(dot(vecA, vecB))
}

// ClassifyCustom is the secondary zero-shot pass against pipeline-generated
// per-product categories.
func (c *Classifier) ClassifyCustom(ctx context.Context, imagePath string, categories []string) domain.EnhancedClassification {
	failed := domain.EnhancedClassification{
		BestCategoryMatch: "unknown",
		TopMatches:        []domain.LabelSimilarity{},
	}

	if len(categories) == 0 {
		return failed
	}

	imageVec, err := c.encoder.EncodeImage(ctx, imagePath)
	if err != nil {
		return failed
	}

	prompts := make([]string, len(categories))
	for i, category := range categories {
		prompts[i] = "a photo of " + category
	}
	textVecs, err := c.encoder.EncodeTexts(ctx, prompts)
	if err != nil {
		return failed
	}

	matches := make([]domain.LabelSimilarity, len(categories))
	maxSim := math.Inf(-1)
	for i, textVec := range textVecs {
		sim := dot(imageVec, textVec)
		matches[i] = domain.LabelSimilarity{Label: categories[i], Similarity: sim}
		if sim > maxSim {
			maxSim = sim
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > 3 {
		matches = matches[:3]
	}

	return domain.EnhancedClassification{
		BestCategoryMatch: matches[0].Label,
		TopMatches:        matches,
		MaxSimilarity:     maxSim,
	}
}

// dot is the cosine similarity of two unit vectors
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// softmax converts similarities to a probability distribution, rescaling by
// the logit scale first to sharpen the top choice.
func softmax(sims []float64, scale float64) []float64 {
	maxSim := math.Inf(-1)
	for _, s := range sims {
		if s > maxSim {
			maxSim = s
		}
	}

	probs := make([]float64, len(sims))
	var total float64
	for i, s := range sims {
		probs[i] = math.Exp((s - maxSim) * scale)
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
