package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fashionassist/backend/internal/domain"
)

// Validator decides whether a classification plausibly describes the same
// garment as the scraped product text. Two interchangeable strategies exist;
// callers must not care which one produced the result.
type Validator interface {
	Validate(ctx context.Context, classification domain.ClassificationResult, product *domain.ProductRecord) domain.ValidationResult
}

// titleCategoryKeywords are scanned in the title/description when the URL
// yields no category hints
var titleCategoryKeywords = []string{
	"shirt", "pants", "dress", "jacket", "shoes",
	"skirt", "sweater", "top", "bottom",
}

// Rule validator confidence bands. Agreement is clamped into a high band
// and disagreement into a much lower one; the asymmetry biases the system
// toward rejecting bad matches over accepting false positives. The two
// bands must never overlap.
const (
	matchConfidenceFloor    = 0.70
	matchConfidenceCeil     = 0.98
	mismatchConfidenceFloor = 0.05
	mismatchConfidenceCeil  = 0.25
)

// RuleValidator is the rule-based strategy: keyword agreement between the
// classifier's labels and the scraped hints. It also serves as the
// reference semantics for the model-backed strategy.
type RuleValidator struct{}

// NewRuleValidator creates the rule-based validator
func NewRuleValidator() *RuleValidator {
	return &RuleValidator{}
}

// Validate applies keyword matching with asymmetric confidence clamping.
func (v *RuleValidator) Validate(ctx context.Context, classification domain.ClassificationResult, product *domain.ProductRecord) domain.ValidationResult {
	title := strings.ToLower(product.Title)
	description := strings.ToLower(product.Description)
	predictedCategory := strings.ToLower(classification.Category)
	predictedColor := strings.ToLower(classification.Color)

	categoryHints := lowerAll(product.Context.CategoryHints)

	var titleCategories []string
	for _, keyword := range titleCategoryKeywords {
		if strings.Contains(title, keyword) || strings.Contains(description, keyword) {
			titleCategories = append(titleCategories, keyword)
		}
	}

	categoryMatch, categoryStrength := matchCategory(predictedCategory, categoryHints, titleCategories)
	colorMatch, colorStrength := matchColor(predictedColor, lowerAll(product.Context.ColorHints))

	overall := categoryMatch && colorMatch

	var confidence float64
	if overall {
		confidence = (categoryStrength + colorStrength) / 2
		confidence = clampRange(confidence, matchConfidenceFloor, matchConfidenceCeil)
		if categoryStrength >= 0.9 && colorStrength >= 0.8 {
			confidence = minFloat(matchConfidenceCeil, confidence+0.05)
		}
	} else {
		confidence = (categoryStrength + colorStrength) / 6
		confidence = clampRange(confidence, mismatchConfidenceFloor, mismatchConfidenceCeil)
	}

	reason := fmt.Sprintf("rule-based: category %s (%.1f), color %s (%.1f)",
		matchWord(categoryMatch), categoryStrength, matchWord(colorMatch), colorStrength)

	return domain.ValidationResult{
		OverallMatch:   overall,
		Confidence:     confidence,
		CategoryMatch:  categoryMatch,
		ColorMatch:     colorMatch,
		Reason:         reason,
		RawModelOutput: "rule-based fallback",
	}
}

// matchCategory returns whether the predicted category agrees with the
// hints and how strongly. URL-derived hints are more authoritative than
// title-derived ones; substring agreement scores below exact agreement.
func matchCategory(predicted string, urlHints, titleHints []string) (bool, float64) {
	if len(urlHints) > 0 {
		switch {
		case containsExact(urlHints, predicted):
			return true, 1.0
		case anySubstring(urlHints, predicted):
			return true, 0.8
		case anyContains(urlHints, predicted):
			return true, 0.7
		}
		return false, 0.0
	}

	if len(titleHints) > 0 {
		switch {
		case containsExact(titleHints, predicted):
			return true, 0.95
		case anySubstring(titleHints, predicted):
			return true, 0.7
		case anyContains(titleHints, predicted):
			return true, 0.65
		}
		return false, 0.0
	}

	// No category signal at all; assume OK with neutral strength
	return true, 0.6
}

// matchColor is stricter than matchCategory: with no color hints the color
// claim stays unverified and defaults to a low-confidence non-match.
func matchColor(predicted string, hints []string) (bool, float64) {
	if len(hints) == 0 {
		return false, 0.4
	}

	switch {
	case containsExact(hints, predicted):
		return true, 1.0
	case anySubstring(hints, predicted):
		return true, 0.85
	case anyContains(hints, predicted):
		return true, 0.8
	}
	return false, 0.2
}

// Tolerant parsing patterns for the model's structured reply
var (
	matchFieldRegex      = regexp.MustCompile(`(?i)MATCH:\s*(YES|NO|TRUE|FALSE)`)
	confidenceFieldRegex = regexp.MustCompile(`CONFIDENCE:\s*([0-9.]+)`)
	categoryFieldRegex   = regexp.MustCompile(`(?i)CATEGORY_MATCH:\s*(YES|NO|TRUE|FALSE)`)
	colorFieldRegex      = regexp.MustCompile(`(?i)COLOR_MATCH:\s*(YES|NO|TRUE|FALSE)`)
	reasonFieldRegex     = regexp.MustCompile(`(?is)REASON:\s*(.+?)(?:\n\n|$)`)
)

const validatorSystemPrompt = "You are a precise fashion validation expert. Respond directly in the exact format requested."

// LLMValidator is the model-backed strategy. Any generation failure falls
// back to the rule-based strategy so validation never aborts a run.
type LLMValidator struct {
	generator domain.TextGenerator
	fallback  *RuleValidator
	debug     bool
}

// NewLLMValidator creates the model-backed validator
func NewLLMValidator(generator domain.TextGenerator, debug bool) *LLMValidator {
	return &LLMValidator{
		generator: generator,
		fallback:  NewRuleValidator(),
		debug:     debug,
	}
}

// Validate renders the validation prompt, generates a reply and parses it.
func (v *LLMValidator) Validate(ctx context.Context, classification domain.ClassificationResult, product *domain.ProductRecord) domain.ValidationResult {
	if v.generator == nil || !v.generator.Available() {
		return v.fallback.Validate(ctx, classification, product)
	}

	prompt := buildValidationPrompt(classification, product)
	response, err := v.generator.Generate(ctx, validatorSystemPrompt, prompt)
	if err != nil {
		if v.debug {
			log.Printf("[LLM] validation generation failed: %v", err)
		}
		return v.fallback.Validate(ctx, classification, product)
	}

	return parseValidationResponse(response)
}

// buildValidationPrompt renders the fixed-format instruction prompt
func buildValidationPrompt(classification domain.ClassificationResult, product *domain.ProductRecord) string {
	categoryHints := strings.Join(product.Context.CategoryHints, ", ")
	colorHints := strings.Join(product.Context.ColorHints, ", ")

	return fmt.Sprintf(`Product: %q
Categories: %s
Colors: %s
Analysis: %s %s

STRICT VALIDATION:
1. Category must match exactly: %s vs %s
2. Color must be compatible: %s vs %s

EXAMPLES:
- shirt vs shirt = YES, shirt vs pants = NO, shirt vs dress = NO
- blue vs blue = YES, blue vs navy = YES, red vs blue = NO

If category OR color doesn't match: MATCH=NO, CONFIDENCE=0.1-0.3
Only if BOTH match: MATCH=YES, CONFIDENCE=0.7-0.9

MATCH: [YES/NO]
CONFIDENCE: [0.0-1.0]
CATEGORY_MATCH: [YES/NO]
COLOR_MATCH: [YES/NO]
REASON: [brief explanation]`,
		product.Title, categoryHints, colorHints,
		classification.Category, classification.Color,
		classification.Category, categoryHints,
		classification.Color, colorHints)
}

// parseValidationResponse extracts the five labeled fields from a free-form
// model reply. If no structured field is found at all it degrades to a
// crude sentiment heuristic; the worst case is a very-low-confidence
// "unclear" verdict, never an error.
func parseValidationResponse(response string) domain.ValidationResult {
	result := domain.ValidationResult{
		Confidence:     0.5,
		Reason:         "could not parse model response",
		RawModelOutput: response,
	}

	parsedAny := false

	if m := matchFieldRegex.FindStringSubmatch(response); m != nil {
		result.OverallMatch = isAffirmative(m[1])
		parsedAny = true
	}
	if m := confidenceFieldRegex.FindStringSubmatch(response); m != nil {
		if value, err := strconv.ParseFloat(m[1], 64); err == nil {
			// Percentages slip through despite the requested range
			if value > 1.0 {
				value /= 100
			}
			result.Confidence = clampRange(value, 0, 1)
			parsedAny = true
		}
	}
	if m := categoryFieldRegex.FindStringSubmatch(response); m != nil {
		result.CategoryMatch = isAffirmative(m[1])
		parsedAny = true
	}
	if m := colorFieldRegex.FindStringSubmatch(response); m != nil {
		result.ColorMatch = isAffirmative(m[1])
		parsedAny = true
	}
	if m := reasonFieldRegex.FindStringSubmatch(response); m != nil {
		result.Reason = strings.TrimSpace(m[1])
	}

	if parsedAny {
		return result
	}

	lower := strings.ToLower(response)
	switch {
	case strings.Contains(lower, "match") || strings.Contains(lower, "correct") || strings.Contains(lower, "yes"):
		result.OverallMatch = true
		result.CategoryMatch = true
		result.ColorMatch = true
		result.Confidence = 0.7
		result.Reason = "inferred positive match from response content"
	case strings.Contains(lower, "no") || strings.Contains(lower, "not") || strings.Contains(lower, "mismatch"):
		result.OverallMatch = false
		result.CategoryMatch = false
		result.ColorMatch = false
		result.Confidence = 0.4
		result.Reason = "inferred negative match from response content"
	default:
		result.Confidence = 0.3
		result.Reason = "unclear model response, defaulting to low confidence"
	}

	return result
}

func isAffirmative(word string) bool {
	upper := strings.ToUpper(word)
	return upper == "YES" || upper == "TRUE"
}

// ValidateBatch runs the validator over every candidate and fuses the
// classifier and validator confidences into a final score. Weights adapt:
// a very confident classifier earns more weight, and an affirmed match
// earns the validator extra weight plus a fixed agreement bonus. Output is
// sorted by final score descending; ties keep input order, so identical
// input yields identical output.
func ValidateBatch(ctx context.Context, validator Validator, candidates []domain.CandidateImage, product *domain.ProductRecord) []domain.CandidateImage {
	out := make([]domain.CandidateImage, 0, len(candidates))

	for _, candidate := range candidates {
		validation := validator.Validate(ctx, candidate.Classification, product)

		clipConfidence := candidate.Classification.Confidence
		llmConfidence := validation.Confidence

		var finalScore float64
		switch {
		case clipConfidence > 0.8:
			finalScore = llmConfidence*0.6 + clipConfidence*0.4
		case validation.OverallMatch:
			finalScore = llmConfidence*0.7 + clipConfidence*0.3
			finalScore = minFloat(1.0, finalScore+0.1)
		default:
			finalScore = llmConfidence*0.7 + clipConfidence*0.3
		}

		candidate.Validation = &validation
		candidate.FinalScore = finalScore
		candidate.IsValid = validation.OverallMatch && finalScore > 0.4
		out = append(out, candidate)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})

	return out
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func containsExact(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

// anySubstring reports whether any hint is a substring of the prediction
func anySubstring(hints []string, predicted string) bool {
	for _, hint := range hints {
		if hint != "" && strings.Contains(predicted, hint) {
			return true
		}
	}
	return false
}

// anyContains reports whether the prediction is a substring of any hint
func anyContains(hints []string, predicted string) bool {
	for _, hint := range hints {
		if predicted != "" && strings.Contains(hint, predicted) {
			return true
		}
	}
	return false
}

func matchWord(matched bool) string {
	if matched {
		return "match"
	}
	return "mismatch"
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
