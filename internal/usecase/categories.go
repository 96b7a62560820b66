package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/fashionassist/backend/internal/domain"
)

// basicCategoryKeywords maps a fallback category to the text keywords that
// imply it. Used only when neither URL hints nor color combinations yield
// anything.
var basicCategoryKeywords = map[string][]string{
	"shirt":  {"shirt", "blouse", "top"},
	"pants":  {"pants", "trousers", "jeans"},
	"dress":  {"dress", "gown"},
	"jacket": {"jacket", "blazer", "coat"},
	"shoes":  {"shoes", "sneakers", "boots"},
}

// basicCategoryOrder keeps the fallback scan deterministic
var basicCategoryOrder = []string{"shirt", "pants", "dress", "jacket", "shoes"}

const (
	maxGeneratedCategories = 5
	maxPromptTextLen       = 500

	categorySystemPrompt = "You are a fashion expert who generates precise categories for image recognition."
)

// CategoryGenerator produces 3-5 short category phrases for a product,
// used as the label set for the secondary zero-shot pass. Model-backed
// when a generator is available, rule-based otherwise; it always returns
// without error.
type CategoryGenerator struct {
	generator domain.TextGenerator
	debug     bool
}

// NewCategoryGenerator creates a category generator
func NewCategoryGenerator(generator domain.TextGenerator, debug bool) *CategoryGenerator {
	return &CategoryGenerator{generator: generator, debug: debug}
}

// Generate returns category phrases for the product. An unavailable or
// failing model degrades to the rule-based extraction.
func (g *CategoryGenerator) Generate(ctx context.Context, product *domain.ProductRecord) []string {
	combined := strings.TrimSpace(product.Title + " " + product.Description)

	if g.generator != nil && g.generator.Available() {
		categories, err := g.modelCategories(ctx, combined, product.Context.CategoryHints, product.Context.ColorHints)
		if err == nil && len(categories) > 0 {
			return categories
		}
		if err != nil && g.debug {
			log.Printf("[CATEGORIES] model generation failed: %v", err)
		}
	}

	return ruleBasedCategories(combined, product.Context.CategoryHints, product.Context.ColorHints)
}

func (g *CategoryGenerator) modelCategories(ctx context.Context, text string, categoryHints, colorHints []string) ([]string, error) {
	if len(text) > maxPromptTextLen {
		cut := maxPromptTextLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	prompt := fmt.Sprintf(`Analyze this fashion product description and generate relevant categories for image analysis.

PRODUCT DESCRIPTION:
%s

URL HINTS:
- Categories: %s
- Colors: %s

TASK: Generate 3-5 specific fashion categories that would help identify this item in images.

Categories should be specific like:
- "black leather jacket"
- "blue denim jeans"
- "white cotton t-shirt"
- "red summer dress"
- "brown leather boots"

Format your response as a simple list, one category per line, starting with a dash.

Categories:`, text, hintsOrNone(categoryHints), hintsOrNone(colorHints))

	response, err := g.generator.Generate(ctx, categorySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return parseCategoryList(response), nil
}

// parseCategoryList extracts dash-prefixed lines, dropping entries too
// short to be useful as zero-shot labels.
func parseCategoryList(response string) []string {
	var categories []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		category := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		category = strings.Trim(category, `"`)
		if len(category) > 3 {
			categories = append(categories, category)
		}
		if len(categories) == maxGeneratedCategories {
			break
		}
	}
	return categories
}

// ruleBasedCategories is the deterministic fallback: URL hints first, then
// color+category combinations, then keyword-derived basics if the page
// yielded no hints at all.
func ruleBasedCategories(text string, categoryHints, colorHints []string) []string {
	textLower := strings.ToLower(text)

	var categories []string
	categories = append(categories, categoryHints...)

	if len(colorHints) > 0 && len(categoryHints) > 0 {
		for _, color := range headOf(colorHints, 2) {
			for _, category := range headOf(categoryHints, 2) {
				categories = append(categories, color+" "+category)
			}
		}
	}

	if len(categories) == 0 {
		for _, category := range basicCategoryOrder {
			for _, keyword := range basicCategoryKeywords[category] {
				if strings.Contains(textLower, keyword) {
					categories = append(categories, category)
					break
				}
			}
		}
	}

	if len(categories) > maxGeneratedCategories {
		categories = categories[:maxGeneratedCategories]
	}
	return categories
}

func hintsOrNone(hints []string) string {
	if len(hints) == 0 {
		return "none"
	}
	return strings.Join(hints, ", ")
}

func headOf(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
