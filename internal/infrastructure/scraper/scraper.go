package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fashionassist/backend/internal/domain"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Package-level compiled regex patterns for performance
var (
	priceRegex      = regexp.MustCompile(`[$€£¥][\d,]+\.?\d*`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 300
	candidatePoolSize = 5

	// Images below this edge length are treated as icons, above the upper
	// bound as banners
	minImageEdge = 150
	maxImageEdge = 2000
)

// browserHeaders mimics a desktop browser; some shops refuse bare clients
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// minimalHeaders is the one-shot retry header set for servers that choke on
// the full browser profile
var minimalHeaders = map[string]string{
	"User-Agent": "fashionassist/1.0",
}

// titleSelectors is tried in order; first non-empty text wins
var titleSelectors = []string{
	"h1",
	`[data-testid="product-title"]`,
	".product-title",
	".pdp-product-name",
	"title",
	`[class*="title"]`,
	`[class*="name"]`,
	"h2",
}

var priceSelectors = []string{
	`[data-testid="price"]`,
	".price",
	".current-price",
	".sale-price",
	".product-price",
	`[class*="price"]`,
	`[id*="price"]`,
}

var descriptionSelectors = []string{
	`[data-testid="product-description"]`,
	".product-description",
	".description",
	".product-details",
	`[class*="description"]`,
	`[class*="detail"]`,
}

// imageSelectors is ordered from framework-specific to generic
var imageSelectors = []string{
	`img[data-testid*="product"]`,
	`img[alt*="product"]`,
	".product-image img",
	".product-gallery img",
	".gallery img",
	`[class*="product"] img`,
	`[id*="product"] img`,
	".hero img",
	".main-image img",
	".primary-image img",
	"picture img",
	".carousel img",
	".slider img",
	"[data-zoom] img",
	".featured-image img",
	`[class*="media"] img`,
}

// excludeKeywords disqualify an image by alt text or class name
var excludeKeywords = []string{
	"logo", "icon", "badge", "banner", "header", "footer",
	"social", "facebook", "instagram", "twitter", "nav",
	"menu", "search", "cart", "checkout", "payment",
	"shipping", "return", "warranty", "care", "size-guide",
}

// excludeURLKeywords disqualify an image by its URL
var excludeURLKeywords = []string{
	"logo", "icon", "badge", "banner", "social", "nav",
	"menu", "header", "footer", "thumb", "avatar",
}

// productIndicators are required in strict mode
var productIndicators = []string{
	"product", "item", "main", "primary", "hero",
	"gallery", "zoom", "large", "detail",
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

var imageURLKeywords = []string{"image", "img", "photo", "picture", "product"}

// brandDomains maps shop domains to brand names
var brandDomains = map[string]string{
	"akindofguise": "A Kind of Guise",
	"zara":         "Zara",
	"hm":           "H&M",
	"uniqlo":       "Uniqlo",
}

// categoryKeywords maps canonical garment categories to URL keywords
var categoryKeywords = map[string][]string{
	"shirt":       {"shirt", "blouse", "top"},
	"pants":       {"pants", "trousers", "jeans", "denim"},
	"dress":       {"dress", "gown"},
	"jacket":      {"jacket", "blazer", "coat", "outerwear"},
	"shoes":       {"shoes", "sneakers", "boots", "sandals"},
	"skirt":       {"skirt"},
	"sweater":     {"sweater", "jumper", "pullover", "knit"},
	"accessories": {"bag", "belt", "hat", "scarf", "jewelry"},
}

// categoryOrder keeps the URL hint scan deterministic
var categoryOrder = []string{
	"shirt", "pants", "dress", "jacket", "shoes", "skirt", "sweater", "accessories",
}

var colorKeywords = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange",
	"purple", "pink", "brown", "gray", "grey", "navy", "beige",
	"cream", "ivory", "tan", "burgundy", "maroon", "turquoise",
	"rose", "floral",
}

var materialKeywords = []string{
	"cotton", "linen", "silk", "wool", "cashmere", "polyester",
	"denim", "leather", "suede", "velvet", "satin", "chiffon",
	"jacquard", "jersey", "fleece", "corduroy",
}

var styleKeywords = []string{
	"casual", "formal", "business", "elegant", "sporty", "vintage",
	"modern", "classic", "bohemian", "minimalist", "oversized",
	"fitted", "relaxed", "tailored", "loose",
}

// Options holds configuration for the scraper
type Options struct {
	Timeout            time.Duration
	MaxImages          int
	RequestsPerSecond  float64
	EnableDebugLogging bool
}

// Scraper extracts product records from shop pages and downloads candidate
// images. Best-effort: a failed scrape degrades to (nil, error), never a
// partial record.
type Scraper struct {
	http      *resty.Client
	limiter   *rate.Limiter
	maxImages int
	debug     bool
}

// New creates a scraper with the given options
func New(opts Options) *Scraper {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = 3
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}

	http := resty.New()
	http.SetTimeout(opts.Timeout)

	return &Scraper{
		http:      http,
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 5),
		maxImages: opts.MaxImages,
		debug:     opts.EnableDebugLogging,
	}
}

// Scrape fetches a product page and extracts a ProductRecord.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*domain.ProductRecord, error) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrScrapeFailed, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrScrapeFailed, err)
	}

	title := extractTitle(doc)
	description := extractDescription(doc)
	record := &domain.ProductRecord{
		URL:         pageURL,
		Title:       title,
		Price:       extractPrice(doc),
		Description: description,
		ImageURLs:   s.extractImages(doc, pageURL, title),
		Context:     extractContext(pageURL, doc, title, description),
	}

	if s.debug {
		log.Printf("[SCRAPE] %s: title=%q price=%q images=%d",
			pageURL, record.Title, record.Price, len(record.ImageURLs))
	}

	return record, nil
}

// fetch GETs a URL with browser headers, retrying once with a minimal
// header set before giving up.
func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeaders(browserHeaders).
		Get(pageURL)
	if err == nil && !resp.IsError() {
		return resp.Body(), nil
	}

	if s.debug {
		log.Printf("[SCRAPE] first attempt failed for %s, retrying with minimal headers", pageURL)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err = s.http.R().
		SetContext(ctx).
		SetHeaders(minimalHeaders).
		Get(pageURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}

	return resp.Body(), nil
}

// extractTitle walks the selector cascade and returns normalized text
func extractTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		text = whitespaceRegex.ReplaceAllString(text, " ")
		return truncateAtRune(text, maxTitleLen)
	}
	return "Unknown Product"
}

// extractPrice returns the first currency-prefixed amount found in the
// price selectors, falling back to a whole-page search.
func extractPrice(doc *goquery.Document) string {
	for _, selector := range priceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if match := priceRegex.FindString(text); match != "" {
			return match
		}
	}

	if match := priceRegex.FindString(doc.Text()); match != "" {
		return match
	}

	return "Price not found"
}

// extractDescription walks the selector cascade, falling back to the first
// paragraph long enough to be a description.
func extractDescription(doc *goquery.Document) string {
	for _, selector := range descriptionSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return truncateDescription(text)
		}
	}

	var fallback string
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 50 {
			fallback = truncateDescription(text)
			return false
		}
		return true
	})
	if fallback != "" {
		return fallback
	}

	return "No description available"
}

func truncateDescription(text string) string {
	text = whitespaceRegex.ReplaceAllString(text, " ")
	if len(text) > maxDescriptionLen {
		return truncateAtRune(text, maxDescriptionLen) + "..."
	}
	return text
}

// truncateAtRune cuts text to at most limit bytes without splitting a
// multi-byte rune
func truncateAtRune(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

// extractImages collects candidate product image URLs. Priority selectors
// run first; if fewer than two candidates turn up, a broad strict-filtered
// pass over every <img> follows.
func (s *Scraper) extractImages(doc *goquery.Document, baseURL, title string) []string {
	titleLower := strings.ToLower(title)
	var candidates []string

	for _, selector := range imageSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			src := resolveImageSrc(sel, baseURL)
			if src != "" && isProductImage(sel, src, titleLower, false) {
				candidates = append(candidates, src)
			}
			return len(candidates) < candidatePoolSize
		})
		if len(candidates) >= candidatePoolSize {
			break
		}
	}

	if len(candidates) < 2 {
		doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			src := resolveImageSrc(sel, baseURL)
			if src != "" && isProductImage(sel, src, titleLower, true) {
				candidates = append(candidates, src)
			}
			return len(candidates) < candidatePoolSize
		})
	}

	unique := dedupeImageURLs(candidates)
	if len(unique) > s.maxImages {
		unique = unique[:s.maxImages]
	}
	return unique
}

// resolveImageSrc pulls the source URL out of the usual lazy-loading
// attributes and makes it absolute.
func resolveImageSrc(sel *goquery.Selection, baseURL string) string {
	src := ""
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		if v, ok := sel.Attr(attr); ok && v != "" {
			src = v
			break
		}
	}
	if src == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(src, "//"):
		src = "https:" + src
	case !strings.HasPrefix(src, "http"):
		base, err := url.Parse(baseURL)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(src)
		if err != nil {
			return ""
		}
		src = base.ResolveReference(ref).String()
	}

	if !isValidImageURL(src) {
		return ""
	}
	return src
}

// isValidImageURL applies a permissive "looks like an image" filter:
// a known extension or an image-related keyword anywhere in the URL.
func isValidImageURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	lower := strings.ToLower(rawURL)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	for _, keyword := range imageURLKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// isProductImage decides whether an <img> element is likely a product shot.
// In strict mode a product indicator must be present somewhere.
func isProductImage(sel *goquery.Selection, src, titleLower string, strict bool) bool {
	altText := strings.ToLower(sel.AttrOr("alt", ""))
	className := strings.ToLower(sel.AttrOr("class", ""))

	if w, h, ok := imageDimensions(sel); ok {
		if w < minImageEdge || h < minImageEdge {
			return false
		}
		if w > maxImageEdge || h > maxImageEdge {
			return false
		}
	}

	attrText := altText + " " + className
	for _, keyword := range excludeKeywords {
		if strings.Contains(attrText, keyword) {
			return false
		}
	}

	urlLower := strings.ToLower(src)
	for _, keyword := range excludeURLKeywords {
		if strings.Contains(urlLower, keyword) {
			return false
		}
	}

	if strict {
		found := false
		for _, indicator := range productIndicators {
			if strings.Contains(attrText, indicator) || strings.Contains(urlLower, indicator) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	score := 0
	for _, signal := range []string{"product", "main", "hero", "primary", "gallery"} {
		if strings.Contains(attrText, signal) {
			score++
		}
	}
	for _, word := range strings.Fields(titleLower) {
		if len(word) > 3 && strings.Contains(altText, word) {
			score++
			break
		}
	}
	if strings.Contains(className, "zoom") || strings.Contains(className, "featured") {
		score++
	}

	return score > 0 || !strict
}

// imageDimensions reads the width/height attributes when both are present
func imageDimensions(sel *goquery.Selection) (int, int, bool) {
	w, okW := attrInt(sel, "width")
	h, okH := attrInt(sel, "height")
	if !okW || !okH {
		return 0, 0, false
	}
	return w, h, true
}

func attrInt(sel *goquery.Selection, name string) (int, bool) {
	raw, ok := sel.Attr(name)
	if !ok {
		return 0, false
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if raw == "" {
		return 0, false
	}
	return n, true
}

// dedupeImageURLs removes duplicates by URL-without-query, preserving first
// seen order. When duplicates differ only by query string, the variant
// carrying an explicit width parameter wins: it is assumed to be the higher
// resolution rendition.
func dedupeImageURLs(urls []string) []string {
	type slot struct {
		url      string
		hasWidth bool
	}

	var order []string
	seen := make(map[string]*slot)

	for _, raw := range urls {
		key := raw
		if idx := strings.Index(raw, "?"); idx >= 0 {
			key = raw[:idx]
		}

		hasWidth := hasWidthParam(raw)
		existing, ok := seen[key]
		if !ok {
			seen[key] = &slot{url: raw, hasWidth: hasWidth}
			order = append(order, key)
			continue
		}
		if hasWidth && !existing.hasWidth {
			existing.url = raw
			existing.hasWidth = true
		}
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, seen[key].url)
	}
	return out
}

func hasWidthParam(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Query().Get("width") != ""
}

// extractContext derives brand and category/color/material/style hints from
// the URL, title and description.
func extractContext(pageURL string, doc *goquery.Document, title, description string) domain.ContextHints {
	context := domain.ContextHints{
		Brand:         "Unknown",
		CategoryHints: []string{},
		ColorHints:    []string{},
		MaterialHints: []string{},
		StyleHints:    []string{},
	}

	if u, err := url.Parse(pageURL); err == nil {
		host := strings.ToLower(u.Hostname())
		for key, brand := range brandDomains {
			if strings.Contains(host, key) {
				context.Brand = brand
				break
			}
		}
	}
	if context.Brand == "Unknown" {
		brandText := strings.TrimSpace(doc.Find(`[class*="brand"], [data-brand], .designer, .brand-name`).First().Text())
		if brandText != "" {
			context.Brand = whitespaceRegex.ReplaceAllString(brandText, " ")
		}
	}

	urlLower := strings.ToLower(pageURL)
	for _, category := range categoryOrder {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(urlLower, keyword) {
				context.CategoryHints = append(context.CategoryHints, category)
				break
			}
		}
	}

	combined := strings.ToLower(title + " " + description)
	for _, color := range colorKeywords {
		if strings.Contains(combined, color) {
			context.ColorHints = append(context.ColorHints, color)
		}
	}
	for _, material := range materialKeywords {
		if strings.Contains(combined, material) {
			context.MaterialHints = append(context.MaterialHints, material)
		}
	}
	for _, style := range styleKeywords {
		if strings.Contains(combined, style) {
			context.StyleHints = append(context.StyleHints, style)
		}
	}

	return context
}

// DownloadImage fetches an image URL to destPath, creating parent
// directories as needed. A failure affects only this image.
func (s *Scraper) DownloadImage(ctx context.Context, imageURL, destPath string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeaders(browserHeaders).
		Get(imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d", domain.ErrDownloadFailed, resp.StatusCode())
	}
	if len(resp.Body()) == 0 {
		return "", fmt.Errorf("%w: empty body", domain.ErrDownloadFailed)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	if err := os.WriteFile(destPath, resp.Body(), 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}

	return destPath, nil
}
