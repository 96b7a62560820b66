package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/fashionassist/backend/internal/domain"
)

// categoryBoost bands: how much a strong secondary-pass match lifts the
// final score.
const (
	strongBoostThreshold   = 0.8
	moderateBoostThreshold = 0.6
	smallBoostThreshold    = 0.4

	strongBoost   = 0.2
	moderateBoost = 0.1
	smallBoost    = 0.05
)

// PipelineOptions configures a pipeline run
type PipelineOptions struct {
	OutputDir string
	Debug     bool
}

// Pipeline is the five-step analysis orchestrator: scrape, generate
// categories, download and validate, enhance, persist. It degrades rather
// than aborts: individual image failures are skipped, model outages fall
// back to rules, and only a run that ends with zero images fails.
type Pipeline struct {
	scraper    domain.ProductScraper
	classifier *Classifier
	validator  Validator
	categories *CategoryGenerator
	outputDir  string
	debug      bool
}

// NewPipeline wires the pipeline from its collaborators
func NewPipeline(scraper domain.ProductScraper, classifier *Classifier, validator Validator, categories *CategoryGenerator, opts PipelineOptions) *Pipeline {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "data/pipeline_output"
	}

	return &Pipeline{
		scraper:    scraper,
		classifier: classifier,
		validator:  validator,
		categories: categories,
		outputDir:  outputDir,
		debug:      opts.Debug,
	}
}

// Run executes the full pipeline for one product URL. Failures are encoded
// in the result rather than returned: Success is false and Error names the
// step that gave out. A failed run writes nothing to the output directory.
func (p *Pipeline) Run(ctx context.Context, url string) *domain.GalleryResult {
	log.Printf("[PIPELINE] starting run for %s", url)

	product, err := p.scraper.Scrape(ctx, url)
	if err != nil {
		return p.fail(url, fmt.Errorf("%w: %v", domain.ErrScrapeFailed, err))
	}
	log.Printf("[PIPELINE] scraped %q with %d candidate images", product.Title, len(product.ImageURLs))

	// Nothing to download means nothing to rank; bail before spending a
	// model call on category generation.
	if len(product.ImageURLs) == 0 {
		return p.fail(url, domain.ErrNoImages)
	}

	categories := p.categories.Generate(ctx, product)
	log.Printf("[PIPELINE] generated categories: %v", categories)

	// Downloads land in a throwaway staging dir so a failed run leaves no
	// trace under the output directory.
	stagingDir, err := os.MkdirTemp("", "fashionassist-")
	if err != nil {
		return p.fail(url, fmt.Errorf("creating staging dir: %w", err))
	}
	defer os.RemoveAll(stagingDir)

	candidates := p.downloadAndClassify(ctx, product, stagingDir)
	if len(candidates) == 0 {
		return p.fail(url, domain.ErrNoValidImages)
	}

	candidates = ValidateBatch(ctx, p.validator, candidates, product)
	candidates = p.enhance(ctx, candidates, categories)

	workDir := filepath.Join(p.outputDir, "analysis_"+urlHash(url))
	saved, err := p.persist(product, categories, candidates, workDir)
	if err != nil {
		return p.fail(url, err)
	}

	log.Printf("[PIPELINE] completed: %d images saved to %s", len(saved), workDir)
	return &domain.GalleryResult{
		URL:                 url,
		Product:             product,
		GeneratedCategories: categories,
		Images:              saved,
		OutputDir:           workDir,
		Success:             true,
	}
}

func (p *Pipeline) fail(url string, err error) *domain.GalleryResult {
	log.Printf("[PIPELINE] run failed for %s: %v", url, err)
	return &domain.GalleryResult{
		URL:     url,
		Error:   err.Error(),
		Success: false,
	}
}

// downloadAndClassify fetches each candidate image and tags it. Images that
// fail to download are skipped, not fatal.
func (p *Pipeline) downloadAndClassify(ctx context.Context, product *domain.ProductRecord, stagingDir string) []domain.CandidateImage {
	var candidates []domain.CandidateImage

	for i, imageURL := range product.ImageURLs {
		destPath := filepath.Join(stagingDir, fmt.Sprintf("image_%d.jpg", i))

		localPath, err := p.scraper.DownloadImage(ctx, imageURL, destPath)
		if err != nil {
			if p.debug {
				log.Printf("[PIPELINE] skipping %s: %v", imageURL, err)
			}
			continue
		}

		candidates = append(candidates, domain.CandidateImage{
			LocalPath:      localPath,
			SourceURL:      imageURL,
			Classification: p.classifier.Classify(ctx, localPath),
		})
	}

	return candidates
}

// enhance runs the secondary zero-shot pass against the generated
// categories and boosts final scores accordingly, then re-sorts.
func (p *Pipeline) enhance(ctx context.Context, candidates []domain.CandidateImage, categories []string) []domain.CandidateImage {
	if len(categories) == 0 {
		return candidates
	}

	for i := range candidates {
		enhanced := p.classifier.ClassifyCustom(ctx, candidates[i].LocalPath, categories)
		candidates[i].Enhanced = &enhanced
		candidates[i].FinalScore = minFloat(1.0, candidates[i].FinalScore+categoryBoost(enhanced.MaxSimilarity))
	}

	return sortByFinalScore(candidates)
}

// categoryBoost maps the best secondary-pass similarity to a score lift
func categoryBoost(maxSimilarity float64) float64 {
	switch {
	case maxSimilarity > strongBoostThreshold:
		return strongBoost
	case maxSimilarity > moderateBoostThreshold:
		return moderateBoost
	case maxSimilarity > smallBoostThreshold:
		return smallBoost
	}
	return 0
}

// persist copies the ranked images into the per-URL gallery directory and
// writes the manifest. Called only with at least one candidate, so the
// directory exists exactly when a run succeeded.
func (p *Pipeline) persist(product *domain.ProductRecord, categories []string, candidates []domain.CandidateImage, workDir string) ([]domain.CandidateImage, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	for i := range candidates {
		filename := fmt.Sprintf("image_%d_score_%d.jpg", i+1, int(candidates[i].FinalScore*100+0.5))
		destPath := filepath.Join(workDir, filename)

		if err := copyFile(candidates[i].LocalPath, destPath); err != nil {
			log.Printf("[PIPELINE] could not save %s: %v", candidates[i].LocalPath, err)
			continue
		}
		candidates[i].SavedPath = destPath
	}

	manifest := galleryManifest{
		URL:                 product.URL,
		ProductTitle:        product.Title,
		ProductDescription:  product.Description,
		GeneratedCategories: categories,
		AllImagesAnalysis:   candidates,
		TotalImages:         len(candidates),
		OutputDirectory:     workDir,
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	manifestPath := filepath.Join(workDir, "pipeline_results.json")
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	return candidates, nil
}

// galleryManifest is the on-disk shape of pipeline_results.json
type galleryManifest struct {
	URL                 string                  `json:"url"`
	ProductTitle        string                  `json:"product_title"`
	ProductDescription  string                  `json:"product_description"`
	GeneratedCategories []string                `json:"generated_categories"`
	AllImagesAnalysis   []domain.CandidateImage `json:"all_images_analysis"`
	TotalImages         int                     `json:"total_images"`
	OutputDirectory     string                  `json:"output_directory"`
}

// urlHash is the stable per-URL directory suffix, so re-running the same
// URL overwrites its previous gallery instead of accumulating copies.
func urlHash(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:8]
}

func sortByFinalScore(candidates []domain.CandidateImage) []domain.CandidateImage {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore > candidates[j].FinalScore
	})
	return candidates
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
