package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fashionassist/backend/config"
	"github.com/fashionassist/backend/internal/domain"
	"github.com/fashionassist/backend/internal/infrastructure/cache"
	"github.com/fashionassist/backend/internal/infrastructure/clip"
	"github.com/fashionassist/backend/internal/infrastructure/llm"
	"github.com/fashionassist/backend/internal/infrastructure/scraper"
	"github.com/fashionassist/backend/internal/usecase"
)

var outputDir string

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Fashion analysis pipeline",
	Long:  "Scrapes a product page, classifies its images and writes a ranked gallery.",
}

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Analyze one product URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := buildPipeline().Run(context.Background(), args[0])

		if !result.Success {
			fmt.Fprintf(os.Stderr, "pipeline failed: %s\n", result.Error)
			os.Exit(1)
		}

		printGallery(result)
		return nil
	},
}

func buildPipeline() *usecase.Pipeline {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if outputDir != "" {
		cfg.Pipeline.OutputDir = outputDir
	}

	embeddingCache := cache.NewMemoryCache()
	encoder := clip.NewClient(cfg.CLIP.BaseURL, cfg.CLIP.Timeout, embeddingCache, cfg.CLIP.CacheTTL)

	generator := llm.NewClient(llm.Options{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})

	productScraper := scraper.New(scraper.Options{
		Timeout:            cfg.Scraper.Timeout,
		MaxImages:          cfg.Scraper.MaxImages,
		RequestsPerSecond:  cfg.Scraper.RequestsPerSecond,
		EnableDebugLogging: cfg.Scraper.EnableDebugLogging,
	})

	classifier := usecase.NewClassifier(encoder, usecase.ClassifierConfig{})
	validator := usecase.NewLLMValidator(generator, false)
	categories := usecase.NewCategoryGenerator(generator, false)

	return usecase.NewPipeline(productScraper, classifier, validator, categories, usecase.PipelineOptions{
		OutputDir: cfg.Pipeline.OutputDir,
	})
}

func printGallery(result *domain.GalleryResult) {
	fmt.Printf("Analyzed: %s\n", result.Product.Title)
	fmt.Printf("Categories: %v\n", result.GeneratedCategories)
	fmt.Printf("Gallery: %s\n\n", result.OutputDir)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Score", "Category", "Color", "Style", "Valid"})
	for i, img := range result.Images {
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.0f%%", img.FinalScore*100),
			img.Classification.Category,
			img.Classification.Color,
			img.Classification.Style,
			img.IsValid,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func main() {
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
