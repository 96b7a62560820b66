package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fashionassist/backend/config"
	httpDelivery "github.com/fashionassist/backend/internal/delivery/http"
	"github.com/fashionassist/backend/internal/infrastructure/cache"
	"github.com/fashionassist/backend/internal/infrastructure/clip"
	"github.com/fashionassist/backend/internal/infrastructure/llm"
	"github.com/fashionassist/backend/internal/infrastructure/scraper"
	"github.com/fashionassist/backend/internal/infrastructure/wardrobe"
	"github.com/fashionassist/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting FashionAssist Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	debug := cfg.Server.Environment == "development"

	// Initialize infrastructure dependencies
	embeddingCache := cache.NewMemoryCache()
	encoder := clip.NewClient(cfg.CLIP.BaseURL, cfg.CLIP.Timeout, embeddingCache, cfg.CLIP.CacheTTL)
	log.Printf("CLIP service: %s (embedding cache TTL: %s)", cfg.CLIP.BaseURL, cfg.CLIP.CacheTTL)

	generator := llm.NewClient(llm.Options{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if generator.Available() {
		log.Printf("LLM backend: %s (model: %s)", cfg.LLM.BaseURL, cfg.LLM.Model)
	} else {
		log.Printf("WARNING: LLM backend unreachable at %s - using rule-based fallbacks", cfg.LLM.BaseURL)
	}

	productScraper := scraper.New(scraper.Options{
		Timeout:            cfg.Scraper.Timeout,
		MaxImages:          cfg.Scraper.MaxImages,
		RequestsPerSecond:  cfg.Scraper.RequestsPerSecond,
		EnableDebugLogging: cfg.Scraper.EnableDebugLogging || debug,
	})

	store := wardrobe.NewStore(cfg.Wardrobe.DataDir)

	// Initialize usecase layer
	classifier := usecase.NewClassifier(encoder, usecase.ClassifierConfig{
		EnableDebugLogging: debug,
	})
	validator := usecase.NewLLMValidator(generator, debug)
	categories := usecase.NewCategoryGenerator(generator, debug)
	pipeline := usecase.NewPipeline(productScraper, classifier, validator, categories, usecase.PipelineOptions{
		OutputDir: cfg.Pipeline.OutputDir,
		Debug:     debug,
	})
	compatibility := usecase.NewCompatibilityService(classifier)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(pipeline, classifier, compatibility, store, cfg.Wardrobe.DataDir)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
