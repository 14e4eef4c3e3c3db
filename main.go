package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"dealerscout/config"
	"dealerscout/internal/dealer"
	"dealerscout/internal/pipeline"
	"dealerscout/internal/report"
	"dealerscout/internal/scraper"
	"dealerscout/logger"
	"dealerscout/services/cache"
	"dealerscout/services/publisher"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("zip_code", cfg.ZipCode).
		Strs("keywords", cfg.ModelKeywords).
		Bool("new_only", cfg.NewOnly).
		Msg("Starting vehicle offer finder")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// A missing dealer file degrades to "no offers", not a crash
	dealers, err := dealer.Load(cfg.DealersPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load dealers")
	}

	p := pipeline.New(dealers, scraper.Options{
		Keywords:    cfg.ModelKeywords,
		NewOnly:     cfg.NewOnly,
		ClimbDepth:  cfg.ClimbDepth,
		TitleMaxLen: cfg.TitleMaxLen,
	}).
		WithFetchTimeout(cfg.FetchTimeout).
		WithConcurrency(cfg.FetchConcurrency)

	if cfg.MemcacheAddr != "" {
		p.WithPageCache(cache.NewMemcacheService(cfg.MemcacheAddr), cfg.PageCacheTTL)
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Page cache enabled")
	}

	offers := p.Run(ctx)

	if cfg.RedisAddr != "" {
		publishOffers(ctx, cfg, offers)
	}

	if len(offers) > 0 {
		if err := report.WriteCSV(cfg.OutputPath, offers); err != nil {
			log.Fatal().Err(err).Msg("Failed to write report")
		}
	}
	report.PrintSummary(os.Stdout, offers, cfg.TopN)

	log.Info().Msg("Done")
}

// publishOffers pushes the sorted offer feed to a Redis stream for
// downstream consumers; failure is logged, never fatal.
func publishOffers(ctx context.Context, cfg *config.Config, offers []scraper.VehicleOffer) {
	pub := publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLen)
	defer pub.Close()

	payload, err := json.Marshal(offers)
	if err != nil {
		logger.LogError("publisher", err, "Failed to marshal offers")
		return
	}
	if err := pub.Publish("offers", payload); err != nil {
		logger.LogError("publisher", err, "Failed to publish offers")
		return
	}
	if err := pub.TrimStream(); err != nil {
		logger.LogError("publisher", err, "Failed to trim offer stream")
	}
	logger.Info("Published %d offers to stream %s", len(offers), cfg.RedisStream)
}
