package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"dealerscout/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Search configuration
	ZipCode       string
	ModelKeywords []string
	NewOnly       bool

	// Input / output paths
	DealersPath string
	OutputPath  string

	// Reporting
	TopN int

	// Fetching
	FetchTimeout     time.Duration
	FetchConcurrency int

	// Parser heuristics
	ClimbDepth  int
	TitleMaxLen int

	// Optional page cache (disabled when MemcacheAddr is empty)
	MemcacheAddr string
	PageCacheTTL time.Duration

	// Optional offer publishing (disabled when RedisAddr is empty)
	RedisAddr         string
	RedisDB           int
	RedisStream       string
	RedisStreamMaxLen int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	topN, _ := strconv.Atoi(getEnv("TOP_N", "5"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "25"))
	fetchConcurrency, _ := strconv.Atoi(getEnv("FETCH_CONCURRENCY", "1"))
	climbDepth, _ := strconv.Atoi(getEnv("CLIMB_DEPTH", "4"))
	titleMaxLen, _ := strconv.Atoi(getEnv("TITLE_MAX_LEN", "140"))
	pageCacheTTL, _ := strconv.Atoi(getEnv("PAGE_CACHE_TTL_SECONDS", "600"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "500"))

	return &Config{
		ZipCode:           getEnv("ZIP_CODE", "23112"),
		ModelKeywords:     splitKeywords(getEnv("MODEL_KEYWORDS", "escalade,esv")),
		NewOnly:           getEnv("NEW_ONLY", "true") == "true",
		DealersPath:       getEnv("DEALERS_PATH", "dealers.csv"),
		OutputPath:        getEnv("OUTPUT_CSV", "results.csv"),
		TopN:              topN,
		FetchTimeout:      time.Duration(fetchTimeout) * time.Second,
		FetchConcurrency:  fetchConcurrency,
		ClimbDepth:        climbDepth,
		TitleMaxLen:       titleMaxLen,
		MemcacheAddr:      getEnv("MEMCACHE_ADDR", ""),
		PageCacheTTL:      time.Duration(pageCacheTTL) * time.Second,
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisDB:           redisDB,
		RedisStream:       getEnv("REDIS_STREAM", "offers"),
		RedisStreamMaxLen: redisStreamMaxLen,
		Environment:       getEnv("DEALERSCOUT_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if len(c.ModelKeywords) == 0 {
		return errors.NewConfiguration("at least one model keyword is required", nil)
	}
	if c.OutputPath == "" {
		return errors.NewConfiguration("output path must not be empty", nil)
	}
	if c.TopN <= 0 {
		return errors.NewConfiguration("top-N must be positive", nil)
	}
	if c.FetchTimeout <= 0 {
		return errors.NewConfiguration("fetch timeout must be positive", nil)
	}
	if c.FetchConcurrency <= 0 {
		return errors.NewConfiguration("fetch concurrency must be positive", nil)
	}
	if c.ClimbDepth <= 0 {
		return errors.NewConfiguration("climb depth must be positive", nil)
	}
	if c.TitleMaxLen <= 3 {
		return errors.NewConfiguration("title max length must exceed the ellipsis length", nil)
	}
	return nil
}

// splitKeywords splits a comma-separated keyword list, dropping blanks
func splitKeywords(s string) []string {
	var keywords []string
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
