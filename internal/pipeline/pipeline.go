package pipeline

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"dealerscout/helpers"
	"dealerscout/internal/dealer"
	"dealerscout/internal/scraper"
	"dealerscout/logger"
	"dealerscout/services/cache"
)

// FetchFunc downloads an inventory page. It exists so tests can swap
// the network out.
type FetchFunc func(ctx context.Context, url string) (io.Reader, error)

// Pipeline drives the dealer -> fetch -> parse flow and collects the
// resulting offers into one price-sorted sequence.
type Pipeline struct {
	dealers      []dealer.Dealer
	fetch        FetchFunc
	opts         scraper.Options
	fetchTimeout time.Duration
	concurrency  int
	cache        cache.CacheService
	cacheTTL     time.Duration
}

// New creates a pipeline over the given dealers
func New(dealers []dealer.Dealer, opts scraper.Options) *Pipeline {
	return &Pipeline{
		dealers:      dealers,
		fetch:        helpers.FetchPage,
		opts:         opts,
		fetchTimeout: 25 * time.Second,
		concurrency:  1,
	}
}

// WithFetchFunc overrides the page fetcher
func (p *Pipeline) WithFetchFunc(fetch FetchFunc) *Pipeline {
	p.fetch = fetch
	return p
}

// WithFetchTimeout sets the per-request timeout
func (p *Pipeline) WithFetchTimeout(timeout time.Duration) *Pipeline {
	p.fetchTimeout = timeout
	return p
}

// WithConcurrency bounds how many dealers are fetched at once. Output
// ordering is unaffected: results land in per-dealer slots that are
// concatenated in configured dealer order.
func (p *Pipeline) WithConcurrency(n int) *Pipeline {
	if n > 0 {
		p.concurrency = n
	}
	return p
}

// WithPageCache caches fetched HTML per inventory URL with the given TTL
func (p *Pipeline) WithPageCache(svc cache.CacheService, ttl time.Duration) *Pipeline {
	p.cache = svc
	p.cacheTTL = ttl
	return p
}

// Run fetches and parses every dealer's inventory page and returns all
// offers sorted ascending by price. One dealer's failure never aborts
// the others; an empty result is a valid outcome.
func (p *Pipeline) Run(ctx context.Context) []scraper.VehicleOffer {
	slots := make([][]scraper.VehicleOffer, len(p.dealers))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.concurrency)

	for i, d := range p.dealers {
		wg.Add(1)
		go func(i int, d dealer.Dealer) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			slots[i] = p.scrapeDealer(ctx, d)
		}(i, d)
	}
	wg.Wait()

	// Concatenate in configured dealer order, preserving per-dealer
	// parse order, so the stable sort below is deterministic
	var offers []scraper.VehicleOffer
	for _, slot := range slots {
		offers = append(offers, slot...)
	}

	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Price < offers[j].Price
	})

	if len(offers) == 0 {
		logger.Warn("No matching vehicles were found. You might need to adjust the dealer list or keywords.")
	}

	return offers
}

// scrapeDealer fetches and parses one dealer's inventory page. Fetch or
// parse failure contributes zero offers for this dealer only.
func (p *Pipeline) scrapeDealer(ctx context.Context, d dealer.Dealer) []scraper.VehicleOffer {
	log := logger.ForDealer(d.Name)

	body, err := p.fetchPage(ctx, d.InventoryURL)
	if err != nil {
		log.Error().Err(err).Str("url", d.InventoryURL).Msg("Failed to fetch inventory page")
		return nil
	}

	offers, err := scraper.ParseInventoryPage(body, d.Name, d.InventoryURL, p.opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse inventory page")
		return nil
	}

	return offers
}

// fetchPage fetches a URL with an optional page cache in front of the
// network and the configured per-request timeout behind it
func (p *Pipeline) fetchPage(ctx context.Context, url string) (io.Reader, error) {
	cacheKey := "page:" + url

	if p.cache != nil {
		if cached, err := p.cache.Get(cacheKey); err == nil {
			logger.Debug("Page cache hit for %s", url)
			return bytes.NewReader(cached), nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	logger.Info("Fetching inventory page: %s", url)
	body, err := p.fetch(fetchCtx, url)
	if err != nil {
		return nil, err
	}

	if p.cache == nil {
		return body, nil
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(cacheKey, raw, p.cacheTTL); err != nil {
		logger.Debug("Failed to cache page for %s: %v", url, err)
	}
	return bytes.NewReader(raw), nil
}
