package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dealerscout/internal/dealer"
	"dealerscout/internal/scraper"
)

var testOpts = scraper.Options{Keywords: []string{"escalade", "esv"}, NewOnly: true}

// fakeFetcher serves canned HTML per URL and counts fetches
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) fetch(_ context.Context, url string) (io.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	html, ok := f.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return strings.NewReader(html), nil
}

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{cache: make(map[string][]byte)}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, errors.New("cache miss")
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

func cardHTML(title string, price int) string {
	return fmt.Sprintf(`<html><body><div>%s - $%s</div></body></html>`, title, priceWithCommas(price))
}

func priceWithCommas(price int) string {
	s := fmt.Sprintf("%d", price)
	if len(s) <= 3 {
		return s
	}
	return s[:len(s)-3] + "," + s[len(s)-3:]
}

func TestRunFetchFailureIsolation(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{
		"http://b.example/inv": cardHTML("2024 Escalade ESV Sport", 104990),
	})
	dealers := []dealer.Dealer{
		{Name: "Broken Motors", InventoryURL: "http://a.example/inv"},
		{Name: "Good Motors", InventoryURL: "http://b.example/inv"},
	}

	offers := New(dealers, testOpts).WithFetchFunc(fetcher.fetch).Run(context.Background())

	assert.Len(t, offers, 1, "one dealer's fetch failure must never abort others")
	assert.Equal(t, "Good Motors", offers[0].DealerName)
	assert.Equal(t, 104990, offers[0].Price)
}

func TestRunSortStability(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{
		"http://a.example/inv": cardHTML("2024 Escalade ESV Alpha", 50000),
		"http://b.example/inv": cardHTML("2024 Escalade ESV Bravo", 30000),
		"http://c.example/inv": cardHTML("2024 Escalade ESV Charlie", 30000),
		"http://d.example/inv": cardHTML("2024 Escalade ESV Delta", 80000),
	})
	dealers := []dealer.Dealer{
		{Name: "Alpha", InventoryURL: "http://a.example/inv"},
		{Name: "Bravo", InventoryURL: "http://b.example/inv"},
		{Name: "Charlie", InventoryURL: "http://c.example/inv"},
		{Name: "Delta", InventoryURL: "http://d.example/inv"},
	}

	offers := New(dealers, testOpts).WithFetchFunc(fetcher.fetch).Run(context.Background())

	assert.Len(t, offers, 4)
	assert.Equal(t, []int{30000, 30000, 50000, 80000}, prices(offers))
	// Equal prices keep their prior relative order
	assert.Equal(t, "Bravo", offers[0].DealerName)
	assert.Equal(t, "Charlie", offers[1].DealerName)
}

func TestRunConcurrentOrderingMatchesSequential(t *testing.T) {
	pages := map[string]string{}
	var dealers []dealer.Dealer
	for _, name := range []string{"One", "Two", "Three", "Four", "Five"} {
		url := fmt.Sprintf("http://%s.example/inv", strings.ToLower(name))
		pages[url] = cardHTML("2024 Escalade ESV "+name, 75000)
		dealers = append(dealers, dealer.Dealer{Name: name, InventoryURL: url})
	}

	sequential := New(dealers, testOpts).
		WithFetchFunc(newFakeFetcher(pages).fetch).
		Run(context.Background())
	concurrent := New(dealers, testOpts).
		WithFetchFunc(newFakeFetcher(pages).fetch).
		WithConcurrency(5).
		Run(context.Background())

	assert.Equal(t, sequential, concurrent, "concurrency must not change observable output ordering")
}

func TestRunNoDealers(t *testing.T) {
	fetcher := newFakeFetcher(nil)

	offers := New(nil, testOpts).WithFetchFunc(fetcher.fetch).Run(context.Background())

	assert.Empty(t, offers, "an empty dealer list degrades to no offers, not a failure")
}

func TestRunPageCache(t *testing.T) {
	url := "http://a.example/inv"
	fetcher := newFakeFetcher(map[string]string{
		url: cardHTML("2024 Escalade ESV Sport", 104990),
	})
	dealers := []dealer.Dealer{{Name: "Cached Motors", InventoryURL: url}}
	mockCache := NewMockCacheService()

	p := New(dealers, testOpts).
		WithFetchFunc(fetcher.fetch).
		WithPageCache(mockCache, time.Minute)

	first := p.Run(context.Background())
	second := p.Run(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.calls[url], "second run must be served from the page cache")
}

func prices(offers []scraper.VehicleOffer) []int {
	out := make([]int, len(offers))
	for i, o := range offers {
		out[i] = o.Price
	}
	return out
}
