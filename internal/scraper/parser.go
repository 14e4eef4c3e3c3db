package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"dealerscout/logger"
	"dealerscout/pkg/errors"
)

// usedVehicleMarkers flag cards that mention used or pre-owned stock.
// Substring matching makes this both over- and under-inclusive; a new
// listing can be rejected because nearby page chrome says "certified
// pre-owned" somewhere inside the card.
var usedVehicleMarkers = []string{
	"used",
	"pre-owned",
	"pre owned",
	"cpo",
	"certified pre-owned",
}

// priceRe matches the first price-looking substring, e.g. "$98,765"
var priceRe = regexp.MustCompile(`\$\s*([\d,]{4,8})`)

// ParseInventoryPage scans a dealer inventory page for listing cards
// matching all configured model keywords and returns one offer per
// distinct (title, price) card found. Zero matches is a valid,
// non-error outcome.
func ParseInventoryPage(r io.Reader, dealerName, inventoryURL string, opts Options) ([]VehicleOffer, error) {
	opts = opts.withDefaults()

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.NewParsing(dealerName, "failed to parse HTML", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, errors.NewParsing(dealerName, "document has no root node", nil)
	}
	root := doc.Nodes[0]

	log := logger.ForDealer(dealerName)

	// Find every text node mentioning all model keywords
	var candidates []*html.Node
	visitTextNodes(root, func(n *html.Node) {
		if containsAllKeywords(n.Data, opts.Keywords) {
			candidates = append(candidates, n)
		}
	})

	log.Info().
		Int("mentions", len(candidates)).
		Strs("keywords", opts.Keywords).
		Msg("Scanned inventory page")

	var offers []VehicleOffer
	seen := make(map[string]struct{})

	for _, node := range candidates {
		offer := processCard(node, dealerName, inventoryURL, opts, log)
		if offer == nil {
			continue
		}

		// Avoid duplicates based on (dealer, title, price)
		key := fmt.Sprintf("%s\x00%s\x00%d", offer.DealerName, offer.Title, offer.Price)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		offers = append(offers, *offer)
	}

	log.Info().Int("offers", len(offers)).Msg("Parsed inventory page")
	return offers, nil
}

// processCard recovers the listing card around one matching text node
// and extracts an offer from it. Any failure, including a panic from an
// unexpected DOM shape, drops only this candidate.
func processCard(node *html.Node, dealerName, inventoryURL string, opts Options, log *logger.Logger) (offer *VehicleOffer) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Interface("panic", r).Msg("Skipping candidate card")
			offer = nil
		}
	}()

	// Climb up the DOM tree a bit to catch the full listing card
	card := ancestor(node, opts.ClimbDepth)

	cardStr := cardText(card)
	if !containsAllKeywords(cardStr, opts.Keywords) {
		return nil
	}

	if opts.NewOnly && isUsedVehicleText(cardStr) {
		return nil
	}

	price, ok := extractPrice(cardStr)
	if !ok {
		// A listing without a recognizable price is not reported
		return nil
	}

	return &VehicleOffer{
		DealerName: dealerName,
		Title:      truncate(cardStr, opts.TitleMaxLen),
		Price:      price,
		ListingURL: inventoryURL, // generic; no per-car URL resolution
	}
}

// visitTextNodes calls fn for every text node under n
func visitTextNodes(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.TextNode {
		fn(n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visitTextNodes(c, fn)
	}
}

// ancestor climbs depth levels up from n, stopping at the root
func ancestor(n *html.Node, depth int) *html.Node {
	card := n
	for i := 0; i < depth; i++ {
		if card.Parent == nil {
			break
		}
		card = card.Parent
	}
	return card
}

// cardText recomputes the full visible text of a subtree: each nested
// text fragment trimmed, non-empty fragments joined by single spaces
func cardText(n *html.Node) string {
	var parts []string
	visitTextNodes(n, func(t *html.Node) {
		if s := strings.TrimSpace(t.Data); s != "" {
			parts = append(parts, s)
		}
	})
	return strings.Join(parts, " ")
}

// containsAllKeywords reports whether text contains every keyword as a
// case-insensitive substring, in any order
func containsAllKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if !strings.Contains(lower, strings.ToLower(k)) {
			return false
		}
	}
	return true
}

// isUsedVehicleText reports whether text mentions a used-vehicle marker
func isUsedVehicleText(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range usedVehicleMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// extractPrice finds the first price in the text like $98,765 and
// returns it in whole dollars
func extractPrice(text string) (int, bool) {
	match := priceRe.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	price, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return price, true
}

// truncate shortens s to max runes, replacing the tail with "..."
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
