package scraper

// VehicleOffer represents a recovered candidate listing. Offers are
// immutable once created: every constructed offer has a parsed price
// and passed the keyword filter and, if enabled, the new-vehicle
// filter.
type VehicleOffer struct {
	DealerName    string   `json:"dealer_name"`
	Title         string   `json:"title"`
	Price         int      `json:"price"`
	ListingURL    string   `json:"listing_url"`
	Location      string   `json:"location,omitempty"`
	DistanceMiles *float64 `json:"distance_miles,omitempty"`
}

// Options controls the inventory page parser heuristics
type Options struct {
	// Keywords that must all appear (case-insensitively) in a text
	// region for it to be considered a candidate match
	Keywords []string

	// NewOnly rejects cards whose text contains a used-vehicle marker
	NewOnly bool

	// ClimbDepth is how many ancestors to climb from a matching text
	// node to approximate the listing card boundary
	ClimbDepth int

	// TitleMaxLen is the maximum title length in runes; longer card
	// text is truncated with a trailing ellipsis
	TitleMaxLen int
}

const (
	// DefaultClimbDepth approximates listing card nesting on most
	// dealer sites; it is a tunable, not a guarantee
	DefaultClimbDepth = 4

	// DefaultTitleMaxLen is the maximum display length for titles
	DefaultTitleMaxLen = 140
)

// withDefaults fills zero-valued heuristic tunables
func (o Options) withDefaults() Options {
	if o.ClimbDepth == 0 {
		o.ClimbDepth = DefaultClimbDepth
	}
	if o.TitleMaxLen == 0 {
		o.TitleMaxLen = DefaultTitleMaxLen
	}
	return o
}
