package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"dealerscout/internal/scraper"
	"dealerscout/logger"
	"dealerscout/pkg/errors"
)

// Header is the fixed column order of the CSV report
var Header = []string{"dealer_name", "title", "price", "listing_url", "location", "distance_miles"}

// WriteCSV writes one row per offer to path, overwriting any existing
// file. Errors here propagate: there is no recovery once collection
// succeeded but the report cannot be persisted.
func WriteCSV(path string, offers []scraper.VehicleOffer) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewReport("failed to create "+path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return errors.NewReport("failed to write header", err)
	}

	for _, o := range offers {
		distance := ""
		if o.DistanceMiles != nil {
			distance = strconv.FormatFloat(*o.DistanceMiles, 'f', 1, 64)
		}
		row := []string{
			o.DealerName,
			o.Title,
			strconv.Itoa(o.Price),
			o.ListingURL,
			o.Location,
			distance,
		}
		if err := w.Write(row); err != nil {
			return errors.NewReport("failed to write offer row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewReport("failed to flush "+path, err)
	}

	logger.Info("Saved %d offers to %s", len(offers), path)
	return nil
}

// PrintSummary prints a human-readable ranked summary: the single
// lowest-priced offer highlighted, then up to topN cheapest offers.
// Offers must already be sorted ascending by price.
func PrintSummary(w io.Writer, offers []scraper.VehicleOffer, topN int) {
	if len(offers) == 0 {
		fmt.Fprintln(w, "No offers found.")
		return
	}

	best := offers[0]
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== BEST PRICE FOUND ===")
	fmt.Fprintf(w, "Dealer  : %s\n", best.DealerName)
	fmt.Fprintf(w, "Price   : $%s\n", FormatPrice(best.Price))
	fmt.Fprintf(w, "Listing : %s\n", best.ListingURL)
	fmt.Fprintf(w, "Title   : %s\n", best.Title)
	fmt.Fprintln(w, "========================")
	fmt.Fprintln(w)

	n := topN
	if n > len(offers) {
		n = len(offers)
	}
	fmt.Fprintf(w, "Top %d offers:\n", n)
	for i, o := range offers[:n] {
		fmt.Fprintf(w, "%d. $%s - %s\n", i+1, FormatPrice(o.Price), o.DealerName)
		fmt.Fprintf(w, "   URL  : %s\n", o.ListingURL)
		fmt.Fprintf(w, "   Desc : %s\n\n", o.Title)
	}
}

// FormatPrice renders a whole-dollar amount with comma grouping
func FormatPrice(price int) string {
	s := strconv.Itoa(price)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}

	if neg {
		return "-" + string(out)
	}
	return string(out)
}
