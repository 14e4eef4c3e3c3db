package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"dealerscout/internal/scraper"
)

var testOffers = []scraper.VehicleOffer{
	{
		DealerName: "Capital Cadillac",
		Title:      "2024 Escalade ESV Sport",
		Price:      104990,
		ListingURL: "https://capital.example/inventory",
	},
	{
		DealerName: "Riverside Motors",
		Title:      "2024 Escalade ESV Premium Luxury",
		Price:      112885,
		ListingURL: "https://riverside.example/new-vehicles",
	},
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	assert.NoError(t, WriteCSV(path, testOffers))

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{
		"Capital Cadillac",
		"2024 Escalade ESV Sport",
		"104990",
		"https://capital.example/inventory",
		"", // location is a reserved placeholder
		"", // distance_miles likewise
	}, rows[1])
}

func TestWriteCSVOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	assert.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0644))

	assert.NoError(t, WriteCSV(path, testOffers[:1]))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "stale content")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, testOffers, 5)

	out := buf.String()
	assert.Contains(t, out, "=== BEST PRICE FOUND ===")
	assert.Contains(t, out, "Dealer  : Capital Cadillac")
	assert.Contains(t, out, "Price   : $104,990")
	assert.Contains(t, out, "Top 2 offers:")
	assert.Contains(t, out, "2. $112,885 - Riverside Motors")
}

func TestPrintSummaryCapsTopN(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, testOffers, 1)

	out := buf.String()
	assert.Contains(t, out, "Top 1 offers:")
	assert.NotContains(t, out, "Riverside Motors")
}

func TestPrintSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, nil, 5)

	assert.Equal(t, "No offers found.\n", buf.String())
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "0", FormatPrice(0))
	assert.Equal(t, "999", FormatPrice(999))
	assert.Equal(t, "1,000", FormatPrice(1000))
	assert.Equal(t, "104,990", FormatPrice(104990))
	assert.Equal(t, "1,250,000", FormatPrice(1250000))
}
