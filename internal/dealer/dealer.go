package dealer

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"dealerscout/logger"
	"dealerscout/pkg/errors"
)

// Dealer represents one configured dealership and its inventory page
type Dealer struct {
	Name         string
	InventoryURL string
}

// Load reads dealers from a CSV file with a dealer_name,inventory_url
// header. Rows missing either field are skipped. A missing file yields
// a configuration error the caller is expected to treat as non-fatal.
func Load(path string) ([]Dealer, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfiguration(path+" not found; create it with dealer_name,inventory_url", err)
		}
		return nil, errors.NewConfiguration("failed to open "+path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // dealer files in the wild have ragged rows

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.NewConfiguration("failed to read header from "+path, err)
	}

	nameIdx, urlIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.ToLower(col)) {
		case "dealer_name":
			nameIdx = i
		case "inventory_url":
			urlIdx = i
		}
	}
	if nameIdx < 0 || urlIdx < 0 {
		return nil, errors.NewConfiguration(path+" is missing dealer_name or inventory_url column", nil)
	}

	var dealers []Dealer
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("Skipping malformed row in %s: %v", path, err)
			continue
		}
		if nameIdx >= len(row) || urlIdx >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		url := strings.TrimSpace(row[urlIdx])
		if name == "" || url == "" {
			continue
		}
		dealers = append(dealers, Dealer{Name: name, InventoryURL: url})
	}

	logger.Info("Loaded %d dealers from %s", len(dealers), path)
	return dealers, nil
}
