package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CrediTrust/complaint-insights/engine/domain"
)

// Source CSV column headers (CFPB complaint export format).
const (
	colDateReceived = "Date received"
	colProduct      = "Product"
	colSubProduct   = "Sub-product"
	colNarrative    = "Consumer complaint narrative"
	colCompany      = "Company"
	colState        = "State"
	colComplaintID  = "Complaint ID"
)

// LoadComplaints reads raw complaint rows from a CSV file. Column positions
// are resolved from the header row; only the Product and narrative columns
// are mandatory. Rows with the wrong field count are skipped, not fatal.
func LoadComplaints(path string) ([]domain.ComplaintRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // narratives embed commas and quotes; validate per row instead
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colProduct, colNarrative} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("ingest: %s: missing column %q", path, required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []domain.ComplaintRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read row: %w", err)
		}
		records = append(records, domain.ComplaintRecord{
			ComplaintID:  field(row, colComplaintID),
			Product:      field(row, colProduct),
			SubProduct:   field(row, colSubProduct),
			Narrative:    field(row, colNarrative),
			Company:      field(row, colCompany),
			State:        field(row, colState),
			DateReceived: field(row, colDateReceived),
		})
	}
	return records, nil
}
