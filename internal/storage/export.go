// export.go - CSV/JSON export of expense records

package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExportCSV renders records as a CSV document with a fixed header row
func ExportCSV(records []ExpenseRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "merchant", "amount", "category", "confidence", "description", "items", "is_recurring", "tags", "timestamp"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Date,
			r.Merchant,
			fmt.Sprintf("%.2f", r.Amount),
			r.Category,
			fmt.Sprintf("%.2f", r.Confidence),
			r.Description,
			strings.Join(r.Items, "; "),
			fmt.Sprintf("%t", r.IsRecurring),
			strings.Join(r.Tags, "; "),
			r.Timestamp.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExportJSON renders records as an indented JSON array
func ExportJSON(records []ExpenseRecord) (string, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal records: %w", err)
	}
	return string(data), nil
}
