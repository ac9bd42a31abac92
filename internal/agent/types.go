// types.go - Core data types for the extraction and categorization pipeline

package agent

import "errors"

// ErrExtractionFailed is returned when the AI structuring pass cannot produce
// a parseable record. Callers must fall back to the regex field extractor.
var ErrExtractionFailed = errors.New("AI extraction failed")

// UnknownMerchant is the sentinel merchant name used when extraction cannot
// determine one
const UnknownMerchant = "Unknown Merchant"

// ExtractedFields is the structured output of either the AI structuring
// agent or the regex fallback extractor. Amount and Date are never left
// empty: amount defaults to 0.0 and date to today, since downstream
// aggregation assumes a numeric amount and a parseable date.
type ExtractedFields struct {
	Merchant    string   `json:"merchant"`
	Amount      float64  `json:"amount"`
	Date        string   `json:"date"` // ISO-8601 (YYYY-MM-DD)
	Items       []string `json:"items"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	RawText     string   `json:"raw_text,omitempty"`
}

// Categorization sources
const (
	SourceRule     = "rule"
	SourceAI       = "ai"
	SourceCombined = "combined"
	SourceFallback = "fallback"
)

// CategorizationResult is the reconciled category decision for one expense
type CategorizationResult struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"` // 0..1, not a calibrated probability
	Reasoning  string  `json:"reasoning"`
	Source     string  `json:"source"` // rule | ai | combined | fallback
}

// Categories is the fixed enumerated category set. Every categorization
// result must name one of these; out-of-set AI answers are coerced.
var Categories = []string{
	"Food & Dining",
	"Groceries",
	"Shopping & Retail",
	"Transportation & Gas",
	"Entertainment & Recreation",
	"Healthcare & Medical",
	"Utilities & Bills",
	"Home & Garden",
	"Education & Learning",
	"Travel & Vacation",
	"Professional Services",
	"Subscriptions & Memberships",
	"Other",
}

// IsValidCategory reports whether c is a member of the fixed category set
func IsValidCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}
