// analysis.go - Deterministic spending aggregates
//
// These aggregates feed both the AI prompts (as context) and the
// deterministic insight fallbacks, so they must never depend on a network
// call.

package agent

import (
	"sort"

	"github.com/smartspend/expense-agent/internal/storage"
)

// SpendingSummary is the full set of aggregates over a list of expenses
type SpendingSummary struct {
	TotalSpending    float64            `json:"total_spending"`
	TransactionCount int                `json:"transaction_count"`
	AverageAmount    float64            `json:"average_amount"`
	CategoryTotals   map[string]float64 `json:"category_totals"`
	MerchantTotals   map[string]float64 `json:"merchant_totals"`
	MonthlyTotals    map[string]float64 `json:"monthly_totals"`
	AverageMonthly   float64            `json:"average_monthly"`
}

// Summarize computes aggregates over the given expenses. Records with a
// missing category count as "Other"; a malformed date counts under
// "Unknown" in the monthly breakdown.
func Summarize(expenses []storage.ExpenseRecord) SpendingSummary {
	s := SpendingSummary{
		CategoryTotals: map[string]float64{},
		MerchantTotals: map[string]float64{},
		MonthlyTotals:  map[string]float64{},
	}

	for _, exp := range expenses {
		s.TotalSpending += exp.Amount
		s.TransactionCount++

		category := exp.Category
		if category == "" {
			category = "Other"
		}
		s.CategoryTotals[category] += exp.Amount

		merchant := exp.Merchant
		if merchant == "" {
			merchant = UnknownMerchant
		}
		s.MerchantTotals[merchant] += exp.Amount

		month := "Unknown"
		if len(exp.Date) >= 7 {
			month = exp.Date[:7]
		}
		s.MonthlyTotals[month] += exp.Amount
	}

	if s.TransactionCount > 0 {
		s.AverageAmount = s.TotalSpending / float64(s.TransactionCount)
	}
	if months := len(s.MonthlyTotals); months > 0 {
		s.AverageMonthly = s.TotalSpending / float64(months)
	}
	return s
}

// RankedEntry is one row of a sorted breakdown
type RankedEntry struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// TopN returns the n largest entries of a totals map, largest first. Ties
// break alphabetically so output is stable.
func TopN(totals map[string]float64, n int) []RankedEntry {
	entries := make([]RankedEntry, 0, len(totals))
	for name, amount := range totals {
		entries = append(entries, RankedEntry{Name: name, Amount: amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Amount != entries[j].Amount {
			return entries[i].Amount > entries[j].Amount
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
