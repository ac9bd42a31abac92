package agent

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/smartspend/expense-agent/internal/storage"
)

func TestGenerateBudgetRejectsInvalidIncome(t *testing.T) {
	a := NewAdvisor(nil)

	for _, income := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		_, _, err := a.GenerateBudget(context.Background(), income, nil, "", "moderate")
		if !errors.Is(err, ErrInvalidIncome) {
			t.Errorf("income %v: err = %v, want ErrInvalidIncome", income, err)
		}
	}
}

func TestGenerateBudgetFallbackAllocations(t *testing.T) {
	a := NewAdvisor(nil)

	budget, _, err := a.GenerateBudget(context.Background(), 3000, nil, "", "moderate")
	if err != nil {
		t.Fatalf("GenerateBudget returned error: %v", err)
	}

	if budget.BudgetType != "moderate" {
		t.Errorf("BudgetType = %q, want moderate", budget.BudgetType)
	}

	line, ok := budget.MonthlyBudget["Food & Dining"]
	if !ok {
		t.Fatal("budget missing Food & Dining line")
	}
	if !almostEqual(line.RecommendedAmount, 540.00) { // 18% of 3000
		t.Errorf("Food & Dining recommended = %v, want 540.00", line.RecommendedAmount)
	}
	if !almostEqual(line.PercentageOfIncome, 0.18) {
		t.Errorf("Food & Dining percentage = %v, want 0.18", line.PercentageOfIncome)
	}

	if !almostEqual(budget.Summary.TotalIncome, 3000) {
		t.Errorf("TotalIncome = %v, want 3000", budget.Summary.TotalIncome)
	}
	if !almostEqual(budget.Summary.EmergencyFundTarget, 18000) {
		t.Errorf("EmergencyFundTarget = %v, want 6x income", budget.Summary.EmergencyFundTarget)
	}
	if len(budget.Recommendations) == 0 {
		t.Error("fallback budget should carry recommendations")
	}
}

func TestGenerateBudgetUnknownToleranceDefaultsToModerate(t *testing.T) {
	a := NewAdvisor(nil)

	budget, _, err := a.GenerateBudget(context.Background(), 1000, nil, "", "yolo")
	if err != nil {
		t.Fatalf("GenerateBudget returned error: %v", err)
	}
	if budget.BudgetType != "moderate" {
		t.Errorf("BudgetType = %q, want moderate default", budget.BudgetType)
	}
}

func TestGenerateBudgetFallbackFillsCurrentSpending(t *testing.T) {
	a := NewAdvisor(nil)
	expenses := []storage.ExpenseRecord{
		{Amount: 120.00, Category: "Groceries", Date: "2024-01-05"},
		{Amount: 80.00, Category: "Groceries", Date: "2024-01-12"},
	}

	budget, _, err := a.GenerateBudget(context.Background(), 2000, expenses, "", "moderate")
	if err != nil {
		t.Fatalf("GenerateBudget returned error: %v", err)
	}

	line := budget.MonthlyBudget["Groceries"]
	if !almostEqual(line.CurrentAmount, 200.00) {
		t.Errorf("Groceries current = %v, want 200.00", line.CurrentAmount)
	}
	if !almostEqual(line.Variance, 100.00) { // 15% of 2000 minus 200 spent
		t.Errorf("Groceries variance = %v, want 100.00", line.Variance)
	}
}

func TestGenerateBudgetAIErrorFallsBack(t *testing.T) {
	a := NewAdvisor(&fakeProvider{err: errors.New("provider down")})

	budget, _, err := a.GenerateBudget(context.Background(), 1000, nil, "", "moderate")
	if err != nil {
		t.Fatalf("GenerateBudget should fall back, got error: %v", err)
	}
	if len(budget.MonthlyBudget) == 0 {
		t.Error("fallback budget is empty")
	}
}

func TestGenerateInsightsEmptyHistory(t *testing.T) {
	a := NewAdvisor(nil)

	report, _ := a.GenerateInsights(context.Background(), nil)

	if report.SpendingHealth != "unknown" {
		t.Errorf("SpendingHealth = %q, want unknown", report.SpendingHealth)
	}
	if len(report.Insights) == 0 {
		t.Error("empty history should still produce a canned insight")
	}
}

func TestGenerateInsightsDeterministicFallback(t *testing.T) {
	a := NewAdvisor(nil)
	expenses := []storage.ExpenseRecord{
		{Amount: 300.00, Category: "Groceries", Merchant: "Walmart", Date: "2024-01-05"},
		{Amount: 100.00, Category: "Food & Dining", Merchant: "Chipotle", Date: "2024-01-12"},
		{Amount: 100.00, Category: "Other", Merchant: "Misc", Date: "2024-02-01"},
	}

	report, _ := a.GenerateInsights(context.Background(), expenses)

	if report.TopCategory != "Groceries" {
		t.Errorf("TopCategory = %q, want Groceries", report.TopCategory)
	}
	if len(report.Insights) < 3 {
		t.Errorf("got %d insights, want at least 3", len(report.Insights))
	}
	// Groceries is 60% of spending
	if report.SpendingHealth != "concerning" {
		t.Errorf("SpendingHealth = %q, want concerning for a 60%% category", report.SpendingHealth)
	}
	if !almostEqual(report.KeyMetrics["top_category_percentage"], 0.6) {
		t.Errorf("top_category_percentage = %v, want 0.6", report.KeyMetrics["top_category_percentage"])
	}
}

func TestAdviseFallback(t *testing.T) {
	a := NewAdvisor(&fakeProvider{err: errors.New("provider down")})

	advice, _ := a.Advise(context.Background(), map[string]interface{}{"note": "test"})

	if advice.FinancialHealthScore != 70 {
		t.Errorf("FinancialHealthScore = %d, want canned 70", advice.FinancialHealthScore)
	}
	if advice.HealthAssessment != "needs_improvement" {
		t.Errorf("HealthAssessment = %q, want needs_improvement", advice.HealthAssessment)
	}
}

func TestGenerateBudgetAlerts(t *testing.T) {
	budget := Budget{MonthlyBudget: map[string]BudgetLine{
		"Groceries":                  {RecommendedAmount: 100},
		"Food & Dining":              {RecommendedAmount: 100},
		"Entertainment & Recreation": {RecommendedAmount: 100},
		"Shopping & Retail":          {RecommendedAmount: 100},
	}}
	spending := map[string]float64{
		"Groceries":                  95, // critical: over 90%
		"Food & Dining":              75, // warning: 75% spent at 50% of month
		"Entertainment & Recreation": 20, // positive: well under pace
		"Shopping & Retail":          55, // on pace, no alert
		"Travel & Vacation":          40, // not budgeted, ignored
	}

	alerts := GenerateBudgetAlerts(spending, budget, 0.5)

	byCategory := map[string]string{}
	for _, a := range alerts {
		byCategory[a.Category] = a.Type
	}

	want := map[string]string{
		"Groceries":                  "critical",
		"Food & Dining":              "warning",
		"Entertainment & Recreation": "positive",
	}
	for category, wantType := range want {
		if byCategory[category] != wantType {
			t.Errorf("%s alert = %q, want %q", category, byCategory[category], wantType)
		}
	}
	if _, ok := byCategory["Shopping & Retail"]; ok {
		t.Error("on-pace category should not produce an alert")
	}
	if _, ok := byCategory["Travel & Vacation"]; ok {
		t.Error("unbudgeted category should be ignored")
	}
	if len(alerts) != 3 {
		t.Errorf("got %d alerts, want 3", len(alerts))
	}
}
