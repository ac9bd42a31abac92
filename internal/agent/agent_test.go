package agent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartspend/expense-agent/internal/storage"
)

// fakeExtractor returns fixed OCR text regardless of the image
type fakeExtractor struct {
	text string
}

func (f *fakeExtractor) Extract(ctx context.Context, imagePath string) string {
	return f.text
}

func newTestAgent(t *testing.T, extractorText string, structurer *Structurer) (*Agent, storage.Store) {
	t.Helper()

	store, err := storage.NewJSONFileStore(filepath.Join(t.TempDir(), "expenses.json"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	a := New(
		structurer,
		NewCategorizer(nil),
		NewAdvisor(nil),
		&fakeExtractor{text: extractorText},
		store,
		NewMemory(),
	)
	return a, store
}

func TestProcessReceiptEndToEnd(t *testing.T) {
	a, store := newTestAgent(t, "WALMART\n01/15/2024\nTOTAL $45.67", nil)

	result, err := a.ProcessReceipt(context.Background(), "receipt.jpg")
	if err != nil {
		t.Fatalf("ProcessReceipt returned error: %v", err)
	}

	rec := result.Record
	if rec.Merchant != "Walmart" {
		t.Errorf("Merchant = %q, want Walmart", rec.Merchant)
	}
	if rec.Amount != 45.67 {
		t.Errorf("Amount = %v, want 45.67", rec.Amount)
	}
	if rec.Date != "2024-01-15" {
		t.Errorf("Date = %q, want 2024-01-15", rec.Date)
	}
	if rec.Category != "Groceries" {
		t.Errorf("Category = %q, want Groceries", rec.Category)
	}
	if !almostEqual(rec.Confidence, 0.75) {
		t.Errorf("Confidence = %v, want 0.75 (rule-based only)", rec.Confidence)
	}
	if rec.ID == "" {
		t.Error("record should receive a generated ID")
	}
	if result.Source != SourceFallback {
		t.Errorf("Source = %q, want %q with no structurer", result.Source, SourceFallback)
	}

	stored, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != rec.ID {
		t.Errorf("expense not persisted: %v", stored)
	}

	if a.Memory().Len() != 1 {
		t.Errorf("memory length = %d, want 1", a.Memory().Len())
	}
}

func TestProcessReceiptUsesAIStructurer(t *testing.T) {
	provider := &fakeProvider{response: `{"merchant": "Whole Foods", "amount": 82.14, "date": "2024-02-20", "items": ["apples"], "description": "groceries"}`}
	a, _ := newTestAgent(t, "WHOLE FOODS MARKET receipt text", NewStructurer(provider))

	result, err := a.ProcessReceipt(context.Background(), "receipt.jpg")
	if err != nil {
		t.Fatalf("ProcessReceipt returned error: %v", err)
	}

	if result.Source != SourceAI {
		t.Errorf("Source = %q, want %q", result.Source, SourceAI)
	}
	if result.Record.Merchant != "Whole Foods" {
		t.Errorf("Merchant = %q, want Whole Foods", result.Record.Merchant)
	}
}

func TestProcessReceiptStructurerFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{response: "sorry, I can't parse this"}
	a, _ := newTestAgent(t, "WALMART\n01/15/2024\nTOTAL $45.67", NewStructurer(provider))

	result, err := a.ProcessReceipt(context.Background(), "receipt.jpg")
	if err != nil {
		t.Fatalf("ProcessReceipt returned error: %v", err)
	}

	if result.Source != SourceFallback {
		t.Errorf("Source = %q, want fallback after AI failure", result.Source)
	}
	if result.Record.Merchant != "Walmart" {
		t.Errorf("Merchant = %q, want pattern-extracted Walmart", result.Record.Merchant)
	}
}

func TestProcessReceiptEmptyOCRText(t *testing.T) {
	a, store := newTestAgent(t, "   ", nil)

	_, err := a.ProcessReceipt(context.Background(), "receipt.jpg")
	if !errors.Is(err, ErrNoTextExtracted) {
		t.Fatalf("err = %v, want ErrNoTextExtracted", err)
	}

	stored, _ := store.Load()
	if len(stored) != 0 {
		t.Errorf("nothing should be persisted on OCR failure, got %d records", len(stored))
	}
}

func TestCreateBudgetRemembersSnapshot(t *testing.T) {
	a, _ := newTestAgent(t, "irrelevant", nil)

	budget, err := a.CreateBudget(context.Background(), 3000, "", "moderate")
	if err != nil {
		t.Fatalf("CreateBudget returned error: %v", err)
	}
	if len(budget.MonthlyBudget) == 0 {
		t.Fatal("budget is empty")
	}

	snapshot := a.Memory().Budget()
	if snapshot == nil {
		t.Fatal("budget snapshot not remembered")
	}
	if snapshot.MonthlyIncome != 3000 {
		t.Errorf("snapshot income = %v, want 3000", snapshot.MonthlyIncome)
	}
}

func TestCreateBudgetInvalidIncome(t *testing.T) {
	a, _ := newTestAgent(t, "irrelevant", nil)

	_, err := a.CreateBudget(context.Background(), -1, "", "moderate")
	if !errors.Is(err, ErrInvalidIncome) {
		t.Errorf("err = %v, want ErrInvalidIncome", err)
	}
}

func TestBudgetAlertsWithoutBudget(t *testing.T) {
	a, _ := newTestAgent(t, "irrelevant", nil)

	alerts, err := a.BudgetAlerts(time.Now())
	if err != nil {
		t.Fatalf("BudgetAlerts returned error: %v", err)
	}
	if alerts != nil {
		t.Errorf("alerts = %v, want nil before any budget exists", alerts)
	}
}

func TestBudgetAlertsAfterBudget(t *testing.T) {
	a, store := newTestAgent(t, "irrelevant", nil)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	if _, err := store.Add(storage.ExpenseRecord{
		Date: "2024-03-10", Merchant: "Walmart", Amount: 600.00, Category: "Groceries",
	}); err != nil {
		t.Fatalf("failed to seed expense: %v", err)
	}

	if _, err := a.CreateBudget(context.Background(), 2000, "", "moderate"); err != nil {
		t.Fatalf("CreateBudget returned error: %v", err)
	}

	alerts, err := a.BudgetAlerts(now)
	if err != nil {
		t.Fatalf("BudgetAlerts returned error: %v", err)
	}

	// Groceries allocation is 15% of 2000 = 300; 600 spent is over 90%
	found := false
	for _, alert := range alerts {
		if alert.Category == "Groceries" && alert.Type == "critical" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a critical Groceries alert, got %v", alerts)
	}
}

func TestGetInsightsEmptyStore(t *testing.T) {
	a, _ := newTestAgent(t, "irrelevant", nil)

	report, err := a.GetInsights(context.Background())
	if err != nil {
		t.Fatalf("GetInsights returned error: %v", err)
	}
	if report.SpendingHealth != "unknown" {
		t.Errorf("SpendingHealth = %q, want unknown with no history", report.SpendingHealth)
	}
}

func TestGetAdviceIncludesSpendingSummary(t *testing.T) {
	a, _ := newTestAgent(t, "irrelevant", nil)

	advice, err := a.GetAdvice(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetAdvice returned error: %v", err)
	}
	if advice.FinancialHealthScore == 0 {
		t.Error("expected the canned advice fallback")
	}
}
