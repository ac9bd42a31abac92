// agent.go - Receipt processing orchestrator
//
// Agent wires the full pipeline together: image preprocessing, OCR, AI
// structuring with deterministic fallback, two-pass categorization,
// persistence and memory update. All collaborators are injected so tests
// can swap in fakes.

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smartspend/expense-agent/configs"
	"github.com/smartspend/expense-agent/internal/common"
	"github.com/smartspend/expense-agent/internal/ocr"
	"github.com/smartspend/expense-agent/internal/processor"
	"github.com/smartspend/expense-agent/internal/storage"
)

var ErrNoTextExtracted = errors.New("no text could be extracted from the image")

// TextExtractor is the OCR capability the agent depends on
type TextExtractor interface {
	Extract(ctx context.Context, imagePath string) string
}

// ProcessResult is the outcome of a full receipt run
type ProcessResult struct {
	Record      storage.ExpenseRecord  `json:"record"`
	Source      string                 `json:"extraction_source"` // "ai" or "fallback"
	Explanation string                 `json:"explanation"`
	Summary     map[string]interface{} `json:"processing_summary"`
}

// Agent orchestrates the receipt pipeline end to end
type Agent struct {
	structurer  *Structurer
	categorizer *Categorizer
	advisor     *Advisor
	extractor   TextExtractor
	store       storage.Store
	memory      *Memory
}

// New builds an Agent. structurer may be nil when no chat provider is
// configured; the deterministic paths still work.
func New(structurer *Structurer, categorizer *Categorizer, advisor *Advisor, extractor TextExtractor, store storage.Store, memory *Memory) *Agent {
	return &Agent{
		structurer:  structurer,
		categorizer: categorizer,
		advisor:     advisor,
		extractor:   extractor,
		store:       store,
		memory:      memory,
	}
}

// ProcessReceipt runs the full pipeline on a receipt image and persists
// the resulting expense
func (a *Agent) ProcessReceipt(ctx context.Context, imagePath string) (ProcessResult, error) {
	rc := common.NewRequestContext()

	ocrPath := imagePath
	if configs.ENABLE_IMAGE_PREPROCESSING {
		rc.StartStep("Image preprocessing")
		ocrPath = processor.PrepareForOCR(imagePath)
		rc.EndStep("success", nil, nil)
	}

	rc.StartStep("OCR text extraction")
	rawText := a.extractor.Extract(ctx, ocrPath)
	if strings.TrimSpace(rawText) == "" && ocrPath != imagePath {
		rc.LogWarning("no text from processed image, retrying original")
		rawText = a.extractor.Extract(ctx, imagePath)
	}
	if strings.TrimSpace(rawText) == "" {
		err := ErrNoTextExtracted
		rc.EndStep("failed", nil, err)
		return ProcessResult{}, err
	}
	rc.EndStep("success", nil, nil)

	fields, source := a.structureWithFallback(ctx, rc, rawText)

	rc.StartStep("Categorization")
	catResult, usage := a.categorizer.Categorize(ctx, fields.Merchant, fields.Amount, fields.Items, a.memory.RecentCategories(10))
	rc.EndStep("success", usage, nil)

	description := fields.Description
	if description == "" {
		description = fmt.Sprintf("Purchase at %s", fields.Merchant)
	}

	rec := storage.ExpenseRecord{
		Date:        fields.Date,
		Merchant:    fields.Merchant,
		Amount:      fields.Amount,
		Category:    catResult.Category,
		Confidence:  catResult.Confidence,
		Description: description,
		Items:       fields.Items,
		Tags:        []string{},
	}

	rc.StartStep("Persist expense")
	saved, err := a.store.Add(rec)
	if err != nil {
		rc.EndStep("failed", nil, err)
		return ProcessResult{}, fmt.Errorf("failed to save expense: %w", err)
	}
	rc.EndStep("success", nil, nil)

	a.memory.Remember(saved)

	return ProcessResult{
		Record:      saved,
		Source:      source,
		Explanation: catResult.Reasoning,
		Summary:     rc.GetSummary(),
	}, nil
}

// structureWithFallback tries the AI pass first and falls through to the
// deterministic extractor on any failure
func (a *Agent) structureWithFallback(ctx context.Context, rc *common.RequestContext, rawText string) (ExtractedFields, string) {
	if a.structurer != nil {
		rc.StartStep("AI structuring")
		fields, usage, err := a.structurer.Structure(ctx, rawText)
		if err == nil {
			rc.EndStep("success", usage, nil)
			return fields, SourceAI
		}
		rc.EndStep("failed", usage, err)
		rc.LogWarning("AI structuring failed, using pattern extraction")
	}

	rc.StartStep("Pattern extraction")
	fields := ExtractFields(rawText)
	rc.EndStep("success", nil, nil)
	return fields, SourceFallback
}

// CreateBudget generates a budget from the stored expense history and
// remembers it for later pacing alerts
func (a *Agent) CreateBudget(ctx context.Context, income float64, goals, riskTolerance string) (Budget, error) {
	expenses, err := a.store.Load()
	if err != nil {
		return Budget{}, fmt.Errorf("failed to load expenses: %w", err)
	}

	budget, _, err := a.advisor.GenerateBudget(ctx, income, expenses, goals, riskTolerance)
	if err != nil {
		return Budget{}, err
	}

	allocations := make(map[string]float64, len(budget.MonthlyBudget))
	for category, line := range budget.MonthlyBudget {
		allocations[category] = line.RecommendedAmount
	}
	a.memory.SetBudget(BudgetSnapshot{
		MonthlyIncome: income,
		Allocations:   allocations,
		SavingsTarget: budget.Summary.RemainingForSavings,
	})

	return budget, nil
}

// GetInsights analyzes the stored expense history
func (a *Agent) GetInsights(ctx context.Context) (InsightsReport, error) {
	expenses, err := a.store.Load()
	if err != nil {
		return InsightsReport{}, fmt.Errorf("failed to load expenses: %w", err)
	}
	report, _ := a.advisor.GenerateInsights(ctx, expenses)
	return report, nil
}

// GetAdvice answers a free-form financial situation, enriched with the
// stored spending summary
func (a *Agent) GetAdvice(ctx context.Context, situation map[string]interface{}) (FinancialAdvice, error) {
	expenses, err := a.store.Load()
	if err != nil {
		return FinancialAdvice{}, fmt.Errorf("failed to load expenses: %w", err)
	}

	if situation == nil {
		situation = map[string]interface{}{}
	}
	situation["spending_summary"] = Summarize(expenses)
	if budget := a.memory.Budget(); budget != nil {
		situation["current_budget"] = budget
	}

	advice, _ := a.advisor.Advise(ctx, situation)
	return advice, nil
}

// BudgetAlerts compares this month's spending against the remembered
// budget. Returns nil when no budget has been created yet.
func (a *Agent) BudgetAlerts(now time.Time) ([]BudgetAlert, error) {
	snapshot := a.memory.Budget()
	if snapshot == nil {
		return nil, nil
	}

	expenses, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	month := now.Format("2006-01")
	currentMonth := map[string]float64{}
	for _, exp := range expenses {
		if strings.HasPrefix(exp.Date, month) {
			category := exp.Category
			if category == "" {
				category = "Other"
			}
			currentMonth[category] += exp.Amount
		}
	}

	budget := Budget{MonthlyBudget: map[string]BudgetLine{}}
	for category, amount := range snapshot.Allocations {
		budget.MonthlyBudget[category] = BudgetLine{RecommendedAmount: amount}
	}

	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	progress := float64(now.Day()) / float64(daysInMonth)

	return GenerateBudgetAlerts(currentMonth, budget, progress), nil
}

// Memory exposes the agent's context window, mainly for handlers and tests
func (a *Agent) Memory() *Memory {
	return a.memory
}

// NewDefaultExtractor builds the production OCR extractor from config
func NewDefaultExtractor() TextExtractor {
	return ocr.NewExtractor(ocr.Config{
		Tesseract: configs.TESSERACT_BIN,
		Language:  configs.TESSERACT_LANG,
	})
}
