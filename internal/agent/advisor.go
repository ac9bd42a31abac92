// advisor.go - Budget planning, spending insights and financial advice
//
// Every advisor operation has a deterministic fallback computed from local
// aggregates, so the API keeps answering when the chat provider is down.

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/smartspend/expense-agent/internal/ai"
	"github.com/smartspend/expense-agent/internal/common"
	"github.com/smartspend/expense-agent/internal/storage"
)

var ErrInvalidIncome = errors.New("monthly income must be a positive number")

// Allocation guidelines by risk tolerance, as fractions of monthly income
var budgetGuidelines = map[string]map[string]float64{
	"conservative": {
		"Food & Dining":              0.15,
		"Groceries":                  0.12,
		"Transportation & Gas":       0.15,
		"Utilities & Bills":          0.10,
		"Healthcare & Medical":       0.08,
		"Shopping & Retail":          0.08,
		"Entertainment & Recreation": 0.05,
		"Home & Garden":              0.05,
		"Other":                      0.12,
		"Savings":                    0.10,
	},
	"moderate": {
		"Food & Dining":              0.18,
		"Groceries":                  0.15,
		"Transportation & Gas":       0.18,
		"Utilities & Bills":          0.12,
		"Healthcare & Medical":       0.06,
		"Shopping & Retail":          0.10,
		"Entertainment & Recreation": 0.08,
		"Home & Garden":              0.05,
		"Other":                      0.08,
	},
	"flexible": {
		"Food & Dining":              0.22,
		"Groceries":                  0.12,
		"Transportation & Gas":       0.15,
		"Utilities & Bills":          0.10,
		"Healthcare & Medical":       0.05,
		"Shopping & Retail":          0.15,
		"Entertainment & Recreation": 0.12,
		"Home & Garden":              0.04,
		"Other":                      0.05,
	},
}

// BudgetLine is the plan for a single category
type BudgetLine struct {
	RecommendedAmount  float64 `json:"recommended_amount"`
	CurrentAmount      float64 `json:"current_amount"`
	Variance           float64 `json:"variance"`
	PercentageOfIncome float64 `json:"percentage_of_income"`
}

// BudgetSummary totals the plan against income
type BudgetSummary struct {
	TotalIncome         float64 `json:"total_income"`
	TotalAllocated      float64 `json:"total_allocated"`
	RemainingForSavings float64 `json:"remaining_for_savings"`
	EmergencyFundTarget float64 `json:"emergency_fund_target"`
}

// SavingsPlan describes the savings portion of the budget
type SavingsPlan struct {
	MonthlySavingsTarget float64 `json:"monthly_savings_target"`
	EmergencyFundMonths  int     `json:"emergency_fund_months"`
	GoalTimeline         string  `json:"goal_timeline"`
}

// Budget is the full personalized budget plan
type Budget struct {
	MonthlyBudget   map[string]BudgetLine `json:"monthly_budget"`
	Summary         BudgetSummary         `json:"budget_summary"`
	Recommendations []string              `json:"recommendations"`
	SavingsPlan     *SavingsPlan          `json:"savings_plan,omitempty"`
	CreatedDate     string                `json:"created_date"`
	BudgetType      string                `json:"budget_type"`
}

// InsightsReport summarizes spending patterns into actionable advice
type InsightsReport struct {
	Insights           []string           `json:"insights"`
	TopRecommendations []string           `json:"top_recommendations"`
	SpendingHealth     string             `json:"spending_health"`
	KeyMetrics         map[string]float64 `json:"key_metrics"`
	TopCategory        string             `json:"top_category,omitempty"`
}

// FinancialAdvice is the structured answer to an advice request
type FinancialAdvice struct {
	FinancialHealthScore int      `json:"financial_health_score"`
	HealthAssessment     string   `json:"health_assessment"`
	PriorityAreas        []string `json:"priority_areas"`
	Next30Days           []string `json:"next_30_days"`
	MediumTermGoals      []string `json:"medium_term_goals"`
	LongTermStrategy     []string `json:"long_term_strategy"`
	WarningSigns         []string `json:"warning_signs"`
	PositiveTrends       []string `json:"positive_trends"`
}

// BudgetAlert flags a category that is off its planned pace
type BudgetAlert struct {
	Type     string `json:"type"` // "critical", "warning", "positive"
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Advisor produces budgets, insights and advice. The provider may be nil,
// forcing all paths onto the deterministic fallbacks.
type Advisor struct {
	provider ai.ChatProvider
}

func NewAdvisor(provider ai.ChatProvider) *Advisor {
	return &Advisor{provider: provider}
}

const budgetSystemPrompt = `You are a certified financial planner with over 15 years of experience ` +
	`helping individuals and families achieve financial stability. Respond with ONLY a valid JSON object, no other text.`

const budgetUserPromptTemplate = `Create a personalized monthly budget for someone with:

Monthly Income: $%.2f
Risk Tolerance: %s
Financial Goals: %s

Current Spending Analysis:
%s

Budget Guidelines to Consider:
- 50%% for needs (housing, utilities, groceries, transportation)
- 30%% for wants (dining out, entertainment, shopping)
- 20%% for savings and debt repayment

Return JSON format:
{
    "monthly_budget": {
        "category_name": {
            "recommended_amount": 300.00,
            "current_amount": 350.00,
            "variance": -50.00,
            "percentage_of_income": 0.15
        }
    },
    "budget_summary": {
        "total_income": %.2f,
        "total_allocated": 0.00,
        "remaining_for_savings": 0.00,
        "emergency_fund_target": 0.00
    },
    "recommendations": [
        "Specific actionable recommendation..."
    ],
    "savings_plan": {
        "monthly_savings_target": 0.00,
        "emergency_fund_months": 6,
        "goal_timeline": "description"
    }
}

Be specific and practical with recommendations.`

// GenerateBudget builds a personalized budget. Income must be positive.
// riskTolerance defaults to "moderate" when unrecognized.
func (a *Advisor) GenerateBudget(ctx context.Context, income float64, expenses []storage.ExpenseRecord, goals, riskTolerance string) (Budget, *common.TokenUsage, error) {
	if income <= 0 || math.IsNaN(income) || math.IsInf(income, 0) {
		return Budget{}, nil, ErrInvalidIncome
	}
	if _, ok := budgetGuidelines[riskTolerance]; !ok {
		riskTolerance = "moderate"
	}

	summary := Summarize(expenses)

	if a.provider != nil {
		budget, usage, err := a.aiBudget(ctx, income, summary, goals, riskTolerance)
		if err == nil {
			return budget, usage, nil
		}
		common.LogWarning("AI budget generation failed, using guideline fallback: %v", err)
		return a.fallbackBudget(income, summary, riskTolerance), usage, nil
	}
	return a.fallbackBudget(income, summary, riskTolerance), nil, nil
}

func (a *Advisor) aiBudget(ctx context.Context, income float64, summary SpendingSummary, goals, riskTolerance string) (Budget, *common.TokenUsage, error) {
	if goals == "" {
		goals = "General financial stability"
	}
	analysisJSON, _ := json.MarshalIndent(summary, "", "  ")

	prompt := fmt.Sprintf(budgetUserPromptTemplate, income, riskTolerance, goals, analysisJSON, income)
	response, usage, err := a.provider.Complete(ctx, budgetSystemPrompt, prompt)
	if err != nil {
		return Budget{}, usage, err
	}

	jsonStr, err := ai.ExtractJSONObject(response)
	if err != nil {
		return Budget{}, usage, err
	}

	var budget Budget
	if err := json.Unmarshal([]byte(jsonStr), &budget); err != nil {
		return Budget{}, usage, fmt.Errorf("invalid budget JSON from model: %w", err)
	}
	if len(budget.MonthlyBudget) == 0 {
		return Budget{}, usage, errors.New("model returned empty budget")
	}

	budget.CreatedDate = time.Now().Format("2006-01-02")
	budget.BudgetType = riskTolerance
	return budget, usage, nil
}

// fallbackBudget applies the guideline percentages for the chosen risk
// tolerance, filling current amounts from the spending summary
func (a *Advisor) fallbackBudget(income float64, summary SpendingSummary, riskTolerance string) Budget {
	guidelines := budgetGuidelines[riskTolerance]

	lines := make(map[string]BudgetLine, len(guidelines))
	totalAllocated := 0.0
	for category, pct := range guidelines {
		amount := income * pct
		current := summary.CategoryTotals[category]
		lines[category] = BudgetLine{
			RecommendedAmount:  round2(amount),
			CurrentAmount:      round2(current),
			Variance:           round2(amount - current),
			PercentageOfIncome: pct,
		}
		totalAllocated += amount
	}

	return Budget{
		MonthlyBudget: lines,
		Summary: BudgetSummary{
			TotalIncome:         income,
			TotalAllocated:      round2(totalAllocated),
			RemainingForSavings: round2(income - totalAllocated),
			EmergencyFundTarget: round2(income * 6),
		},
		Recommendations: []string{
			"Track expenses regularly to stay within budget",
			"Build an emergency fund with 6 months of expenses",
			"Review and adjust budget monthly",
		},
		SavingsPlan: &SavingsPlan{
			MonthlySavingsTarget: round2(income - totalAllocated),
			EmergencyFundMonths:  6,
			GoalTimeline:         "Build emergency fund over the next 12 months",
		},
		CreatedDate: time.Now().Format("2006-01-02"),
		BudgetType:  riskTolerance,
	}
}

const insightsSystemPrompt = `You are a certified financial advisor with expertise in personal ` +
	`finance management. Respond with ONLY a valid JSON object, no other text.`

const insightsUserPromptTemplate = `Analyze this spending data and provide actionable financial insights:

Total Spending: $%.2f
Number of Transactions: %d

Category Breakdown:
%s

Top Merchants:
%s

Monthly Trends:
%s

Provide 5-7 specific, actionable insights in JSON format:
{
    "insights": [
        "Specific insight about spending patterns...",
        "Actionable recommendation for improvement...",
        "Notable trend or opportunity..."
    ],
    "top_recommendations": [
        "Priority action item 1",
        "Priority action item 2"
    ],
    "spending_health": "excellent|good|moderate|concerning",
    "key_metrics": {
        "top_category_percentage": 0.35,
        "average_transaction": 45.67
    }
}

Focus on practical advice for better financial management.`

// GenerateInsights analyzes spending history. With no history it returns a
// canned report rather than an error.
func (a *Advisor) GenerateInsights(ctx context.Context, expenses []storage.ExpenseRecord) (InsightsReport, *common.TokenUsage) {
	if len(expenses) == 0 {
		return InsightsReport{
			Insights:           []string{"No expenses recorded yet. Scan your first receipt to start tracking."},
			TopRecommendations: []string{"Upload a receipt to begin building your spending history"},
			SpendingHealth:     "unknown",
			KeyMetrics:         map[string]float64{},
		}, nil
	}

	summary := Summarize(expenses)

	if a.provider != nil {
		report, usage, err := a.aiInsights(ctx, summary)
		if err == nil {
			return report, usage
		}
		common.LogWarning("AI insights failed, using deterministic fallback: %v", err)
		return a.fallbackInsights(summary), usage
	}
	return a.fallbackInsights(summary), nil
}

func (a *Advisor) aiInsights(ctx context.Context, summary SpendingSummary) (InsightsReport, *common.TokenUsage, error) {
	categoriesJSON, _ := json.MarshalIndent(summary.CategoryTotals, "", "  ")
	merchantsJSON, _ := json.MarshalIndent(TopN(summary.MerchantTotals, 10), "", "  ")
	monthlyJSON, _ := json.MarshalIndent(summary.MonthlyTotals, "", "  ")

	prompt := fmt.Sprintf(insightsUserPromptTemplate,
		summary.TotalSpending, summary.TransactionCount, categoriesJSON, merchantsJSON, monthlyJSON)
	response, usage, err := a.provider.Complete(ctx, insightsSystemPrompt, prompt)
	if err != nil {
		return InsightsReport{}, usage, err
	}

	jsonStr, err := ai.ExtractJSONObject(response)
	if err != nil {
		return InsightsReport{}, usage, err
	}

	var report InsightsReport
	if err := json.Unmarshal([]byte(jsonStr), &report); err != nil {
		return InsightsReport{}, usage, fmt.Errorf("invalid insights JSON from model: %w", err)
	}
	if len(report.Insights) == 0 {
		return InsightsReport{}, usage, errors.New("model returned no insights")
	}
	if report.KeyMetrics == nil {
		report.KeyMetrics = map[string]float64{}
	}
	return report, usage, nil
}

// fallbackInsights derives a report purely from the aggregates
func (a *Advisor) fallbackInsights(summary SpendingSummary) InsightsReport {
	topCategories := TopN(summary.CategoryTotals, 3)
	topMerchants := TopN(summary.MerchantTotals, 3)

	insights := []string{
		fmt.Sprintf("You've recorded %d transactions totaling $%.2f", summary.TransactionCount, summary.TotalSpending),
		fmt.Sprintf("Your average transaction is $%.2f", summary.AverageAmount),
	}

	topPct := 0.0
	topCategory := ""
	if len(topCategories) > 0 && summary.TotalSpending > 0 {
		topCategory = topCategories[0].Name
		topPct = topCategories[0].Amount / summary.TotalSpending
		insights = append(insights, fmt.Sprintf("%s is your largest category at $%.2f (%.0f%% of spending)",
			topCategory, topCategories[0].Amount, topPct*100))
	}
	if len(topMerchants) > 0 {
		insights = append(insights, fmt.Sprintf("You spend the most at %s ($%.2f)",
			topMerchants[0].Name, topMerchants[0].Amount))
	}
	if len(summary.MonthlyTotals) > 1 {
		insights = append(insights, fmt.Sprintf("Your average monthly spending across %d months is $%.2f",
			len(summary.MonthlyTotals), summary.AverageMonthly))
	}

	health := "good"
	if topPct > 0.5 {
		health = "concerning"
	} else if topPct > 0.35 {
		health = "moderate"
	}

	recommendations := []string{"Review your spending regularly"}
	if topCategory != "" {
		recommendations = append(recommendations,
			fmt.Sprintf("Look for savings opportunities in %s", topCategory))
	}

	return InsightsReport{
		Insights:           insights,
		TopRecommendations: recommendations,
		SpendingHealth:     health,
		KeyMetrics: map[string]float64{
			"top_category_percentage": round2(topPct),
			"average_transaction":     round2(summary.AverageAmount),
		},
		TopCategory: topCategory,
	}
}

const adviceUserPromptTemplate = `Provide comprehensive financial advice based on this situation:

Current Financial Situation:
%s

Analyze the situation and provide:
1. Assessment of current financial health
2. Top 3 priority areas for improvement
3. Specific action steps for the next 30 days
4. Medium-term goals (3-6 months)
5. Long-term recommendations (1+ years)
6. Warning signs to watch for
7. Positive trends to build upon

Return JSON format:
{
    "financial_health_score": 85,
    "health_assessment": "good|excellent|needs_improvement|concerning",
    "priority_areas": ["..."],
    "next_30_days": ["..."],
    "medium_term_goals": ["..."],
    "long_term_strategy": ["..."],
    "warning_signs": ["..."],
    "positive_trends": ["..."]
}

Be encouraging but honest about areas needing improvement.`

// Advise answers a free-form financial situation with structured advice.
// Falls back to a generic plan when the provider fails.
func (a *Advisor) Advise(ctx context.Context, situation map[string]interface{}) (FinancialAdvice, *common.TokenUsage) {
	if a.provider != nil {
		advice, usage, err := a.aiAdvice(ctx, situation)
		if err == nil {
			return advice, usage
		}
		common.LogWarning("AI advice failed, using canned fallback: %v", err)
		return fallbackAdvice(), usage
	}
	return fallbackAdvice(), nil
}

func (a *Advisor) aiAdvice(ctx context.Context, situation map[string]interface{}) (FinancialAdvice, *common.TokenUsage, error) {
	situationJSON, _ := json.MarshalIndent(situation, "", "  ")

	prompt := fmt.Sprintf(adviceUserPromptTemplate, situationJSON)
	response, usage, err := a.provider.Complete(ctx, budgetSystemPrompt, prompt)
	if err != nil {
		return FinancialAdvice{}, usage, err
	}

	jsonStr, err := ai.ExtractJSONObject(response)
	if err != nil {
		return FinancialAdvice{}, usage, err
	}

	var advice FinancialAdvice
	if err := json.Unmarshal([]byte(jsonStr), &advice); err != nil {
		return FinancialAdvice{}, usage, fmt.Errorf("invalid advice JSON from model: %w", err)
	}
	return advice, usage, nil
}

func fallbackAdvice() FinancialAdvice {
	return FinancialAdvice{
		FinancialHealthScore: 70,
		HealthAssessment:     "needs_improvement",
		PriorityAreas:        []string{"Expense tracking", "Budget creation", "Emergency fund"},
		Next30Days:           []string{"Start tracking all expenses daily"},
		MediumTermGoals:      []string{"Build $1000 emergency fund"},
		LongTermStrategy:     []string{"Increase income through skills development"},
		WarningSigns:         []string{"Overspending in discretionary categories"},
		PositiveTrends:       []string{"Regular expense tracking habits"},
	}
}

// GenerateBudgetAlerts compares current-month spending against the budget.
// monthProgress is the fraction of the month elapsed, in [0, 1].
func GenerateBudgetAlerts(currentMonthSpending map[string]float64, budget Budget, monthProgress float64) []BudgetAlert {
	alerts := []BudgetAlert{}
	expectedPct := monthProgress * 100

	for _, category := range sortedKeys(currentMonthSpending) {
		spent := currentMonthSpending[category]
		line, ok := budget.MonthlyBudget[category]
		if !ok || line.RecommendedAmount <= 0 {
			continue
		}
		spentPct := spent / line.RecommendedAmount * 100

		switch {
		case spentPct > 90:
			alerts = append(alerts, BudgetAlert{
				Type:     "critical",
				Category: category,
				Message: fmt.Sprintf("You've spent 90%%+ of your %s budget ($%.2f/$%.2f)",
					category, spent, line.RecommendedAmount),
			})
		case spentPct > expectedPct+20:
			alerts = append(alerts, BudgetAlert{
				Type:     "warning",
				Category: category,
				Message:  fmt.Sprintf("%s spending is %.0f%% of budget, ahead of schedule", category, spentPct),
			})
		case spentPct < expectedPct-20:
			alerts = append(alerts, BudgetAlert{
				Type:     "positive",
				Category: category,
				Message:  fmt.Sprintf("Great job! %s spending is under budget", category),
			})
		}
	}
	return alerts
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
