// categorizer.go - Two-pass expense categorization
//
// Pass 1 is a deterministic keyword scorer, pass 2 asks the chat provider,
// and the two suggestions are reconciled into a single category plus
// confidence. Every path degrades gracefully down to a last-resort heuristic.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smartspend/expense-agent/internal/ai"
	"github.com/smartspend/expense-agent/internal/common"
)

// Merchant keyword hits count triple weight over item hits.
const (
	merchantHitScore = 3
	itemHitScore     = 1
)

var categoryKeywords = map[string][]string{
	"Food & Dining": {
		"restaurant", "cafe", "starbucks", "mcdonalds", "pizza", "burger", "kfc",
		"subway", "taco bell", "chipotle", "dining", "bar", "pub", "bistro",
	},
	"Groceries": {
		"grocery", "supermarket", "walmart", "target", "kroger", "safeway",
		"whole foods", "trader joe", "costco", "sams club", "food store",
	},
	"Shopping & Retail": {
		"amazon", "ebay", "store", "mall", "clothing", "fashion", "shoes",
		"electronics", "best buy", "apple store", "retail", "boutique",
	},
	"Transportation & Gas": {
		"gas", "fuel", "shell", "exxon", "bp", "chevron", "mobil", "uber",
		"lyft", "taxi", "parking", "metro", "bus", "train", "car wash",
	},
	"Entertainment & Recreation": {
		"movie", "theater", "cinema", "netflix", "spotify", "game", "concert",
		"sports", "gym", "fitness", "recreation", "park", "museum",
	},
	"Healthcare & Medical": {
		"pharmacy", "cvs", "walgreens", "hospital", "doctor", "medical",
		"health", "clinic", "dental", "vision", "insurance", "medication",
	},
	"Utilities & Bills": {
		"electric", "electricity", "water", "internet", "phone", "cable",
		"utility", "bill", "service", "telecom", "energy", "heating",
	},
	"Home & Garden": {
		"home depot", "lowes", "hardware", "garden", "furniture", "decor",
		"improvement", "repair", "maintenance", "cleaning", "household",
	},
	"Education & Learning": {
		"school", "university", "education", "books", "tuition", "course",
		"training", "workshop", "seminar", "learning", "academic",
	},
	"Travel & Vacation": {
		"hotel", "airbnb", "airline", "flight", "airport", "travel", "vacation",
		"rental", "tourism", "booking", "expedia", "trip",
	},
	"Professional Services": {
		"lawyer", "accountant", "consultant", "service", "professional",
		"business", "office", "meeting", "conference", "networking",
	},
	"Subscriptions & Memberships": {
		"subscription", "membership", "monthly", "annual", "premium", "pro",
		"plus", "streaming", "software", "app", "service plan",
	},
}

const categorizationSystemPrompt = `You are a certified financial advisor with expertise in personal ` +
	`finance management and expense categorization. Respond with ONLY a valid JSON object, no other text.`

const categorizationUserPromptTemplate = `Analyze this expense and categorize it accurately:

Merchant: %s
Amount: $%.2f
Items purchased: %s
Recent categories used: %s

Available categories: %s

Consider:
1. The merchant name and business type
2. The items purchased (if available)
3. The amount (some categories have typical ranges)
4. Context from recent transactions

Respond with JSON containing:
{
    "category": "exact_category_name",
    "reasoning": "brief explanation for the choice",
    "confidence": 0.95
}

Choose the most appropriate category from the available list.`

// aiCategorization is what the model is instructed to return
type aiCategorization struct {
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Categorizer assigns one of the fixed categories to an expense. The
// provider may be nil, in which case only the rule pass runs.
type Categorizer struct {
	provider ai.ChatProvider
}

func NewCategorizer(provider ai.ChatProvider) *Categorizer {
	return &Categorizer{provider: provider}
}

// Categorize runs both passes and reconciles them. recentCategories gives
// the model context from prior transactions, newest last.
func (c *Categorizer) Categorize(ctx context.Context, merchant string, amount float64, items []string, recentCategories []string) (CategorizationResult, *common.TokenUsage) {
	ruleCategory := c.ruleBasedCategory(merchant, items)

	var aiResult *aiCategorization
	var usage *common.TokenUsage
	if c.provider != nil {
		aiResult, usage = c.aiCategory(ctx, merchant, amount, items, recentCategories)
	}

	result := c.combine(ruleCategory, aiResult, merchant, items)
	result.Reasoning = c.explain(merchant, result.Category, items)
	return result, usage
}

// ruleBasedCategory scores every category by keyword hits and returns the
// best scorer, or "" when nothing matched
func (c *Categorizer) ruleBasedCategory(merchant string, items []string) string {
	merchantLower := strings.ToLower(merchant)
	itemsText := strings.ToLower(strings.Join(items, " "))

	best := ""
	bestScore := 0
	for _, category := range Categories {
		keywords, ok := categoryKeywords[category]
		if !ok {
			continue
		}
		score := 0
		for _, kw := range keywords {
			if strings.Contains(merchantLower, kw) {
				score += merchantHitScore
			}
			if strings.Contains(itemsText, kw) {
				score += itemHitScore
			}
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}

func (c *Categorizer) aiCategory(ctx context.Context, merchant string, amount float64, items []string, recentCategories []string) (*aiCategorization, *common.TokenUsage) {
	itemsText := "No items listed"
	if len(items) > 0 {
		preview := items
		if len(preview) > 5 {
			preview = preview[:5]
		}
		itemsText = strings.Join(preview, ", ")
	}

	previousContext := "None"
	if len(recentCategories) > 0 {
		recent := recentCategories
		if len(recent) > 10 {
			recent = recent[len(recent)-10:]
		}
		previousContext = strings.Join(dedupe(recent), ", ")
	}

	prompt := fmt.Sprintf(categorizationUserPromptTemplate,
		merchant, amount, itemsText, previousContext, strings.Join(Categories, ", "))
	response, usage, err := c.provider.Complete(ctx, categorizationSystemPrompt, prompt)
	if err != nil {
		common.LogWarning("AI categorization failed, using rules only: %v", err)
		return nil, usage
	}

	jsonStr, err := ai.ExtractJSONObject(response)
	if err != nil {
		common.LogWarning("AI categorization returned no JSON object")
		return nil, usage
	}

	var parsed aiCategorization
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		common.LogWarning("AI categorization returned invalid JSON: %v", err)
		return nil, usage
	}

	if !IsValidCategory(parsed.Category) {
		parsed.Category = "Other"
	}
	if parsed.Confidence <= 0 {
		parsed.Confidence = 0.7
	}
	return &parsed, usage
}

// combine reconciles the two suggestions into a final category and
// confidence. Agreement boosts confidence, disagreement prefers the AI
// pick at reduced confidence.
func (c *Categorizer) combine(ruleCategory string, aiResult *aiCategorization, merchant string, items []string) CategorizationResult {
	switch {
	case ruleCategory != "" && aiResult != nil:
		if ruleCategory == aiResult.Category {
			return CategorizationResult{
				Category:   ruleCategory,
				Confidence: minFloat(0.95, aiResult.Confidence+0.1),
				Source:     SourceCombined,
			}
		}
		return CategorizationResult{
			Category:   aiResult.Category,
			Confidence: maxFloat(0.7, aiResult.Confidence-0.1),
			Source:     SourceCombined,
		}
	case aiResult != nil:
		return CategorizationResult{
			Category:   aiResult.Category,
			Confidence: aiResult.Confidence,
			Source:     SourceAI,
		}
	case ruleCategory != "":
		return CategorizationResult{
			Category:   ruleCategory,
			Confidence: 0.75,
			Source:     SourceRule,
		}
	default:
		return CategorizationResult{
			Category:   lastResortCategory(merchant),
			Confidence: 0.5,
			Source:     SourceFallback,
		}
	}
}

// lastResortCategory guesses from coarse merchant-name patterns when
// neither pass produced anything
func lastResortCategory(merchant string) string {
	merchantLower := strings.ToLower(merchant)
	switch {
	case containsAny(merchantLower, "food", "restaurant", "cafe"):
		return "Food & Dining"
	case containsAny(merchantLower, "store", "shop", "mart"):
		return "Shopping & Retail"
	case containsAny(merchantLower, "gas", "fuel", "oil"):
		return "Transportation & Gas"
	default:
		return "Other"
	}
}

var categoryExplanations = map[string]string{
	"Food & Dining":               "Meal/dining expense at %s",
	"Groceries":                   "Grocery shopping at %s",
	"Shopping & Retail":           "Retail purchase at %s",
	"Transportation & Gas":        "Transportation/fuel expense at %s",
	"Entertainment & Recreation":  "Entertainment expense at %s",
	"Healthcare & Medical":        "Healthcare expense at %s",
	"Utilities & Bills":           "Utility/bill payment to %s",
	"Home & Garden":               "Home improvement expense at %s",
	"Education & Learning":        "Educational expense at %s",
	"Travel & Vacation":           "Travel expense at %s",
	"Professional Services":       "Professional service from %s",
	"Subscriptions & Memberships": "Subscription/membership fee to %s",
	"Other":                       "Miscellaneous expense at %s",
}

func (c *Categorizer) explain(merchant, category string, items []string) string {
	template, ok := categoryExplanations[category]
	if !ok {
		template = "Expense at %s"
	}
	explanation := fmt.Sprintf(template, merchant)
	if len(items) > 0 {
		preview := items
		if len(preview) > 2 {
			preview = preview[:2]
		}
		explanation += fmt.Sprintf(" (items: %s)", strings.Join(preview, ", "))
	}
	return explanation
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
