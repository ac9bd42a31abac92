// structurer.go - AI structuring pass over raw OCR text
//
// Sends the raw receipt text to the configured chat provider with a fixed
// JSON schema and coerces the response into ExtractedFields. Any failure
// (provider error, unparseable response) surfaces as ErrExtractionFailed so
// the caller can fall through to the deterministic extractor.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smartspend/expense-agent/internal/ai"
	"github.com/smartspend/expense-agent/internal/common"
)

const structuringSystemPrompt = `You are a receipt data extraction specialist. ` +
	`Extract structured data from receipt text and respond with ONLY a valid JSON object, no other text.`

const structuringUserPromptTemplate = `Extract the following fields from this receipt text:

%s

Respond with ONLY this JSON structure:
{
  "merchant": "store or vendor name",
  "amount": 0.00,
  "date": "YYYY-MM-DD",
  "items": ["item 1", "item 2"],
  "category": "expense category",
  "description": "one line summary of the purchase"
}

Rules:
- "amount" is the grand total as a number, not a string
- "date" must be ISO-8601 (YYYY-MM-DD); use "" if no date is visible
- "items" lists individual purchased items, at most 10
- "category" is one of: %s
- If a field cannot be determined use "" for strings, 0.00 for amount, [] for items`

// structuredReceipt mirrors the JSON schema the model is instructed to emit.
// Amount and Items are json.RawMessage because models occasionally quote
// numbers or flatten the item list into one string; a malformed field must
// not discard the rest of the extraction.
type structuredReceipt struct {
	Merchant    string          `json:"merchant"`
	Amount      json.RawMessage `json:"amount"`
	Date        string          `json:"date"`
	Items       json.RawMessage `json:"items"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// Structurer converts raw OCR text into ExtractedFields via a chat provider
type Structurer struct {
	provider ai.ChatProvider
}

func NewStructurer(provider ai.ChatProvider) *Structurer {
	return &Structurer{provider: provider}
}

// Structure runs the AI extraction pass. The returned token usage is valid
// even when the call succeeds but parsing fails.
func (s *Structurer) Structure(ctx context.Context, rawText string) (ExtractedFields, *common.TokenUsage, error) {
	if strings.TrimSpace(rawText) == "" {
		return ExtractedFields{}, nil, fmt.Errorf("%w: empty OCR text", ErrExtractionFailed)
	}

	prompt := fmt.Sprintf(structuringUserPromptTemplate, rawText, strings.Join(Categories, ", "))
	response, usage, err := s.provider.Complete(ctx, structuringSystemPrompt, prompt)
	if err != nil {
		return ExtractedFields{}, usage, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	jsonStr, err := ai.ExtractJSONObject(response)
	if err != nil {
		return ExtractedFields{}, usage, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var parsed structuredReceipt
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return ExtractedFields{}, usage, fmt.Errorf("%w: invalid JSON from model: %v", ErrExtractionFailed, err)
	}

	fields := ExtractedFields{
		Merchant:    coerceMerchant(parsed.Merchant),
		Amount:      coerceAmount(parsed.Amount),
		Date:        coerceDate(parsed.Date),
		Items:       coerceItems(parsed.Items),
		Category:    coerceCategory(parsed.Category),
		Description: strings.TrimSpace(parsed.Description),
		RawText:     rawText,
	}
	return fields, usage, nil
}

func coerceMerchant(m string) string {
	m = strings.TrimSpace(m)
	if m == "" {
		return UnknownMerchant
	}
	return m
}

// coerceAmount accepts both bare numbers and quoted strings, optionally
// with a leading dollar sign. Negative or unparseable values become 0.0.
func coerceAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0.0
	}
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0.0
	}
	return v
}

// coerceDate validates ISO-8601 and defaults to today otherwise
func coerceDate(d string) string {
	d = strings.TrimSpace(d)
	if t, err := time.Parse("2006-01-02", d); err == nil {
		return t.Format("2006-01-02")
	}
	return time.Now().Format("2006-01-02")
}

// coerceItems accepts only a JSON string list. Anything else (a flattened
// string, a number, null) becomes an empty list rather than failing the
// whole extraction.
func coerceItems(raw json.RawMessage) []string {
	var items []string
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return []string{}
	}
	out := []string{}
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		out = append(out, it)
		if len(out) == 10 {
			break
		}
	}
	return out
}

// coerceCategory keeps only categories from the fixed set; anything else is
// left blank for the categorizer to decide
func coerceCategory(c string) string {
	c = strings.TrimSpace(c)
	if IsValidCategory(c) {
		return c
	}
	return ""
}
