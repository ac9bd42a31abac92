// fallback.go - Deterministic pattern-based field extraction
//
// This is the disaster-recovery path: it runs with zero network dependency
// and is invoked whenever the AI structuring agent is unavailable, throws,
// or returns unparseable output.

package agent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	dollarAmountRe  = regexp.MustCompile(`\$\s*(\d+(?:\.\d{1,2})?)`)
	labeledAmountRe = regexp.MustCompile(`(?i)(?:total|amount)[^\d$]{0,10}\$?\s*(\d+(?:\.\d{1,2})?)`)

	nonAlnumRe  = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	pureNumRe   = regexp.MustCompile(`^[\d\s.,$%-]+$`)
	hasLetterRe = regexp.MustCompile(`[a-zA-Z]`)
)

// datePattern pairs a locating regex with the layouts its matches may use
type datePattern struct {
	re      *regexp.Regexp
	layouts []string
}

// Tried in order; the first match that parses wins.
var datePatterns = []datePattern{
	{regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`), []string{"01/02/2006", "1/2/2006"}},
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), []string{"2006-01-02"}},
	{regexp.MustCompile(`(?i)[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4}`), []string{
		"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006",
	}},
	{regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{4}`), []string{"01-02-2006", "1-2-2006"}},
}

// knownMerchant maps a lowercase substring to the canonical brand name
type knownMerchant struct {
	pattern   string
	canonical string
}

var knownMerchants = []knownMerchant{
	{"walmart", "Walmart"},
	{"target", "Target"},
	{"costco", "Costco"},
	{"kroger", "Kroger"},
	{"safeway", "Safeway"},
	{"whole foods", "Whole Foods"},
	{"trader joe", "Trader Joe's"},
	{"starbucks", "Starbucks"},
	{"mcdonald", "McDonald's"},
	{"subway", "Subway"},
	{"chipotle", "Chipotle"},
	{"cvs", "CVS"},
	{"walgreens", "Walgreens"},
	{"home depot", "Home Depot"},
	{"lowes", "Lowe's"},
	{"best buy", "Best Buy"},
	{"amazon", "Amazon"},
	{"shell", "Shell"},
	{"exxon", "Exxon"},
	{"chevron", "Chevron"},
}

// ExtractFields extracts merchant, amount, date and items from raw OCR text
// using deterministic heuristics only
func ExtractFields(rawText string) ExtractedFields {
	return ExtractedFields{
		Merchant: extractMerchant(rawText),
		Amount:   extractAmount(rawText),
		Date:     extractDate(rawText),
		Items:    extractItems(rawText),
		RawText:  rawText,
	}
}

// extractAmount returns the maximum dollar amount found in the text. The
// grand total is typically the largest number on a receipt, so max beats
// first-match. Returns 0.0 when nothing matches.
func extractAmount(text string) float64 {
	var values []float64
	for _, m := range dollarAmountRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			values = append(values, v)
		}
	}
	for _, m := range labeledAmountRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			values = append(values, v)
		}
	}

	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

// extractDate tries the regional date patterns in order and returns the
// first successfully parsed date normalized to ISO-8601. Defaults to today.
func extractDate(text string) string {
	for _, p := range datePatterns {
		for _, match := range p.re.FindAllString(text, -1) {
			for _, layout := range p.layouts {
				if t, err := time.Parse(layout, normalizeDateMatch(match)); err == nil {
					return t.Format("2006-01-02")
				}
			}
		}
	}
	return time.Now().Format("2006-01-02")
}

// normalizeDateMatch collapses whitespace so month-name matches line up with
// the parse layouts
func normalizeDateMatch(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, ".", "")), " ")
}

// extractMerchant first checks the curated brand list anywhere in the text,
// then falls back to scanning the first 5 lines for a short alphabetic-heavy
// line. Defaults to the UnknownMerchant sentinel.
func extractMerchant(text string) string {
	lower := strings.ToLower(text)
	for _, km := range knownMerchants {
		if strings.Contains(lower, km.pattern) {
			return km.canonical
		}
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		cleaned := strings.TrimSpace(nonAlnumRe.ReplaceAllString(line, " "))
		if cleaned == "" || pureNumRe.MatchString(cleaned) {
			continue
		}
		words := strings.Fields(cleaned)
		if len(words) == 0 || len(words) > 4 {
			continue
		}
		if !alphabeticHeavy(cleaned) {
			continue
		}
		return titleCase(strings.Join(words, " "))
	}

	return UnknownMerchant
}

// alphabeticHeavy reports whether letters outnumber digits in s
func alphabeticHeavy(s string) bool {
	letters, digits := 0, 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return letters > 0 && letters > digits
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// extractItems returns up to the first 10 lines that carry at least one
// letter and are not purely numeric/currency/punctuation
func extractItems(text string) []string {
	items := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !hasLetterRe.MatchString(line) || pureNumRe.MatchString(line) {
			continue
		}
		items = append(items, line)
		if len(items) == 10 {
			break
		}
	}
	return items
}
