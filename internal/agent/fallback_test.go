package agent

import (
	"strings"
	"testing"
	"time"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"picks the maximum", "$12.50\n$45.00\n$3.20", 45.00},
		{"labeled total", "SUBTOTAL 40.00\nTOTAL: 45.67", 45.67},
		{"dollar with spaces", "Amount due: $ 19.99", 19.99},
		{"no amounts", "just some text", 0.0},
		{"integer amount", "TOTAL $45", 45.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractAmount(tt.text)
			if got != tt.want {
				t.Errorf("extractAmount(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"us slash format", "Receipt 01/15/2024 store", "2024-01-15"},
		{"single digit slash", "1/5/2024", "2024-01-05"},
		{"iso format", "Date: 2024-03-09", "2024-03-09"},
		{"month name", "March 9, 2024", "2024-03-09"},
		{"abbreviated month", "Jan 15 2024", "2024-01-15"},
		{"dash format", "01-15-2024", "2024-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractDate(tt.text)
			if got != tt.want {
				t.Errorf("extractDate(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDateDefaultsToToday(t *testing.T) {
	got := extractDate("no date anywhere")
	want := time.Now().Format("2006-01-02")
	if got != want {
		t.Errorf("extractDate with no match = %q, want today %q", got, want)
	}
}

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"known brand uppercase", "WALMART\n01/15/2024\nTOTAL $45.67", "Walmart"},
		{"known brand in prose", "Thanks for shopping at costco wholesale", "Costco"},
		{"brand beats heading", "Receipt\nstarbucks coffee #1234", "Starbucks"},
		{"first line heuristic", "JOES DINER\n123 Main St\n01/15/2024", "Joes Diner"},
		{"skips numeric lines", "12345\n$99.99\nCORNER BAKERY\nthanks", "Corner Bakery"},
		{"no candidate", "12345\n$9.99\n---", UnknownMerchant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractMerchant(tt.text)
			if got != tt.want {
				t.Errorf("extractMerchant(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractMerchantOnlyScansFirstFiveLines(t *testing.T) {
	text := "111\n222\n333\n444\n555\nREAL STORE NAME"
	if got := extractMerchant(text); got != UnknownMerchant {
		t.Errorf("extractMerchant = %q, want %q (line 6 must not be scanned)", got, UnknownMerchant)
	}
}

func TestExtractItems(t *testing.T) {
	text := "MILK 2% 3.99\n$4.50\nBREAD 2.49\n12345\n   \nEGGS LARGE 5.99"
	items := extractItems(text)

	want := []string{"MILK 2% 3.99", "BREAD 2.49", "EGGS LARGE 5.99"}
	if len(items) != len(want) {
		t.Fatalf("extractItems returned %d items %v, want %d", len(items), items, len(want))
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, items[i], want[i])
		}
	}
}

func TestExtractItemsCapsAtTen(t *testing.T) {
	var lines []string
	for i := 0; i < 25; i++ {
		lines = append(lines, "ITEM NUMBER X")
	}
	items := extractItems(strings.Join(lines, "\n"))
	if len(items) != 10 {
		t.Errorf("extractItems returned %d items, want cap of 10", len(items))
	}
}

func TestExtractFields(t *testing.T) {
	text := "WALMART\n01/15/2024\nMILK 3.99\nTOTAL $45.67"
	fields := ExtractFields(text)

	if fields.Merchant != "Walmart" {
		t.Errorf("Merchant = %q, want Walmart", fields.Merchant)
	}
	if fields.Amount != 45.67 {
		t.Errorf("Amount = %v, want 45.67", fields.Amount)
	}
	if fields.Date != "2024-01-15" {
		t.Errorf("Date = %q, want 2024-01-15", fields.Date)
	}
	if fields.RawText != text {
		t.Errorf("RawText not preserved")
	}
}
