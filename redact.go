package main

import (
	"regexp"
	"sort"
	"strings"
)

const (
	cardSentinel    = "****CARD_NUMBER****"
	accountSentinel = "****ACCOUNT_NUMBER****"
	ibanSentinel    = "****IBAN****"
	cvvSentinel     = "****CVV****"
)

// Patterns are matched against the original text in priority order; the
// most specific identifier wins when matches overlap (a card number must
// not be half-eaten by the generic account pattern).
var (
	// 16 digits grouped in 4s, separators optional: "1234 5678 9012 3456",
	// "1234-5678-9012-3456", "1234567890123456".
	cardPattern = regexp.MustCompile(`\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{4}`)

	// IBAN shape: two letters, two check digits, 11-30 alphanumerics.
	ibanPattern = regexp.MustCompile(`[A-Z]{2}\d{2}[A-Z0-9]{11,30}`)

	// 3-4 digits in CVV context ("cvv 123", "CVC: 9876", "pin is 1234").
	cvvPattern = regexp.MustCompile(`(?i)\b(?:cvv|cvc|pin|security code)\b\D{0,5}?(\d{3,4})`)

	// 10-12 digits, separators optional: "1234567890", "12345-67890",
	// "1234 5678 9012".
	accountPattern = regexp.MustCompile(`\d(?:[ -]?\d){9,11}`)
)

// Redact masks financial identifiers in text. It is a pure function of its
// input: same text in, same result out, and redacting already-redacted text
// is a no-op since no sentinel contains a digit.
func Redact(text string) RedactionResult {
	if text == "" {
		return RedactionResult{}
	}

	var spans []RedactionSpan
	claimed := func(start, end int) bool {
		for _, s := range spans {
			if start < s.End && end > s.Start {
				return true
			}
		}
		return false
	}

	// IBAN first: its digit tail would otherwise be claimed by the card
	// pattern. Then card before the generic account pattern.
	for _, m := range ibanPattern.FindAllStringIndex(text, -1) {
		if claimed(m[0], m[1]) {
			continue
		}
		spans = append(spans, RedactionSpan{Start: m[0], End: m[1], Pattern: "iban"})
	}

	for _, m := range cardPattern.FindAllStringIndex(text, -1) {
		if digitCount(text[m[0]:m[1]]) != 16 || claimed(m[0], m[1]) {
			continue
		}
		spans = append(spans, RedactionSpan{Start: m[0], End: m[1], Pattern: "card_number"})
	}

	for _, m := range cvvPattern.FindAllStringSubmatchIndex(text, -1) {
		// Mask only the digit group, not the context word.
		start, end := m[2], m[3]
		if claimed(start, end) {
			continue
		}
		spans = append(spans, RedactionSpan{Start: start, End: end, Pattern: "cvv"})
	}

	for _, m := range accountPattern.FindAllStringIndex(text, -1) {
		if claimed(m[0], m[1]) {
			continue
		}
		// Standalone runs only: a 10-12 digit window inside a longer run
		// already failed the card pattern and is not an account number.
		if m[0] > 0 && isDigit(text[m[0]-1]) {
			continue
		}
		if m[1] < len(text) && isDigit(text[m[1]]) {
			continue
		}
		spans = append(spans, RedactionSpan{Start: m[0], End: m[1], Pattern: "account_number"})
	}

	if len(spans) == 0 {
		return RedactionResult{Text: text}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	var out strings.Builder
	prev := 0
	for _, s := range spans {
		out.WriteString(text[prev:s.Start])
		out.WriteString(sentinelFor(s.Pattern))
		prev = s.End
	}
	out.WriteString(text[prev:])

	return RedactionResult{Text: out.String(), Spans: spans}
}

func sentinelFor(pattern string) string {
	switch pattern {
	case "card_number":
		return cardSentinel
	case "iban":
		return ibanSentinel
	case "cvv":
		return cvvSentinel
	default:
		return accountSentinel
	}
}

func digitCount(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			n++
		}
	}
	return n
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
