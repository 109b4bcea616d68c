package sheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount parses a sheet amount into a decimal, accepting both European
// ("1.234,56") and US ("1,234.56") separator conventions plus bare values
// ("1234.56", "45"). Currency symbols and spaces are stripped first.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)

	lastDot := strings.LastIndexByte(clean, '.')
	lastComma := strings.LastIndexByte(clean, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Both present: whichever appears last is the decimal separator.
		if lastComma > lastDot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.ReplaceAll(clean, ",", ".")
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastComma >= 0:
		// A single comma followed by exactly three digits is a thousands
		// separator ("1,234"), anything else is a decimal one ("45,50").
		if strings.Count(clean, ",") == 1 && len(clean)-lastComma-1 != 3 {
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	}

	return decimal.NewFromString(clean)
}
