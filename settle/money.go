package settle

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// All amounts are integer cents. Floating point only appears transiently in
// ParseToCents, immediately rounded away; everything downstream is exact.

var printer = message.NewPrinter(language.SimplifiedChinese)

// ParseToCents converts user-entered text to cents. Every character that is
// not a digit or a dot is stripped first, so "$12.50", "12,50" and " 12.50 "
// all parse; so does "-5", which becomes 5 (the sign is stripped like any
// other non-digit). Zero, negative and unparseable input return ok=false.
// Rounding is half away from zero, so "10.005" becomes 1001.
func ParseToCents(input string) (int64, bool) {
	var cleaned strings.Builder
	for _, r := range input {
		if (r >= '0' && r <= '9') || r == '.' {
			cleaned.WriteRune(r)
		}
	}

	value, err := strconv.ParseFloat(cleaned.String(), 64)
	if err != nil || math.IsInf(value, 0) || value <= 0 {
		return 0, false
	}
	if value > float64(math.MaxInt64)/100 {
		return 0, false
	}

	return int64(math.Round(value * 100)), true
}

// FormatAmount renders cents as a human-readable amount with locale digit
// grouping: whole values without decimals, anything else with exactly two.
func FormatAmount(cents int64) string {
	if cents < 0 {
		return "-" + FormatAmount(-cents)
	}

	whole := cents / 100
	frac := cents % 100
	grouped := printer.Sprintf("%d", whole)
	if frac == 0 {
		return grouped
	}
	return fmt.Sprintf("%s.%02d", grouped, frac)
}

// FormatBalance is FormatAmount with an explicit sign for non-zero values
func FormatBalance(cents int64) string {
	formatted := FormatAmount(abs(cents))
	switch {
	case cents > 0:
		return "+" + formatted
	case cents < 0:
		return "-" + formatted
	default:
		return formatted
	}
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
