package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseMoneyCents parses a decimal currency string into int64 cents without
// going through binary floating point. Accepts either "," or "." as the
// decimal separator ("1234,56" and "1234.56" both yield 123456). Fractions
// beyond two digits are rounded half-up. Empty or unparseable input yields 0,
// per the coercion policy for malformed numeric fields.
func ParseMoneyCents(s string) int64 {
	c, _ := MoneyCents(s)
	return c
}

// MoneyCents is ParseMoneyCents with an ok report, for callers that must
// distinguish a missing/unparseable amount from a genuine zero (a payment
// statement cell left blank means "no value", not "paid nothing").
func MoneyCents(s string) (int64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if !allDigits(intPart) || !allDigits(fracPart) || (intPart == "" && fracPart == "") {
		return 0, false
	}

	var cents int64
	for _, r := range intPart {
		cents = cents*10 + int64(r-'0')
	}
	cents *= 100

	switch {
	case len(fracPart) == 1:
		cents += int64(fracPart[0]-'0') * 10
	case len(fracPart) >= 2:
		cents += int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			cents++
		}
	}

	if neg {
		cents = -cents
	}
	return cents, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseQuantity parses an executed-quantity string, accepting "," or "." as
// the decimal separator. Unparseable input yields 0.
func ParseQuantity(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// CentsToValue converts int64 cents to a float64 currency value. This is the
// single decimal-to-float boundary: everything upstream of the billed-item
// table works in cents, everything downstream aggregates floats.
func CentsToValue(c int64) float64 {
	return float64(c) / 100
}

// ValueToCents converts a float64 currency value to cents, rounding to avoid
// truncation bias.
func ValueToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// FormatBRL renders a currency value as "R$ 1.234,56" for CLI summaries.
func FormatBRL(v float64) string {
	neg := v < 0
	cents := ValueToCents(math.Abs(v))
	whole := cents / 100

	digits := fmt.Sprintf("%d", whole)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	out := fmt.Sprintf("R$ %s,%02d", strings.Join(groups, "."), cents%100)
	if neg {
		return "-" + out
	}
	return out
}
