package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads an operator-entered amount. Surrounding spaces and comma
// thousands separators are ignored, so "520,000" and "520000.00" are the
// same amount. A comma anywhere but between thousands groups is an error.
func ParseAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	cleaned, ok := stripThousands(trimmed)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func stripThousands(s string) (string, bool) {
	if !strings.Contains(s, ",") {
		return s, true
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if strings.Contains(frac, ",") {
		return "", false
	}
	sign := ""
	if strings.HasPrefix(whole, "-") || strings.HasPrefix(whole, "+") {
		sign, whole = whole[:1], whole[1:]
	}

	groups := strings.Split(whole, ",")
	if len(groups[0]) < 1 || len(groups[0]) > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	out := sign + strings.Join(groups, "")
	if hasFrac {
		out += "." + frac
	}
	return out, true
}

// AmountsMatch compares two entered amounts numerically. Unparsable or
// non-positive amounts never match.
func AmountsMatch(a, b string) bool {
	da, err := ParseAmount(a)
	if err != nil || !da.IsPositive() {
		return false
	}
	db, err := ParseAmount(b)
	if err != nil || !db.IsPositive() {
		return false
	}
	return da.Equal(db)
}

// SourceTotal is nights × price, rounded to cents.
func SourceTotal(nights int, pricePerNight decimal.Decimal) decimal.Decimal {
	if nights < 1 {
		nights = 1
	}
	return pricePerNight.Mul(decimal.NewFromInt(int64(nights))).Round(2)
}

// WireAmount is the raw numeric form used in request bodies.
func WireAmount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// FormatWhole renders an amount as a whole number with comma separators, the
// display format for settlement-currency totals.
func FormatWhole(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
