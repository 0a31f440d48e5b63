package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCount coerces a raw form field to a non-negative integer.
//
// Absent, unparsable or negative input becomes 0 — by contract this never
// returns an error, so the pricing engine can always be fed directly from
// whatever the entry form holds mid-keystroke.
//
// Examples:
//
//	ParseCount("120")  -> 120
//	ParseCount(" 7 ")  -> 7
//	ParseCount("")     -> 0
//	ParseCount("abc")  -> 0
//	ParseCount("-3")   -> 0
func ParseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Format renders the amount with exactly two decimal digits and a dot
// separator, independent of any display locale. This is the export wire
// format; UI currency formatting lives with the UI.
func (m Money) Format() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
