package core

import "testing"

func TestParseCount(t *testing.T) {
	cases := []struct {
		in  string
		out int
	}{
		{"120", 120},
		{" 7 ", 7},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"-3", 0},
		{"1.5", 0},
	}
	for _, tc := range cases {
		if got := ParseCount(tc.in); got != tc.out {
			t.Fatalf("ParseCount(%q) = %d, want %d", tc.in, got, tc.out)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		cents int64
		out   string
	}{
		{0, "0.00"},
		{80, "0.80"},
		{11600, "116.00"},
		{18000, "180.00"},
		{30050, "300.50"},
		{-150, "-1.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Format(); got != tc.out {
			t.Fatalf("Money{%d}.Format() = %q, want %q", tc.cents, got, tc.out)
		}
	}
}
