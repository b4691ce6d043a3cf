package models_test

import (
	"testing"

	"bitbucket.org/auricsoft/atelier_backend/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCalculateNetWeight_DerivesMetalOnlyWeight(t *testing.T) {
	cases := []struct {
		name     string
		gross    string
		stoneCts string
		want     string
	}{
		{"typical ring", "10.000", "5", "9.000"},
		{"no stones", "10.000", "0", "10.000"},
		{"stones outweigh gross clamps to zero", "1.000", "10", "0.000"},
		{"zero gross", "0", "3", "0.000"},
		{"rounding to three decimals", "5.5555", "1.11", "5.334"},
		{"exact boundary", "2.000", "10", "0.000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.CalculateNetWeight(d(tc.gross), d(tc.stoneCts))
			if got.StringFixed(3) != tc.want {
				t.Fatalf("net(%s, %scts) = %s, want %s", tc.gross, tc.stoneCts, got, tc.want)
			}
		})
	}
}

func TestCalculateNetWeight_NeverNegative(t *testing.T) {
	got := models.CalculateNetWeight(d("0.100"), d("99"))
	if got.IsNegative() {
		t.Fatalf("net weight must not be negative, got %s", got)
	}
	if !got.IsZero() {
		t.Fatalf("expected clamp to zero, got %s", got)
	}
}

func TestRoundGrams_ThreeDecimals(t *testing.T) {
	if got := models.RoundGrams(d("1.23456")); got.String() != "1.235" {
		t.Fatalf("RoundGrams(1.23456) = %s, want 1.235", got)
	}
}

func TestRoundCarats_TwoDecimals(t *testing.T) {
	if got := models.RoundCarats(d("0.995")); got.String() != "1" {
		t.Fatalf("RoundCarats(0.995) = %s, want 1", got)
	}
	if got := models.RoundCarats(d("2.344")); got.String() != "2.34" {
		t.Fatalf("RoundCarats(2.344) = %s, want 2.34", got)
	}
}
