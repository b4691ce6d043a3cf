package models

import "github.com/shopspring/decimal"

// All gold weights are grams at 3 decimal places; all diamond weights are
// carats at 2 decimal places. Inputs are rounded before any comparison or
// persistence so that sufficiency checks never depend on float drift.

const (
	GramPrecision  = 3
	CaratPrecision = 2
)

// caratToGram: 1 carat = 0.2 grams.
var caratToGram = decimal.NewFromFloat(0.2)

func RoundGrams(d decimal.Decimal) decimal.Decimal {
	return d.Round(GramPrecision)
}

func RoundCarats(d decimal.Decimal) decimal.Decimal {
	return d.Round(CaratPrecision)
}

// CalculateNetWeight derives the metal-only weight of a finished piece:
// net = max(0, gross - stoneCts*0.2), rounded to 3 decimals. Net weight is
// always derived, never operator-supplied.
func CalculateNetWeight(grossWeightG decimal.Decimal, stoneWeightCts decimal.Decimal) decimal.Decimal {
	if grossWeightG.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero.Round(GramPrecision)
	}
	net := grossWeightG.Sub(stoneWeightCts.Mul(caratToGram))
	if net.IsNegative() {
		return decimal.Zero.Round(GramPrecision)
	}
	return RoundGrams(net)
}
