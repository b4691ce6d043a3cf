package config

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// BlockOverConsumption decides whether recording a consumption that pushes
// cumulative consumed+loss past cumulative issued is rejected or merely flagged.
// The legacy UI allowed it, so the default is to flag only.
//
// Set via env:
// - BLOCK_OVER_CONSUMPTION=true
func BlockOverConsumption() bool {
	return boolFromEnv("BLOCK_OVER_CONSUMPTION")
}

// StrictReconciledClose decides whether closing a job bag with a material
// balance beyond the breakage threshold is rejected.
//
// Set via env:
// - STRICT_RECONCILED_CLOSE=true
func StrictReconciledClose() bool {
	return boolFromEnv("STRICT_RECONCILED_CLOSE")
}

// BreakageThresholdGrams is the tolerated absolute gold remainder at close time
// when StrictReconciledClose is on. Defaults to 0.5g.
//
// Set via env:
// - BREAKAGE_THRESHOLD_G=0.25
func BreakageThresholdGrams() decimal.Decimal {
	v := strings.TrimSpace(os.Getenv("BREAKAGE_THRESHOLD_G"))
	if v == "" {
		return decimal.NewFromFloat(0.5)
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.NewFromFloat(0.5)
	}
	return d
}

// BreakageThresholdCarats is the diamond counterpart. Defaults to 0.1ct.
//
// Set via env:
// - BREAKAGE_THRESHOLD_CTS=0.05
func BreakageThresholdCarats() decimal.Decimal {
	v := strings.TrimSpace(os.Getenv("BREAKAGE_THRESHOLD_CTS"))
	if v == "" {
		return decimal.NewFromFloat(0.1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.NewFromFloat(0.1)
	}
	return d
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
