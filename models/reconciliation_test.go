package models_test

import (
	"testing"

	"bitbucket.org/auricsoft/atelier_backend/models"
)

func TestSummarizeGold_BalanceIdentityHolds(t *testing.T) {
	issues := []models.GoldIssue{
		{IssuedWeightG: d("10.000")},
		{IssuedWeightG: d("2.500")},
	}
	consumptions := []models.GoldConsumption{
		{ConsumedWeightG: d("9.000"), LossWeightG: d("0.500")},
		{ConsumedWeightG: d("1.200"), LossWeightG: d("0.050")},
	}

	s := models.SummarizeGold(issues, consumptions)

	if s.Issued.StringFixed(3) != "12.500" {
		t.Fatalf("issued = %s, want 12.500", s.Issued)
	}
	if s.Consumed.StringFixed(3) != "10.200" {
		t.Fatalf("consumed = %s, want 10.200", s.Consumed)
	}
	if s.Loss.StringFixed(3) != "0.550" {
		t.Fatalf("loss = %s, want 0.550", s.Loss)
	}
	if s.Remaining.StringFixed(3) != "1.750" {
		t.Fatalf("remaining = %s, want 1.750", s.Remaining)
	}
	// issued = consumed + loss + remaining
	if !s.Issued.Equal(s.Consumed.Add(s.Loss).Add(s.Remaining)) {
		t.Fatalf("balance identity violated: %s != %s + %s + %s",
			s.Issued, s.Consumed, s.Loss, s.Remaining)
	}
}

func TestSummarizeGold_NoActivity(t *testing.T) {
	s := models.SummarizeGold(nil, nil)
	if !s.Issued.IsZero() || !s.Consumed.IsZero() || !s.Loss.IsZero() || !s.Remaining.IsZero() {
		t.Fatalf("empty ledger must fold to zeros, got %+v", s)
	}
}

func TestSummarizeGold_OverConsumptionGoesNegative(t *testing.T) {
	issues := []models.GoldIssue{{IssuedWeightG: d("5.000")}}
	consumptions := []models.GoldConsumption{{ConsumedWeightG: d("5.500"), LossWeightG: d("0.100")}}

	s := models.SummarizeGold(issues, consumptions)
	if s.Remaining.StringFixed(3) != "-0.600" {
		t.Fatalf("remaining = %s, want -0.600", s.Remaining)
	}
}

func TestSummarizeDiamond_BreakageCountsAsLoss(t *testing.T) {
	issues := []models.DiamondIssue{
		{IssuedWeightCts: d("3.00"), IssuedPieces: 12},
	}
	consumptions := []models.DiamondConsumption{
		{ConsumedWeightCts: d("2.50"), BreakageWeightCts: d("0.10"), ConsumedPieces: 10},
	}

	s := models.SummarizeDiamond(issues, consumptions)
	if s.Issued.StringFixed(2) != "3.00" {
		t.Fatalf("issued = %s, want 3.00", s.Issued)
	}
	if s.Loss.StringFixed(2) != "0.10" {
		t.Fatalf("breakage = %s, want 0.10", s.Loss)
	}
	if s.Remaining.StringFixed(2) != "0.40" {
		t.Fatalf("remaining = %s, want 0.40", s.Remaining)
	}
	if !s.Issued.Equal(s.Consumed.Add(s.Loss).Add(s.Remaining)) {
		t.Fatalf("balance identity violated")
	}
}

func TestSummarizeDiamond_ConsumptionWithoutIssue(t *testing.T) {
	consumptions := []models.DiamondConsumption{
		{ConsumedWeightCts: d("1.00")},
	}
	s := models.SummarizeDiamond(nil, consumptions)
	if s.Remaining.StringFixed(2) != "-1.00" {
		t.Fatalf("remaining = %s, want -1.00", s.Remaining)
	}
}
