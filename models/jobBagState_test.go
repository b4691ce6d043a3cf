package models_test

import (
	"testing"

	"bitbucket.org/auricsoft/atelier_backend/models"
)

func TestJobBagStatus_TransitionGates(t *testing.T) {
	cases := []struct {
		status      models.JobBagStatus
		issue       bool
		consumption bool
		receipt     bool
		close       bool
	}{
		{models.JobBagStatusOpen, true, false, false, false},
		{models.JobBagStatusIssued, true, true, false, false},
		{models.JobBagStatusInProgress, true, true, true, false},
		{models.JobBagStatusCompleted, false, false, false, true},
		{models.JobBagStatusClosed, false, false, false, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := tc.status.CanAcceptIssue(); got != tc.issue {
				t.Fatalf("CanAcceptIssue() = %v, want %v", got, tc.issue)
			}
			if got := tc.status.CanAcceptConsumption(); got != tc.consumption {
				t.Fatalf("CanAcceptConsumption() = %v, want %v", got, tc.consumption)
			}
			if got := tc.status.CanAcceptReceipt(); got != tc.receipt {
				t.Fatalf("CanAcceptReceipt() = %v, want %v", got, tc.receipt)
			}
			if got := tc.status.CanClose(); got != tc.close {
				t.Fatalf("CanClose() = %v, want %v", got, tc.close)
			}
		})
	}
}

func TestJobBagStatus_RankIsStrictlyMonotonic(t *testing.T) {
	order := []models.JobBagStatus{
		models.JobBagStatusOpen,
		models.JobBagStatusIssued,
		models.JobBagStatusInProgress,
		models.JobBagStatusCompleted,
		models.JobBagStatusClosed,
	}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Fatalf("%s (rank %d) must rank below %s (rank %d)",
				order[i-1], order[i-1].Rank(), order[i], order[i].Rank())
		}
	}
}

func TestJobBagStatus_UnknownRanksPastClosed(t *testing.T) {
	unknown := models.JobBagStatus("cancelled")
	if unknown.Rank() <= models.JobBagStatusClosed.Rank() {
		t.Fatalf("unknown status must rank past closed, got %d", unknown.Rank())
	}
}
