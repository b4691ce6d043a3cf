package models

import "testing"

func TestTransitionJobBag_BackwardTargetIsNoOp(t *testing.T) {
	bag := JobBag{Status: JobBagStatusInProgress}

	if !bag.Status.CanAcceptIssue() {
		t.Fatalf("in_progress must accept issues")
	}

	// Issuing to an in_progress bag targets issued, which ranks below the
	// current state. The bag must stay where it is and the call must succeed
	// without touching the database.
	if err := transitionJobBag(nil, &bag, JobBagStatusIssued); err != nil {
		t.Fatalf("transition to lower-ranked status: %v", err)
	}
	if bag.Status != JobBagStatusInProgress {
		t.Fatalf("status = %s, want in_progress", bag.Status)
	}
}

func TestTransitionJobBag_SameStatusIsNoOp(t *testing.T) {
	bag := JobBag{Status: JobBagStatusIssued}
	if err := transitionJobBag(nil, &bag, JobBagStatusIssued); err != nil {
		t.Fatalf("transition to same status: %v", err)
	}
	if bag.Status != JobBagStatusIssued {
		t.Fatalf("status = %s, want issued", bag.Status)
	}
}
