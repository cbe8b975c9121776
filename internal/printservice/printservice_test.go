package printservice

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusInReview},
		{StatusInReview, StatusApproved},
		{StatusApproved, StatusInProduction},
		{StatusInProduction, StatusReady},
		{StatusReady, StatusDelivered},
		{StatusPending, StatusCancelled},
		{StatusInReview, StatusCancelled},
		{StatusApproved, StatusCancelled},
		{StatusInProduction, StatusCancelled},
		{StatusReady, StatusCancelled},
	}
	for _, tt := range allowed {
		if !CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusApproved},
		{StatusPending, StatusDelivered},
		{StatusInReview, StatusPending},
		{StatusApproved, StatusReady},
		{StatusDelivered, StatusCancelled},
		{StatusDelivered, StatusPending},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusInReview},
		{StatusReady, StatusInProduction},
	}
	for _, tt := range denied {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be rejected", tt.from, tt.to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		for _, to := range []Status{StatusPending, StatusInReview, StatusApproved, StatusInProduction, StatusReady, StatusDelivered, StatusCancelled} {
			if CanTransition(terminal, to) {
				t.Errorf("terminal state %s must not transition to %s", terminal, to)
			}
		}
	}
}
