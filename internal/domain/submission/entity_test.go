package submission

import "testing"

func TestCanTransitionTo(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusValidated},
		{StatusPending, StatusFailed},
		{StatusValidated, StatusStored},
		{StatusValidated, StatusFailed},
		{StatusStored, StatusProcessing},
		{StatusStored, StatusFailed},
		{StatusProcessing, StatusCompleted},
		{StatusProcessing, StatusFailed},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusStored},
		{StatusPending, StatusCompleted},
		{StatusValidated, StatusCompleted},
		{StatusStored, StatusCompleted},
		{StatusCompleted, StatusPending},
		{StatusFailed, StatusPending},
		{StatusCompleted, StatusFailed},
		// The pipeline never enters REJECTED.
		{StatusPending, StatusRejected},
		{StatusProcessing, StatusRejected},
	}
	for _, tc := range denied {
		if tc.from.CanTransitionTo(tc.to) {
			t.Errorf("%s -> %s should be denied", tc.from, tc.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusValidated, StatusStored, StatusProcessing, StatusRejected} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("COMPLETED")
	if err != nil || s != StatusCompleted {
		t.Fatalf("parse COMPLETED: %v %v", s, err)
	}
	if _, err := ParseStatus("completed"); err == nil {
		t.Fatal("lowercase must not parse")
	}
	if _, err := ParseStatus("BOGUS"); err == nil {
		t.Fatal("unknown status must not parse")
	}
}
