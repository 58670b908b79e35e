package visit

import (
	"regexp"
	"testing"
)

func TestNewTicketCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^VISIT-\d{13,}-\d{1,3}$`)
	for i := 0; i < 100; i++ {
		code := NewTicketCode()
		if !pattern.MatchString(code) {
			t.Fatalf("unexpected ticket code %q", code)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", StatusPending},
		{"  ", StatusPending},
		{"APPROVED", StatusApproved},
		{" Cancelled ", StatusCancelled},
		{"pending", StatusPending},
	}

	for _, tc := range tests {
		if got := NormalizeStatus(tc.in); got != tc.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range []string{StatusPending, StatusApproved, StatusCompleted, StatusRejected, StatusCancelled} {
		if !IsValidStatus(status) {
			t.Fatalf("%q should be valid", status)
		}
	}

	for _, status := range []string{"confirmed", "done", "xyz"} {
		if IsValidStatus(status) {
			t.Fatalf("%q should be invalid", status)
		}
	}
}
