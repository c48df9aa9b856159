package exam

import (
	"testing"
	"time"

	"github.com/classhub/backend/internal/model"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func TestResolveStatus(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		availableFrom *time.Time
		dueDate       *time.Time
		now           time.Time
		hasSubmission bool
		want          Status
	}{
		{"inside window", &from, &due, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false, StatusAvailable},
		{"before window", &from, &due, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), false, StatusUpcoming},
		{"after window", &from, &due, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), false, StatusMissed},
		{"no window at all", nil, nil, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false, StatusAvailable},
		{"only lower bound, open", &from, nil, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), false, StatusAvailable},
		{"only lower bound, early", &from, nil, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), false, StatusUpcoming},
		{"only due date, late", nil, &due, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), false, StatusMissed},
		{"exactly at available_from", &from, &due, from, false, StatusAvailable},
		{"exactly at due_date", &from, &due, due, false, StatusAvailable},
		{"taken inside window", &from, &due, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true, StatusTaken},
		{"taken after due date wins", &from, &due, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true, StatusTaken},
		{"taken before window wins", &from, &due, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), true, StatusTaken},
		{"inverted window does not panic", &due, &from, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false, StatusMissed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := model.Exam{AvailableFrom: tt.availableFrom, DueDate: tt.dueDate}
			got := ResolveStatus(e, tt.now, tt.hasSubmission)
			if got != tt.want {
				t.Errorf("ResolveStatus() = %q, want %q", got, tt.want)
			}
			// Same inputs must give the same answer on repeated calls.
			if again := ResolveStatus(e, tt.now, tt.hasSubmission); again != got {
				t.Errorf("ResolveStatus() not deterministic: %q then %q", got, again)
			}
		})
	}
}

func TestResolveStatusNoWindowNeverMissed(t *testing.T) {
	e := model.Exam{}
	for _, now := range []string{"1999-01-01T00:00:00Z", "2024-06-15T12:00:00Z", "2100-12-31T23:59:59Z"} {
		if got := ResolveStatus(e, mustTime(t, now), false); got != StatusAvailable {
			t.Errorf("ResolveStatus(no window, %s) = %q, want available", now, got)
		}
	}
}
