// Package exam holds the pure exam lifecycle and grading core: status
// resolution, scoring, manual-grading reconciliation, and submission
// statistics. Nothing in this package performs I/O or reads ambient state;
// every function is total over well-typed input.
package exam

import (
	"time"

	"github.com/classhub/backend/internal/model"
)

// Status classifies an exam for one student at one moment in time.
type Status string

const (
	// StatusUpcoming means the availability window has not opened yet.
	StatusUpcoming Status = "upcoming"
	// StatusAvailable means the exam can be taken now.
	StatusAvailable Status = "available"
	// StatusTaken means the student has a submission on record.
	StatusTaken Status = "taken"
	// StatusMissed means the due date passed without a submission.
	StatusMissed Status = "missed"
)

// ResolveStatus classifies an exam into exactly one status. A recorded
// submission always wins, even when now is outside the window (the backend
// may accept grace-period submissions). An exam with no window at all is
// available. Malformed windows (availableFrom >= dueDate) are rejected at
// creation time; the resolver still answers sanely if handed one, because
// the checks run in order and never panic.
func ResolveStatus(e model.Exam, now time.Time, hasSubmission bool) Status {
	if hasSubmission {
		return StatusTaken
	}
	if e.AvailableFrom != nil && now.Before(*e.AvailableFrom) {
		return StatusUpcoming
	}
	if e.DueDate != nil && now.After(*e.DueDate) {
		return StatusMissed
	}
	return StatusAvailable
}
