package exam

import "github.com/classhub/backend/internal/model"

// GradingState describes where a submission sits in the manual-grading
// lifecycle.
type GradingState string

const (
	// GradingAuto means no answer required human judgment.
	GradingAuto GradingState = "auto-graded"
	// GradingNeeded means at least one free-text answer is ungraded.
	GradingNeeded GradingState = "needs-grading"
	// GradingManual is terminal: a teacher has reconciled every free-text answer.
	GradingManual GradingState = "manually-graded"
)

// StateOf reports the grading state of a submission.
func StateOf(sub model.Submission) GradingState {
	switch {
	case sub.IsManuallyGraded:
		return GradingManual
	case sub.NeedsManualGrading:
		return GradingNeeded
	default:
		return GradingAuto
	}
}

// Reconcile merges teacher point overrides into an auto-scored submission and
// returns the updated copy. Each override is clamped into [0, points] using
// the current question points, which may have been edited since the
// submission froze its TotalPoints. Answers not present in overrides keep
// their existing points, so reconciling twice with the same overrides is a
// no-op, and overriding auto-graded answers with their already-awarded points
// leaves the total unchanged.
//
// IsManuallyGraded flips to true once every free-text answer has been
// explicitly graded, either now or in an earlier reconciliation. The caller
// is responsible for having visited every question that needs grading;
// beyond the graded-flag check, incompleteness is not detected here.
func Reconcile(sub model.Submission, overrides map[int64]int, questions []model.Question) model.Submission {
	byID := make(map[int64]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	out := sub
	out.Answers = make([]model.Answer, len(sub.Answers))
	copy(out.Answers, sub.Answers)

	total := 0
	allGraded := true
	for i, a := range out.Answers {
		if pts, ok := overrides[a.QuestionID]; ok {
			if q, known := byID[a.QuestionID]; known {
				pts = clamp(pts, 0, q.Points)
			} else if pts < 0 {
				pts = 0
			}
			a.Points = pts
			a.IsCorrect = pts > 0
			a.Graded = true
			out.Answers[i] = a
		}
		if !a.Graded {
			allGraded = false
		}
		total += a.Points
	}

	out.Score = total
	if sub.NeedsManualGrading && allGraded {
		out.IsManuallyGraded = true
	}
	return out
}

// ClearOverride marks one answer as ungraded again, re-entering the
// needs-grading state. It is the explicit re-grade action; nothing else
// leaves the manually-graded state.
func ClearOverride(sub model.Submission, questionID int64) model.Submission {
	out := sub
	out.Answers = make([]model.Answer, len(sub.Answers))
	copy(out.Answers, sub.Answers)

	for i, a := range out.Answers {
		if a.QuestionID != questionID {
			continue
		}
		out.Score -= a.Points
		a.Points = 0
		a.IsCorrect = false
		a.Graded = false
		out.Answers[i] = a
		out.IsManuallyGraded = false
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
