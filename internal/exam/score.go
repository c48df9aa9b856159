package exam

import "github.com/classhub/backend/internal/model"

// Result is the outcome of scoring one submission. TotalPoints is the sum of
// question points at scoring time; callers persist it and never recompute it.
type Result struct {
	PerQuestion        []model.Answer
	Total              int
	TotalPoints        int
	NeedsManualGrading bool
}

// Score grades a set of raw answers against the exam's questions, in question
// order. Multiple-choice answers are compared by exact string equality with
// the correct option: no trimming, no case folding ("paris" does not match
// "Paris"). Free-text answers are left at 0 points and incorrect until a
// teacher grades them; their mere presence in the question set marks the
// submission as needing manual grading, whether answered or not. Questions
// with no matching raw answer count as unanswered.
func Score(questions []model.Question, answers []model.Answer) Result {
	byQuestion := make(map[int64]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	res := Result{PerQuestion: make([]model.Answer, 0, len(questions))}
	for _, q := range questions {
		res.TotalPoints += q.Points

		graded := model.Answer{QuestionID: q.ID}
		if raw, ok := byQuestion[q.ID]; ok {
			graded.Answer = raw.Answer
		}

		switch q.Type {
		case model.QuestionMultipleChoice:
			if graded.Answer == q.CorrectAnswer && q.CorrectAnswer != "" {
				graded.IsCorrect = true
				graded.Points = q.Points
			}
			graded.Graded = true
		case model.QuestionFreeText:
			res.NeedsManualGrading = true
		}

		res.Total += graded.Points
		res.PerQuestion = append(res.PerQuestion, graded)
	}
	return res
}

// Percent converts a score into a display percentage, guarding against
// division by zero for exams with no questions.
func Percent(score, totalPoints int) int {
	if totalPoints <= 0 {
		return 0
	}
	return roundPercent(100 * float64(score) / float64(totalPoints))
}
