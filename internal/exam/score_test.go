package exam

import (
	"testing"

	"github.com/classhub/backend/internal/model"
)

func mcQuestion(id int64, correct string, points int) model.Question {
	return model.Question{
		ID:            id,
		Text:          "Q",
		Type:          model.QuestionMultipleChoice,
		Options:       []string{"A", "B", "C", correct},
		CorrectAnswer: correct,
		Points:        points,
	}
}

func ftQuestion(id int64, points int) model.Question {
	return model.Question{ID: id, Text: "Explain", Type: model.QuestionFreeText, Points: points}
}

func TestScoreMultipleChoice(t *testing.T) {
	questions := []model.Question{mcQuestion(1, "B", 5)}

	tests := []struct {
		name      string
		answer    string
		wantScore int
		wantRight bool
	}{
		{"correct answer", "B", 5, true},
		{"wrong answer", "C", 0, false},
		{"empty answer", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(questions, []model.Answer{{QuestionID: 1, Answer: tt.answer}})
			if res.Total != tt.wantScore {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantScore)
			}
			if res.TotalPoints != 5 {
				t.Errorf("TotalPoints = %d, want 5", res.TotalPoints)
			}
			if res.PerQuestion[0].IsCorrect != tt.wantRight {
				t.Errorf("IsCorrect = %v, want %v", res.PerQuestion[0].IsCorrect, tt.wantRight)
			}
			if res.NeedsManualGrading {
				t.Error("multiple-choice exam should not need manual grading")
			}
		})
	}
}

func TestScoreExactStringMatch(t *testing.T) {
	questions := []model.Question{mcQuestion(1, "Paris", 3)}

	// Case and whitespace differences never award points.
	for _, answer := range []string{"paris", "PARIS", " Paris", "Paris "} {
		res := Score(questions, []model.Answer{{QuestionID: 1, Answer: answer}})
		if res.Total != 0 {
			t.Errorf("Score(%q) awarded %d points, want 0", answer, res.Total)
		}
	}
	res := Score(questions, []model.Answer{{QuestionID: 1, Answer: "Paris"}})
	if res.Total != 3 {
		t.Errorf("exact match awarded %d points, want 3", res.Total)
	}
}

func TestScoreFreeText(t *testing.T) {
	questions := []model.Question{ftQuestion(1, 10)}

	t.Run("answered", func(t *testing.T) {
		res := Score(questions, []model.Answer{{QuestionID: 1, Answer: "long essay"}})
		if !res.NeedsManualGrading {
			t.Error("expected NeedsManualGrading")
		}
		if res.Total != 0 || res.PerQuestion[0].Points != 0 {
			t.Error("free-text answers must score 0 at submission time")
		}
		if res.PerQuestion[0].Graded {
			t.Error("free-text answer must not be marked graded")
		}
	})

	t.Run("unanswered still needs grading", func(t *testing.T) {
		res := Score(questions, nil)
		if !res.NeedsManualGrading {
			t.Error("an unanswered free-text question still needs manual grading")
		}
		if res.TotalPoints != 10 {
			t.Errorf("TotalPoints = %d, want 10", res.TotalPoints)
		}
	})
}

func TestScoreMissingAnswers(t *testing.T) {
	questions := []model.Question{mcQuestion(1, "A", 2), mcQuestion(2, "B", 3)}
	res := Score(questions, []model.Answer{{QuestionID: 2, Answer: "B"}})

	if len(res.PerQuestion) != 2 {
		t.Fatalf("expected 2 per-question answers, got %d", len(res.PerQuestion))
	}
	if res.PerQuestion[0].Points != 0 || res.PerQuestion[0].IsCorrect {
		t.Error("missing answer should score 0 and be incorrect")
	}
	if res.Total != 3 || res.TotalPoints != 5 {
		t.Errorf("Total/TotalPoints = %d/%d, want 3/5", res.Total, res.TotalPoints)
	}
}

func TestScoreEmptyExam(t *testing.T) {
	res := Score(nil, nil)
	if res.Total != 0 || res.TotalPoints != 0 {
		t.Errorf("empty exam should score 0/0, got %d/%d", res.Total, res.TotalPoints)
	}
	if res.NeedsManualGrading {
		t.Error("empty exam needs no grading")
	}
}

func TestScoreMixedExamOrder(t *testing.T) {
	questions := []model.Question{mcQuestion(1, "A", 2), ftQuestion(2, 10), mcQuestion(3, "C", 3)}
	res := Score(questions, []model.Answer{
		{QuestionID: 3, Answer: "C"},
		{QuestionID: 1, Answer: "A"},
		{QuestionID: 2, Answer: "essay"},
	})

	// Output follows question order, not answer order.
	for i, q := range questions {
		if res.PerQuestion[i].QuestionID != q.ID {
			t.Errorf("PerQuestion[%d].QuestionID = %d, want %d", i, res.PerQuestion[i].QuestionID, q.ID)
		}
	}
	if res.Total != 5 || res.TotalPoints != 15 {
		t.Errorf("Total/TotalPoints = %d/%d, want 5/15", res.Total, res.TotalPoints)
	}
	if !res.NeedsManualGrading {
		t.Error("expected NeedsManualGrading for mixed exam")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{5, 5, 100},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
		{0, 0, 0}, // empty exam must not divide by zero
		{7, 0, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.score, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.score, tt.total, got, tt.want)
		}
	}
}
