package store

import (
	"fmt"
	"time"

	"github.com/classhub/backend/internal/model"
)

// ExportExam builds export-ready results for every submission of one exam.
func (s *Store) ExportExam(examID int64) (model.ExamExport, error) {
	exam, err := s.GetExam(examID)
	if err != nil {
		return model.ExamExport{}, fmt.Errorf("get exam %d: %w", examID, err)
	}

	subs, err := s.ListSubmissionsForExam(examID)
	if err != nil {
		return model.ExamExport{}, fmt.Errorf("list submissions: %w", err)
	}

	questionByID := make(map[int64]model.Question, len(exam.Questions))
	totalPoints := 0
	for _, q := range exam.Questions {
		questionByID[q.ID] = q
		totalPoints += q.Points
	}

	// Track attempt count per student; submissions arrive newest first.
	attemptsLeft := make(map[int64]int)
	for _, sub := range subs {
		attemptsLeft[sub.StudentID]++
	}

	var results []model.StudentResult
	for _, sub := range subs {
		user, err := s.GetUserByID(sub.StudentID)
		if err != nil {
			return model.ExamExport{}, fmt.Errorf("get user %d: %w", sub.StudentID, err)
		}

		var displayName, gradeCode string
		if user != nil {
			displayName = user.DisplayName
			gradeCode = user.GradeCode
		}

		var answers []model.AnswerResult
		for _, a := range sub.Answers {
			ar := model.AnswerResult{
				Answer:    a.Answer,
				IsCorrect: a.IsCorrect,
				Points:    a.Points,
			}
			if q, ok := questionByID[a.QuestionID]; ok {
				ar.QuestionText = q.Text
				ar.QuestionType = q.Type
				ar.MaxPoints = q.Points
				ar.CorrectAnswer = q.CorrectAnswer
			}
			answers = append(answers, ar)
		}

		results = append(results, model.StudentResult{
			StudentID:        sub.StudentID,
			DisplayName:      displayName,
			GradeLevel:       model.GradeLevelName(gradeCode),
			AttemptNumber:    attemptsLeft[sub.StudentID],
			SubmittedAt:      sub.SubmittedAt,
			Score:            sub.Score,
			TotalPoints:      sub.TotalPoints,
			IsManuallyGraded: sub.IsManuallyGraded,
			Answers:          answers,
		})
		attemptsLeft[sub.StudentID]--
	}

	return model.ExamExport{
		ExamID:      exam.ID,
		Title:       exam.Title,
		Subject:     exam.Subject,
		TotalPoints: totalPoints,
		ExportedAt:  time.Now(),
		Results:     results,
	}, nil
}
