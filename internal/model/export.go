package model

import "time"

// ExamExport is the top-level JSON structure for exam result export.
type ExamExport struct {
	ExamID      int64           `json:"exam_id"`
	Title       string          `json:"title"`
	Subject     string          `json:"subject"`
	TotalPoints int             `json:"total_points"`
	ExportedAt  time.Time       `json:"exported_at"`
	Results     []StudentResult `json:"results"`
}

// StudentResult holds one student's submission data for export.
type StudentResult struct {
	StudentID        int64          `json:"student_id"`
	DisplayName      string         `json:"display_name"`
	GradeLevel       string         `json:"grade_level"`
	AttemptNumber    int            `json:"attempt_number"`
	SubmittedAt      time.Time      `json:"submitted_at"`
	Score            int            `json:"score"`
	TotalPoints      int            `json:"total_points"`
	IsManuallyGraded bool           `json:"is_manually_graded"`
	Answers          []AnswerResult `json:"answers"`
}

// AnswerResult holds per-question data for export.
type AnswerResult struct {
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	MaxPoints     int          `json:"max_points"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Answer        string       `json:"answer"`
	IsCorrect     bool         `json:"is_correct"`
	Points        int          `json:"points"`
}
