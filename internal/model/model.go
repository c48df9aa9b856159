package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleTeacher is a teacher user role.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	GradeCode    string    `json:"grade_code,omitempty"`
	Language     string    `json:"language,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Class represents a school class owning exams and enrolling students.
type Class struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	GradeCode string    `json:"grade_code"`
	TeacherID int64     `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestionType represents the kind of a question.
type QuestionType string

const (
	// QuestionMultipleChoice is graded automatically by exact option match.
	QuestionMultipleChoice QuestionType = "multiple_choice"
	// QuestionFreeText is graded manually by a teacher.
	QuestionFreeText QuestionType = "free_text"
)

// Question represents an exam question. Owned by the exam, editable by the
// teacher at any time; edits affect future grading only.
type Question struct {
	ID            int64        `json:"id"`
	ExamID        int64        `json:"exam_id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Points        int          `json:"points"`
	Explanation   string       `json:"explanation,omitempty"`
	Position      int          `json:"position"`
}

// ExamSettings holds per-exam behavior switches.
type ExamSettings struct {
	Timed           bool `json:"timed"`
	DurationMinutes int  `json:"duration"`
	AllowRetake     bool `json:"allow_retake"`
	RandomOrder     bool `json:"random_order"`
}

// Exam represents a teacher-owned exam with an optional availability window.
// If both window bounds are set, AvailableFrom must precede DueDate.
type Exam struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Subject       string       `json:"subject"`
	ClassID       int64        `json:"class_id"`
	TeacherID     int64        `json:"teacher_id"`
	Questions     []Question   `json:"questions,omitempty"`
	AvailableFrom *time.Time   `json:"available_from,omitempty"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	Settings      ExamSettings `json:"settings"`
	IsActive      bool         `json:"is_active"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Answer is a student's answer to one question. For multiple-choice the
// correctness and points are fixed at submission time; for free-text they
// stay at the zero defaults until a teacher grades them, at which point
// Graded flips to true (awarding 0 still counts as graded).
type Answer struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"is_correct"`
	Points     int    `json:"points"`
	Graded     bool   `json:"graded"`
}

// Submission is one student's attempt at an exam. TotalPoints is the sum of
// question points at submission time and is never recomputed, even if the
// exam's questions change later.
type Submission struct {
	ID                 int64     `json:"id"`
	ExamID             int64     `json:"exam_id"`
	StudentID          int64     `json:"student_id"`
	SubmittedAt        time.Time `json:"submitted_at"`
	Answers            []Answer  `json:"answers"`
	Score              int       `json:"score"`
	TotalPoints        int       `json:"total_points"`
	NeedsManualGrading bool      `json:"needs_manual_grading"`
	IsManuallyGraded   bool      `json:"is_manually_graded"`
	Feedback           string    `json:"feedback,omitempty"`
}

// QuestionDraft is a candidate question produced by the extraction service,
// not yet attached to an exam.
type QuestionDraft struct {
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Points        int          `json:"points"`
	Explanation   string       `json:"explanation,omitempty"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Addr          string
	SecureCookies bool // Set Secure flag on cookies (disable for local dev)
	DefaultLang   string
}
