package store

import (
	"database/sql"
	"time"

	"github.com/classhub/backend/internal/model"
)

// CreateSubmission stores a scored submission and its answers in one
// transaction and returns the new ID.
func (s *Store) CreateSubmission(sub model.Submission) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	submittedAt := sub.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	res, err := tx.Exec(
		`INSERT INTO submissions (exam_id, student_id, submitted_at, score, total_points,
		 needs_manual_grading, is_manually_graded, feedback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ExamID, sub.StudentID, submittedAt, sub.Score, sub.TotalPoints,
		sub.NeedsManualGrading, sub.IsManuallyGraded, sub.Feedback,
	)
	if err != nil {
		return 0, err
	}
	subID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, a := range sub.Answers {
		_, err := tx.Exec(
			`INSERT INTO answers (submission_id, question_id, answer, is_correct, points, graded)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			subID, a.QuestionID, a.Answer, a.IsCorrect, a.Points, a.Graded,
		)
		if err != nil {
			return 0, err
		}
	}

	return subID, tx.Commit()
}

// GetSubmission returns a submission with its answers in question order.
func (s *Store) GetSubmission(id int64) (model.Submission, error) {
	var sub model.Submission
	err := s.db.QueryRow(
		`SELECT id, exam_id, student_id, submitted_at, score, total_points,
		 needs_manual_grading, is_manually_graded, feedback
		 FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.ExamID, &sub.StudentID, &sub.SubmittedAt, &sub.Score,
		&sub.TotalPoints, &sub.NeedsManualGrading, &sub.IsManuallyGraded, &sub.Feedback)
	if err != nil {
		return sub, err
	}
	sub.Answers, err = s.listAnswers(id)
	return sub, err
}

func (s *Store) listAnswers(submissionID int64) ([]model.Answer, error) {
	rows, err := s.db.Query(
		`SELECT a.question_id, a.answer, a.is_correct, a.points, a.graded
		 FROM answers a
		 LEFT JOIN questions q ON q.id = a.question_id
		 WHERE a.submission_id = ? ORDER BY q.position, a.id`, submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.QuestionID, &a.Answer, &a.IsCorrect, &a.Points, &a.Graded); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ListSubmissionsForExam returns all submissions for one exam with their
// answers, newest first.
func (s *Store) ListSubmissionsForExam(examID int64) ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, student_id, submitted_at, score, total_points,
		 needs_manual_grading, is_manually_graded, feedback
		 FROM submissions WHERE exam_id = ? ORDER BY id DESC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.ExamID, &sub.StudentID, &sub.SubmittedAt, &sub.Score,
			&sub.TotalPoints, &sub.NeedsManualGrading, &sub.IsManuallyGraded, &sub.Feedback); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].Answers, err = s.listAnswers(subs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return subs, nil
}

// LatestSubmission returns the student's most recent submission for an exam,
// or nil if none exists. With retakes allowed the most recent one is
// authoritative for taken status and displayed scores.
func (s *Store) LatestSubmission(examID, studentID int64) (*model.Submission, error) {
	var sub model.Submission
	err := s.db.QueryRow(
		`SELECT id, exam_id, student_id, submitted_at, score, total_points,
		 needs_manual_grading, is_manually_graded, feedback
		 FROM submissions WHERE exam_id = ? AND student_id = ? ORDER BY id DESC LIMIT 1`,
		examID, studentID,
	).Scan(&sub.ID, &sub.ExamID, &sub.StudentID, &sub.SubmittedAt, &sub.Score,
		&sub.TotalPoints, &sub.NeedsManualGrading, &sub.IsManuallyGraded, &sub.Feedback)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub.Answers, err = s.listAnswers(sub.ID)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CountSubmissions returns how many attempts a student has made at an exam.
func (s *Store) CountSubmissions(examID, studentID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM submissions WHERE exam_id = ? AND student_id = ?`,
		examID, studentID,
	).Scan(&count)
	return count, err
}

// SaveReconciled persists the output of a grading reconciliation: the new
// score, grading flags, feedback, and each answer's awarded points.
func (s *Store) SaveReconciled(sub model.Submission) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE submissions SET score = ?, is_manually_graded = ?, feedback = ? WHERE id = ?`,
		sub.Score, sub.IsManuallyGraded, sub.Feedback, sub.ID,
	)
	if err != nil {
		return err
	}

	for _, a := range sub.Answers {
		_, err := tx.Exec(
			`UPDATE answers SET is_correct = ?, points = ?, graded = ? WHERE submission_id = ? AND question_id = ?`,
			a.IsCorrect, a.Points, a.Graded, sub.ID, a.QuestionID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
