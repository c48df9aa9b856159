package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/classhub/backend/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		grade_code TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT 'en',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS classes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		grade_code TEXT NOT NULL DEFAULT '',
		teacher_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (teacher_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS class_members (
		class_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		PRIMARY KEY (class_id, student_id),
		FOREIGN KEY (class_id) REFERENCES classes(id),
		FOREIGN KEY (student_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		class_id INTEGER NOT NULL,
		teacher_id INTEGER NOT NULL,
		available_from DATETIME,
		due_date DATETIME,
		timed BOOLEAN NOT NULL DEFAULT 0,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		allow_retake BOOLEAN NOT NULL DEFAULT 0,
		random_order BOOLEAN NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (class_id) REFERENCES classes(id),
		FOREIGN KEY (teacher_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL,
		text TEXT NOT NULL,
		type TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		correct_answer TEXT NOT NULL DEFAULT '',
		points INTEGER NOT NULL DEFAULT 1,
		explanation TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (exam_id) REFERENCES exams(id)
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		submitted_at DATETIME NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		total_points INTEGER NOT NULL DEFAULT 0,
		needs_manual_grading BOOLEAN NOT NULL DEFAULT 0,
		is_manually_graded BOOLEAN NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		FOREIGN KEY (student_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		submission_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		is_correct BOOLEAN NOT NULL DEFAULT 0,
		points INTEGER NOT NULL DEFAULT 0,
		graded BOOLEAN NOT NULL DEFAULT 0,
		FOREIGN KEY (submission_id) REFERENCES submissions(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateExam stores an exam and its questions in one transaction.
func (s *Store) CreateExam(e model.Exam) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO exams (title, subject, class_id, teacher_id, available_from, due_date,
		 timed, duration_minutes, allow_retake, random_order, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Subject, e.ClassID, e.TeacherID, e.AvailableFrom, e.DueDate,
		e.Settings.Timed, e.Settings.DurationMinutes, e.Settings.AllowRetake,
		e.Settings.RandomOrder, e.IsActive, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	examID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, q := range e.Questions {
		if err := insertQuestionTx(tx, examID, i, q); err != nil {
			return 0, err
		}
	}

	return examID, tx.Commit()
}

func insertQuestionTx(tx *sql.Tx, examID int64, position int, q model.Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO questions (exam_id, text, type, options, correct_answer, points, explanation, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		examID, q.Text, q.Type, string(opts), q.CorrectAnswer, q.Points, q.Explanation, position,
	)
	return err
}

// GetExam returns an exam with its questions in position order.
func (s *Store) GetExam(id int64) (model.Exam, error) {
	var e model.Exam
	err := s.db.QueryRow(
		`SELECT id, title, subject, class_id, teacher_id, available_from, due_date,
		 timed, duration_minutes, allow_retake, random_order, is_active, created_at
		 FROM exams WHERE id = ?`, id,
	).Scan(&e.ID, &e.Title, &e.Subject, &e.ClassID, &e.TeacherID, &e.AvailableFrom, &e.DueDate,
		&e.Settings.Timed, &e.Settings.DurationMinutes, &e.Settings.AllowRetake,
		&e.Settings.RandomOrder, &e.IsActive, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	e.Questions, err = s.ListQuestions(id)
	return e, err
}

// ListExamsForClass returns the exams of one class, newest first, without questions.
func (s *Store) ListExamsForClass(classID int64) ([]model.Exam, error) {
	rows, err := s.db.Query(
		`SELECT id, title, subject, class_id, teacher_id, available_from, due_date,
		 timed, duration_minutes, allow_retake, random_order, is_active, created_at
		 FROM exams WHERE class_id = ? ORDER BY id DESC`, classID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Subject, &e.ClassID, &e.TeacherID,
			&e.AvailableFrom, &e.DueDate, &e.Settings.Timed, &e.Settings.DurationMinutes,
			&e.Settings.AllowRetake, &e.Settings.RandomOrder, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// UpdateExam updates exam fields other than questions.
func (s *Store) UpdateExam(e model.Exam) error {
	_, err := s.db.Exec(
		`UPDATE exams SET title = ?, subject = ?, available_from = ?, due_date = ?,
		 timed = ?, duration_minutes = ?, allow_retake = ?, random_order = ? WHERE id = ?`,
		e.Title, e.Subject, e.AvailableFrom, e.DueDate,
		e.Settings.Timed, e.Settings.DurationMinutes, e.Settings.AllowRetake,
		e.Settings.RandomOrder, e.ID,
	)
	return err
}

// SetExamActive toggles exam visibility for students.
func (s *Store) SetExamActive(id int64, active bool) error {
	_, err := s.db.Exec(`UPDATE exams SET is_active = ? WHERE id = ?`, active, id)
	return err
}

// ListQuestions returns an exam's questions in position order.
func (s *Store) ListQuestions(examID int64) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, text, type, options, correct_answer, points, explanation, position
		 FROM questions WHERE exam_id = ? ORDER BY position, id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	row := s.db.QueryRow(
		`SELECT id, exam_id, text, type, options, correct_answer, points, explanation, position
		 FROM questions WHERE id = ?`, id,
	)
	return scanQuestion(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(r rowScanner) (model.Question, error) {
	var q model.Question
	var opts string
	err := r.Scan(&q.ID, &q.ExamID, &q.Text, &q.Type, &opts, &q.CorrectAnswer,
		&q.Points, &q.Explanation, &q.Position)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
		return q, fmt.Errorf("unmarshal options for question %d: %w", q.ID, err)
	}
	return q, nil
}

// UpdateQuestion persists a revised question: prompt, options, correct
// answer, points, explanation. Already-persisted submission scores are not
// touched; edits affect future grading only.
func (s *Store) UpdateQuestion(q model.Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE questions SET text = ?, type = ?, options = ?, correct_answer = ?,
		 points = ?, explanation = ? WHERE id = ?`,
		q.Text, q.Type, string(opts), q.CorrectAnswer, q.Points, q.Explanation, q.ID,
	)
	return err
}

// AddQuestion appends a question to an existing exam.
func (s *Store) AddQuestion(examID int64, q model.Question) (int64, error) {
	var maxPos sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(position) FROM questions WHERE exam_id = ?`, examID).Scan(&maxPos); err != nil {
		return 0, err
	}
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return 0, fmt.Errorf("marshal options: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO questions (exam_id, text, type, options, correct_answer, points, explanation, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		examID, q.Text, q.Type, string(opts), q.CorrectAnswer, q.Points, q.Explanation, maxPos.Int64+1,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
