package store

import (
	"database/sql"
	"time"

	"github.com/classhub/backend/internal/model"
)

// CreateClass inserts a new class.
func (s *Store) CreateClass(c model.Class) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO classes (name, grade_code, teacher_id, created_at) VALUES (?, ?, ?, ?)`,
		c.Name, c.GradeCode, c.TeacherID, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetClass returns a class by ID.
func (s *Store) GetClass(id int64) (model.Class, error) {
	var c model.Class
	err := s.db.QueryRow(
		`SELECT id, name, grade_code, teacher_id, created_at FROM classes WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.GradeCode, &c.TeacherID, &c.CreatedAt)
	return c, err
}

// ListClasses returns all classes.
func (s *Store) ListClasses() ([]model.Class, error) {
	rows, err := s.db.Query(`SELECT id, name, grade_code, teacher_id, created_at FROM classes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var classes []model.Class
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.GradeCode, &c.TeacherID, &c.CreatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// AddClassMember enrolls a student in a class. Enrolling twice is a no-op.
func (s *Store) AddClassMember(classID, studentID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO class_members (class_id, student_id) VALUES (?, ?)`,
		classID, studentID,
	)
	return err
}

// IsClassMember reports whether a student is enrolled in a class.
func (s *Store) IsClassMember(classID, studentID int64) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM class_members WHERE class_id = ? AND student_id = ?`,
		classID, studentID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// ListClassMembers returns the students enrolled in a class.
func (s *Store) ListClassMembers(classID int64) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.username, u.display_name, u.password_hash, u.role, u.grade_code, u.language, u.active, u.created_at
		 FROM users u JOIN class_members m ON m.student_id = u.id
		 WHERE m.class_id = ? ORDER BY u.id`, classID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Role,
			&u.GradeCode, &u.Language, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
