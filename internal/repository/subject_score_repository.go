package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meritboard/internal/models"
)

var ErrSubjectScoreNotFound = errors.New("subject score not found")

// SubjectScoreRepository handles subject score database operations. Every
// student has at most one row.
type SubjectScoreRepository struct {
	db *sql.DB
}

// NewSubjectScoreRepository creates a new subject score repository
func NewSubjectScoreRepository(db *sql.DB) *SubjectScoreRepository {
	return &SubjectScoreRepository{db: db}
}

// GetByStudentID retrieves a student's subject score
func (r *SubjectScoreRepository) GetByStudentID(studentID uint) (*models.SubjectScore, error) {
	query := `
		SELECT id, student_id, gpa, a_value, calculated_score, created_at, updated_at
		FROM subject_scores
		WHERE student_id = $1
	`

	score := &models.SubjectScore{}
	err := r.db.QueryRow(query, studentID).Scan(
		&score.ID,
		&score.StudentID,
		&score.GPA,
		&score.AValue,
		&score.CalculatedScore,
		&score.CreatedAt,
		&score.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrSubjectScoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject score: %w", err)
	}

	return score, nil
}

// Upsert inserts or replaces a student's subject score
func (r *SubjectScoreRepository) Upsert(score *models.SubjectScore) error {
	query := `
		INSERT INTO subject_scores (student_id, gpa, a_value, calculated_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (student_id) DO UPDATE
		SET gpa = EXCLUDED.gpa, a_value = EXCLUDED.a_value,
		    calculated_score = EXCLUDED.calculated_score, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		score.StudentID,
		score.GPA,
		score.AValue,
		score.CalculatedScore,
		now,
	).Scan(&score.ID, &score.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert subject score: %w", err)
	}

	score.UpdatedAt = now
	return nil
}

// Delete removes a student's subject score
func (r *SubjectScoreRepository) Delete(studentID uint) error {
	_, err := r.db.Exec("DELETE FROM subject_scores WHERE student_id = $1", studentID)
	if err != nil {
		return fmt.Errorf("failed to delete subject score: %w", err)
	}
	return nil
}
