package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meritboard/internal/models"
)

var ErrBonusRecordNotFound = errors.New("bonus record not found")

// AcademicExpertiseRepository handles academic expertise database operations
type AcademicExpertiseRepository struct {
	db *sql.DB
}

// NewAcademicExpertiseRepository creates a new academic expertise repository
func NewAcademicExpertiseRepository(db *sql.DB) *AcademicExpertiseRepository {
	return &AcademicExpertiseRepository{db: db}
}

// Create creates a new academic expertise record
func (r *AcademicExpertiseRepository) Create(rec *models.AcademicExpertise) error {
	query := `
		INSERT INTO academic_expertise (student_id, name, score, material, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(query, rec.StudentID, rec.Name, rec.Score, rec.Material, now).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to create academic expertise record: %w", err)
	}

	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

// GetByID retrieves an academic expertise record by ID
func (r *AcademicExpertiseRepository) GetByID(id uint) (*models.AcademicExpertise, error) {
	query := `
		SELECT id, student_id, name, score, material, created_at, updated_at
		FROM academic_expertise
		WHERE id = $1
	`

	rec := &models.AcademicExpertise{}
	err := r.db.QueryRow(query, id).Scan(
		&rec.ID,
		&rec.StudentID,
		&rec.Name,
		&rec.Score,
		&rec.Material,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrBonusRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get academic expertise record: %w", err)
	}

	return rec, nil
}

// ListByStudent retrieves all academic expertise records of a student
func (r *AcademicExpertiseRepository) ListByStudent(studentID uint) ([]models.AcademicExpertise, error) {
	query := `
		SELECT id, student_id, name, score, material, created_at, updated_at
		FROM academic_expertise
		WHERE student_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list academic expertise records: %w", err)
	}
	defer rows.Close()

	var records []models.AcademicExpertise
	for rows.Next() {
		var rec models.AcademicExpertise
		if err := rows.Scan(
			&rec.ID,
			&rec.StudentID,
			&rec.Name,
			&rec.Score,
			&rec.Material,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan academic expertise record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Update updates an academic expertise record
func (r *AcademicExpertiseRepository) Update(rec *models.AcademicExpertise) error {
	query := `
		UPDATE academic_expertise
		SET name = $1, score = $2, material = $3, updated_at = $4
		WHERE id = $5
	`

	rec.UpdatedAt = time.Now()
	_, err := r.db.Exec(query, rec.Name, rec.Score, rec.Material, rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update academic expertise record: %w", err)
	}

	return nil
}

// ClearMaterial removes the proof material reference from a record
func (r *AcademicExpertiseRepository) ClearMaterial(id uint) error {
	query := `
		UPDATE academic_expertise
		SET material = NULL, updated_at = $1
		WHERE id = $2
	`

	_, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to clear academic expertise material: %w", err)
	}

	return nil
}

// Delete removes an academic expertise record
func (r *AcademicExpertiseRepository) Delete(id uint) error {
	_, err := r.db.Exec("DELETE FROM academic_expertise WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete academic expertise record: %w", err)
	}
	return nil
}
