package repository

import (
	"database/sql"
	"fmt"
	"time"

	"meritboard/internal/models"
)

// ComprehensivePerformanceRepository handles comprehensive performance
// database operations
type ComprehensivePerformanceRepository struct {
	db *sql.DB
}

// NewComprehensivePerformanceRepository creates a new comprehensive
// performance repository
func NewComprehensivePerformanceRepository(db *sql.DB) *ComprehensivePerformanceRepository {
	return &ComprehensivePerformanceRepository{db: db}
}

// Create creates a new comprehensive performance record
func (r *ComprehensivePerformanceRepository) Create(rec *models.ComprehensivePerformance) error {
	query := `
		INSERT INTO comprehensive_performance (student_id, name, score, material, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(query, rec.StudentID, rec.Name, rec.Score, rec.Material, now).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to create comprehensive performance record: %w", err)
	}

	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

// GetByID retrieves a comprehensive performance record by ID
func (r *ComprehensivePerformanceRepository) GetByID(id uint) (*models.ComprehensivePerformance, error) {
	query := `
		SELECT id, student_id, name, score, material, created_at, updated_at
		FROM comprehensive_performance
		WHERE id = $1
	`

	rec := &models.ComprehensivePerformance{}
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
		return nil, fmt.Errorf("failed to get comprehensive performance record: %w", err)
	}

	return rec, nil
}

// ListByStudent retrieves all comprehensive performance records of a student
func (r *ComprehensivePerformanceRepository) ListByStudent(studentID uint) ([]models.ComprehensivePerformance, error) {
	query := `
		SELECT id, student_id, name, score, material, created_at, updated_at
		FROM comprehensive_performance
		WHERE student_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comprehensive performance records: %w", err)
	}
	defer rows.Close()

	var records []models.ComprehensivePerformance
	for rows.Next() {
		var rec models.ComprehensivePerformance
		if err := rows.Scan(
			&rec.ID,
			&rec.StudentID,
			&rec.Name,
			&rec.Score,
			&rec.Material,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comprehensive performance record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Update updates a comprehensive performance record
func (r *ComprehensivePerformanceRepository) Update(rec *models.ComprehensivePerformance) error {
	query := `
		UPDATE comprehensive_performance
		SET name = $1, score = $2, material = $3, updated_at = $4
		WHERE id = $5
	`

	rec.UpdatedAt = time.Now()
	_, err := r.db.Exec(query, rec.Name, rec.Score, rec.Material, rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update comprehensive performance record: %w", err)
	}

	return nil
}

// ClearMaterial removes the proof material reference from a record
func (r *ComprehensivePerformanceRepository) ClearMaterial(id uint) error {
	query := `
		UPDATE comprehensive_performance
		SET material = NULL, updated_at = $1
		WHERE id = $2
	`

	_, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to clear comprehensive performance material: %w", err)
	}

	return nil
}

// Delete removes a comprehensive performance record
func (r *ComprehensivePerformanceRepository) Delete(id uint) error {
	_, err := r.db.Exec("DELETE FROM comprehensive_performance WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete comprehensive performance record: %w", err)
	}
	return nil
}
