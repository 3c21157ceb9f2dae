package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meritboard/internal/models"
)

var ErrVolunteerRecordNotFound = errors.New("volunteer record not found")

// VolunteerRepository handles volunteer record database operations
type VolunteerRepository struct {
	db *sql.DB
}

// NewVolunteerRepository creates a new volunteer repository
func NewVolunteerRepository(db *sql.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

// Create creates a new volunteer record
func (r *VolunteerRepository) Create(rec *models.VolunteerRecord) error {
	query := `
		INSERT INTO volunteer_records (id, student_name, student_account, student_id, activity, hours,
		                               proof, require_ocr, submitted_via, project_id, review_stage,
		                               status, review_notes, review_trail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		rec.ID,
		rec.StudentName,
		rec.StudentAccount,
		rec.StudentID,
		rec.Activity,
		rec.Hours,
		rec.Proof,
		rec.RequireOCR,
		rec.SubmittedVia,
		rec.ProjectID,
		rec.ReviewStage,
		rec.Status,
		rec.ReviewNotes,
		rec.ReviewTrail,
		now,
	)

	if err != nil {
		return fmt.Errorf("failed to create volunteer record: %w", err)
	}

	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

// GetByID retrieves a volunteer record by ID
func (r *VolunteerRepository) GetByID(id string) (*models.VolunteerRecord, error) {
	query := `
		SELECT id, student_name, student_account, student_id, activity, hours, proof, require_ocr,
		       submitted_via, project_id, review_stage, status, review_notes, review_trail,
		       created_at, updated_at
		FROM volunteer_records
		WHERE id = $1
	`

	rec := &models.VolunteerRecord{}
	err := r.db.QueryRow(query, id).Scan(
		&rec.ID,
		&rec.StudentName,
		&rec.StudentAccount,
		&rec.StudentID,
		&rec.Activity,
		&rec.Hours,
		&rec.Proof,
		&rec.RequireOCR,
		&rec.SubmittedVia,
		&rec.ProjectID,
		&rec.ReviewStage,
		&rec.Status,
		&rec.ReviewNotes,
		&rec.ReviewTrail,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrVolunteerRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer record: %w", err)
	}

	return rec, nil
}

// VolunteerFilters narrows List results
type VolunteerFilters struct {
	Status         string
	Stage          string
	StudentAccount string
	ProjectID      string
	Limit          int
	Offset         int
}

// List retrieves volunteer records matching the filters, newest first, and
// the total match count
func (r *VolunteerRepository) List(filters VolunteerFilters) ([]models.VolunteerRecord, int, error) {
	var conditions []string
	var args []interface{}

	if filters.Status != "" {
		args = append(args, filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.Stage != "" {
		args = append(args, filters.Stage)
		conditions = append(conditions, fmt.Sprintf("review_stage = $%d", len(args)))
	}
	if filters.StudentAccount != "" {
		args = append(args, filters.StudentAccount)
		conditions = append(conditions, fmt.Sprintf("student_account = $%d", len(args)))
	}
	if filters.ProjectID != "" {
		args = append(args, filters.ProjectID)
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM volunteer_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count volunteer records: %w", err)
	}

	query := `
		SELECT id, student_name, student_account, student_id, activity, hours, proof, require_ocr,
		       submitted_via, project_id, review_stage, status, review_notes, review_trail,
		       created_at, updated_at
		FROM volunteer_records` + where + `
		ORDER BY created_at DESC`

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list volunteer records: %w", err)
	}
	defer rows.Close()

	var records []models.VolunteerRecord
	for rows.Next() {
		var rec models.VolunteerRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.StudentName,
			&rec.StudentAccount,
			&rec.StudentID,
			&rec.Activity,
			&rec.Hours,
			&rec.Proof,
			&rec.RequireOCR,
			&rec.SubmittedVia,
			&rec.ProjectID,
			&rec.ReviewStage,
			&rec.Status,
			&rec.ReviewNotes,
			&rec.ReviewTrail,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan volunteer record: %w", err)
		}
		records = append(records, rec)
	}

	return records, total, rows.Err()
}

// Update updates a volunteer record including its review state
func (r *VolunteerRepository) Update(rec *models.VolunteerRecord) error {
	query := `
		UPDATE volunteer_records
		SET student_name = $1, student_id = $2, activity = $3, hours = $4, proof = $5,
		    require_ocr = $6, project_id = $7, review_stage = $8, status = $9,
		    review_notes = $10, review_trail = $11, updated_at = $12
		WHERE id = $13
	`

	rec.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		query,
		rec.StudentName,
		rec.StudentID,
		rec.Activity,
		rec.Hours,
		rec.Proof,
		rec.RequireOCR,
		rec.ProjectID,
		rec.ReviewStage,
		rec.Status,
		rec.ReviewNotes,
		rec.ReviewTrail,
		rec.UpdatedAt,
		rec.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update volunteer record: %w", err)
	}

	return nil
}

// Delete removes a volunteer record
func (r *VolunteerRepository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM volunteer_records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete volunteer record: %w", err)
	}
	return nil
}
