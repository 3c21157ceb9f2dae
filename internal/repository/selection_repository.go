package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"meritboard/internal/models"
)

var (
	ErrSelectionNotFound  = errors.New("project selection not found")
	ErrDuplicateSelection = errors.New("student already has an active selection for this project")
	ErrNoFreeSlots        = errors.New("project has no free slots")
)

// SelectionRepository handles project selection database operations. A
// partial unique index on (project_id, student_account) WHERE status =
// 'active' enforces the one-active-selection rule under concurrency.
type SelectionRepository struct {
	db *sql.DB
}

// NewSelectionRepository creates a new selection repository
func NewSelectionRepository(db *sql.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

// Create creates a new project selection. Capacity is enforced inside the
// transaction: the project row is locked, active selections are counted, and
// the insert happens only while a slot is free, so two students racing for
// the last slot serialize and exactly one wins. Overflow surfaces as
// ErrNoFreeSlots, a duplicate active selection as ErrDuplicateSelection.
func (r *SelectionRepository) Create(sel *models.ProjectSelection) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin selection: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var slots int
	err = tx.QueryRow("SELECT slots FROM teacher_projects WHERE id = $1 FOR UPDATE", sel.ProjectID).Scan(&slots)
	if err == sql.ErrNoRows {
		return ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock project: %w", err)
	}

	var active int
	err = tx.QueryRow(
		"SELECT COUNT(*) FROM project_selections WHERE project_id = $1 AND status = 'active'",
		sel.ProjectID,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("failed to count active selections: %w", err)
	}
	if active >= slots {
		return ErrNoFreeSlots
	}

	query := `
		INSERT INTO project_selections (id, project_id, student_name, student_account, student_id,
		                                status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	now := time.Now()
	_, err = tx.Exec(
		query,
		sel.ID,
		sel.ProjectID,
		sel.StudentName,
		sel.StudentAccount,
		sel.StudentID,
		sel.Status,
		sel.Notes,
		now,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateSelection
	}
	if err != nil {
		return fmt.Errorf("failed to create project selection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit selection: %w", err)
	}

	sel.CreatedAt = now
	sel.UpdatedAt = now
	return nil
}

// GetByID retrieves a selection by ID
func (r *SelectionRepository) GetByID(id string) (*models.ProjectSelection, error) {
	query := `
		SELECT id, project_id, student_name, student_account, student_id, status, notes, created_at, updated_at
		FROM project_selections
		WHERE id = $1
	`

	sel := &models.ProjectSelection{}
	err := r.db.QueryRow(query, id).Scan(
		&sel.ID,
		&sel.ProjectID,
		&sel.StudentName,
		&sel.StudentAccount,
		&sel.StudentID,
		&sel.Status,
		&sel.Notes,
		&sel.CreatedAt,
		&sel.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrSelectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project selection: %w", err)
	}

	return sel, nil
}

// ListByProject retrieves all selections of a project, newest first
func (r *SelectionRepository) ListByProject(projectID string) ([]models.ProjectSelection, error) {
	return r.list("project_id = $1", projectID)
}

// ListByStudent retrieves all selections of a student account, newest first
func (r *SelectionRepository) ListByStudent(studentAccount string) ([]models.ProjectSelection, error) {
	return r.list("student_account = $1", studentAccount)
}

func (r *SelectionRepository) list(condition string, arg interface{}) ([]models.ProjectSelection, error) {
	query := `
		SELECT id, project_id, student_name, student_account, student_id, status, notes, created_at, updated_at
		FROM project_selections
		WHERE ` + condition + `
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list project selections: %w", err)
	}
	defer rows.Close()

	var selections []models.ProjectSelection
	for rows.Next() {
		var sel models.ProjectSelection
		if err := rows.Scan(
			&sel.ID,
			&sel.ProjectID,
			&sel.StudentName,
			&sel.StudentAccount,
			&sel.StudentID,
			&sel.Status,
			&sel.Notes,
			&sel.CreatedAt,
			&sel.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project selection: %w", err)
		}
		selections = append(selections, sel)
	}

	return selections, rows.Err()
}

// Cancel marks a selection cancelled. Cancelled rows are kept so the
// selection history survives re-selection.
func (r *SelectionRepository) Cancel(id, notes string) error {
	query := `
		UPDATE project_selections
		SET status = $1, notes = $2, updated_at = $3
		WHERE id = $4
	`

	_, err := r.db.Exec(query, models.SelectionCancelled, notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel project selection: %w", err)
	}

	return nil
}
