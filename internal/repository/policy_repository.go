package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meritboard/internal/models"
)

var ErrPolicyNotFound = errors.New("policy not found")

// PolicyRepository handles policy document database operations
type PolicyRepository struct {
	db *sql.DB
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// List retrieves policies, optionally only active ones, newest first
func (r *PolicyRepository) List(activeOnly bool) ([]models.Policy, error) {
	query := `
		SELECT id, title, summary, file_id, uploaded_by, is_active, created_at, updated_at
		FROM policies
	`
	if activeOnly {
		query += " WHERE is_active = true"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var policies []models.Policy
	for rows.Next() {
		var policy models.Policy
		if err := rows.Scan(
			&policy.ID,
			&policy.Title,
			&policy.Summary,
			&policy.FileID,
			&policy.UploadedBy,
			&policy.IsActive,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, policy)
	}

	return policies, rows.Err()
}

// GetByID retrieves a policy by ID
func (r *PolicyRepository) GetByID(id uint) (*models.Policy, error) {
	query := `
		SELECT id, title, summary, file_id, uploaded_by, is_active, created_at, updated_at
		FROM policies
		WHERE id = $1
	`

	policy := &models.Policy{}
	err := r.db.QueryRow(query, id).Scan(
		&policy.ID,
		&policy.Title,
		&policy.Summary,
		&policy.FileID,
		&policy.UploadedBy,
		&policy.IsActive,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	return policy, nil
}

// Create creates a new policy
func (r *PolicyRepository) Create(policy *models.Policy) error {
	query := `
		INSERT INTO policies (title, summary, file_id, uploaded_by, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		policy.Title,
		policy.Summary,
		policy.FileID,
		policy.UploadedBy,
		policy.IsActive,
		now,
	).Scan(&policy.ID)

	if err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	policy.CreatedAt = now
	policy.UpdatedAt = now
	return nil
}

// Update updates a policy
func (r *PolicyRepository) Update(policy *models.Policy) error {
	query := `
		UPDATE policies
		SET title = $1, summary = $2, file_id = $3, is_active = $4, updated_at = $5
		WHERE id = $6
	`

	policy.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		query,
		policy.Title,
		policy.Summary,
		policy.FileID,
		policy.IsActive,
		policy.UpdatedAt,
		policy.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update policy: %w", err)
	}

	return nil
}

// Delete removes a policy
func (r *PolicyRepository) Delete(id uint) error {
	_, err := r.db.Exec("DELETE FROM policies WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	return nil
}
