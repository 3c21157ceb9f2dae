package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meritboard/internal/models"
)

var (
	ErrProofReviewNotFound = errors.New("proof review not found")
	ErrProofReviewDecided  = errors.New("proof review has already been decided")
)

// ProofReviewRepository handles proof review database operations
type ProofReviewRepository struct {
	db *sql.DB
}

// NewProofReviewRepository creates a new proof review repository
func NewProofReviewRepository(db *sql.DB) *ProofReviewRepository {
	return &ProofReviewRepository{db: db}
}

// Create creates a new pending proof review
func (r *ProofReviewRepository) Create(review *models.ProofReview) error {
	query := `
		INSERT INTO proof_reviews (entity_kind, entity_id, student_id, file_path, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		review.EntityKind,
		review.EntityID,
		review.StudentID,
		review.FilePath,
		review.Status,
		now,
	).Scan(&review.ID)

	if err != nil {
		return fmt.Errorf("failed to create proof review: %w", err)
	}

	review.CreatedAt = now
	return nil
}

// GetByID retrieves a proof review by ID
func (r *ProofReviewRepository) GetByID(id uint) (*models.ProofReview, error) {
	query := `
		SELECT id, entity_kind, entity_id, student_id, file_path, status, reason, reviewer_id, reviewed_at, created_at
		FROM proof_reviews
		WHERE id = $1
	`

	review := &models.ProofReview{}
	err := r.db.QueryRow(query, id).Scan(
		&review.ID,
		&review.EntityKind,
		&review.EntityID,
		&review.StudentID,
		&review.FilePath,
		&review.Status,
		&review.Reason,
		&review.ReviewerID,
		&review.ReviewedAt,
		&review.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrProofReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proof review: %w", err)
	}

	return review, nil
}

// ProofReviewFilters narrows List results
type ProofReviewFilters struct {
	Status     string
	EntityKind string
	StudentID  uint
	Limit      int
	Offset     int
}

// List retrieves proof reviews matching the filters, newest first, and the
// total match count
func (r *ProofReviewRepository) List(filters ProofReviewFilters) ([]models.ProofReview, int, error) {
	var conditions []string
	var args []interface{}

	if filters.Status != "" {
		args = append(args, filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.EntityKind != "" {
		args = append(args, filters.EntityKind)
		conditions = append(conditions, fmt.Sprintf("entity_kind = $%d", len(args)))
	}
	if filters.StudentID != 0 {
		args = append(args, filters.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM proof_reviews"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count proof reviews: %w", err)
	}

	query := `
		SELECT id, entity_kind, entity_id, student_id, file_path, status, reason, reviewer_id, reviewed_at, created_at
		FROM proof_reviews` + where + `
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
		return nil, 0, fmt.Errorf("failed to list proof reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.ProofReview
	for rows.Next() {
		var review models.ProofReview
		if err := rows.Scan(
			&review.ID,
			&review.EntityKind,
			&review.EntityID,
			&review.StudentID,
			&review.FilePath,
			&review.Status,
			&review.Reason,
			&review.ReviewerID,
			&review.ReviewedAt,
			&review.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan proof review: %w", err)
		}
		reviews = append(reviews, review)
	}

	return reviews, total, rows.Err()
}

// Decide records the reviewer's decision on a pending proof review. The
// status guard makes the decision first-writer-wins under concurrency; a
// second decider gets ErrProofReviewDecided.
func (r *ProofReviewRepository) Decide(id uint, status string, reason *string, reviewerID uint) error {
	query := `
		UPDATE proof_reviews
		SET status = $1, reason = $2, reviewer_id = $3, reviewed_at = $4
		WHERE id = $5 AND status = $6
	`

	result, err := r.db.Exec(query, status, reason, reviewerID, time.Now(), id, models.ProofPending)
	if err != nil {
		return fmt.Errorf("failed to record proof review decision: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check proof review decision: %w", err)
	}
	if affected == 0 {
		return ErrProofReviewDecided
	}

	return nil
}

// GetPendingByEntity retrieves the pending proof review for a target entity,
// if one exists.
func (r *ProofReviewRepository) GetPendingByEntity(kind string, entityID uint) (*models.ProofReview, error) {
	query := `
		SELECT id, entity_kind, entity_id, student_id, file_path, status, reason, reviewer_id, reviewed_at, created_at
		FROM proof_reviews
		WHERE entity_kind = $1 AND entity_id = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	review := &models.ProofReview{}
	err := r.db.QueryRow(query, kind, entityID, models.ProofPending).Scan(
		&review.ID,
		&review.EntityKind,
		&review.EntityID,
		&review.StudentID,
		&review.FilePath,
		&review.Status,
		&review.Reason,
		&review.ReviewerID,
		&review.ReviewedAt,
		&review.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrProofReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending proof review: %w", err)
	}

	return review, nil
}
