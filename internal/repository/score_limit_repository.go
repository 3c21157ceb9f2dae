package repository

import (
	"database/sql"
	"fmt"
	"time"

	"meritboard/internal/models"
)

// ScoreLimitRepository handles the singleton score limit row
type ScoreLimitRepository struct {
	db *sql.DB
}

// NewScoreLimitRepository creates a new score limit repository
func NewScoreLimitRepository(db *sql.DB) *ScoreLimitRepository {
	return &ScoreLimitRepository{db: db}
}

// Get retrieves the score limit configuration, falling back to the built-in
// defaults when no row has been written yet
func (r *ScoreLimitRepository) Get() (*models.ScoreLimit, error) {
	query := `
		SELECT id, a_max, b_max, c_max, updated_at
		FROM score_limits
		ORDER BY id ASC
		LIMIT 1
	`

	limit := &models.ScoreLimit{}
	err := r.db.QueryRow(query).Scan(
		&limit.ID,
		&limit.AMax,
		&limit.BMax,
		&limit.CMax,
		&limit.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return &models.ScoreLimit{
			AMax: models.DefaultAMax,
			BMax: models.DefaultBMax,
			CMax: models.DefaultCMax,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score limits: %w", err)
	}

	return limit, nil
}

// Save writes the score limit configuration, creating the row if needed
func (r *ScoreLimitRepository) Save(limit *models.ScoreLimit) error {
	limit.UpdatedAt = time.Now()

	if limit.ID == 0 {
		query := `
			INSERT INTO score_limits (a_max, b_max, c_max, updated_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		if err := r.db.QueryRow(query, limit.AMax, limit.BMax, limit.CMax, limit.UpdatedAt).Scan(&limit.ID); err != nil {
			return fmt.Errorf("failed to create score limits: %w", err)
		}
		return nil
	}

	query := `
		UPDATE score_limits
		SET a_max = $1, b_max = $2, c_max = $3, updated_at = $4
		WHERE id = $5
	`
	if _, err := r.db.Exec(query, limit.AMax, limit.BMax, limit.CMax, limit.UpdatedAt, limit.ID); err != nil {
		return fmt.Errorf("failed to update score limits: %w", err)
	}

	return nil
}
