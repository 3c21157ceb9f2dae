package repository

import (
	"database/sql"
	"fmt"
	"time"

	"meritboard/internal/models"
)

// CategoryRuleRepository handles score category rule database operations.
// The rule set is always replaced as a whole so the ratio-sum constraint can
// never be half-applied.
type CategoryRuleRepository struct {
	db *sql.DB
}

// NewCategoryRuleRepository creates a new category rule repository
func NewCategoryRuleRepository(db *sql.DB) *CategoryRuleRepository {
	return &CategoryRuleRepository{db: db}
}

// List retrieves all category rules in display order
func (r *CategoryRuleRepository) List() ([]models.ScoreCategoryRule, error) {
	query := `
		SELECT id, name, cap, ratio, sort_order, created_at, updated_at
		FROM score_category_rules
		ORDER BY sort_order ASC, id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list category rules: %w", err)
	}
	defer rows.Close()

	var rules []models.ScoreCategoryRule
	for rows.Next() {
		var rule models.ScoreCategoryRule
		if err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Cap,
			&rule.Ratio,
			&rule.Order,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// ReplaceAll atomically swaps the entire rule set. On any failure the
// previous rules remain untouched.
func (r *CategoryRuleRepository) ReplaceAll(rules []models.ScoreCategoryRule) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rule replacement: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM score_category_rules"); err != nil {
		return fmt.Errorf("failed to clear category rules: %w", err)
	}

	query := `
		INSERT INTO score_category_rules (name, cap, ratio, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`

	now := time.Now()
	for i := range rules {
		rule := &rules[i]
		if err := tx.QueryRow(query, rule.Name, rule.Cap, rule.Ratio, rule.Order, now).Scan(&rule.ID); err != nil {
			return fmt.Errorf("failed to insert category rule %q: %w", rule.Name, err)
		}
		rule.CreatedAt = now
		rule.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rule replacement: %w", err)
	}

	return nil
}
