package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meritboard/internal/models"
)

var ErrDictEntryNotFound = errors.New("dictionary entry not found")

// DictRepository handles dictionary entry database operations
type DictRepository struct {
	db *sql.DB
}

// NewDictRepository creates a new dictionary repository
func NewDictRepository(db *sql.DB) *DictRepository {
	return &DictRepository{db: db}
}

// ListByCategory retrieves active entries of a category in display order
func (r *DictRepository) ListByCategory(category string) ([]models.DictEntry, error) {
	query := `
		SELECT id, category, code, name, description, sort_order, is_active, created_at, updated_at
		FROM dict_entries
		WHERE category = $1 AND is_active = true
		ORDER BY sort_order ASC, id ASC
	`

	rows, err := r.db.Query(query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list dictionary entries: %w", err)
	}
	defer rows.Close()

	return scanDictEntries(rows)
}

// ListCategories retrieves the distinct categories with active entries
func (r *DictRepository) ListCategories() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT category FROM dict_entries WHERE is_active = true ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to list dictionary categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan dictionary category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// GetByID retrieves a dictionary entry by ID
func (r *DictRepository) GetByID(id uint) (*models.DictEntry, error) {
	query := `
		SELECT id, category, code, name, description, sort_order, is_active, created_at, updated_at
		FROM dict_entries
		WHERE id = $1
	`

	entry := &models.DictEntry{}
	err := r.db.QueryRow(query, id).Scan(
		&entry.ID,
		&entry.Category,
		&entry.Code,
		&entry.Name,
		&entry.Description,
		&entry.Order,
		&entry.IsActive,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrDictEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dictionary entry: %w", err)
	}

	return entry, nil
}

// Create creates a new dictionary entry
func (r *DictRepository) Create(entry *models.DictEntry) error {
	query := `
		INSERT INTO dict_entries (category, code, name, description, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		entry.Category,
		entry.Code,
		entry.Name,
		entry.Description,
		entry.Order,
		entry.IsActive,
		now,
	).Scan(&entry.ID)

	if err != nil {
		return fmt.Errorf("failed to create dictionary entry: %w", err)
	}

	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

// Update updates a dictionary entry
func (r *DictRepository) Update(entry *models.DictEntry) error {
	query := `
		UPDATE dict_entries
		SET category = $1, code = $2, name = $3, description = $4, sort_order = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`

	entry.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		query,
		entry.Category,
		entry.Code,
		entry.Name,
		entry.Description,
		entry.Order,
		entry.IsActive,
		entry.UpdatedAt,
		entry.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update dictionary entry: %w", err)
	}

	return nil
}

// Delete removes a dictionary entry
func (r *DictRepository) Delete(id uint) error {
	_, err := r.db.Exec("DELETE FROM dict_entries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete dictionary entry: %w", err)
	}
	return nil
}

func scanDictEntries(rows *sql.Rows) ([]models.DictEntry, error) {
	var entries []models.DictEntry
	for rows.Next() {
		var entry models.DictEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Category,
			&entry.Code,
			&entry.Name,
			&entry.Description,
			&entry.Order,
			&entry.IsActive,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dictionary entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
