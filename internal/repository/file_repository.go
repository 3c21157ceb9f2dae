package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meritboard/internal/models"
)

var ErrFileNotFound = errors.New("file not found")

// FileRepository handles file metadata database operations. Blob contents
// live in the blob store, keyed by path.
type FileRepository struct {
	db *sql.DB
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create creates a new file metadata row
func (r *FileRepository) Create(file *models.File) error {
	query := `
		INSERT INTO files (id, path, owner_id, size, mime_type, checksum, visibility, status,
		                   entity_kind, entity_id, error_message, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		file.ID,
		file.Path,
		file.OwnerID,
		file.Size,
		file.MimeType,
		file.Checksum,
		file.Visibility,
		file.Status,
		file.EntityKind,
		file.EntityID,
		file.ErrorMessage,
		now,
	)

	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	file.UploadedAt = now
	return nil
}

// GetByID retrieves a file by ID
func (r *FileRepository) GetByID(id string) (*models.File, error) {
	return r.getBy("id = $1", id)
}

// GetByPath retrieves a file by its storage path
func (r *FileRepository) GetByPath(path string) (*models.File, error) {
	return r.getBy("path = $1", path)
}

func (r *FileRepository) getBy(condition string, arg interface{}) (*models.File, error) {
	query := `
		SELECT id, path, owner_id, size, mime_type, checksum, visibility, status,
		       entity_kind, entity_id, error_message, uploaded_at, processed_at
		FROM files
		WHERE ` + condition

	file := &models.File{}
	err := r.db.QueryRow(query, arg).Scan(
		&file.ID,
		&file.Path,
		&file.OwnerID,
		&file.Size,
		&file.MimeType,
		&file.Checksum,
		&file.Visibility,
		&file.Status,
		&file.EntityKind,
		&file.EntityID,
		&file.ErrorMessage,
		&file.UploadedAt,
		&file.ProcessedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return file, nil
}

// FileFilters narrows List results
type FileFilters struct {
	OwnerID    uint
	Status     string
	Visibility string
	Limit      int
	Offset     int
}

// List retrieves file metadata matching the filters, newest first
func (r *FileRepository) List(filters FileFilters) ([]models.File, int, error) {
	var conditions []string
	var args []interface{}

	if filters.OwnerID != 0 {
		args = append(args, filters.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.Visibility != "" {
		args = append(args, filters.Visibility)
		conditions = append(conditions, fmt.Sprintf("visibility = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM files"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	query := `
		SELECT id, path, owner_id, size, mime_type, checksum, visibility, status,
		       entity_kind, entity_id, error_message, uploaded_at, processed_at
		FROM files` + where + `
		ORDER BY uploaded_at DESC`

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
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var file models.File
		if err := rows.Scan(
			&file.ID,
			&file.Path,
			&file.OwnerID,
			&file.Size,
			&file.MimeType,
			&file.Checksum,
			&file.Visibility,
			&file.Status,
			&file.EntityKind,
			&file.EntityID,
			&file.ErrorMessage,
			&file.UploadedAt,
			&file.ProcessedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, file)
	}

	return files, total, rows.Err()
}

// MarkScanned records a successful checksum pass
func (r *FileRepository) MarkScanned(id, checksum string, size int64) error {
	query := `
		UPDATE files
		SET status = $1, checksum = $2, size = $3, error_message = NULL, processed_at = $4
		WHERE id = $5
	`

	_, err := r.db.Exec(query, models.FileScanned, checksum, size, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark file scanned: %w", err)
	}

	return nil
}

// MarkFailed records a failed checksum pass
func (r *FileRepository) MarkFailed(id, errorMessage string) error {
	query := `
		UPDATE files
		SET status = $1, error_message = $2, processed_at = $3
		WHERE id = $4
	`

	_, err := r.db.Exec(query, models.FileFailed, errorMessage, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark file failed: %w", err)
	}

	return nil
}

// Delete removes a file metadata row
func (r *FileRepository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM files WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
