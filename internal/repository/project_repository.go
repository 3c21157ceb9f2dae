package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meritboard/internal/models"
)

var ErrProjectNotFound = errors.New("project not found")

// ProjectRepository handles teacher project database operations
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	p.id, p.title, p.description, p.points, p.deadline, p.slots, p.status, p.teacher_id,
	p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM project_selections s WHERE s.project_id = p.id AND s.status = 'active')
`

// Create creates a new teacher project
func (r *ProjectRepository) Create(project *models.TeacherProject) error {
	query := `
		INSERT INTO teacher_projects (id, title, description, points, deadline, slots, status, teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		project.ID,
		project.Title,
		project.Description,
		project.Points,
		project.Deadline,
		project.Slots,
		project.Status,
		project.TeacherID,
		now,
	)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

// GetByID retrieves a project by ID, including its active selection count
func (r *ProjectRepository) GetByID(id string) (*models.TeacherProject, error) {
	query := `SELECT ` + projectColumns + ` FROM teacher_projects p WHERE p.id = $1`

	project := &models.TeacherProject{}
	err := r.db.QueryRow(query, id).Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.Points,
		&project.Deadline,
		&project.Slots,
		&project.Status,
		&project.TeacherID,
		&project.CreatedAt,
		&project.UpdatedAt,
		&project.SelectedCount,
	)

	if err == sql.ErrNoRows {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// ProjectFilters narrows List results
type ProjectFilters struct {
	Status    string
	TeacherID uint
	Limit     int
	Offset    int
}

// List retrieves projects matching the filters, newest first
func (r *ProjectRepository) List(filters ProjectFilters) ([]models.TeacherProject, int, error) {
	var conditions []string
	var args []interface{}

	if filters.Status != "" {
		args = append(args, filters.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if filters.TeacherID != 0 {
		args = append(args, filters.TeacherID)
		conditions = append(conditions, fmt.Sprintf("p.teacher_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM teacher_projects p"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	query := `SELECT ` + projectColumns + ` FROM teacher_projects p` + where + ` ORDER BY p.created_at DESC`

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
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.TeacherProject
	for rows.Next() {
		var project models.TeacherProject
		if err := rows.Scan(
			&project.ID,
			&project.Title,
			&project.Description,
			&project.Points,
			&project.Deadline,
			&project.Slots,
			&project.Status,
			&project.TeacherID,
			&project.CreatedAt,
			&project.UpdatedAt,
			&project.SelectedCount,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, total, rows.Err()
}

// Update updates a project's mutable fields
func (r *ProjectRepository) Update(project *models.TeacherProject) error {
	query := `
		UPDATE teacher_projects
		SET title = $1, description = $2, points = $3, deadline = $4, slots = $5, status = $6, updated_at = $7
		WHERE id = $8
	`

	project.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		query,
		project.Title,
		project.Description,
		project.Points,
		project.Deadline,
		project.Slots,
		project.Status,
		project.UpdatedAt,
		project.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// Delete removes a project
func (r *ProjectRepository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM teacher_projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
