package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"meritboard/internal/models"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentExists   = errors.New("student already exists")
)

// StudentRepository handles student database operations
type StudentRepository struct {
	db *sql.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create creates a new student
func (r *StudentRepository) Create(student *models.Student) error {
	query := `
		INSERT INTO students (username, student_id, email, password_hash, role, total_score, ranking, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		student.Username,
		student.StudentID,
		student.Email,
		student.PasswordHash,
		student.Role,
		student.TotalScore,
		student.Ranking,
		student.IsActive,
		now,
		now,
	).Scan(&student.ID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrStudentExists
	}
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	student.CreatedAt = now
	student.UpdatedAt = now
	return nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(id uint) (*models.Student, error) {
	return r.getBy("id = $1", id)
}

// GetByUsername retrieves a student by username
func (r *StudentRepository) GetByUsername(username string) (*models.Student, error) {
	return r.getBy("username = $1", username)
}

// GetByStudentID retrieves a student by institutional student number
func (r *StudentRepository) GetByStudentID(studentID string) (*models.Student, error) {
	return r.getBy("student_id = $1", studentID)
}

func (r *StudentRepository) getBy(condition string, arg interface{}) (*models.Student, error) {
	query := `
		SELECT id, username, student_id, email, password_hash, role, total_score, ranking, is_active, created_at, updated_at
		FROM students
		WHERE ` + condition

	student := &models.Student{}
	err := r.db.QueryRow(query, arg).Scan(
		&student.ID,
		&student.Username,
		&student.StudentID,
		&student.Email,
		&student.PasswordHash,
		&student.Role,
		&student.TotalScore,
		&student.Ranking,
		&student.IsActive,
		&student.CreatedAt,
		&student.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	return student, nil
}

// StudentFilters narrows List results
type StudentFilters struct {
	Role   string
	Search string
	Limit  int
	Offset int
}

// List retrieves students matching the filters, ordered by ranking, and the
// total match count
func (r *StudentRepository) List(filters StudentFilters) ([]models.Student, int, error) {
	var conditions []string
	var args []interface{}

	if filters.Role != "" {
		args = append(args, filters.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(username ILIKE $%d OR student_id ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM students"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count students: %w", err)
	}

	query := `
		SELECT id, username, student_id, email, password_hash, role, total_score, ranking, is_active, created_at, updated_at
		FROM students` + where + `
		ORDER BY ranking ASC, id ASC`

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
		return nil, 0, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var student models.Student
		if err := rows.Scan(
			&student.ID,
			&student.Username,
			&student.StudentID,
			&student.Email,
			&student.PasswordHash,
			&student.Role,
			&student.TotalScore,
			&student.Ranking,
			&student.IsActive,
			&student.CreatedAt,
			&student.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, student)
	}

	return students, total, rows.Err()
}

// Update updates a student's mutable profile fields
func (r *StudentRepository) Update(student *models.Student) error {
	query := `
		UPDATE students
		SET username = $1, student_id = $2, email = $3, role = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`

	student.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		query,
		student.Username,
		student.StudentID,
		student.Email,
		student.Role,
		student.IsActive,
		student.UpdatedAt,
		student.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}

	return nil
}

// UpdatePassword updates a student's password hash
func (r *StudentRepository) UpdatePassword(studentID uint, passwordHash string) error {
	query := `
		UPDATE students
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(query, passwordHash, time.Now(), studentID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// SetActive toggles a student's active flag
func (r *StudentRepository) SetActive(studentID uint, active bool) error {
	query := `
		UPDATE students
		SET is_active = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(query, active, time.Now(), studentID)
	if err != nil {
		return fmt.Errorf("failed to set student active flag: %w", err)
	}

	return nil
}
