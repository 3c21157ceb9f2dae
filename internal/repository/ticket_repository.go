package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meritboard/internal/models"
)

var ErrTicketNotFound = errors.New("student review ticket not found")

// TicketRepository handles student review ticket database operations
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create creates a new student review ticket
func (r *TicketRepository) Create(ticket *models.StudentReviewTicket) error {
	query := `
		INSERT INTO student_review_tickets (id, student_name, student_id, college, major,
		                                    review_stage, status, review_notes, review_trail,
		                                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		ticket.ID,
		ticket.StudentName,
		ticket.StudentID,
		ticket.College,
		ticket.Major,
		ticket.ReviewStage,
		ticket.Status,
		ticket.ReviewNotes,
		ticket.ReviewTrail,
		now,
	)

	if err != nil {
		return fmt.Errorf("failed to create student review ticket: %w", err)
	}

	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	return nil
}

// GetByID retrieves a student review ticket by ID
func (r *TicketRepository) GetByID(id string) (*models.StudentReviewTicket, error) {
	query := `
		SELECT id, student_name, student_id, college, major, review_stage, status,
		       review_notes, review_trail, created_at, updated_at
		FROM student_review_tickets
		WHERE id = $1
	`

	ticket := &models.StudentReviewTicket{}
	err := r.db.QueryRow(query, id).Scan(
		&ticket.ID,
		&ticket.StudentName,
		&ticket.StudentID,
		&ticket.College,
		&ticket.Major,
		&ticket.ReviewStage,
		&ticket.Status,
		&ticket.ReviewNotes,
		&ticket.ReviewTrail,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student review ticket: %w", err)
	}

	return ticket, nil
}

// TicketFilters narrows List results
type TicketFilters struct {
	Status    string
	Stage     string
	StudentID string
	College   string
	Limit     int
	Offset    int
}

// List retrieves student review tickets matching the filters, newest first,
// and the total match count
func (r *TicketRepository) List(filters TicketFilters) ([]models.StudentReviewTicket, int, error) {
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
	if filters.StudentID != "" {
		args = append(args, filters.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filters.College != "" {
		args = append(args, filters.College)
		conditions = append(conditions, fmt.Sprintf("college = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM student_review_tickets"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count student review tickets: %w", err)
	}

	query := `
		SELECT id, student_name, student_id, college, major, review_stage, status,
		       review_notes, review_trail, created_at, updated_at
		FROM student_review_tickets` + where + `
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
		return nil, 0, fmt.Errorf("failed to list student review tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.StudentReviewTicket
	for rows.Next() {
		var ticket models.StudentReviewTicket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.StudentName,
			&ticket.StudentID,
			&ticket.College,
			&ticket.Major,
			&ticket.ReviewStage,
			&ticket.Status,
			&ticket.ReviewNotes,
			&ticket.ReviewTrail,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan student review ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, total, rows.Err()
}

// Update updates a student review ticket including its review state
func (r *TicketRepository) Update(ticket *models.StudentReviewTicket) error {
	query := `
		UPDATE student_review_tickets
		SET student_name = $1, college = $2, major = $3, review_stage = $4, status = $5,
		    review_notes = $6, review_trail = $7, updated_at = $8
		WHERE id = $9
	`

	ticket.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		query,
		ticket.StudentName,
		ticket.College,
		ticket.Major,
		ticket.ReviewStage,
		ticket.Status,
		ticket.ReviewNotes,
		ticket.ReviewTrail,
		ticket.UpdatedAt,
		ticket.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update student review ticket: %w", err)
	}

	return nil
}

// Delete removes a student review ticket
func (r *TicketRepository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM student_review_tickets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete student review ticket: %w", err)
	}
	return nil
}
