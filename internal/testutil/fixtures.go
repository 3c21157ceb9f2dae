package testutil

import (
	"database/sql"
	"testing"

	"meritboard/internal/models"
)

// CreateStudent inserts an account directly, bypassing registration
func CreateStudent(t *testing.T, db *sql.DB, username, studentID, role string) *models.Student {
	t.Helper()

	student := &models.Student{
		Username:  username,
		StudentID: studentID,
		Role:      role,
		IsActive:  true,
	}
	err := db.QueryRow(`
		INSERT INTO students (username, student_id, password_hash, role, is_active)
		VALUES ($1, $2, 'x', $3, true)
		RETURNING id, created_at, updated_at
	`, username, studentID, role).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create student %s: %v", username, err)
	}

	return student
}
