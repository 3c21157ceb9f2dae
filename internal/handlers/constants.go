package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgInvalidID          = "Invalid id"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgStudentNotFound    = "Student not found"
)

// API path constants
const (
	APIBasePath = "/api/v1"
)
