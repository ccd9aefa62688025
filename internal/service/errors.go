package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUserContextRequired is returned when user context is not available
	ErrUserContextRequired = errors.New("user context required")

	// ErrRoomConflict is returned when a defense slot overlaps another in the same room
	ErrRoomConflict = errors.New("room already booked for this slot")

	// ErrPromotionArchived is returned when modifying an archived promotion
	ErrPromotionArchived = errors.New("promotion is archived")

	// ErrSISUnavailable is returned when a roster import is requested without a SIS connection
	ErrSISUnavailable = errors.New("student information system not available")
)
