package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCodeSpaceExhausted is returned when no unused code was found after maxCodeAttempts draws
	ErrCodeSpaceExhausted = errors.New("could not generate a unique code")
)
