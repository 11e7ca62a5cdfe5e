package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrEmptyURL is returned when a task is created without a source URL.
	ErrEmptyURL = errors.New("task URL cannot be empty")

	// ErrInvalidFormat is returned when a download format is not one of the
	// supported values.
	ErrInvalidFormat = errors.New("invalid download format")

	// ErrInvalidStatus is returned when a task status is not valid.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidTaskID is returned when a task ID is malformed.
	ErrInvalidTaskID = errors.New("invalid task ID")

	// ErrInvalidTaskState is returned when an operation is requested on a
	// task whose current status does not permit it (e.g. retrying a task
	// that has not failed, or cancelling one that is no longer queued).
	ErrInvalidTaskState = errors.New("invalid task state for operation")
)
