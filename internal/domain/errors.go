package domain

import "fmt"

// Error types for consistent error handling across the service.
// Data problems inside CSV payloads are never errors; they are coerced to
// safe defaults by the parsing and normalization layers.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrRemote indicates the merge service answered with an error payload.
type ErrRemote struct {
	Status  int
	Message string
}

func (e *ErrRemote) Error() string {
	return fmt.Sprintf("merge service rejected request (status %d): %s", e.Status, e.Message)
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates missing or rejected credentials.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrNoDataset indicates an operation that needs a loaded dataset was called
// on an idle dashboard.
type ErrNoDataset struct {
	WorkspaceID string
}

func (e *ErrNoDataset) Error() string {
	return fmt.Sprintf("workspace %s has no dataset loaded", e.WorkspaceID)
}
