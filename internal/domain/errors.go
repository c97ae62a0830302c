// Package domain defines core types, interfaces, and errors for the AuditDNA platform.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotImplementedError indicates a capability was invoked on an engine whose
// descriptor does not declare it. This is a configuration bug, not a client error.
type NotImplementedError struct {
	Engine     string
	Capability string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("capability %q is not implemented by engine %q", e.Capability, e.Engine)
}

// TenantResolutionError indicates a missing or unresolvable tenant identity.
type TenantResolutionError struct {
	Message string
	// Missing is true when no tenant hint was present at all (400),
	// false when a hint resolved to no active tenant (404).
	Missing bool
}

func (e *TenantResolutionError) Error() string { return e.Message }

// StorageError indicates a persistence or remote-store failure.
type StorageError struct {
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotImplemented creates a NotImplementedError for an engine capability.
func ErrNotImplemented(engine, capability string) *NotImplementedError {
	return &NotImplementedError{Engine: engine, Capability: capability}
}

// ErrTenantRequired creates a TenantResolutionError for a request with no tenant hint.
func ErrTenantRequired() *TenantResolutionError {
	return &TenantResolutionError{Message: "tenant identification required", Missing: true}
}

// ErrTenantNotFound creates a TenantResolutionError for an unknown or inactive tenant.
// The message deliberately does not reveal whether the tenant ever existed.
func ErrTenantNotFound() *TenantResolutionError {
	return &TenantResolutionError{Message: "tenant not found or inactive"}
}

// ErrStorage wraps a persistence failure.
func ErrStorage(err error, format string, args ...interface{}) *StorageError {
	return &StorageError{Message: fmt.Sprintf(format, args...), Err: err}
}
