// Package domain contains the context mapping and the errors raised while
// resolving it. Domain errors are infrastructure-agnostic; adapters map them
// to HTTP responses or log records.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates a context path that does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates an invalid path or value.
	ErrValidation = errors.New("validation failed")

	// ErrProviderFailed indicates a provider aborted a resolution pass.
	ErrProviderFailed = errors.New("context provider failed")

	// ErrUnknownProvider indicates a configured provider name has no implementation.
	ErrUnknownProvider = errors.New("unknown context provider")

	// ErrUnknownChannel indicates a configured channel name has no implementation.
	ErrUnknownChannel = errors.New("unknown context channel")

	// ErrUnavailable indicates a required dependency is unavailable.
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError provides context for a path that did not resolve.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ProviderError records which provider aborted a resolution pass.
// It matches both ErrProviderFailed and the provider's own error.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("context provider %q failed: %v", e.Provider, e.Err)
}

// Unwrap exposes the sentinel and the cause.
func (e *ProviderError) Unwrap() []error {
	return []error{ErrProviderFailed, e.Err}
}

// NewProviderError wraps err as a failure of the named provider.
func NewProviderError(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}

// UnknownComponentError is returned when configuration names a provider or
// channel that was never registered.
type UnknownComponentError struct {
	Kind string // "provider" or "channel"
	Name string
}

// Error implements the error interface.
func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("unknown context %s %q", e.Kind, e.Name)
}

// Unwrap returns the sentinel matching Kind.
func (e *UnknownComponentError) Unwrap() error {
	if e.Kind == "channel" {
		return ErrUnknownChannel
	}

	return ErrUnknownProvider
}

// NewUnknownProviderError creates an unknown provider error.
func NewUnknownProviderError(name string) error {
	return &UnknownComponentError{Kind: "provider", Name: name}
}

// NewUnknownChannelError creates an unknown channel error.
func NewUnknownChannelError(name string) error {
	return &UnknownComponentError{Kind: "channel", Name: name}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsProviderFailure checks if an error came from a failing provider.
func IsProviderFailure(err error) bool {
	return errors.Is(err, ErrProviderFailed)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
