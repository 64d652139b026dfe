package apperrors

import (
	"errors"
	"sort"
	"strings"
)

// Generic
var (
	ErrInvalidInput = errors.New("invalid input provided")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// Supervisor auth
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
)

// Donation workflow
var (
	ErrInvalidTransition    = errors.New("donation status does not allow this action")
	ErrInvalidPaymentMethod = errors.New("payment method does not support this action")
	ErrPaymentFailed        = errors.New("payment was declined by the gateway")
)

// ValidationErrors maps a field name to a human readable message.
// An empty map means the payload is valid.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field unless one is already present.
func (v ValidationErrors) Add(field, message string) {
	if _, exists := v[field]; !exists {
		v[field] = message
	}
}

// Empty reports whether no rule was violated.
func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

// Err returns v as an error, or nil when it holds no violations.
func (v ValidationErrors) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}
