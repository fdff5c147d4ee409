package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks lookups for vehicles or notifications that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition marks stage changes the lifecycle graph forbids.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrValidation marks malformed input to a public entry point.
	ErrValidation = errors.New("validation error")
	// ErrUnavailable marks collaborator timeouts and connection failures.
	ErrUnavailable = errors.New("collaborator unavailable")
	// ErrTimeout marks bounded-timeout expirations on collaborator calls.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether an error should be retried on a later cycle
// rather than surfaced as a caller mistake.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
