package errors

import (
	"strings"
	"unicode"
)

// maxTaskIDLength bounds task identities accepted from external input.
const maxTaskIDLength = 128

// ValidateTaskID checks that id can be used as a task identity.
//
// Identities are compared byte-wise for tie-breaking, so any printable,
// whitespace-free string is accepted:
//   - No empty identities
//   - No whitespace or control characters
//   - Maximum length of 128 bytes
func ValidateTaskID(id string) error {
	if id == "" {
		return New(ErrCodeMalformedEdge, "task identity cannot be empty")
	}
	if len(id) > maxTaskIDLength {
		return New(ErrCodeMalformedEdge, "task identity too long (max %d characters)", maxTaskIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeMalformedEdge, "task identity %q contains whitespace or control characters", id)
		}
	}
	return nil
}

// ValidateEdge checks both endpoints of a dependency and rejects self-edges.
func ValidateEdge(from, to string) error {
	if err := ValidateTaskID(from); err != nil {
		return err
	}
	if err := ValidateTaskID(to); err != nil {
		return err
	}
	if from == to {
		return New(ErrCodeMalformedEdge, "task %q cannot depend on itself", from)
	}
	return nil
}

// MaxWorkers is the largest accepted worker-pool size.
const MaxWorkers = 1 << 16

// ValidateWorkers checks a worker-pool size.
func ValidateWorkers(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidInput, "worker pool size must be at least 1, got %d", n)
	}
	if n > MaxWorkers {
		return New(ErrCodeInvalidInput, "worker pool size cannot exceed %d, got %d", MaxWorkers, n)
	}
	return nil
}

// ValidatePath validates a user-supplied file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.TrimSpace(path) != path {
		return New(ErrCodeInvalidPath, "path has leading or trailing whitespace")
	}

	return nil
}
