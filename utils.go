package zipstream

import (
	"errors"
	"fmt"
)

// MaxArchiveIDLength bounds archive identifiers to a single path element.
const MaxArchiveIDLength = 255

// IsValidArchiveID validates that an identifier can safely name a directory
// directly below the archive root. It checks that the identifier:
//   - is not empty, "." or ".."
//   - is at most MaxArchiveIDLength bytes
//   - does not start with "-" (it would be read as a tool option)
//   - contains only ASCII letters, digits, '.', '_' and '-'
//
// The allow-list excludes path separators, whitespace, control characters,
// shell metacharacters and non-ASCII input.
func IsValidArchiveID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}

	if len(id) > MaxArchiveIDLength {
		return false
	}

	if id[0] == '-' {
		return false
	}

	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return false
		}
	}

	return true
}

// ValidateArchiveID returns ErrInvalidInput wrapped with the offending id.
func ValidateArchiveID(id string) error {
	if !IsValidArchiveID(id) {
		return fmt.Errorf("validate archive id %q: %w", id, ErrInvalidInput)
	}
	return nil
}

// classifyOutcome maps a stream or release error to a job outcome.
func classifyOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeCompleted
	case errors.Is(err, ErrPeerDisconnected):
		return OutcomeDisconnected
	case errors.Is(err, ErrCanceled):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}
