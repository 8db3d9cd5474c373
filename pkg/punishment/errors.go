package punishment

import (
	"errors"
	"fmt"
)

// ValidationKind names the input that failed validation.
type ValidationKind string

const (
	InvalidDuration  ValidationKind = "invalid_duration"
	InvalidType      ValidationKind = "invalid_type"
	MissingMutedRole ValidationKind = "missing_muted_role"
)

// ValidationError is returned for bad caller input. It is never a system fault.
type ValidationError struct {
	Kind  ValidationKind
	Input string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case InvalidDuration:
		return fmt.Sprintf("invalid duration %q", e.Input)
	case InvalidType:
		return fmt.Sprintf("invalid punishment type %q", e.Input)
	case MissingMutedRole:
		return "no muted role configured for this guild"
	default:
		return fmt.Sprintf("validation failed: %s", e.Input)
	}
}

var (
	// ErrNotFound means no punishment matches the id in the guild.
	ErrNotFound = errors.New("punishment not found")
	// ErrNotActive means the punishment was already removed or never active.
	ErrNotActive = errors.New("punishment is not active")
	// ErrPolicyNotFound means EnsureExists was never called for the guild.
	ErrPolicyNotFound = errors.New("punishment policy not found")
)

// EnforcementError wraps a failed live-platform mutation.
type EnforcementError struct {
	Op  string
	Err error
}

func (e *EnforcementError) Error() string {
	return fmt.Sprintf("enforcement %s failed: %v", e.Op, e.Err)
}

func (e *EnforcementError) Unwrap() error { return e.Err }

// StorageError wraps a repository failure. The engine never retries it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError of the given kind.
// An empty kind matches any ValidationError.
func IsValidation(err error, kind ValidationKind) bool {
	var v *ValidationError
	if !errors.As(err, &v) {
		return false
	}
	return kind == "" || v.Kind == kind
}
