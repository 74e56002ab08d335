package relational

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructure is matched by every structural violation: re-parenting an
	// already parented node, or a child provider returning invalid children.
	ErrStructure = errors.New("relational: structural violation")

	// ErrNotFound is matched by errors returned from assert queries.
	ErrNotFound = errors.New("relational: not found")
)

// StructureError reports a mutation or child provider output that would break
// the single-parent invariant. The offending mutation is never applied.
type StructureError struct {
	Key    string // Child key involved in the violation
	Reason string // Human-readable description
}

func newStructureError(key string, format string, args ...any) *StructureError {
	return &StructureError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *StructureError) Error() string {
	return e.Reason
}

// Unwrap lets errors.Is match ErrStructure.
func (e *StructureError) Unwrap() error {
	return ErrStructure
}

// NotFoundError is returned by assert queries that found no match.
type NotFoundError struct {
	Path        string // Slash-joined path of the query source
	Description string // e.g. "find Mom in children"
	Message     string // Caller supplied override, replaces the generated text
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(fmt.Sprintf("%s could not %s", e.Path, e.Description))
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
