package audiograph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNodeNotFound is returned when an instruction references a missing node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrUnknownNodeType is returned when no factory is registered for a kind.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrDuplicateNodeType is returned when a kind is registered twice.
	ErrDuplicateNodeType = errors.New("node type already registered")
	// ErrCommitBacklog is returned when the render plane has not adopted
	// previously committed graphs and the commit queue is full.
	ErrCommitBacklog = errors.New("render plane has not adopted pending graphs")
)

// InvariantError is returned for malformed instructions, property shape
// mismatches, cycles and missing resources. It is always surfaced on the
// control plane and never corrupts committed graph state.
type InvariantError struct {
	Reason string
	Err    error
}

func (e *InvariantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invariant violation: %v: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invariant violation: %v", e.Reason)
}

// Unwrap exposes the underlying cause, so callers can distinguish a decode
// mismatch (value.BadVariantError) from other malformed input.
func (e *InvariantError) Unwrap() error {
	return e.Err
}

func invariantf(format string, args ...interface{}) error {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}

func invariantWrap(err error, format string, args ...interface{}) error {
	return &InvariantError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// PropertyError reports a single failed property assignment within a batch.
type PropertyError struct {
	Node NodeID
	Key  string
	Err  error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("set property %q on node %v: %v", e.Key, e.Node, e.Err)
}

func (e *PropertyError) Unwrap() error {
	return e.Err
}

// batchErrors wraps property failures that were skipped while the rest of
// the batch still applied.
type batchErrors []error

func (e batchErrors) Error() string {
	s := make([]string, 0, len(e))
	for _, be := range e {
		s = append(s, be.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of the collected errors match the provided sentinel error.
func (e batchErrors) Is(err error) bool {
	for _, be := range e {
		if errors.Is(be, err) {
			return true
		}
	}
	return false
}

// As checks if any of the collected errors match the provided target.
func (e batchErrors) As(target interface{}) bool {
	for _, be := range e {
		if errors.As(be, target) {
			return true
		}
	}
	return false
}

// ret returns untyped nil if the error list is empty.
func (e batchErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
