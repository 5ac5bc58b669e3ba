package vm

import (
	"errors"
	"fmt"
)

// Compile errors
var (
	// ErrInvalidLookBehind indicates a look-behind body without a fixed
	// character length.
	ErrInvalidLookBehind = errors.New("invalid pattern in look-behind")

	// ErrUndefinedGroup indicates a backreference or call to a group the
	// pattern does not define.
	ErrUndefinedGroup = errors.New("reference to undefined group")

	// ErrInvalidBackref indicates a backreference without a usable group
	// number.
	ErrInvalidBackref = errors.New("invalid backref number")

	// ErrNeverEndingRecursion indicates a subexpression call that recurses
	// without consuming input.
	ErrNeverEndingRecursion = errors.New("never ending recursion")

	// ErrTooComplex indicates the pattern nests deeper than the compiler's
	// recursion limit.
	ErrTooComplex = errors.New("pattern too complex")
)

// Match errors
var (
	// ErrMatchStackLimit indicates the backtracking stack outgrew the
	// configured limit.
	ErrMatchStackLimit = errors.New("match stack limit exceeded")
)

// CompileError wraps a pattern-level compilation error with the kind of
// node that triggered it.
type CompileError struct {
	Node string
	Err  error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("regexp: compile %s: %v", e.Node, e.Err)
	}
	return fmt.Sprintf("regexp: compile: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// InternalError reports a broken invariant inside the compiler or the
// matcher: an unknown node, a corrupted stack, an instruction where none
// can be. It is never the result of bad input and must not be retried.
type InternalError struct {
	Where   string
	Message string
}

// Error implements the error interface
func (e *InternalError) Error() string {
	return fmt.Sprintf("regexp: internal error in %s: %s", e.Where, e.Message)
}

func internalf(where, format string, args ...any) *InternalError {
	return &InternalError{Where: where, Message: fmt.Sprintf(format, args...)}
}
