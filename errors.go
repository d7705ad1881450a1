/*
Package mapper – error types.
*/
package mapper

import "fmt"

// ErrorCode is a well-known error category string.
type ErrorCode string

const (
	// ErrArgument marks configuration mistakes: invalid schemas, misplaced
	// conditions, bad parameters. Always a caller bug.
	ErrArgument ErrorCode = "ArgumentError"
	// ErrType marks a conversion failure between a Go value and its wire tag.
	ErrType ErrorCode = "TypeError"
	// ErrResponse marks a malformed reply from the store.
	ErrResponse ErrorCode = "ResponseError"
	// ErrRuntime marks internal failures that fit no other category.
	ErrRuntime ErrorCode = "RuntimeError"
)

// MapperError is the general runtime error. It carries an optional Code and a
// free-form Context map for extra debugging data.
type MapperError struct {
	Message string
	Code    ErrorCode
	Context map[string]any
	Cause   error
}

func (e *MapperError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *MapperError) Unwrap() error { return e.Cause }

// NewError constructs a MapperError.
func NewError(msg string, opts ...func(*MapperError)) *MapperError {
	err := &MapperError{Message: msg}
	for _, o := range opts {
		o(err)
	}
	return err
}

// WithCode sets the error code.
func WithCode(c ErrorCode) func(*MapperError) {
	return func(e *MapperError) { e.Code = c }
}

// WithContext attaches a context map.
func WithContext(ctx map[string]any) func(*MapperError) {
	return func(e *MapperError) { e.Context = ctx }
}

// WithCause wraps an underlying error.
func WithCause(cause error) func(*MapperError) {
	return func(e *MapperError) { e.Cause = cause }
}

// MapperArgError is for invalid argument / configuration errors.
type MapperArgError struct {
	Message string
	Code    ErrorCode
	Context map[string]any
}

func (e *MapperArgError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

// NewArgError constructs a MapperArgError.
func NewArgError(msg string, code ...ErrorCode) *MapperArgError {
	c := ErrArgument
	if len(code) > 0 {
		c = code[0]
	}
	return &MapperArgError{Message: msg, Code: c}
}
