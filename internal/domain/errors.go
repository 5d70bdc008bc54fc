package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification. Every pipeline failure matches
// exactly one of them via errors.Is.
var (
	ErrDecode     = errors.New("decode error")
	ErrValidation = errors.New("validation error")
	ErrConversion = errors.New("conversion error")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindDecode     ErrorKind = "decode"
	KindValidation ErrorKind = "validation"
	KindConversion ErrorKind = "conversion"
)

// Error wraps an underlying error with operation context and a kind.
type Error struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: source file path
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return sentinel(e.Kind) == target
}

func sentinel(kind ErrorKind) error {
	switch kind {
	case KindDecode:
		return ErrDecode
	case KindValidation:
		return ErrValidation
	case KindConversion:
		return ErrConversion
	}
	return nil
}

// IsKind helps callers classify errors without depending on infra packages.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// DecodeError reports an unreadable or unsupported image.
func DecodeError(op, path string, err error) error {
	return &Error{Op: op, Kind: KindDecode, Path: path, Err: err}
}

// ValidationError reports a bad parameter value.
func ValidationError(op string, format string, args ...any) error {
	return &Error{Op: op, Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// ConversionError reports a failure inside the converter.
func ConversionError(op string, err error) error {
	return &Error{Op: op, Kind: KindConversion, Err: err}
}
