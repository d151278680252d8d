// Package errors defines the error taxonomy shared by the foundry engine.
//
// Every failure surfaced to the CLI is one of three kinds: a configuration
// error (bad composition, unmergeable packages, malformed key values), an I/O
// error (reading or writing generated files), or an external tool error (the
// go command failed). Phase failures wrap one of those and carry the name of
// the node that failed.
package errors

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindIO
	KindExternalTool
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	case KindExternalTool:
		return "external_tool"
	default:
		return "unknown"
	}
}

// Error codes. CFG1xx are configuration errors, IO2xx are file errors and
// EXT3xx are failures of external tools.
const (
	CodeConfig         = "CFG100"
	CodeTypeMismatch   = "CFG101"
	CodeConstraint     = "CFG102"
	CodePinConflict    = "CFG103"
	CodeMalformedValue = "CFG104"
	CodeUnknownKey     = "CFG105"
	CodeDuplicateKey   = "CFG106"
	CodeCodegen        = "CFG107"
	CodePhaseOrder     = "CFG108"

	CodeIO = "IO200"

	CodeExternalTool = "EXT300"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrConfig       = &Error{Kind: KindConfig}
	ErrIO           = &Error{Kind: KindIO}
	ErrExternalTool = &Error{Kind: KindExternalTool}
)

// Error is a classified foundry error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Detail holds extra diagnostic text, e.g. captured stderr of a command.
	Detail string
	Err    error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		fmt.Fprintf(&b, "[%s] ", e.Code)
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		if e.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches targets of the same kind. A target with a code only matches
// errors carrying that code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Config creates a configuration error.
func Config(code, format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapConfig creates a configuration error wrapping err.
func WrapConfig(code string, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfig,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IO creates an I/O error for operation op on path.
func IO(op, path string, err error) *Error {
	return &Error{
		Kind:    KindIO,
		Code:    CodeIO,
		Message: fmt.Sprintf("%s %s", op, path),
		Err:     err,
	}
}

// ExternalTool creates an error for a failed external command.
func ExternalTool(command string, stderr string, err error) *Error {
	return &Error{
		Kind:    KindExternalTool,
		Code:    CodeExternalTool,
		Message: fmt.Sprintf("%s failed", command),
		Detail:  strings.TrimSpace(stderr),
		Err:     err,
	}
}

// PhaseError reports the node a configure or build phase stopped at.
type PhaseError struct {
	Phase string
	Node  string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed in %q: %v", e.Phase, e.Node, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// CleanError collects every failure of a best-effort clean.
type CleanError struct {
	Err error
}

// NewCleanError combines errs, returning nil when all of them are nil.
func NewCleanError(errs ...error) error {
	combined := multierr.Combine(errs...)
	if combined == nil {
		return nil
	}
	return &CleanError{Err: combined}
}

func (e *CleanError) Error() string {
	errs := e.Errors()
	if len(errs) == 1 {
		return "clean failed: " + errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("clean failed with %d errors: %s", len(errs), strings.Join(msgs, "; "))
}

// Errors returns the individual failures.
func (e *CleanError) Errors() []error {
	return multierr.Errors(e.Err)
}

func (e *CleanError) Unwrap() []error {
	return e.Errors()
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				if k := KindOf(inner); k != KindUnknown {
					return k
				}
			}
			return KindUnknown
		default:
			return KindUnknown
		}
	}
	return KindUnknown
}
