package executor

import (
	"errors"
	"fmt"

	"github.com/wumbohq/wumbo/language"
	"github.com/wumbohq/wumbo/wire"
)

// Kind classifies template errors into the framework taxonomy. Construction
// surfaces ValidationError and RuntimeUnavailableError; execution surfaces
// the other three.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindRuntimeUnavailable Kind = "RuntimeUnavailableError"
	KindExecution          Kind = "ExecutionError"
	KindTimeout            Kind = "TimeoutError"
	KindProtocol           Kind = "ProtocolError"
)

// Error is the single error type templates produce. Name carries the foreign
// error class when the template reported one itself.
type Error struct {
	Kind    Kind
	Name    string
	Message string
	Stack   string
	err     error
}

func (e *Error) Error() string {
	if e.Name != "" && e.Name != string(e.Kind) {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// wrapConstruction classifies an error raised while building a template.
func wrapConstruction(err error) *Error {
	var ue *language.UnavailableError
	if errors.As(err, &ue) {
		return &Error{Kind: KindRuntimeUnavailable, Message: err.Error(), err: err}
	}
	var ve *language.ValidationError
	if errors.As(err, &ve) {
		return &Error{Kind: KindValidation, Message: ve.Detail, err: err}
	}
	return &Error{Kind: KindValidation, Message: err.Error(), err: err}
}

// fromFailure classifies a wire failure reported by a finished execution.
func fromFailure(f *wire.Failure) *Error {
	e := &Error{Name: f.Name, Message: f.Message, Stack: f.Stack}
	switch f.Name {
	case language.FailTimeout:
		e.Kind = KindTimeout
	case language.FailProtocol:
		e.Kind = KindProtocol
	default:
		e.Kind = KindExecution
	}
	return e
}
