package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the user can react to it.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindTransient   Kind = "transient"
	KindEnvironment Kind = "environment"
)

// Error is a failure surfaced at the interaction boundary, with a message and
// remedy meant for the end user.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Remedy  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code, message string) error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Remedy: "correct the highlighted field and try again"}
}

func NotFound(code, message string) error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Transient(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindTransient, Code: code, Message: message, Remedy: "try again in a moment", Err: err}
}

func Environment(err error, code, message, remedy string) error {
	return &Error{Kind: KindEnvironment, Code: code, Message: message, Remedy: remedy, Err: err}
}

// From returns the first *Error in err's chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if e, ok := From(err); ok {
		return e.Kind
	}
	return ""
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
