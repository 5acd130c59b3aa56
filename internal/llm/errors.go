package llm

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure
type Kind string

const (
	KindTransport Kind = "transport"
	KindMalformed Kind = "malformed"
	KindEmpty     Kind = "empty"
)

var (
	ErrTransport     = errors.New("failed to reach the generation model")
	ErrMalformed     = errors.New("generation model returned a malformed plan")
	ErrEmptyResponse = errors.New("generation model returned an empty response")
)

// Error is the failure returned by every Generator. It matches the sentinel
// of its Kind with errors.Is.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindMalformed:
		return ErrMalformed
	case KindEmpty:
		return ErrEmptyResponse
	default:
		return ErrTransport
	}
}

func transportError(err error) error {
	return &Error{Kind: KindTransport, Err: err}
}

func malformedError(err error) error {
	return &Error{Kind: KindMalformed, Err: err}
}
