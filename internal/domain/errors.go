package domain

import (
	"errors"
	"strings"
)

type ErrorKind string

const (
	// KindValidation errors never reach the network.
	KindValidation ErrorKind = "validation"

	// KindTransient covers transport failures and 5xx responses; the caller may retry.
	KindTransient ErrorKind = "transient"

	// KindRejected is a definitive 4xx answer from a backend.
	KindRejected ErrorKind = "rejected"

	// KindDomainState is an action attempted from the wrong booking or wizard state.
	KindDomainState ErrorKind = "domain_state"

	// KindPollTransport stops a poller; resuming needs an operator action.
	KindPollTransport ErrorKind = "poll_transport"

	KindTimedOut ErrorKind = "timed_out"
	KindNotFound ErrorKind = "not_found"
)

// Error is the error type every wizard operation returns.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(op, message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Fields: fields}
}

func NewTransientError(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Message: "backend unavailable", Err: err}
}

func NewRejectedError(op, message string, err error) *Error {
	return &Error{Kind: KindRejected, Op: op, Message: message, Err: err}
}

func NewDomainStateError(op, message string) *Error {
	return &Error{Kind: KindDomainState, Op: op, Message: message}
}

func NewPollTransportError(op string, err error) *Error {
	return &Error{Kind: KindPollTransport, Op: op, Message: "status check failed", Err: err}
}

func NewTimedOutError(op, message string) *Error {
	return &Error{Kind: KindTimedOut, Op: op, Message: message}
}

func NewNotFoundError(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// FieldsOf returns per-field validation messages, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
