package services

import (
	"errors"
)

// Kind classifies engine failures. The HTTP layer maps kinds to status codes.
type Kind string

const (
	KindNotFound      Kind = "NOT_FOUND"
	KindForbidden     Kind = "FORBIDDEN"
	KindDuplicate     Kind = "DUPLICATE_REQUEST"
	KindIllegalState  Kind = "ILLEGAL_STATE"
	KindUnprocessable Kind = "UNPROCESSABLE_ENTITY"
	KindInvalid       Kind = "INVALID"
	KindBadRequest    Kind = "BAD_REQUEST"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindInternal      Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error      { return newError(KindNotFound, message) }
func Forbidden(message string) *Error     { return newError(KindForbidden, message) }
func BadRequest(message string) *Error    { return newError(KindBadRequest, message) }
func Unauthorized(message string) *Error  { return newError(KindUnauthorized, message) }
func Invalid(message string) *Error       { return newError(KindInvalid, message) }
func IllegalState(message string) *Error  { return newError(KindIllegalState, message) }
func Unprocessable(message string) *Error { return newError(KindUnprocessable, message) }

// KindOf returns the kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
