// Package apperr is the typed error used across services. A Kind decides
// the HTTP status, a Code is the stable identifier clients switch on.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindForbidden
	KindUnauthorized
	KindBadRequest
	KindInternal
	// KindTimeout means the store gave up on the operation.
	KindTimeout
)

type Code string

const (
	CodeNone         Code = ""
	CodeNotFound     Code = "NOT_FOUND"
	CodeValidation   Code = "VALIDATION"
	CodeConflict     Code = "CONFLICT"
	CodeForbidden    Code = "FORBIDDEN"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeTimeout      Code = "TIMEOUT"
	CodeInternal     Code = "INTERNAL"
)

type kindInfo struct {
	name   string
	status int
	code   Code
}

var kinds = map[Kind]kindInfo{
	KindNotFound:     {"not_found", http.StatusNotFound, CodeNotFound},
	KindValidation:   {"validation", http.StatusBadRequest, CodeValidation},
	KindConflict:     {"conflict", http.StatusConflict, CodeConflict},
	KindForbidden:    {"forbidden", http.StatusForbidden, CodeForbidden},
	KindUnauthorized: {"unauthorized", http.StatusUnauthorized, CodeUnauthorized},
	KindBadRequest:   {"bad_request", http.StatusBadRequest, CodeValidation},
	KindInternal:     {"internal", http.StatusInternalServerError, CodeInternal},
	KindTimeout:      {"timeout", http.StatusGatewayTimeout, CodeTimeout},
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "unknown"
}

// Error carries the kind, the client-facing message and optionally the
// failing operation, the cause and response details.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Op      string
	Err     error
	Details interface{}
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind to a status. Unknown kinds are client errors.
func (e *Error) HTTPStatus() int {
	if info, ok := kinds[e.Kind]; ok {
		return info.status
	}
	return http.StatusBadRequest
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: kinds[kind].code, Message: message}
}

// Wrap keeps err as the cause; only message reaches the client.
func Wrap(kind Kind, message string, err error) *Error {
	e := New(kind, message)
	e.Err = err
	return e
}

// The With* setters modify e in place and return it for chaining.

func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// WithCode replaces the kind's default code with a domain-specific one.
func (e *Error) WithCode(code Code) *Error {
	e.Code = code
	return e
}

func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Validation(message string) *Error { return New(KindValidation, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }
func Forbidden(message string) *Error  { return New(KindForbidden, message) }
func BadRequest(message string) *Error { return New(KindBadRequest, message) }
func Internal(message string) *Error   { return New(KindInternal, message) }
func Timeout(message string) *Error    { return New(KindTimeout, message) }

func as(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// GetKind returns KindUnknown when the chain holds no *Error.
func GetKind(err error) Kind {
	if e, ok := as(err); ok {
		return e.Kind
	}
	return KindUnknown
}

func GetCode(err error) Code {
	if e, ok := as(err); ok {
		return e.Code
	}
	return CodeNone
}

func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}
