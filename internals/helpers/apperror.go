package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

/* ===============================
   Error taxonomy
=================================*/

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindNotFound   ErrorKind = "not_found"
	KindState      ErrorKind = "state"
	KindExternal   ErrorKind = "external"
)

// AppError carries the failed guard in Code so clients can tell the user what to do next.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string][]string
	Meta    map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) With(key string, val any) *AppError {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[key] = val
	return e
}

func NewValidation(fields map[string][]string) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: "validation failed", Fields: fields}
}

func FieldError(field, msg string) *AppError {
	return NewValidation(map[string][]string{field: {msg}})
}

func Conflict(code, msg string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: msg}
}

func NotFound(code, msg string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: msg}
}

func StateErr(code, msg string) *AppError {
	return &AppError{Kind: KindState, Code: code, Message: msg}
}

func External(code, msg string, err error) *AppError {
	return &AppError{Kind: KindExternal, Code: code, Message: msg, Err: err}
}

// AsAppError unwraps err into an *AppError when one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func KindOf(err error) ErrorKind {
	if ae, ok := AsAppError(err); ok {
		return ae.Kind
	}
	return ""
}

func CodeOf(err error) string {
	if ae, ok := AsAppError(err); ok {
		return ae.Code
	}
	return ""
}

func IsKind(err error, k ErrorKind) bool { return KindOf(err) == k }

/* ===============================
   Database error translation
=================================*/

const pgUniqueViolation = "23505"

// IsUniqueViolation reports a Postgres unique_violation, optionally for a named constraint.
func IsUniqueViolation(err error, constraint ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if strings.EqualFold(pgErr.ConstraintName, c) {
			return true
		}
	}
	return false
}

// NotFoundOr maps gorm.ErrRecordNotFound to a NotFound AppError and passes other errors through.
func NotFoundOr(err error, code, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(code, msg)
	}
	return err
}
