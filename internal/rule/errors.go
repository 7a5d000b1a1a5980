package rule

import (
	"fmt"
)

// ErrorCode identifies a rule table or rule construction error.
type ErrorCode string

const (
	CodeDuplicateRule    ErrorCode = "DUPLICATE_RULE"
	CodePolarityMismatch ErrorCode = "POLARITY_MISMATCH"
	CodeInvalidTemplate  ErrorCode = "INVALID_TEMPLATE"
	CodeInvalidTerm      ErrorCode = "INVALID_TERM"
)

// Error is a rule table or rule construction error. Sentinels compare by
// Code through Is.
type Error struct {
	Code   ErrorCode
	Rule   string
	Detail string
}

var (
	ErrDuplicateRule    = &Error{Code: CodeDuplicateRule}
	ErrPolarityMismatch = &Error{Code: CodePolarityMismatch}
	ErrInvalidTemplate  = &Error{Code: CodeInvalidTemplate}
	ErrInvalidTerm      = &Error{Code: CodeInvalidTerm}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Rule != "" {
		msg = fmt.Sprintf("rule %s: %s", e.Rule, msg)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
