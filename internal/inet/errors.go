package inet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a structural error category.
type ErrorCode string

const (
	CodePortAlreadyBound ErrorCode = "PORT_ALREADY_BOUND"
	CodePortUnbound      ErrorCode = "PORT_UNBOUND"
	CodeFreePort         ErrorCode = "FREE_PORT"
	CodeStaleReference   ErrorCode = "STALE_REFERENCE"
	CodePortsStillBound  ErrorCode = "PORTS_STILL_BOUND"
	CodeUnknownKind      ErrorCode = "UNKNOWN_KIND"
	CodeDuplicateKind    ErrorCode = "DUPLICATE_KIND"
	CodeInvalidKind      ErrorCode = "INVALID_KIND"
	CodePortOutOfRange   ErrorCode = "PORT_OUT_OF_RANGE"
	CodeSelfWire         ErrorCode = "SELF_WIRE"
	CodeDuplicateName    ErrorCode = "DUPLICATE_NAME"
)

// Error is a structural error: misuse of the low-level graph API.
//
// Structural errors are never recovered silently. Match them with errors.Is
// against the exported sentinels, which compare by Code only:
//
//	if errors.Is(err, inet.ErrPortAlreadyBound) { ... }
type Error struct {
	Code   ErrorCode
	Op     string
	Agent  AgentID
	Port   Port
	Detail string
}

// Sentinels for errors.Is matching.
var (
	ErrPortAlreadyBound = &Error{Code: CodePortAlreadyBound}
	ErrPortUnbound      = &Error{Code: CodePortUnbound}
	ErrFreePort         = &Error{Code: CodeFreePort}
	ErrStaleReference   = &Error{Code: CodeStaleReference}
	ErrPortsStillBound  = &Error{Code: CodePortsStillBound}
	ErrUnknownKind      = &Error{Code: CodeUnknownKind}
	ErrDuplicateKind    = &Error{Code: CodeDuplicateKind}
	ErrInvalidKind      = &Error{Code: CodeInvalidKind}
	ErrPortOutOfRange   = &Error{Code: CodePortOutOfRange}
	ErrSelfWire         = &Error{Code: CodeSelfWire}
	ErrDuplicateName    = &Error{Code: CodeDuplicateName}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Code))
	switch {
	case !e.Port.IsZero():
		fmt.Fprintf(&b, " (port=%s)", e.Port)
	case !e.Agent.IsZero():
		fmt.Fprintf(&b, " (agent=%s)", e.Agent)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func portError(code ErrorCode, op string, p Port) *Error {
	return &Error{Code: code, Op: op, Port: p}
}

func agentError(code ErrorCode, op string, id AgentID) *Error {
	return &Error{Code: code, Op: op, Agent: id}
}

// IsStructural returns true if err is (or wraps) a structural *Error.
func IsStructural(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// InvariantError reports violations of the wire perfect-matching invariant.
type InvariantError struct {
	Violations []string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	const max = 5
	shown := e.Violations
	if len(shown) > max {
		shown = shown[:max]
	}
	msg := fmt.Sprintf("wire invariant violated (%d): %s", len(e.Violations), strings.Join(shown, "; "))
	if len(e.Violations) > max {
		msg += "; ..."
	}
	return msg
}
