package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/library"
	"github.com/roach88/inet/internal/rule"
)

// Validation error codes (E100-E199)
const (
	// Declarations (E100-E109)
	ErrUnknownLibrary = "E100" // use names an unknown rule library
	ErrInvalidKind    = "E101" // kind name reserved or empty
	ErrDuplicateName  = "E102" // agent or interface name used twice

	// Rules (E110-E119)
	ErrUndeclaredKind = "E110" // rule or agent references an undeclared kind
	ErrInvalidRef     = "E111" // malformed port reference

	// Net (E120-E129)
	ErrEmptyNet = "E120" // net declares no agents
	ErrWiring   = "E121" // links leave a port unbound or bind it twice (reported by Build)
)

// ValidationError represents a program validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a program's declarations without building it.
// Returns all errors found (does not fail-fast). Wiring errors that depend
// on arities are reported by Build.
func Validate(p *Program) []ValidationError {
	var errs []ValidationError

	known := make(map[string]bool)
	libs := rule.NewTable(inet.NewKinds())
	for _, name := range p.Use {
		if err := library.Load(libs, name); err != nil {
			errs = append(errs, ValidationError{
				Field:   "use",
				Message: err.Error(),
				Code:    ErrUnknownLibrary,
			})
		}
	}
	for _, k := range libs.Kinds().All() {
		known[k.Name] = true
	}

	for _, k := range p.Kinds {
		if k.Name == "" || strings.HasPrefix(k.Name, "$") {
			errs = append(errs, ValidationError{
				Field:   "kind." + k.Name,
				Message: "kind names must be non-empty and must not start with '$'",
				Code:    ErrInvalidKind,
				Line:    k.Pos.Line(),
			})
			continue
		}
		known[k.Name] = true
	}

	for _, r := range p.Rules {
		for _, name := range []string{r.Left, r.Right} {
			if !known[name] {
				errs = append(errs, undeclared("rule."+r.Name, name, r.Pos.Line()))
			}
		}
		local := make(map[string]bool, len(r.Agents))
		for _, a := range r.Agents {
			if !known[a.Kind] {
				errs = append(errs, undeclared("rule."+r.Name+".agents."+a.Name, a.Kind, r.Pos.Line()))
			}
			local[a.Name] = true
		}
		for i, l := range r.Links {
			for _, end := range l {
				if !validRuleRef(end, local) {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("rule.%s.links[%d]", r.Name, i),
						Message: fmt.Sprintf("invalid port reference %q", end),
						Code:    ErrInvalidRef,
						Line:    r.Pos.Line(),
					})
				}
			}
		}
	}

	errs = append(errs, validateNet(p.Net, known)...)
	return errs
}

func validateNet(n NetDecl, known map[string]bool) []ValidationError {
	var errs []ValidationError
	line := n.Pos.Line()
	if len(n.Agents) == 0 && len(n.Nats) == 0 && len(n.Free) == 0 {
		return append(errs, ValidationError{
			Field:   "net",
			Message: "net declares no agents",
			Code:    ErrEmptyNet,
			Line:    line,
		})
	}

	names := make(map[string]bool)
	claim := func(field, name string) {
		if names[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("name %q used twice", name),
				Code:    ErrDuplicateName,
				Line:    line,
			})
		}
		names[name] = true
	}
	for _, a := range n.Agents {
		claim("net.agents."+a.Name, a.Name)
		if !known[a.Kind] {
			errs = append(errs, undeclared("net.agents."+a.Name, a.Kind, line))
		}
	}
	for _, nd := range n.Nats {
		claim("net.nat."+nd.Name, nd.Name)
	}
	free := make(map[string]bool, len(n.Free))
	for _, name := range n.Free {
		claim("net.free", name)
		free[name] = true
	}

	for i, l := range n.Links {
		for _, end := range l {
			if free[end] {
				continue
			}
			name, idx, ok := strings.Cut(end, ".")
			if _, err := strconv.Atoi(idx); !ok || err != nil || !names[name] || free[name] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("net.links[%d]", i),
					Message: fmt.Sprintf("invalid port reference %q", end),
					Code:    ErrInvalidRef,
					Line:    line,
				})
			}
		}
	}
	return errs
}

func undeclared(field, kind string, line int) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("kind %q is not declared", kind),
		Code:    ErrUndeclaredKind,
		Line:    line,
	}
}

// validRuleRef reports whether s is "left.N", "right.N" or "<agent>.N"
// for a local agent of the rule.
func validRuleRef(s string, local map[string]bool) bool {
	name, idx, ok := strings.Cut(s, ".")
	if !ok {
		return false
	}
	if n, err := strconv.Atoi(idx); err != nil || n < 0 {
		return false
	}
	return name == "left" || name == "right" || local[name]
}
