package query

import "fmt"

// Validate checks a query for unknown fields, mistyped values and empty
// ranges. It returns every problem found.
func Validate(q Select) []error {
	v := &validator{}
	if q.Limit < 0 {
		v.addError("limit must be non-negative, got %d", q.Limit)
	}
	v.validatePredicate(q.Filter)
	return v.errs
}

type validator struct {
	errs []error
}

func (v *validator) addError(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateEquals(pred)
	case HasKind:
		if pred.Kind == "" {
			v.addError("kind filter is empty")
		}
	case SeqRange:
		if pred.From < 0 || pred.To < 0 {
			v.addError("seq range bounds must be non-negative")
		}
		if pred.To != 0 && pred.From > pred.To {
			v.addError("seq range %d..%d is empty", pred.From, pred.To)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addError("unknown predicate type %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	switch eq.Field {
	case FieldRule, FieldLeft, FieldRight:
		if _, ok := eq.Value.(string); !ok {
			v.addError("field %s compares to a string, got %T", eq.Field, eq.Value)
		}
	case FieldWorker:
		if _, ok := eq.Value.(int); !ok {
			v.addError("field %s compares to an int, got %T", eq.Field, eq.Value)
		}
	default:
		v.addError("unknown field %q", eq.Field)
	}
}
