package query

import (
	"errors"
	"fmt"
	"strings"
)

// stepColumns are the columns every compiled query selects, in the field
// order of engine.StepEvent.
const stepColumns = "seq, worker, rule, left_kind, right_kind, created"

// Compile converts a query over the steps of one run to parameterized SQL.
// The run id is always the first parameter.
//
// Values are never interpolated, and every query ends in ORDER BY seq.
func Compile(runID string, q Select) (string, []any, error) {
	if errs := Validate(q); len(errs) > 0 {
		return "", nil, fmt.Errorf("invalid query: %w", errors.Join(errs...))
	}

	where := "run_id = ?"
	params := []any{runID}
	if q.Filter != nil {
		sql, p, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, err
		}
		where += " AND " + sql
		params = append(params, p...)
	}

	sql := fmt.Sprintf("SELECT %s FROM steps WHERE %s ORDER BY seq ASC", stepColumns, where)
	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}
	return sql, params, nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case Equals:
		return pred.Field + " = ?", []any{pred.Value}, nil
	case HasKind:
		return "(left_kind = ? OR right_kind = ?)", []any{pred.Kind, pred.Kind}, nil
	case SeqRange:
		return compileRange(pred), rangeParams(pred), nil
	case And:
		return compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileRange(r SeqRange) string {
	switch {
	case r.From > 0 && r.To > 0:
		return "seq BETWEEN ? AND ?"
	case r.From > 0:
		return "seq >= ?"
	case r.To > 0:
		return "seq <= ?"
	default:
		return "1 = 1"
	}
}

func rangeParams(r SeqRange) []any {
	var params []any
	if r.From > 0 {
		params = append(params, r.From)
	}
	if r.To > 0 {
		params = append(params, r.To)
	}
	return params
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, p, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}
