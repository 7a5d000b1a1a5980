// Package query provides a small filter language over recorded reduction
// steps and compiles it to parameterized SQL for the run store.
//
// A Select names the filter and a row limit:
//
//	query.Select{
//	  Filter: query.And{Predicates: []query.Predicate{
//	    query.Equals{Field: query.FieldRule, Value: "add-s"},
//	    query.SeqRange{From: 10, To: 20},
//	  }},
//	  Limit: 5,
//	}
//
// Predicate is a sealed interface. Only types in this package implement
// it, so the compiler's type switch is exhaustive.
//
// Compiled queries always bind values as parameters and always end in
// ORDER BY seq, so a filtered trace keeps commit order.
package query
