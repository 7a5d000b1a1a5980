// Package rule defines interaction rules and the table that maps an
// unordered pair of agent kinds to the rule that rewrites it.
//
// A rule never touches the net directly. It programs a Rewriter, which the
// reduction engine implements over the claimed footprint of one active
// pair: the rule asks for the boundary endpoints left behind by the pair's
// auxiliary ports, creates replacement agents, and links terms together.
// The engine applies the links when the rule returns, which makes each
// rewrite all-or-nothing.
//
// Rules come in two shapes:
//   - Func: imperative Go code against the Rewriter API
//   - Template: a declarative list of new agents and links, validated once
//     at construction
package rule
