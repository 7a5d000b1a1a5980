package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// CycleWarning reports template rules that can keep feeding each other.
//
// A rule that wires the principal ports of two agents it creates forms a
// new active pair immediately. When such pairs lead back to the rule that
// created them the net can reduce forever without consuming its input.
// This is a warning, not an error: a program may rely on an external
// budget to cut the reduction short.
type CycleWarning struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeCycles performs static cycle analysis on a program's template rules.
//
// The algorithm:
//  1. Map each unordered kind pair to the rule declared for it
//  2. Add an edge R -> S when R creates two agents whose principal ports it
//     links and S is the rule for their kinds
//  3. Report each strongly connected component of size > 1, or with a
//     self-loop, as a warning
//
// Pairs formed with boundary ports are not edges: they consume the
// redex's surroundings and terminate on finite input.
func AnalyzeCycles(rules []RuleDecl) []CycleWarning {
	if len(rules) == 0 {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(rules)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	sort.Slice(warnings, func(i, j int) bool {
		return strings.Join(warnings[i].Path, ",") < strings.Join(warnings[j].Path, ",")
	})
	return warnings
}

// dependencyGraph maps rule name to the rules its output can fire directly.
type dependencyGraph map[string][]string

func kindPairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

func buildDependencyGraph(rules []RuleDecl) dependencyGraph {
	graph := make(dependencyGraph)

	byPair := make(map[string]string, len(rules))
	for _, r := range rules {
		byPair[kindPairKey(r.Left, r.Right)] = r.Name
	}

	for _, r := range rules {
		if graph[r.Name] == nil {
			graph[r.Name] = []string{}
		}
		kindOf := make(map[string]string, len(r.Agents))
		for _, a := range r.Agents {
			kindOf[a.Name] = a.Kind
		}
		principal := func(ref string) (string, bool) {
			name, idx, ok := strings.Cut(ref, ".")
			if !ok || idx != "0" {
				return "", false
			}
			kind, local := kindOf[name]
			return kind, local
		}
		for _, l := range r.Links {
			ka, okA := principal(l[0])
			kb, okB := principal(l[1])
			if !okA || !okB {
				continue
			}
			if next, ok := byPair[kindPairKey(ka, kb)]; ok {
				graph[r.Name] = append(graph[r.Name], next)
			}
		}
	}

	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in name order so the result is deterministic.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("rule %s recreates its own redex", name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("rules may reduce forever: %s", strings.Join(path, " -> ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until the walk returns to it.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
