package resource

import "github.com/aether-lang/aether/internal/ast"

// deriveCleanupSequence returns the scope's resources in release order
// according to its cleanup policy. The sequence covers every resource of
// the scope, released or not; the caller skips entries that were already
// released explicitly.
func deriveCleanupSequence(s *scopeInfo) []*TrackedResource {
	switch s.order {
	case ast.CleanupForwardAcquisition:
		out := make([]*TrackedResource, len(s.resources))
		copy(out, s.resources)
		return out
	case ast.CleanupDependencyBased, ast.CleanupParallel:
		return dependencyOrder(s.resources)
	default:
		return reverseOrder(s.resources)
	}
}

func reverseOrder(resources []*TrackedResource) []*TrackedResource {
	out := make([]*TrackedResource, len(resources))
	for i, res := range resources {
		out[len(resources)-1-i] = res
	}
	return out
}

// dependencyOrder releases every resource before the resources its
// acquisition referenced. Ties are broken toward later acquisitions so a
// scope without dependencies degenerates to reverse acquisition order.
// Acquisitions can only reference earlier bindings, so the graph is
// acyclic; the reverse-order fallback guards against malformed input.
func dependencyOrder(resources []*TrackedResource) []*TrackedResource {
	byID := make(map[string]*TrackedResource, len(resources))
	for _, res := range resources {
		byID[res.ID] = res
	}

	// Edge X -> Y means X must be released before Y.
	successors := make(map[string][]string, len(resources))
	indegree := make(map[string]int, len(resources))
	for _, res := range resources {
		indegree[res.ID] += 0
		for _, dep := range res.DependsOn {
			if _, ok := byID[dep]; !ok {
				continue
			}
			successors[res.ID] = append(successors[res.ID], dep)
			indegree[dep]++
		}
	}

	ready := make([]*TrackedResource, 0, len(resources))
	for _, res := range resources {
		if indegree[res.ID] == 0 {
			ready = append(ready, res)
		}
	}

	out := make([]*TrackedResource, 0, len(resources))
	for len(ready) > 0 {
		// Pick the latest acquisition among the ready set.
		best := 0
		for i := 1; i < len(ready); i++ {
			if ready[i].AcquisitionIndex > ready[best].AcquisitionIndex {
				best = i
			}
		}
		next := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		out = append(out, next)

		for _, succ := range successors[next.ID] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, byID[succ])
			}
		}
	}

	if len(out) != len(resources) {
		return reverseOrder(resources)
	}
	return out
}
