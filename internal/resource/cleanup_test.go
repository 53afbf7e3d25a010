package resource

import (
	"testing"

	"github.com/aether-lang/aether/internal/ast"
)

func buildScope(order ast.CleanupOrder, resources ...*TrackedResource) *scopeInfo {
	si := newScopeInfo("s", tspan(1, 1, 2))
	si.order = order
	for _, res := range resources {
		si.add(res)
	}
	return si
}

func named(id, binding string, deps ...string) *TrackedResource {
	return &TrackedResource{ID: id, Binding: binding, DependsOn: deps}
}

func sequenceBindings(seq []*TrackedResource) []string {
	out := make([]string, len(seq))
	for i, res := range seq {
		out[i] = res.Binding
	}
	return out
}

func assertSequence(t *testing.T, got []*TrackedResource, want ...string) {
	t.Helper()
	names := sequenceBindings(got)
	if len(names) != len(want) {
		t.Fatalf("sequence %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("sequence %v, want %v", names, want)
		}
	}
}

func TestDeriveCleanupSequenceOrders(t *testing.T) {
	a, b, c := named("ra", "a"), named("rb", "b"), named("rc", "c")

	reverse := buildScope(ast.CleanupReverseAcquisition, a, b, c)
	assertSequence(t, deriveCleanupSequence(reverse), "c", "b", "a")

	a, b, c = named("ra", "a"), named("rb", "b"), named("rc", "c")
	forward := buildScope(ast.CleanupForwardAcquisition, a, b, c)
	assertSequence(t, deriveCleanupSequence(forward), "a", "b", "c")
}

func TestDependencyOrderWithoutEdgesIsReverse(t *testing.T) {
	si := buildScope(ast.CleanupDependencyBased,
		named("ra", "a"), named("rb", "b"), named("rc", "c"))
	assertSequence(t, deriveCleanupSequence(si), "c", "b", "a")
}

func TestDependencyOrderHonorsForwardEdge(t *testing.T) {
	// a depends on c, so a must be released before c even though c was
	// acquired later.
	si := buildScope(ast.CleanupDependencyBased,
		named("ra", "a", "rc"), named("rb", "b"), named("rc", "c"))
	assertSequence(t, deriveCleanupSequence(si), "b", "a", "c")
}

func TestParallelOrderMatchesDependencyOrder(t *testing.T) {
	si := buildScope(ast.CleanupParallel,
		named("ra", "a"), named("rb", "b", "ra"), named("rc", "c"))
	assertSequence(t, deriveCleanupSequence(si), "c", "b", "a")
}

func TestDependencyCycleFallsBackToReverse(t *testing.T) {
	si := buildScope(ast.CleanupDependencyBased,
		named("ra", "a", "rb"), named("rb", "b", "ra"), named("rc", "c"))
	assertSequence(t, deriveCleanupSequence(si), "c", "b", "a")
}

func TestDependencyOrderIgnoresForeignIDs(t *testing.T) {
	si := buildScope(ast.CleanupDependencyBased,
		named("ra", "a", "outer-id"), named("rb", "b"))
	assertSequence(t, deriveCleanupSequence(si), "b", "a")
}
