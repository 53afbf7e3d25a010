package resource

import (
	"github.com/aether-lang/aether/internal/ast"
	"github.com/aether-lang/aether/internal/position"
)

// TrackedResource is the analysis-time record of one acquisition. It stays
// attached to its scope for the rest of the function so later statements
// can be checked against it even after release.
type TrackedResource struct {
	ID       string
	Binding  string
	Category string
	TypeName string
	ScopeID  string
	Function string

	AcquisitionSite  position.Span
	AcquisitionIndex int
	Cleanup          ast.CleanupSpec

	// DependsOn lists the IDs of same-scope resources referenced by this
	// resource's acquisition expression.
	DependsOn []string

	Released    bool
	ReleaseSite position.Span

	Stats UsageStats
}

// scopeInfo is one entry of the analysis scope stack. The bottom entry is
// the function scope; each resource_scope statement pushes another.
type scopeInfo struct {
	id         string
	span       position.Span
	guaranteed bool
	order      ast.CleanupOrder

	resources []*TrackedResource
	byBinding map[string]*TrackedResource
}

func newScopeInfo(id string, span position.Span) *scopeInfo {
	return &scopeInfo{
		id:         id,
		span:       span,
		guaranteed: true,
		byBinding:  make(map[string]*TrackedResource),
	}
}

func (s *scopeInfo) add(res *TrackedResource) {
	res.AcquisitionIndex = len(s.resources)
	s.resources = append(s.resources, res)
	s.byBinding[res.Binding] = res
}

// pushScope enters a new scope.
func (a *Analyzer) pushScope(s *scopeInfo) {
	a.scopes = append(a.scopes, s)
}

// popScope leaves the innermost scope.
func (a *Analyzer) popScope() *scopeInfo {
	if len(a.scopes) == 0 {
		return nil
	}
	top := a.scopes[len(a.scopes)-1]
	a.scopes = a.scopes[:len(a.scopes)-1]
	return top
}

func (a *Analyzer) currentScope() *scopeInfo {
	if len(a.scopes) == 0 {
		return nil
	}
	return a.scopes[len(a.scopes)-1]
}

// lookupBinding resolves a binding name against the scope stack, innermost
// scope first. Released resources still resolve; callers decide whether a
// released hit is an error.
func (a *Analyzer) lookupBinding(name string) *TrackedResource {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if res, ok := a.scopes[i].byBinding[name]; ok {
			return res
		}
	}
	return nil
}

// lookupLive resolves a binding name to a live resource, or nil.
func (a *Analyzer) lookupLive(name string) *TrackedResource {
	res := a.lookupBinding(name)
	if res == nil || res.Released {
		return nil
	}
	return res
}

// liveCount returns the number of live tracked resources, optionally
// restricted to one category.
func (a *Analyzer) liveCount(category string) int {
	n := 0
	for _, res := range a.live {
		if category == "" || res.Category == category {
			n++
		}
	}
	return n
}
