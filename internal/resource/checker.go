package resource

import "github.com/aether-lang/aether/internal/ast"

// walkIdentifiers visits every identifier appearing in expression position
// within expr, in source order. Member names are not visited; only the
// object they are selected from is. A non-nil error from visit stops the
// walk.
func walkIdentifiers(expr ast.Expression, visit func(*ast.Identifier) error) error {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.Identifier:
		return visit(e)
	case *ast.Literal:
		return nil
	case *ast.BinaryExpression:
		if err := walkIdentifiers(e.Left, visit); err != nil {
			return err
		}
		return walkIdentifiers(e.Right, visit)
	case *ast.UnaryExpression:
		return walkIdentifiers(e.Operand, visit)
	case *ast.CallExpression:
		if err := walkIdentifiers(e.Function, visit); err != nil {
			return err
		}
		for _, arg := range e.Arguments {
			if err := walkIdentifiers(arg, visit); err != nil {
				return err
			}
		}
		return nil
	case *ast.MemberExpression:
		return walkIdentifiers(e.Object, visit)
	}
	return nil
}

// checkExpression scans an expression for resource accesses. Uses of live
// resources bump their access counters. A use of a released resource is
// recorded as an incident and returned as a hard failure, leaving the rest
// of the subtree unchecked. Identifiers that do not resolve to a tracked
// resource are ordinary variables and ignored.
func (a *Analyzer) checkExpression(expr ast.Expression) error {
	return walkIdentifiers(expr, a.recordUse)
}

func (a *Analyzer) recordUse(ident *ast.Identifier) error {
	res := a.lookupBinding(ident.Value)
	if res == nil {
		return nil
	}
	if res.Released {
		a.results.UseAfterRelease = append(a.results.UseAfterRelease, UseAfterRelease{
			ResourceID:  res.ID,
			Binding:     res.Binding,
			Function:    a.function,
			UseSite:     ident.Span,
			ReleaseSite: res.ReleaseSite,
		})
		return useAfterReleaseError(res.Binding, ident.Span, res.ReleaseSite)
	}
	res.Stats.TotalAccesses++
	return nil
}

// collectDependencies resolves the identifiers of an acquisition
// expression to live resources of the given scope. The result feeds
// dependency-based cleanup ordering.
func (a *Analyzer) collectDependencies(s *scopeInfo, expr ast.Expression) []string {
	var deps []string
	seen := make(map[string]bool)
	walkIdentifiers(expr, func(ident *ast.Identifier) error {
		res := a.lookupLive(ident.Value)
		if res == nil || res.ScopeID != s.id {
			return nil
		}
		if !seen[res.ID] {
			seen[res.ID] = true
			deps = append(deps, res.ID)
		}
		return nil
	})
	return deps
}
