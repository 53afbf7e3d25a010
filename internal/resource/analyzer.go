// Package resource implements compile-time verification of resource
// lifecycles: scope tracking, release checking, cleanup-order derivation,
// contract budget enforcement and optimization advice. The analyzer walks
// the AST of each function; it never executes code and holds no handles to
// real resources.
package resource

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aether-lang/aether/internal/ast"
	"github.com/aether-lang/aether/internal/position"
)

// Options tunes one Analyzer. The zero value selects defaults.
type Options struct {
	// WarnThresholdPercent is the default threshold for warn-mode
	// contracts that do not set their own.
	WarnThresholdPercent uint8
	// FrequencyWindow normalizes access counts into frequencies for the
	// advisor.
	FrequencyWindow float64
	// PoolFrequencyThreshold is the access frequency above which the
	// advisor suggests pooling.
	PoolFrequencyThreshold float64
	// DisableAdvisor suppresses optimization suggestions.
	DisableAdvisor bool
}

func (o Options) withDefaults() Options {
	if o.WarnThresholdPercent == 0 {
		o.WarnThresholdPercent = 80
	}
	if o.FrequencyWindow == 0 {
		o.FrequencyWindow = 1000.0
	}
	if o.PoolFrequencyThreshold == 0 {
		o.PoolFrequencyThreshold = 10.0
	}
	return o
}

// Analyzer verifies resource lifecycles one function at a time. It is not
// safe for concurrent use; create one per verification run.
type Analyzer struct {
	results *Results

	scopes []*scopeInfo
	live   map[string]*TrackedResource

	// acquired holds every resource tracked during the run, in
	// acquisition order. The advisor consumes it after analysis.
	acquired   []*TrackedResource
	fnAcquired []*TrackedResource

	pools     map[string]*ast.ResourcePool
	contracts map[string]*ast.ResourceContract

	function string
	contract *ast.ResourceContract
	fnExit   position.Span

	warnThreshold  uint8
	window         float64
	poolThreshold  float64
	disableAdvisor bool
}

// NewAnalyzer creates an analyzer with the given options.
func NewAnalyzer(opts Options) *Analyzer {
	opts = opts.withDefaults()
	return &Analyzer{
		results:        NewResults(),
		live:           make(map[string]*TrackedResource),
		pools:          make(map[string]*ast.ResourcePool),
		contracts:      make(map[string]*ast.ResourceContract),
		warnThreshold:  opts.WarnThresholdPercent,
		window:         opts.FrequencyWindow,
		poolThreshold:  opts.PoolFrequencyThreshold,
		disableAdvisor: opts.DisableAdvisor,
	}
}

// Results returns the findings accumulated so far.
func (a *Analyzer) Results() *Results { return a.results }

// Tracked returns every resource tracked during the run, in acquisition
// order, including released and leaked ones.
func (a *Analyzer) Tracked() []*TrackedResource { return a.acquired }

// RegisterPool makes a pool declaration visible to the advisor.
func (a *Analyzer) RegisterPool(pool *ast.ResourcePool) error {
	if _, ok := a.pools[pool.Name]; ok {
		return fmt.Errorf("resource pool %q already registered", pool.Name)
	}
	a.pools[pool.Name] = pool
	return nil
}

// RegisterContract attaches a contract to the function it targets.
// Contracts declared inline on a function take precedence.
func (a *Analyzer) RegisterContract(contract *ast.ResourceContract) error {
	if contract.Target == "" {
		return fmt.Errorf("resource contract has no target function")
	}
	if _, ok := a.contracts[contract.Target]; ok {
		return fmt.Errorf("resource contract for %q already registered", contract.Target)
	}
	a.contracts[contract.Target] = contract
	return nil
}

func (a *Analyzer) hasPoolForCategory(category string) bool {
	for _, p := range a.pools {
		if p.Category == category {
			return true
		}
	}
	return false
}

// AnalyzeFunction verifies one function body. A non-nil error is a hard
// failure; soft findings land on Results either way. State from aborted
// functions is discarded so later functions start clean.
func (a *Analyzer) AnalyzeFunction(fn *ast.FunctionDeclaration) error {
	a.function = fn.Name.Value
	a.contract = fn.Contract
	if a.contract == nil {
		a.contract = a.contracts[a.function]
	}
	a.fnExit = position.PointSpan(fn.Span.End)
	a.fnAcquired = a.fnAcquired[:0]

	a.pushScope(newScopeInfo("fn:"+a.function, fn.Span))
	err := a.analyzeBlock(fn.Body)
	if err != nil {
		a.discardFunction()
	} else {
		a.sweepFunctionLeaks()
	}
	a.scopes = a.scopes[:0]
	a.function = ""
	a.contract = nil
	return err
}

func (a *Analyzer) analyzeBlock(block *ast.BlockStatement) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		if err := a.analyzeStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ResourceScope:
		return a.analyzeResourceScope(s)
	case *ast.ReleaseStatement:
		return a.releaseBinding(s.Binding, s.Span)
	case *ast.ExpressionStatement:
		return a.checkExpression(s.Expression)
	case *ast.AssignmentStatement:
		if err := a.checkExpression(s.Target); err != nil {
			return err
		}
		return a.checkExpression(s.Value)
	case *ast.IfStatement:
		if err := a.checkExpression(s.Condition); err != nil {
			return err
		}
		if err := a.analyzeBlock(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return a.analyzeStatement(s.Else)
		}
	case *ast.WhileStatement:
		if err := a.checkExpression(s.Condition); err != nil {
			return err
		}
		return a.analyzeBlock(s.Body)
	case *ast.ReturnStatement:
		return a.checkExpression(s.Value)
	case *ast.BlockStatement:
		return a.analyzeBlock(s)
	}
	return nil
}

// analyzeResourceScope tracks a scope's acquisitions, verifies its body,
// then applies the scope's cleanup policy. The derived cleanup sequence is
// recorded whether or not cleanup is guaranteed.
func (a *Analyzer) analyzeResourceScope(sc *ast.ResourceScope) error {
	id := sc.ScopeID
	if id == "" {
		id = uuid.NewString()
	}
	si := newScopeInfo(id, sc.Span)
	si.guaranteed = sc.CleanupGuaranteed
	si.order = sc.CleanupOrder
	a.pushScope(si)

	for _, acq := range sc.Resources {
		if err := a.acquireResource(si, acq); err != nil {
			return err
		}
	}

	if err := a.analyzeBlock(sc.Body); err != nil {
		return err
	}

	a.recordScopeSummary(si)
	if si.guaranteed {
		a.releaseScope(si)
	}
	a.popScope()
	return nil
}

// acquireResource registers one acquisition with the current scope. The
// acquisition expression, parameters and lifecycle hooks are usage-checked
// before the binding exists, so a self reference resolves outward or not
// at all.
func (a *Analyzer) acquireResource(si *scopeInfo, acq *ast.ResourceAcquisition) error {
	if err := a.checkExpression(acq.Acquisition); err != nil {
		return err
	}
	for _, param := range acq.Parameters {
		if err := a.checkExpression(param.Value); err != nil {
			return err
		}
	}
	for _, hook := range acq.Lifecycle.Hooks() {
		if err := a.checkExpression(hook); err != nil {
			return err
		}
	}
	deps := a.collectDependencies(si, acq.Acquisition)

	name := acq.Binding.Value
	if _, ok := si.byBinding[name]; ok {
		return duplicateBindingError(name, acq.Span)
	}
	if outer := a.lookupLive(name); outer != nil {
		return shadowedBindingError(name, acq.Span, outer.AcquisitionSite)
	}

	cleanup := acq.Cleanup
	if cleanup == nil {
		cleanup = &ast.CleanupAutomatic{}
	}
	res := &TrackedResource{
		ID:              uuid.NewString(),
		Binding:         name,
		Category:        acq.Category,
		TypeName:        acq.TypeName,
		ScopeID:         si.id,
		Function:        a.function,
		AcquisitionSite: acq.Span,
		Cleanup:         cleanup,
		DependsOn:       deps,
	}
	si.add(res)
	a.live[res.ID] = res
	a.acquired = append(a.acquired, res)
	a.fnAcquired = append(a.fnAcquired, res)

	res.Stats.ConcurrentPeak = uint32(a.liveCount(res.Category))
	if n := len(a.live); n > a.results.MaxConcurrent {
		a.results.MaxConcurrent = n
	}

	return a.checkContract(res)
}

// releaseBinding handles an explicit release statement.
func (a *Analyzer) releaseBinding(ident *ast.Identifier, site position.Span) error {
	res := a.lookupBinding(ident.Value)
	if res == nil {
		return undefinedBindingError(ident.Value, site)
	}
	if res.Released {
		a.results.DoubleReleases = append(a.results.DoubleReleases, DoubleRelease{
			ResourceID:    res.ID,
			Binding:       res.Binding,
			Function:      a.function,
			FirstRelease:  res.ReleaseSite,
			SecondRelease: site,
		})
		return doubleReleaseError(res.Binding, site, res.ReleaseSite)
	}
	a.markReleased(res, site)
	return nil
}

func (a *Analyzer) markReleased(res *TrackedResource, site position.Span) {
	res.Released = true
	res.ReleaseSite = site
	delete(a.live, res.ID)
}

// releaseScope releases the remaining resources of a scope in derived
// cleanup order. Resources released early by explicit statements are
// skipped; automatic cleanup of an already released binding is not a
// double release.
func (a *Analyzer) releaseScope(si *scopeInfo) {
	end := position.PointSpan(si.span.End)
	for _, res := range deriveCleanupSequence(si) {
		if res.Released {
			continue
		}
		a.markReleased(res, end)
	}
}

func (a *Analyzer) recordScopeSummary(si *scopeInfo) {
	summary := ScopeSummary{
		ScopeID:    si.id,
		Function:   a.function,
		Span:       si.span,
		Guaranteed: si.guaranteed,
		Order:      si.order.String(),
	}
	for _, res := range si.resources {
		summary.Bindings = append(summary.Bindings, res.Binding)
	}
	for _, res := range deriveCleanupSequence(si) {
		summary.CleanupSequence = append(summary.CleanupSequence, res.Binding)
	}
	a.results.Scopes = append(a.results.Scopes, summary)
}

// sweepFunctionLeaks reports resources still live when the function ends.
// Only scopes without guaranteed cleanup can leave resources live here.
func (a *Analyzer) sweepFunctionLeaks() {
	for _, res := range a.fnAcquired {
		if res.Released {
			continue
		}
		if _, live := a.live[res.ID]; !live {
			continue
		}
		a.results.Leaks = append(a.results.Leaks, Leak{
			ResourceID:      res.ID,
			Binding:         res.Binding,
			Category:        res.Category,
			ScopeID:         res.ScopeID,
			Function:        res.Function,
			AcquisitionSite: res.AcquisitionSite,
			ExitSite:        a.fnExit,
		})
		delete(a.live, res.ID)
	}
}

// discardFunction clears live state after a hard failure without recording
// leaks; analysis of the function was incomplete.
func (a *Analyzer) discardFunction() {
	for _, res := range a.fnAcquired {
		delete(a.live, res.ID)
	}
}
