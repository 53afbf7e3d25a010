package resource

import (
	"errors"
	"fmt"
	"time"

	"github.com/aether-lang/aether/internal/ast"
)

// Manager holds pool and contract registrations and runs verification over
// whole programs. One Manager can verify many programs; each run gets a
// fresh Analyzer.
type Manager struct {
	opts      Options
	pools     map[string]*ast.ResourcePool
	contracts map[string]*ast.ResourceContract
	metrics   *Metrics
}

// NewManager creates a manager. metrics may be nil.
func NewManager(opts Options, metrics *Metrics) *Manager {
	return &Manager{
		opts:      opts,
		pools:     make(map[string]*ast.ResourcePool),
		contracts: make(map[string]*ast.ResourceContract),
		metrics:   metrics,
	}
}

// RegisterPool registers a pool declaration for all subsequent runs.
func (m *Manager) RegisterPool(pool *ast.ResourcePool) error {
	if _, ok := m.pools[pool.Name]; ok {
		return fmt.Errorf("resource pool %q already registered", pool.Name)
	}
	m.pools[pool.Name] = pool
	return nil
}

// RegisterContract registers a standalone contract for its target
// function. Contracts declared inline on a function take precedence.
func (m *Manager) RegisterContract(contract *ast.ResourceContract) error {
	if contract.Target == "" {
		return fmt.Errorf("resource contract has no target function")
	}
	if _, ok := m.contracts[contract.Target]; ok {
		return fmt.Errorf("resource contract for %q already registered", contract.Target)
	}
	m.contracts[contract.Target] = contract
	return nil
}

// Report is the outcome of verifying one program.
type Report struct {
	Modules   int
	Functions int
	Results   *Results
	Tracked   []*TrackedResource

	// Errors holds hard failures in encounter order, at most one per
	// function.
	Errors []*AnalysisError

	Duration time.Duration
}

// ErrorTotal counts distinct verification errors. Incidents recorded on
// Results overlap with hard errors for double releases, use-after-release
// and contract violations, so only hard errors without an incident record
// add here.
func (r *Report) ErrorTotal() int {
	n := r.Results.ErrorCount()
	for _, e := range r.Errors {
		switch e.Kind {
		case ErrUndefinedBinding, ErrShadowedBinding, ErrInvalidScope:
			n++
		}
	}
	return n
}

// HasErrors reports whether verification failed.
func (r *Report) HasErrors() bool { return r.ErrorTotal() > 0 }

// HasWarnings reports whether any non-fatal findings were recorded.
func (r *Report) HasWarnings() bool { return r.Results.WarningCount() > 0 }

// Failed reports the final verdict. Under strict mode warnings fail too.
func (r *Report) Failed(strict bool) bool {
	return r.HasErrors() || (strict && r.HasWarnings())
}

// Summary renders a one-line overview.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d module(s), %d function(s): %d error(s), %d warning(s), %d suggestion(s)",
		r.Modules, r.Functions, r.ErrorTotal(), r.Results.WarningCount(), len(r.Results.Suggestions))
}

// Verify analyzes every function of the program and returns the report.
// Hard failures stop the affected function only; remaining functions are
// still verified.
func (m *Manager) Verify(prog *ast.Program) *Report {
	started := time.Now()
	onDone := m.metrics.BeginVerify(started)

	analyzer := NewAnalyzer(m.opts)
	for _, pool := range m.pools {
		// Duplicates were rejected at registration.
		_ = analyzer.RegisterPool(pool)
	}
	for _, contract := range m.contracts {
		_ = analyzer.RegisterContract(contract)
	}

	report := &Report{Results: analyzer.Results()}
	for _, mod := range prog.Modules {
		report.Modules++
		for _, fn := range mod.Functions {
			report.Functions++
			fnStart := time.Now()
			fnDone := m.metrics.BeginFunction(fnStart)
			err := analyzer.AnalyzeFunction(fn)
			fnDone(time.Now())
			if err == nil {
				continue
			}
			var aerr *AnalysisError
			if errors.As(err, &aerr) {
				report.Errors = append(report.Errors, aerr)
			} else {
				report.Errors = append(report.Errors, &AnalysisError{
					Kind:    ErrInvalidScope,
					Message: err.Error(),
				})
			}
		}
	}

	analyzer.Advise()
	report.Tracked = analyzer.Tracked()
	report.Duration = time.Since(started)
	onDone(time.Now())
	return report
}

// Pass adapts the manager to compiler pipelines that run passes over a
// program and stop on error.
type Pass struct {
	manager *Manager
}

// NewPass wraps a manager as a pipeline pass.
func NewPass(m *Manager) *Pass {
	return &Pass{manager: m}
}

// Name identifies the pass in pipeline listings.
func (p *Pass) Name() string { return "resource-verification" }

// Run verifies the program. The report is returned even on failure so
// callers can render findings.
func (p *Pass) Run(prog *ast.Program) (*Report, error) {
	report := p.manager.Verify(prog)
	if report.HasErrors() {
		return report, fmt.Errorf("resource verification failed: %d error(s)", report.ErrorTotal())
	}
	return report, nil
}
