package resource

import (
	"fmt"

	"github.com/aether-lang/aether/internal/position"
)

// Leak records a resource that was still live when its function returned.
// Leaks come from scopes without guaranteed cleanup; they are warnings by
// default and hard failures under strict verification.
type Leak struct {
	ResourceID      string
	Binding         string
	Category        string
	ScopeID         string
	Function        string
	AcquisitionSite position.Span
	// ExitSite is the point where the function returned with the resource
	// still held.
	ExitSite position.Span
}

func (l Leak) String() string {
	return fmt.Sprintf("%s: resource %q (%s) acquired in scope %q leaks from function %q (still held at %s)",
		l.AcquisitionSite, l.Binding, l.Category, l.ScopeID, l.Function, l.ExitSite)
}

// DoubleRelease records a second release of an already released binding.
type DoubleRelease struct {
	ResourceID    string
	Binding       string
	Function      string
	FirstRelease  position.Span
	SecondRelease position.Span
}

func (d DoubleRelease) String() string {
	return fmt.Sprintf("%s: double release of %q (first released at %s)",
		d.SecondRelease, d.Binding, d.FirstRelease)
}

// UseAfterRelease records a use of a binding after its release.
type UseAfterRelease struct {
	ResourceID  string
	Binding     string
	Function    string
	UseSite     position.Span
	ReleaseSite position.Span
}

func (u UseAfterRelease) String() string {
	return fmt.Sprintf("%s: use of %q after release at %s",
		u.UseSite, u.Binding, u.ReleaseSite)
}

// ContractViolation records an acquisition that pushed a held-resource
// count past a contract budget.
type ContractViolation struct {
	Function string
	Binding  string
	Limit    string
	Budget   uint64
	Actual   uint64
	Mode     string
	Span     position.Span
}

func (c ContractViolation) String() string {
	return fmt.Sprintf("%s: function %q exceeds %s: %d held, budget %d",
		c.Span, c.Function, c.Limit, c.Actual, c.Budget)
}

// ContractWarning records usage crossing a warn threshold while staying
// within budget. Only contracts in warn mode produce these.
type ContractWarning struct {
	Function         string
	Binding          string
	Limit            string
	Budget           uint64
	Actual           uint64
	ThresholdPercent uint8
	Span             position.Span
}

func (c ContractWarning) String() string {
	return fmt.Sprintf("%s: function %q at %d of %d %s (warn threshold %d%%)",
		c.Span, c.Function, c.Actual, c.Budget, c.Limit, c.ThresholdPercent)
}

// SuggestionKind enumerates advisor suggestion categories.
type SuggestionKind int

const (
	// SuggestUsePool advises moving a frequently acquired resource behind
	// a pool.
	SuggestUsePool SuggestionKind = iota
	// SuggestLazyAcquisition advises deferring an acquisition whose
	// result is never accessed.
	SuggestLazyAcquisition
	// SuggestEarlyRelease advises releasing before scope end. Reserved
	// for report vocabulary; the advisor does not emit it yet.
	SuggestEarlyRelease
	// SuggestCoalesce advises merging sibling acquisitions. Reserved for
	// report vocabulary; the advisor does not emit it yet.
	SuggestCoalesce
)

func (k SuggestionKind) String() string {
	switch k {
	case SuggestUsePool:
		return "use_pool"
	case SuggestLazyAcquisition:
		return "lazy_acquisition"
	case SuggestEarlyRelease:
		return "early_release"
	case SuggestCoalesce:
		return "coalesce"
	default:
		return "unknown"
	}
}

// ExpectedBenefit quantifies what a suggestion is worth if applied.
type ExpectedBenefit struct {
	MemorySavingsMB        float64
	LatencyReductionMS     float64
	ResourceCountReduction uint32
}

// Suggestion is one advisor finding. Suggestions never affect the
// verification verdict.
type Suggestion struct {
	Kind     SuggestionKind
	Binding  string
	Category string
	Function string
	Span     position.Span
	Message  string
	Benefit  ExpectedBenefit
}

func (s Suggestion) String() string {
	return fmt.Sprintf("%s: [%s] %s", s.Span, s.Kind, s.Message)
}

// NetworkStats carries transfer counters for network-category resources.
// Static verification leaves them zero; they exist so reports share one
// shape with runtime tracking.
type NetworkStats struct {
	BytesSent         uint64
	BytesReceived     uint64
	ActiveConnections uint32
}

// UsageStats accumulates per-resource usage observed during analysis.
type UsageStats struct {
	TotalAccesses  uint64
	ConcurrentPeak uint32
	AvgHoldTimeMS  float64
	Network        *NetworkStats
}

// AccessFrequency returns accesses normalized over the advisor window.
func (s *UsageStats) AccessFrequency(window float64) float64 {
	if window <= 0 {
		return 0
	}
	return float64(s.TotalAccesses) / window
}

// UsagePattern aggregates the usage statistics of every tracked resource
// in one category. Patterns feed the advisor's pooling heuristic and are
// reported alongside suggestions.
type UsagePattern struct {
	Category        string
	AvgHoldTimeMS   float64
	MaxHoldTimeMS   float64
	AccessFrequency float64
	TypicalCount    int
}

func (p UsagePattern) String() string {
	return fmt.Sprintf("%s: %d resource(s), frequency %.2f, avg hold %.1fms",
		p.Category, p.TypicalCount, p.AccessFrequency, p.AvgHoldTimeMS)
}

// ScopeSummary records one analyzed resource scope and the cleanup
// sequence derived for it. For scopes without guaranteed cleanup the
// sequence is the plan the programmer must perform manually.
type ScopeSummary struct {
	ScopeID    string
	Function   string
	Span       position.Span
	Guaranteed bool
	Order      string

	// Bindings in acquisition order.
	Bindings []string
	// CleanupSequence holds the same bindings in derived release order.
	CleanupSequence []string
}

// Results accumulates every finding of one verification run.
type Results struct {
	Leaks              []Leak
	DoubleReleases     []DoubleRelease
	UseAfterRelease    []UseAfterRelease
	ContractViolations []ContractViolation
	ContractWarnings   []ContractWarning
	Suggestions        []Suggestion
	Scopes             []ScopeSummary

	// Patterns holds the advisor's per-category usage aggregates, sorted
	// by category name.
	Patterns []UsagePattern

	// MaxConcurrent is the high-water mark of simultaneously live tracked
	// resources across the run. It never decreases during analysis.
	MaxConcurrent int
}

// NewResults returns an empty result set.
func NewResults() *Results {
	return &Results{}
}

// ErrorCount returns the number of findings that fail verification.
// Monitor-mode contract violations are observational and count as
// warnings instead.
func (r *Results) ErrorCount() int {
	n := len(r.DoubleReleases) + len(r.UseAfterRelease)
	for _, v := range r.ContractViolations {
		if v.Mode != "monitor" {
			n++
		}
	}
	return n
}

// WarningCount returns the number of non-fatal findings.
func (r *Results) WarningCount() int {
	n := len(r.Leaks) + len(r.ContractWarnings)
	for _, v := range r.ContractViolations {
		if v.Mode == "monitor" {
			n++
		}
	}
	return n
}

// Clean reports whether the run produced no findings at all.
func (r *Results) Clean() bool {
	return r.ErrorCount() == 0 && r.WarningCount() == 0 && len(r.Suggestions) == 0
}
