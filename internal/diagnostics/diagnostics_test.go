package diagnostics

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/aether-lang/aether/internal/position"
	"github.com/aether-lang/aether/internal/resource"
)

func plainOutput(t *testing.T, report *resource.Report, verbose bool) string {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var sb strings.Builder
	p := NewPrinter(&sb)
	p.Verbose = verbose
	p.Print(report)
	return sb.String()
}

func site(line, col int) position.Span {
	return position.PointSpan(position.NewPosition("app.aeth", line, col))
}

func emptyReport() *resource.Report {
	return &resource.Report{Modules: 1, Functions: 1, Results: resource.NewResults()}
}

func TestPrintCleanReport(t *testing.T) {
	out := plainOutput(t, emptyReport(), false)
	if !strings.Contains(out, "verification passed:") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "error:") || strings.Contains(out, "warning:") {
		t.Errorf("clean report rendered findings: %q", out)
	}
}

func TestPrintFindings(t *testing.T) {
	report := emptyReport()
	report.Results.DoubleReleases = append(report.Results.DoubleReleases, resource.DoubleRelease{
		Binding: "buf", Function: "main", FirstRelease: site(4, 9), SecondRelease: site(5, 9),
	})
	report.Errors = append(report.Errors, &resource.AnalysisError{
		Kind: resource.ErrDoubleRelease, Binding: "buf", Span: site(5, 9),
		Message: `double release of resource "buf"`,
	})
	report.Results.Leaks = append(report.Results.Leaks, resource.Leak{
		Binding: "f", Category: "file_handle", ScopeID: "raw", Function: "open_only",
		AcquisitionSite: site(3, 5),
	})
	report.Results.Suggestions = append(report.Results.Suggestions, resource.Suggestion{
		Kind: resource.SuggestLazyAcquisition, Binding: "scratch", Span: site(7, 5),
		Message: `resource "scratch" is acquired but never accessed; defer acquisition until first use`,
		Benefit: resource.ExpectedBenefit{MemorySavingsMB: 1, LatencyReductionMS: 10, ResourceCountReduction: 1},
	})

	out := plainOutput(t, report, false)
	for _, want := range []string{
		"error: double release",
		" --> app.aeth:5:9",
		`resource "buf" was already released at app.aeth:4:9`,
		"warning: resource leak",
		"suggestion: lazy_acquisition",
		"expected benefit: 1MB memory 10ms latency 1 fewer live resources",
		"verification failed:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// The hard error duplicates the incident; it must render once.
	if got := strings.Count(out, "error: double release"); got != 1 {
		t.Errorf("double release rendered %d times", got)
	}
}

func TestPrintVerboseCleanupPlan(t *testing.T) {
	report := emptyReport()
	report.Results.Scopes = append(report.Results.Scopes, resource.ScopeSummary{
		ScopeID: "io", Function: "main", Guaranteed: true, Order: "reverse_acquisition",
		Bindings:        []string{"a", "b"},
		CleanupSequence: []string{"b", "a"},
	})

	if out := plainOutput(t, report, false); strings.Contains(out, "scope \"io\"") {
		t.Error("cleanup plan rendered without verbose")
	}
	out := plainOutput(t, report, true)
	if !strings.Contains(out, `scope "io" in "main" (reverse_acquisition): release b, then a`) {
		t.Errorf("verbose output = %q", out)
	}
}

func TestPrintVerboseUsagePatterns(t *testing.T) {
	report := emptyReport()
	report.Results.Patterns = append(report.Results.Patterns, resource.UsagePattern{
		Category: "file_handle", AvgHoldTimeMS: 2.5, MaxHoldTimeMS: 4.0,
		AccessFrequency: 0.35, TypicalCount: 3,
	})

	if out := plainOutput(t, report, false); strings.Contains(out, "category \"file_handle\"") {
		t.Error("usage pattern rendered without verbose")
	}
	out := plainOutput(t, report, true)
	if !strings.Contains(out, `category "file_handle": 3 resource(s), frequency 0.35, avg hold 2.5ms, max hold 4.0ms`) {
		t.Errorf("verbose output = %q", out)
	}
}

func TestPrintMonitorViolationAsWarning(t *testing.T) {
	report := emptyReport()
	report.Results.ContractViolations = append(report.Results.ContractViolations, resource.ContractViolation{
		Function: "worker", Binding: "f3", Limit: "max_file_handles",
		Budget: 2, Actual: 3, Mode: "monitor", Span: site(6, 5),
	})

	out := plainOutput(t, report, false)
	if !strings.Contains(out, "warning: contract violation") {
		t.Errorf("monitor violation not rendered as warning:\n%s", out)
	}
	// Monitor incidents are observational and must not fail the verdict.
	if !strings.Contains(out, "verification passed with warnings") {
		t.Errorf("verdict = %q", out)
	}
}
