package resource

import (
	"fmt"
	"strings"
)

// ToSExpression renders the report as an S-expression. The layout is
// stable so it can be consumed by tools; empty sections are omitted.
func (r *Report) ToSExpression() string {
	var sb strings.Builder
	sb.WriteString("(resource-report\n")
	fmt.Fprintf(&sb, "  (summary :modules %d :functions %d :errors %d :warnings %d :suggestions %d :max-concurrent %d)",
		r.Modules, r.Functions, r.ErrorTotal(), r.Results.WarningCount(),
		len(r.Results.Suggestions), r.Results.MaxConcurrent)

	if len(r.Results.Scopes) > 0 {
		sb.WriteString("\n  (scopes")
		for _, s := range r.Results.Scopes {
			fmt.Fprintf(&sb, "\n    (scope :id %q :function %q :order %s :guaranteed %t",
				s.ScopeID, s.Function, s.Order, s.Guaranteed)
			fmt.Fprintf(&sb, "\n      (bindings%s)", sexpNames(s.Bindings))
			fmt.Fprintf(&sb, "\n      (cleanup%s))", sexpNames(s.CleanupSequence))
		}
		sb.WriteString(")")
	}

	if len(r.Results.Leaks) > 0 {
		sb.WriteString("\n  (leaks")
		for _, l := range r.Results.Leaks {
			fmt.Fprintf(&sb, "\n    (leak :binding %q :category %q :scope %q :function %q :at %q :exit %q)",
				l.Binding, l.Category, l.ScopeID, l.Function, l.AcquisitionSite.String(), l.ExitSite.String())
		}
		sb.WriteString(")")
	}

	if len(r.Results.DoubleReleases) > 0 {
		sb.WriteString("\n  (double-releases")
		for _, d := range r.Results.DoubleReleases {
			fmt.Fprintf(&sb, "\n    (double-release :binding %q :function %q :first %q :second %q)",
				d.Binding, d.Function, d.FirstRelease.String(), d.SecondRelease.String())
		}
		sb.WriteString(")")
	}

	if len(r.Results.UseAfterRelease) > 0 {
		sb.WriteString("\n  (use-after-release")
		for _, u := range r.Results.UseAfterRelease {
			fmt.Fprintf(&sb, "\n    (use :binding %q :function %q :at %q :released-at %q)",
				u.Binding, u.Function, u.UseSite.String(), u.ReleaseSite.String())
		}
		sb.WriteString(")")
	}

	if len(r.Results.ContractViolations) > 0 {
		sb.WriteString("\n  (contract-violations")
		for _, v := range r.Results.ContractViolations {
			fmt.Fprintf(&sb, "\n    (violation :function %q :binding %q :limit %s :budget %d :actual %d :mode %s :at %q)",
				v.Function, v.Binding, v.Limit, v.Budget, v.Actual, v.Mode, v.Span.String())
		}
		sb.WriteString(")")
	}

	if len(r.Results.ContractWarnings) > 0 {
		sb.WriteString("\n  (contract-warnings")
		for _, w := range r.Results.ContractWarnings {
			fmt.Fprintf(&sb, "\n    (warning :function %q :binding %q :limit %s :budget %d :actual %d :threshold %d :at %q)",
				w.Function, w.Binding, w.Limit, w.Budget, w.Actual, w.ThresholdPercent, w.Span.String())
		}
		sb.WriteString(")")
	}

	if len(r.Results.Patterns) > 0 {
		sb.WriteString("\n  (usage-patterns")
		for _, p := range r.Results.Patterns {
			fmt.Fprintf(&sb, "\n    (pattern :category %q :count %d :frequency %g :avg-hold-ms %g :max-hold-ms %g)",
				p.Category, p.TypicalCount, p.AccessFrequency, p.AvgHoldTimeMS, p.MaxHoldTimeMS)
		}
		sb.WriteString(")")
	}

	if len(r.Results.Suggestions) > 0 {
		sb.WriteString("\n  (suggestions")
		for _, s := range r.Results.Suggestions {
			fmt.Fprintf(&sb, "\n    (suggestion :kind %s :binding %q :category %q :function %q :at %q",
				s.Kind, s.Binding, s.Category, s.Function, s.Span.String())
			fmt.Fprintf(&sb, "\n      (benefit :memory-mb %g :latency-ms %g :count %d)",
				s.Benefit.MemorySavingsMB, s.Benefit.LatencyReductionMS, s.Benefit.ResourceCountReduction)
			fmt.Fprintf(&sb, "\n      :message %q)", s.Message)
		}
		sb.WriteString(")")
	}

	if len(r.Errors) > 0 {
		sb.WriteString("\n  (errors")
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "\n    (error :kind %q :binding %q :at %q :message %q)",
				e.Kind.String(), e.Binding, e.Span.String(), e.Message)
		}
		sb.WriteString(")")
	}

	sb.WriteString(")")
	return sb.String()
}

func sexpNames(names []string) string {
	var sb strings.Builder
	for _, n := range names {
		sb.WriteString(" ")
		sb.WriteString(n)
	}
	return sb.String()
}
