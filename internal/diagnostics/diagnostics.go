// Package diagnostics renders verification reports for terminals.
package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/aether-lang/aether/internal/position"
	"github.com/aether-lang/aether/internal/resource"
)

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	warningStyle    = color.New(color.FgHiYellow, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
	labelStyle      = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgBlue, color.Bold)
	passStyle       = color.New(color.FgGreen, color.Bold)
)

// Printer writes human-readable findings. The zero value is not usable;
// use NewPrinter.
type Printer struct {
	w io.Writer

	// Verbose adds derived cleanup plans for every analyzed scope.
	Verbose bool
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print renders the whole report: errors, warnings, suggestions and the
// summary line.
func (p *Printer) Print(report *resource.Report) {
	var sb strings.Builder

	for _, d := range report.Results.DoubleReleases {
		p.finding(&sb, errorStyle, "error", "double release", d.SecondRelease,
			fmt.Sprintf("resource %q was already released at %s", d.Binding, d.FirstRelease))
	}
	for _, u := range report.Results.UseAfterRelease {
		p.finding(&sb, errorStyle, "error", "use after release", u.UseSite,
			fmt.Sprintf("resource %q was released at %s", u.Binding, u.ReleaseSite))
	}
	for _, v := range report.Results.ContractViolations {
		style, severity := errorStyle, "error"
		if v.Mode == "monitor" {
			style, severity = warningStyle, "warning"
		}
		p.finding(&sb, style, severity, "contract violation", v.Span,
			fmt.Sprintf("function %q holds %d resources against %s, budget is %d",
				v.Function, v.Actual, v.Limit, v.Budget))
	}
	for _, e := range report.Errors {
		switch e.Kind {
		case resource.ErrDoubleRelease, resource.ErrUseAfterRelease, resource.ErrContractViolation:
			// Already rendered from the incident record.
		default:
			p.finding(&sb, errorStyle, "error", e.Kind.String(), e.Span, e.Message)
		}
	}
	for _, l := range report.Results.Leaks {
		p.finding(&sb, warningStyle, "warning", "resource leak", l.AcquisitionSite,
			fmt.Sprintf("resource %q (%s) acquired in scope %q is still held when function %q exits at %s",
				l.Binding, l.Category, l.ScopeID, l.Function, l.ExitSite))
	}
	for _, w := range report.Results.ContractWarnings {
		p.finding(&sb, warningStyle, "warning", "contract budget nearly exhausted", w.Span,
			fmt.Sprintf("function %q holds %d of %d allowed by %s (threshold %d%%)",
				w.Function, w.Actual, w.Budget, w.Limit, w.ThresholdPercent))
	}
	for _, s := range report.Results.Suggestions {
		p.suggestion(&sb, s)
	}

	if p.Verbose {
		p.cleanupPlans(&sb, report)
		p.usagePatterns(&sb, report)
	}

	p.summary(&sb, report)
	io.WriteString(p.w, sb.String())
}

func (p *Printer) finding(sb *strings.Builder, style *color.Color, severity, title string, span position.Span, detail string) {
	sb.WriteString(style.Sprint(severity + ": "))
	sb.WriteString(labelStyle.Sprint(title))
	sb.WriteString("\n")
	sb.WriteString(lineStyle.Sprint(" --> "))
	sb.WriteString(fileStyle.Sprint(span.String()))
	sb.WriteString("\n  ")
	sb.WriteString(detail)
	sb.WriteString("\n\n")
}

func (p *Printer) suggestion(sb *strings.Builder, s resource.Suggestion) {
	sb.WriteString(suggestionStyle.Sprint("suggestion: "))
	sb.WriteString(labelStyle.Sprint(s.Kind.String()))
	sb.WriteString("\n")
	sb.WriteString(lineStyle.Sprint(" --> "))
	sb.WriteString(fileStyle.Sprint(s.Span.String()))
	sb.WriteString("\n  ")
	sb.WriteString(s.Message)
	sb.WriteString("\n")
	if b := s.Benefit; b.MemorySavingsMB > 0 || b.LatencyReductionMS > 0 || b.ResourceCountReduction > 0 {
		sb.WriteString("  expected benefit:")
		if b.MemorySavingsMB > 0 {
			fmt.Fprintf(sb, " %gMB memory", b.MemorySavingsMB)
		}
		if b.LatencyReductionMS > 0 {
			fmt.Fprintf(sb, " %gms latency", b.LatencyReductionMS)
		}
		if b.ResourceCountReduction > 0 {
			fmt.Fprintf(sb, " %d fewer live resources", b.ResourceCountReduction)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (p *Printer) cleanupPlans(sb *strings.Builder, report *resource.Report) {
	for _, s := range report.Results.Scopes {
		fmt.Fprintf(sb, "scope %q in %q (%s", s.ScopeID, s.Function, s.Order)
		if !s.Guaranteed {
			sb.WriteString(", cleanup not guaranteed")
		}
		sb.WriteString("): ")
		if len(s.CleanupSequence) == 0 {
			sb.WriteString("no resources\n")
			continue
		}
		fmt.Fprintf(sb, "release %s\n", strings.Join(s.CleanupSequence, ", then "))
	}
	if len(report.Results.Scopes) > 0 {
		sb.WriteString("\n")
	}
}

func (p *Printer) usagePatterns(sb *strings.Builder, report *resource.Report) {
	for _, pat := range report.Results.Patterns {
		fmt.Fprintf(sb, "category %q: %d resource(s), frequency %.2f, avg hold %.1fms, max hold %.1fms\n",
			pat.Category, pat.TypicalCount, pat.AccessFrequency, pat.AvgHoldTimeMS, pat.MaxHoldTimeMS)
	}
	if len(report.Results.Patterns) > 0 {
		sb.WriteString("\n")
	}
}

func (p *Printer) summary(sb *strings.Builder, report *resource.Report) {
	if report.HasErrors() {
		sb.WriteString(errorStyle.Sprint("verification failed"))
	} else if report.HasWarnings() {
		sb.WriteString(warningStyle.Sprint("verification passed with warnings"))
	} else {
		sb.WriteString(passStyle.Sprint("verification passed"))
	}
	fmt.Fprintf(sb, ": %s\n", report.Summary())
}
