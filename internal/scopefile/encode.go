package scopefile

import (
	"bytes"
	"time"

	"github.com/francoispqt/gojay"

	"github.com/aether-lang/aether/internal/resource"
)

// EncodeReport renders a verification report as JSON. The layout mirrors
// the S-expression form section by section; empty sections are omitted and
// spans are rendered as display strings.
func EncodeReport(r *resource.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := gojay.NewEncoder(&buf).EncodeObject(&reportJSON{report: r}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type reportJSON struct {
	report *resource.Report
}

func (r *reportJSON) IsNil() bool { return r == nil || r.report == nil }

func (r *reportJSON) MarshalJSONObject(enc *gojay.Encoder) {
	rep := r.report
	res := rep.Results

	enc.StringKey("verdict", reportVerdict(rep))
	enc.IntKey("modules", rep.Modules)
	enc.IntKey("functions", rep.Functions)
	enc.IntKey("errors", rep.ErrorTotal())
	enc.IntKey("warnings", res.WarningCount())
	enc.IntKey("suggestions", len(res.Suggestions))
	enc.IntKey("max_concurrent", res.MaxConcurrent)
	enc.FloatKey("duration_ms", float64(rep.Duration)/float64(time.Millisecond))

	if len(res.Scopes) > 0 {
		enc.ArrayKey("scopes", scopesJSON(res.Scopes))
	}
	if len(res.Leaks) > 0 {
		enc.ArrayKey("leaks", leaksJSON(res.Leaks))
	}
	if len(res.DoubleReleases) > 0 {
		enc.ArrayKey("double_releases", doubleReleasesJSON(res.DoubleReleases))
	}
	if len(res.UseAfterRelease) > 0 {
		enc.ArrayKey("use_after_release", usesJSON(res.UseAfterRelease))
	}
	if len(res.ContractViolations) > 0 {
		enc.ArrayKey("contract_violations", violationsJSON(res.ContractViolations))
	}
	if len(res.ContractWarnings) > 0 {
		enc.ArrayKey("contract_warnings", contractWarningsJSON(res.ContractWarnings))
	}
	if len(res.Patterns) > 0 {
		enc.ArrayKey("usage_patterns", patternsJSON(res.Patterns))
	}
	if len(res.Suggestions) > 0 {
		enc.ArrayKey("suggestions", suggestionsJSON(res.Suggestions))
	}
	if len(rep.Errors) > 0 {
		enc.ArrayKey("hard_errors", errorsJSON(rep.Errors))
	}
}

func reportVerdict(r *resource.Report) string {
	switch {
	case r.HasErrors():
		return "failed"
	case r.HasWarnings():
		return "passed_with_warnings"
	default:
		return "passed"
	}
}

type stringsJSON []string

func (s stringsJSON) IsNil() bool { return len(s) == 0 }

func (s stringsJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range s {
		enc.AddString(v)
	}
}

type scopesJSON []resource.ScopeSummary

func (s scopesJSON) IsNil() bool { return len(s) == 0 }

func (s scopesJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range s {
		enc.AddObject(scopeJSON{&s[i]})
	}
}

type scopeJSON struct {
	s *resource.ScopeSummary
}

func (s scopeJSON) IsNil() bool { return s.s == nil }

func (s scopeJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("scope_id", s.s.ScopeID)
	enc.StringKey("function", s.s.Function)
	enc.StringKey("order", s.s.Order)
	enc.BoolKey("cleanup_guaranteed", s.s.Guaranteed)
	enc.ArrayKey("bindings", stringsJSON(s.s.Bindings))
	enc.ArrayKey("cleanup", stringsJSON(s.s.CleanupSequence))
}

type leaksJSON []resource.Leak

func (l leaksJSON) IsNil() bool { return len(l) == 0 }

func (l leaksJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range l {
		enc.AddObject(leakJSON{&l[i]})
	}
}

type leakJSON struct {
	l *resource.Leak
}

func (l leakJSON) IsNil() bool { return l.l == nil }

func (l leakJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("binding", l.l.Binding)
	enc.StringKey("category", l.l.Category)
	enc.StringKey("scope_id", l.l.ScopeID)
	enc.StringKey("function", l.l.Function)
	enc.StringKey("acquired_at", l.l.AcquisitionSite.String())
	enc.StringKey("exit_at", l.l.ExitSite.String())
}

type doubleReleasesJSON []resource.DoubleRelease

func (d doubleReleasesJSON) IsNil() bool { return len(d) == 0 }

func (d doubleReleasesJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range d {
		enc.AddObject(doubleReleaseJSON{&d[i]})
	}
}

type doubleReleaseJSON struct {
	d *resource.DoubleRelease
}

func (d doubleReleaseJSON) IsNil() bool { return d.d == nil }

func (d doubleReleaseJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("binding", d.d.Binding)
	enc.StringKey("function", d.d.Function)
	enc.StringKey("first_release", d.d.FirstRelease.String())
	enc.StringKey("second_release", d.d.SecondRelease.String())
}

type usesJSON []resource.UseAfterRelease

func (u usesJSON) IsNil() bool { return len(u) == 0 }

func (u usesJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range u {
		enc.AddObject(useJSON{&u[i]})
	}
}

type useJSON struct {
	u *resource.UseAfterRelease
}

func (u useJSON) IsNil() bool { return u.u == nil }

func (u useJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("binding", u.u.Binding)
	enc.StringKey("function", u.u.Function)
	enc.StringKey("use_site", u.u.UseSite.String())
	enc.StringKey("release_site", u.u.ReleaseSite.String())
}

type violationsJSON []resource.ContractViolation

func (v violationsJSON) IsNil() bool { return len(v) == 0 }

func (v violationsJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range v {
		enc.AddObject(violationJSON{&v[i]})
	}
}

type violationJSON struct {
	v *resource.ContractViolation
}

func (v violationJSON) IsNil() bool { return v.v == nil }

func (v violationJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("function", v.v.Function)
	enc.StringKey("binding", v.v.Binding)
	enc.StringKey("limit", v.v.Limit)
	enc.Int64Key("budget", int64(v.v.Budget))
	enc.Int64Key("actual", int64(v.v.Actual))
	enc.StringKey("mode", v.v.Mode)
	enc.StringKey("at", v.v.Span.String())
}

type contractWarningsJSON []resource.ContractWarning

func (w contractWarningsJSON) IsNil() bool { return len(w) == 0 }

func (w contractWarningsJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range w {
		enc.AddObject(contractWarningJSON{&w[i]})
	}
}

type contractWarningJSON struct {
	w *resource.ContractWarning
}

func (w contractWarningJSON) IsNil() bool { return w.w == nil }

func (w contractWarningJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("function", w.w.Function)
	enc.StringKey("binding", w.w.Binding)
	enc.StringKey("limit", w.w.Limit)
	enc.Int64Key("budget", int64(w.w.Budget))
	enc.Int64Key("actual", int64(w.w.Actual))
	enc.IntKey("threshold_percent", int(w.w.ThresholdPercent))
	enc.StringKey("at", w.w.Span.String())
}

type patternsJSON []resource.UsagePattern

func (p patternsJSON) IsNil() bool { return len(p) == 0 }

func (p patternsJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range p {
		enc.AddObject(patternJSON{&p[i]})
	}
}

type patternJSON struct {
	p *resource.UsagePattern
}

func (p patternJSON) IsNil() bool { return p.p == nil }

func (p patternJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("category", p.p.Category)
	enc.IntKey("typical_count", p.p.TypicalCount)
	enc.FloatKey("access_frequency", p.p.AccessFrequency)
	enc.FloatKey("avg_hold_time_ms", p.p.AvgHoldTimeMS)
	enc.FloatKey("max_hold_time_ms", p.p.MaxHoldTimeMS)
}

type suggestionsJSON []resource.Suggestion

func (s suggestionsJSON) IsNil() bool { return len(s) == 0 }

func (s suggestionsJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range s {
		enc.AddObject(suggestionJSON{&s[i]})
	}
}

type suggestionJSON struct {
	s *resource.Suggestion
}

func (s suggestionJSON) IsNil() bool { return s.s == nil }

func (s suggestionJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("kind", s.s.Kind.String())
	enc.StringKey("binding", s.s.Binding)
	enc.StringKey("category", s.s.Category)
	enc.StringKey("function", s.s.Function)
	enc.StringKey("at", s.s.Span.String())
	enc.StringKey("message", s.s.Message)
	enc.ObjectKey("benefit", benefitJSON{&s.s.Benefit})
}

type benefitJSON struct {
	b *resource.ExpectedBenefit
}

func (b benefitJSON) IsNil() bool { return b.b == nil }

func (b benefitJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.FloatKey("memory_savings_mb", b.b.MemorySavingsMB)
	enc.FloatKey("latency_reduction_ms", b.b.LatencyReductionMS)
	enc.IntKey("resource_count_reduction", int(b.b.ResourceCountReduction))
}

type errorsJSON []*resource.AnalysisError

func (e errorsJSON) IsNil() bool { return len(e) == 0 }

func (e errorsJSON) MarshalJSONArray(enc *gojay.Encoder) {
	for _, item := range e {
		enc.AddObject(errorJSON{item})
	}
}

type errorJSON struct {
	e *resource.AnalysisError
}

func (e errorJSON) IsNil() bool { return e.e == nil }

func (e errorJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("kind", e.e.Kind.String())
	enc.StringKey("binding", e.e.Binding)
	enc.StringKey("at", e.e.Span.String())
	enc.StringKey("message", e.e.Message)
}
