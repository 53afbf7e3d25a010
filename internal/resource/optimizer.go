package resource

import (
	"fmt"
	"sort"
)

// Advise aggregates the usage statistics of every resource tracked during
// the run into per-category patterns, then appends optimization
// suggestions to the results. Call it once, after the last function has
// been analyzed. Suggestions are heuristic and never change the
// verification verdict.
func (a *Analyzer) Advise() {
	if a.disableAdvisor {
		return
	}
	for _, group := range a.groupByCategory() {
		pat := a.aggregateUsage(group)
		a.results.Patterns = append(a.results.Patterns, pat)
		a.suggestPooling(pat, group[0])
	}
	for _, res := range a.acquired {
		a.suggestLazyAcquisition(res)
	}
}

// groupByCategory buckets every tracked resource by category. Groups come
// back ordered by category name so reports are deterministic; within a
// group, resources keep acquisition order.
func (a *Analyzer) groupByCategory() [][]*TrackedResource {
	byCategory := make(map[string][]*TrackedResource)
	for _, res := range a.acquired {
		byCategory[res.Category] = append(byCategory[res.Category], res)
	}
	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	groups := make([][]*TrackedResource, 0, len(categories))
	for _, category := range categories {
		groups = append(groups, byCategory[category])
	}
	return groups
}

// aggregateUsage folds the statistics of one category's resources into a
// single pattern: mean and maximum hold time, total accesses normalized
// over the advisor window, and the number of distinct resources.
func (a *Analyzer) aggregateUsage(group []*TrackedResource) UsagePattern {
	pat := UsagePattern{
		Category:     group[0].Category,
		TypicalCount: len(group),
	}
	var holdSum float64
	var accesses uint64
	for _, res := range group {
		holdSum += res.Stats.AvgHoldTimeMS
		if res.Stats.AvgHoldTimeMS > pat.MaxHoldTimeMS {
			pat.MaxHoldTimeMS = res.Stats.AvgHoldTimeMS
		}
		accesses += res.Stats.TotalAccesses
	}
	pat.AvgHoldTimeMS = holdSum / float64(len(group))
	if a.window > 0 {
		pat.AccessFrequency = float64(accesses) / a.window
	}
	return pat
}

// suggestPooling flags categories accessed often enough that repeated
// acquisition dominates. The suggestion is anchored at the category's
// first acquisition. Categories already backed by a registered pool are
// exempt.
func (a *Analyzer) suggestPooling(pat UsagePattern, first *TrackedResource) {
	if pat.AccessFrequency <= a.poolThreshold {
		return
	}
	if a.hasPoolForCategory(pat.Category) {
		return
	}
	a.results.Suggestions = append(a.results.Suggestions, Suggestion{
		Kind:     SuggestUsePool,
		Binding:  first.Binding,
		Category: pat.Category,
		Function: first.Function,
		Span:     first.AcquisitionSite,
		Message: fmt.Sprintf("resources of category %q are accessed at high frequency (%.2f); a pool would amortize acquisition cost",
			pat.Category, pat.AccessFrequency),
		Benefit: ExpectedBenefit{
			LatencyReductionMS:     pat.AvgHoldTimeMS * 0.5,
			ResourceCountReduction: uint32(pat.TypicalCount / 2),
		},
	})
}

// suggestLazyAcquisition flags resources that are acquired and then never
// accessed before release.
func (a *Analyzer) suggestLazyAcquisition(res *TrackedResource) {
	if res.Stats.TotalAccesses != 0 {
		return
	}
	a.results.Suggestions = append(a.results.Suggestions, Suggestion{
		Kind:     SuggestLazyAcquisition,
		Binding:  res.Binding,
		Category: res.Category,
		Function: res.Function,
		Span:     res.AcquisitionSite,
		Message: fmt.Sprintf("resource %q is acquired but never accessed; defer acquisition until first use",
			res.Binding),
		Benefit: ExpectedBenefit{
			MemorySavingsMB:        1.0,
			LatencyReductionMS:     10.0,
			ResourceCountReduction: 1,
		},
	})
}
