package resource

import "github.com/aether-lang/aether/internal/ast"

// staticLimit describes one contract budget the verifier can enforce
// without runtime data: budgets that bound how many resources of a
// category may be held at once. Time, memory and bandwidth budgets need
// runtime measurements and are monitored by the runtime instead.
type staticLimit struct {
	name     string
	category string
	budget   func(*ast.ResourceContract) (uint64, bool)
}

var staticLimits = []staticLimit{
	{
		name:     "max_file_handles",
		category: ast.CategoryFileHandle,
		budget: func(c *ast.ResourceContract) (uint64, bool) {
			if c.MaxFileHandles == nil {
				return 0, false
			}
			return uint64(*c.MaxFileHandles), true
		},
	},
	{
		name:     "max_threads",
		category: ast.CategoryThread,
		budget: func(c *ast.ResourceContract) (uint64, bool) {
			if c.MaxThreads == nil {
				return 0, false
			}
			return uint64(*c.MaxThreads), true
		},
	},
}

// checkContract enforces the active contract against a fresh acquisition.
// The resource is already tracked, so live counts include it. A non-nil
// return is a hard failure that stops analysis of the function.
func (a *Analyzer) checkContract(res *TrackedResource) error {
	contract := a.contract
	if contract == nil {
		return nil
	}

	for _, limit := range staticLimits {
		if res.Category != limit.category {
			continue
		}
		budget, ok := limit.budget(contract)
		if !ok {
			continue
		}
		actual := uint64(a.liveCount(limit.category))

		switch contract.Enforcement.Mode {
		case ast.EnforceMonitor:
			if actual > budget {
				a.results.ContractViolations = append(a.results.ContractViolations, ContractViolation{
					Function: a.function,
					Binding:  res.Binding,
					Limit:    limit.name,
					Budget:   budget,
					Actual:   actual,
					Mode:     contract.Enforcement.Mode.String(),
					Span:     res.AcquisitionSite,
				})
			}
		case ast.EnforceWarn:
			if actual > budget {
				return a.failContract(res, limit.name, budget, actual)
			}
			threshold := contract.Enforcement.WarnThresholdPercent
			if threshold == 0 {
				threshold = a.warnThreshold
			}
			if budget > 0 && actual*100 >= uint64(threshold)*budget {
				a.results.ContractWarnings = append(a.results.ContractWarnings, ContractWarning{
					Function:         a.function,
					Binding:          res.Binding,
					Limit:            limit.name,
					Budget:           budget,
					Actual:           actual,
					ThresholdPercent: threshold,
					Span:             res.AcquisitionSite,
				})
			}
		default:
			if actual > budget {
				return a.failContract(res, limit.name, budget, actual)
			}
		}
	}
	return nil
}

// failContract records a violation and converts it to a hard error.
func (a *Analyzer) failContract(res *TrackedResource, limit string, budget, actual uint64) error {
	violation := ContractViolation{
		Function: a.function,
		Binding:  res.Binding,
		Limit:    limit,
		Budget:   budget,
		Actual:   actual,
		Mode:     a.contract.Enforcement.Mode.String(),
		Span:     res.AcquisitionSite,
	}
	a.results.ContractViolations = append(a.results.ContractViolations, violation)
	return contractViolationError(&violation)
}
