package resource

import (
	"reflect"
	"time"

	"github.com/viant/gmetric"
	"github.com/viant/gmetric/counter"
	"github.com/viant/gmetric/provider"
)

type metricsLocation struct{}

func metricLocation() string {
	return reflect.TypeOf(metricsLocation{}).PkgPath()
}

// Metrics exposes verification performance counters. A nil *Metrics is
// valid and records nothing, so instrumentation stays optional.
type Metrics struct {
	Service   *gmetric.Service
	Verify    *gmetric.Operation
	Functions *gmetric.Operation
}

// NewMetrics creates a metric service with one counter for whole-program
// verification and one for per-function analysis.
func NewMetrics() *Metrics {
	service := gmetric.New()
	return &Metrics{
		Service: service,
		Verify: service.MultiOperationCounter(metricLocation(), "verify",
			"program verification performance", time.Millisecond, time.Minute, 2, provider.NewBasic()),
		Functions: service.MultiOperationCounter(metricLocation(), "function",
			"per function analysis performance", time.Millisecond, time.Minute, 2, provider.NewBasic()),
	}
}

// BeginVerify starts timing one verification run.
func (m *Metrics) BeginVerify(started time.Time) counter.OnDone {
	if m == nil || m.Verify == nil {
		return nopOnDone
	}
	return m.Verify.Begin(started)
}

// BeginFunction starts timing one function analysis.
func (m *Metrics) BeginFunction(started time.Time) counter.OnDone {
	if m == nil || m.Functions == nil {
		return nopOnDone
	}
	return m.Functions.Begin(started)
}

func nopOnDone(_ time.Time, _ ...interface{}) int64 { return 0 }
