package metrics

import (
	"time"

	"github.com/joeydtaylor/steeze-connect/pkg/dispatch"
)

// unresolved replaces caller-supplied labels on requests that never reached a
// registered operation.
const unresolved = "_unresolved"

// Dispatch records connector outcomes; it satisfies dispatch.Observer.
type Dispatch struct{}

func (Dispatch) ObserveDispatch(name, operation, outcome string, d time.Duration) {
	switch outcome {
	case dispatch.OutcomeMalformed, dispatch.OutcomeUnsupported, dispatch.OutcomeUnavailable:
		name, operation = unresolved, unresolved
	}
	dispatchTotal.WithLabelValues(name, operation, outcome).Inc()
	dispatchDuration.WithLabelValues(name, operation).Observe(d.Seconds())
}
