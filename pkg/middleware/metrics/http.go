package metrics

import (
	"net/http"

	"github.com/joeydtaylor/steeze-connect/pkg/dispatch"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// ProvideMetrics returns the /metrics handler.
func ProvideMetrics() http.Handler { return promhttp.Handler() }

var Module = fx.Options(
	fx.Provide(fx.Annotate(ProvideMetrics, fx.ResultTags(`name:"metrics"`))),
	fx.Provide(func() dispatch.Observer { return Dispatch{} }),
)
