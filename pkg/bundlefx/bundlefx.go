// Package bundlefx groups the ambient HTTP middleware every connector server
// carries: file-backed zap logging and Prometheus collection.
package bundlefx

import (
	"github.com/joeydtaylor/steeze-connect/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-connect/pkg/middleware/metrics"
	"go.uber.org/fx"
)

var Module = fx.Options(
	logger.Module,
	metrics.Module,
)
