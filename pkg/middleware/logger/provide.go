package logger

import (
	"github.com/joeydtaylor/steeze-connect/pkg/manifest"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type loggers struct {
	fx.Out

	System *zap.Logger
	Access *zap.Logger `name:"access"`
}

func provideLoggers(cfg manifest.Config) loggers {
	return loggers{
		System: NewLog(cfg.Log.Dir, "system.log", cfg.Log.Level),
		Access: NewLog(cfg.Log.Dir, "http-access.log", "info"),
	}
}

type middlewareIn struct {
	fx.In

	Cfg    manifest.Config
	Access *zap.Logger `name:"access"`
}

func provideMiddleware(in middlewareIn) *Middleware {
	AddBodyLogPaths(in.Cfg.BodyLogPrefixes()...)
	return NewMiddleware(in.Access)
}
