package serverfx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-connect/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-connect/pkg/config"
	"github.com/joeydtaylor/steeze-connect/pkg/dispatch"
	"github.com/joeydtaylor/steeze-connect/pkg/manifest"
	"github.com/joeydtaylor/steeze-connect/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-connect/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-connect/pkg/registry"
	"github.com/joeydtaylor/steeze-connect/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ---------- Options ----------

// ModuleFactory builds a connector module around the server's system logger.
type ModuleFactory func(log *zap.Logger) registry.Module

type Options struct {
	Modules  []ModuleFactory
	Registry *registry.Registry
	Manifest *manifest.Config
}

type Option func(*Options)

// WithModules lists connector modules that need no runtime dependencies.
func WithModules(m ...registry.Module) Option {
	return func(o *Options) {
		for _, mod := range m {
			mod := mod
			o.Modules = append(o.Modules, func(*zap.Logger) registry.Module { return mod })
		}
	}
}

// WithModuleFactories lists connector modules built with the system logger.
func WithModuleFactories(f ...ModuleFactory) Option {
	return func(o *Options) { o.Modules = append(o.Modules, f...) }
}

// WithRegistry replaces registry.Default (tests use a fresh one).
func WithRegistry(r *registry.Registry) Option { return func(o *Options) { o.Registry = r } }

// WithManifest skips CSP_MANIFEST and uses cfg as loaded.
func WithManifest(cfg manifest.Config) Option { return func(o *Options) { o.Manifest = &cfg } }

// Module returns a complete Fx option set for a connector server.
func Module(opts ...Option) fx.Option {
	o := Options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Registry == nil {
		o.Registry = registry.Default
	}
	return fx.Options(
		fx.Supply(o),
		fx.Provide(provideConfig),
		bundlefx.Module,
		fx.Provide(httpx.NewChi),
		fx.Provide(provideRegistry),
		fx.Provide(provideDispatcher),
		fx.Provide(fx.Annotate(provideRouter, fx.ResultTags(`name:"app"`))),
		fx.Provide(provideServer),
		fx.Invoke(registerHooks),
	)
}

// ---------- Config ----------

func provideConfig(o Options) (manifest.Config, error) {
	if o.Manifest != nil {
		cfg := *o.Manifest
		return cfg, cfg.Validate()
	}
	return config.Load()
}

// ---------- Registry ----------

// provideRegistry runs the bootstrap phase and builds the table eagerly so a
// duplicate registration fails startup instead of the first request.
func provideRegistry(o Options, cfg manifest.Config, log *zap.Logger) (*registry.Registry, error) {
	modules := make([]registry.Module, 0, len(o.Modules))
	for _, f := range o.Modules {
		modules = append(modules, f(log))
	}
	if err := registry.Bootstrap(o.Registry, modules, cfg.Enabled); err != nil {
		return nil, err
	}
	descs, err := o.Registry.Descriptors()
	if err != nil {
		return nil, err
	}
	for _, d := range descs {
		log.Info("connector registered",
			zap.String("connector", d.Name),
			zap.String("operation", d.Operation),
			zap.String("mode", cfg.Dispatch.Mode),
		)
	}
	if len(descs) == 0 {
		log.Warn("no connectors registered")
	}
	return o.Registry, nil
}

type dispatcherDeps struct {
	fx.In

	Cfg      manifest.Config
	Reg      *registry.Registry
	Log      *zap.Logger
	Observer dispatch.Observer `optional:"true"`
}

func provideDispatcher(d dispatcherDeps) *dispatch.Dispatcher {
	return dispatch.New(d.Reg, dispatch.Options{
		Prefix:       d.Cfg.Dispatch.Prefix,
		MaxBodyBytes: d.Cfg.Dispatch.MaxBodyBytes,
		Timeout:      d.Cfg.Dispatch.Timeout(),
		Logger:       d.Log,
		Observer:     d.Observer,
	})
}

// ---------- Router ----------

type routerDeps struct {
	fx.In

	Cfg     manifest.Config
	LogMW   *logger.Middleware
	Metrics http.Handler `name:"metrics"`
	Router  httpx.Router
	Reg     *registry.Registry
	Disp    *dispatch.Dispatcher
}

func provideRouter(d routerDeps) (http.Handler, error) {
	mode, err := dispatch.ParseMode(d.Cfg.Dispatch.Mode)
	if err != nil {
		return nil, err
	}

	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware())
	}
	r.Use(metrics.Collect())

	r.Get("/metrics", d.Metrics)
	if err := dispatch.Mount(r, d.Reg, mode, d.Disp); err != nil {
		return nil, err
	}
	return r.Mux(), nil
}

// ---------- Lifecycle ----------

// Server owns the HTTP listener. Addr is valid once the app has started.
type Server struct {
	srv *http.Server

	mu   sync.Mutex
	addr net.Addr
}

func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

type serverDeps struct {
	fx.In

	Cfg manifest.Config
	App http.Handler `name:"app"`
}

func provideServer(d serverDeps) *Server {
	return &Server{srv: &http.Server{
		Addr:         d.Cfg.Server.Listen,
		Handler:      d.App,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
}

func registerHooks(lc fx.Lifecycle, cfg manifest.Config, s *Server, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", s.srv.Addr)
			if err != nil {
				return err
			}
			s.mu.Lock()
			s.addr = ln.Addr()
			s.mu.Unlock()

			log.Info("server starting",
				zap.String("service", cfg.Server.Service),
				zap.String("addr", ln.Addr().String()),
				zap.String("mode", cfg.Dispatch.Mode),
			)
			go func() {
				if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("server stopping", zap.String("service", cfg.Server.Service))
			defer func() { _ = log.Sync() }()
			return s.srv.Shutdown(ctx)
		},
	})
}
