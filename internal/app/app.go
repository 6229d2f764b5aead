package app

import (
	"io"
	"log/slog"

	"github.com/vk/rigbuild/internal/inmemorystore"
	"github.com/vk/rigbuild/internal/publish"
	"github.com/vk/rigbuild/internal/registry"
	"github.com/vk/rigbuild/internal/report"
	"github.com/vk/rigbuild/internal/scheduler"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logW      io.Writer
	logger    *slog.Logger
	config    *Config
	host      *inmemorystore.Store
	registry  *registry.Registry
	scheduler *scheduler.Scheduler
	publisher *publish.Publisher
	last      *report.Report
}

// Option configures an App.
type Option func(*App)

// WithHost makes the app build into an existing host store, so objects
// from earlier builds are updated instead of created again.
func WithHost(h *inmemorystore.Store) Option {
	return func(a *App) { a.host = h }
}

// WithLogWriter sends logs to w instead of the output writer.
func WithLogWriter(w io.Writer) Option {
	return func(a *App) { a.logW = w }
}

// WithPublisher replaces the publisher built from the configuration.
func WithPublisher(p *publish.Publisher) Option {
	return func(a *App) { a.publisher = p }
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	a := &App{outW: outW, logW: outW, config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	a.logger = newLogger(cfg.LogLevel, cfg.LogFormat, a.logW)
	a.logger.Debug("Logger configured successfully.")

	if a.host == nil {
		a.host = inmemorystore.New()
	}
	a.registry = registry.New(
		registry.WithHost(a.host),
		registry.WithPlugFunc(a.host.Plug),
		registry.WithChildrenFunc(a.host.Children),
	)
	a.scheduler = scheduler.New(a.registry)
	if a.publisher == nil {
		a.publisher = publish.New(cfg.ReportURL, publish.WithNamespace(cfg.ReportNamespace))
	}
	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Host returns the host object store.
func (a *App) Host() *inmemorystore.Store {
	return a.host
}

// Report returns the report of the last Run, or nil.
func (a *App) Report() *report.Report {
	return a.last
}
