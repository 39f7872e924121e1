package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/profilewizard/component"
	"github.com/kbukum/profilewizard/logger"
)

// Hook runs at a fixed point of the lifecycle.
type Hook func(ctx context.Context) error

// App drives one run of a binary: start components, configure the rest, run a
// task, then stop everything in reverse. C is the concrete config type, so
// callbacks see a.Cfg fully typed.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout time.Duration
	summary         io.Writer
	configure       []func(ctx context.Context, app *App[C]) error
	ready           []Hook
	stopping        []Hook
}

// NewApp applies defaults to cfg, validates it and sets up logging.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	s := settings{gracefulTimeout: defaultGracefulTimeout, summary: io.Discard}
	for _, opt := range opts {
		opt(&s)
	}

	base := cfg.GetServiceConfig()
	if s.log == nil {
		logger.Init(base.Logging)
		s.log = logger.GetGlobalLogger()
	}
	return &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(component.WithLogger(s.log)),
		Logger:          s.log,
		gracefulTimeout: s.gracefulTimeout,
		summary:         s.summary,
	}, nil
}

// RegisterComponent adds c to the registry. Components registered from an
// OnConfigure callback start once all callbacks have run.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure runs fn after the components registered up front are started.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.configure = append(a.configure, fn)
}

// OnReady runs hooks after every component is up, right before the task.
func (a *App[C]) OnReady(hooks ...Hook) { a.ready = append(a.ready, hooks...) }

// OnStop runs hooks before components are stopped.
func (a *App[C]) OnStop(hooks ...Hook) { a.stopping = append(a.stopping, hooks...) }

// ReadyCheck lists every component that does not report healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var bad []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		entry := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			entry += "(" + h.Message + ")"
		}
		bad = append(bad, entry)
	}
	if len(bad) > 0 {
		return fmt.Errorf("unhealthy components: %s", strings.Join(bad, ", "))
	}
	return nil
}

// RunTask starts the application, runs task and stops everything once the
// task returns. SIGINT and SIGTERM cancel the task context. A task error takes
// precedence over a shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.start(ctx); err != nil {
		if stopErr := a.stop(); stopErr != nil {
			a.Logger.Warn("shutdown after failed startup incomplete", logger.Fields(logger.FieldError, stopErr.Error()))
		}
		return err
	}

	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	taskErr := task(taskCtx)

	if err := a.stop(); err != nil && taskErr == nil {
		return err
	}
	return taskErr
}

func (a *App[C]) start(ctx context.Context) error {
	began := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if len(a.configure) > 0 {
		for _, fn := range a.configure {
			if err := fn(ctx, a); err != nil {
				return fmt.Errorf("configuration failed: %w", err)
			}
		}
		if err := a.Components.StartAll(ctx); err != nil {
			return fmt.Errorf("configuration failed: %w", err)
		}
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := runHooks(ctx, "onReady", a.ready); err != nil {
		return err
	}

	writeSummary(ctx, a.summary, a.Name, a.Version, time.Since(began), a.Components)
	return nil
}

// stop runs the OnStop hooks and stops all components within the graceful
// timeout, returning the first error.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	first := runHooks(ctx, "onStop", a.stopping)
	if first != nil {
		a.Logger.Error("stop hook failed", logger.Fields(logger.FieldError, first.Error()))
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("components stopped with errors", logger.Fields(logger.FieldError, err.Error()))
		if first == nil {
			first = err
		}
	}
	a.Logger.Info("shutdown complete")
	return first
}

func runHooks(ctx context.Context, phase string, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("%s hook %d: %w", phase, i, err)
		}
	}
	return nil
}
