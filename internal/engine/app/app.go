// Package app runs the node lifecycle: ordered init hooks, one run hook and
// a fallback that is called exactly once on shutdown or panic.
package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cmpt-474-edu-monitor/sdk/internal/core/corestate"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/config"
)

type InitHook func(cs *corestate.CoreState, x *AppX) error
type RunHook func(ctx context.Context, cs *corestate.CoreState, x *AppX) error
type FallbackHook func(ctx context.Context, cs *corestate.CoreState, x *AppX)

type AppContract interface {
	InitialHooks(fn ...InitHook)
	Run(fn RunHook) error
	Fallback(fn FallbackHook)

	CallFallback(ctx context.Context)
}

type App struct {
	initHooks []InitHook
	runHook   RunHook
	fallback  FallbackHook

	Corestate *corestate.CoreState
	AppX      *AppX

	fallbackOnce sync.Once
	signals      []os.Signal
}

// AppX is what every hook gets: the composed config, the bootstrap logger
// used until init is done and the structured logger set up from config.
type AppX struct {
	Config *config.Compositor
	Log    *log.Logger
	SLog   *slog.Logger
}

func New(compositor *config.Compositor) *App {
	return &App{
		AppX: &AppX{
			Config: compositor,
			Log:    log.Default(),
			SLog:   slog.Default(),
		},
		Corestate: corestate.NewCorestate(&corestate.CoreState{}),
		signals:   []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
	}
}

func (a *App) InitialHooks(fn ...InitHook) {
	a.initHooks = append(a.initHooks, fn...)
}

func (a *App) Fallback(fn FallbackHook) {
	a.fallback = fn
}

// Run executes the init hooks in order, then fn under a context cancelled by
// SIGINT, SIGTERM or SIGQUIT. The first init error stops the sequence. The
// fallback runs once fn returns; a panic anywhere triggers it as well and is
// returned as an error.
func (a *App) Run(fn RunHook) (err error) {
	a.runHook = fn

	ctx, stop := signal.NotifyContext(context.Background(), a.signals...)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			a.AppX.Log.Printf("PANIC recovered: %v", r)
			a.CallFallback(ctx)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	for i, hook := range a.initHooks {
		if err := hook(a.Corestate, a.AppX); err != nil {
			a.CallFallback(ctx)
			return fmt.Errorf("init hook %d: %w", i, err)
		}
	}

	defer a.CallFallback(ctx)
	if a.runHook == nil {
		return nil
	}
	return a.runHook(ctx, a.Corestate, a.AppX)
}

func (a *App) CallFallback(ctx context.Context) {
	a.fallbackOnce.Do(func() {
		if a.fallback != nil {
			a.fallback(ctx, a.Corestate, a.AppX)
		}
	})
}
