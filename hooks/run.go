package hooks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cmpt-474-edu-monitor/sdk/internal/colors"
	"github.com/cmpt-474-edu-monitor/sdk/internal/core/corestate"
	"github.com/cmpt-474-edu-monitor/sdk/internal/core/utils"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/app"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/config"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/logs"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/lua"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/ratelimit"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
)

// Run starts the gateway node.
func Run(cmd *cobra.Command, args []string) error {
	return start(corestate.RoleGateway, RunHook)
}

func start(role corestate.Role, hook app.RunHook) error {
	nodeApp := app.New(Compositor)
	nodeApp.Corestate.Role = role
	nodeApp.InitialHooks(initialHooks()...)
	nodeApp.Fallback(func(ctx context.Context, cs *corestate.CoreState, x *app.AppX) {
		if runDir == nil {
			return
		}
		x.Log.Println("Cleaning up...")
		if err := runDir.Clean(); err != nil {
			x.Log.Printf("%s: Cleanup error: %s", colors.PrintError(), err.Error())
		}
		x.Log.Println("bye!")
	})
	return nodeApp.Run(hook)
}

func RunHook(ctx context.Context, cs *corestate.CoreState, x *app.AppX) error {
	ctxMain, cancelMain := context.WithCancel(ctx)
	defer cancelMain()
	watchRunLock(ctxMain, cancelMain, x)

	secret, _ := x.Config.SessionSecret()
	engine := lua.NewEngine(x.SLog)
	defer engine.Close()

	gs, err := buildGateway(x.Config.Conf, engine, session.New(secret), x.SLog)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Transfer-Encoding", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if rl := x.Config.Conf.RateLimit; *rl.Enabled {
		r.Use(ratelimit.New(*rl.RPS, *rl.Burst, *rl.IdleTTL).Middleware(x.SLog))
	}
	r.HandleFunc(*x.Config.Conf.Gateway.Route, gs.Handle)
	r.Get(config.FaviconRoute, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	addr := net.JoinHostPort(*x.Config.Conf.HTTPServer.Address, *x.Config.Conf.HTTPServer.Port)
	x.SLog.Info("gateway ready", slog.Any("namespaces", gs.Namespaces()), slog.String("route", *x.Config.Conf.Gateway.Route))
	return serve(ctxMain, cancelMain, x, r, addr, *x.Config.Conf.Gateway.Route)
}

func watchRunLock(ctx context.Context, cancel context.CancelFunc, x *app.AppX) {
	if runDir == nil {
		return
	}
	if _, err := runDir.Watch(ctx, time.Second, func() {
		x.Log.Printf("run.lock was touched")
		cancel()
	}); err != nil {
		x.Log.Printf("watch error: %s", err)
	}
}

// serve runs handler on addr until ctx is done, then shuts the server down
// gracefully.
func serve(ctx context.Context, cancel context.CancelFunc, x *app.AppX, handler http.Handler, addr, route string) error {
	conf := x.Config.Conf
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  *conf.HTTPServer.Timeout,
		WriteTimeout: *conf.HTTPServer.Timeout,
		IdleTimeout:  *conf.HTTPServer.IdleTimeout,
		ErrorLog: log.New(&logs.SlogWriter{
			Logger: x.SLog,
			Level:  slog.LevelError,
		}, "", 0),
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}
	limitedListener := netutil.LimitListener(listener, *conf.HTTPServer.MaxConnections)

	serveErr := make(chan error, 1)
	go func() {
		defer utils.CatchPanicWithCancel(cancel)
		if *conf.TLS.TlsEnabled {
			x.Log.Printf("Serving on %s with TLS... (https://%s%s)", addr, addr, route)
			serveErr <- srv.ServeTLS(limitedListener, *conf.TLS.CertFile, *conf.TLS.KeyFile)
			return
		}
		x.Log.Printf("Serving on %s... (http://%s%s)", addr, addr, route)
		serveErr <- srv.Serve(limitedListener)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		x.Log.Printf("%s: Failed to stop the server gracefully: %s", colors.PrintError(), err.Error())
		return err
	}
	x.Log.Printf("Server stopped gracefully")
	return nil
}
