package hooks

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/cmpt-474-edu-monitor/sdk/internal/core/corestate"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/app"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/config"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/lua"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/service"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

// Service starts a node that hosts Lua interfaces for remote gateways.
func Service(cmd *cobra.Command, args []string) error {
	return start(corestate.RoleService, ServiceHook)
}

func ServiceHook(ctx context.Context, cs *corestate.CoreState, x *app.AppX) error {
	ctxMain, cancelMain := context.WithCancel(ctx)
	defer cancelMain()
	watchRunLock(ctxMain, cancelMain, x)

	svc := x.Config.Conf.Service
	engine := lua.NewEngine(x.SLog)
	defer engine.Close()

	interfaces, err := engine.LoadInterfaces(*svc.Scripts)
	if err != nil {
		return err
	}
	h, err := interfaces.Build()
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Handle(*svc.Route, service.HTTPHandler(h, x.SLog))
	r.Get(config.FaviconRoute, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	x.SLog.Info("service ready", slog.Any("interfaces", interfaces.Names()), slog.String("route", *svc.Route))
	return serve(ctxMain, cancelMain, x, r, net.JoinHostPort(*svc.Address, *svc.Port), *svc.Route)
}
