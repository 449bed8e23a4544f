package hooks

import (
	"fmt"
	"log/slog"

	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/config"
	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/lua"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/gateway"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/invoker"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/session"
)

// buildGateway wires every configured namespace to its backend: lua
// namespaces run in process on engine, http namespaces go through a
// breaker guarded HTTP invoker.
func buildGateway(conf *config.Conf, engine *lua.Engine, codec session.CodecContract, log *slog.Logger) (*gateway.GatewayServer, error) {
	gwConf := conf.Gateway
	mux := invoker.NewMux()
	local := invoker.NewLocal()

	b := gateway.NewBuilder(&gateway.GatewayServerInit{
		Log:          log,
		Invoker:      mux,
		Codec:        codec,
		TargetPrefix: *gwConf.TargetPrefix,
		CallerEnv:    *gwConf.CallerEnv,
		ExposeStack:  *gwConf.ExposeStack,
	})

	for _, ns := range *gwConf.Namespaces {
		target := *gwConf.TargetPrefix + ns.Name
		switch ns.Kind {
		case config.KindLua:
			interfaces, err := engine.LoadInterfaces(ns.Scripts)
			if err != nil {
				return nil, fmt.Errorf("namespace %s: %w", ns.Name, err)
			}
			h, err := interfaces.Build()
			if err != nil {
				return nil, fmt.Errorf("namespace %s: %w", ns.Name, err)
			}
			local.Register(target, h)
			mux.Handle(target, local)
			log.Info("namespace served in process", slog.String("namespace", ns.Name), slog.Any("interfaces", interfaces.Names()))
		case config.KindHTTP:
			remote := invoker.NewHTTP(&invoker.HTTPInit{
				Log:     log,
				Timeout: ns.Timeout,
				Breaker: invoker.BreakerConfig{
					MaxFailures: *conf.Breaker.MaxFailures,
					Timeout:     *conf.Breaker.Timeout,
					Interval:    *conf.Breaker.Interval,
				},
			}, map[string]string{target: ns.URL})
			mux.Handle(target, remote)
			log.Info("namespace forwarded", slog.String("namespace", ns.Name), slog.String("url", ns.URL))
		default:
			return nil, fmt.Errorf("namespace %s: unknown kind %q", ns.Name, ns.Kind)
		}
		b.AddNamespace(ns.Name)
	}
	return b.Build()
}
