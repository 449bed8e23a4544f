package gateway

import (
	"context"
	"log/slog"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/session"
)

// Invoker performs the actual backend call. How the call travels (in
// process, over HTTP, through a function service) is up to the
// implementation, as are timeouts.
type Invoker interface {
	Invoke(ctx context.Context, target string, req *rpc.BackendRequest) (*rpc.BackendResponse, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, target string, req *rpc.BackendRequest) (*rpc.BackendResponse, error)

func (f InvokerFunc) Invoke(ctx context.Context, target string, req *rpc.BackendRequest) (*rpc.BackendResponse, error) {
	return f(ctx, target, req)
}

// GatewayServer is the request pipeline. It is immutable once built and
// safe for concurrent use.
type GatewayServer struct {
	router *router

	invoker      Invoker
	codec        session.CodecContract
	log          *slog.Logger
	targetPrefix string
	callerEnv    map[string]string
	exposeStack  bool
}
