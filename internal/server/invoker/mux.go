package invoker

import (
	"context"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/gateway"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/juju/errors"
)

// Mux routes each target to its own invoker, so one gateway can mix local
// and remote backends.
type Mux struct {
	routes map[string]gateway.Invoker
}

var _ gateway.Invoker = (*Mux)(nil)

func NewMux() *Mux {
	return &Mux{routes: make(map[string]gateway.Invoker)}
}

func (m *Mux) Handle(target string, inv gateway.Invoker) *Mux {
	m.routes[target] = inv
	return m
}

func (m *Mux) Invoke(ctx context.Context, target string, req *rpc.BackendRequest) (*rpc.BackendResponse, error) {
	inv, ok := m.routes[target]
	if !ok {
		return nil, errors.NotFoundf("backend %s", target)
	}
	return inv.Invoke(ctx, target, req)
}
