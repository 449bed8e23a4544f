// Package invoker holds the concrete ways a gateway reaches its backends.
package invoker

import (
	"context"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/gateway"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/service"
	"github.com/juju/errors"
)

// Local dispatches to service handlers living in the same process.
// Register everything before the first Invoke.
type Local struct {
	targets map[string]service.Handler
}

var _ gateway.Invoker = (*Local)(nil)

func NewLocal() *Local {
	return &Local{targets: make(map[string]service.Handler)}
}

func (l *Local) Register(target string, h service.Handler) *Local {
	l.targets[target] = h
	return l
}

func (l *Local) Invoke(ctx context.Context, target string, req *rpc.BackendRequest) (*rpc.BackendResponse, error) {
	h, ok := l.targets[target]
	if !ok {
		return nil, errors.NotFoundf("backend %s", target)
	}
	return h(ctx, req), nil
}
