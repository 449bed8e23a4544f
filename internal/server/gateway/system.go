package gateway

import (
	"context"
	"encoding/json"
	"maps"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
)

// SystemCall invokes a namespace method on behalf of another service rather
// than a user. No session crosses the boundary: the backend always gets a
// nil session and whatever session it returns is discarded.
func (gs *GatewayServer) SystemCall(ctx context.Context, namespace, method string, params ...any) (json.RawMessage, error) {
	full := namespace + rpc.NamespaceSeparator + method
	if _, _, err := rpc.SplitMethod(full); err != nil {
		return nil, err
	}
	ns, name, err := gs.router.resolve(full)
	if err != nil {
		return nil, err
	}

	raw := make([]json.RawMessage, 0, len(params))
	for i, p := range params {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, rpc.Errorf(rpc.ErrInvalidParams, "param %d: %s", i, err)
		}
		raw = append(raw, b)
	}

	out, err := gs.invoker.Invoke(ctx, gs.Target(ns), &rpc.BackendRequest{
		Method:  name,
		Params:  raw,
		Session: nil,
		Caller: rpc.Caller{
			Env:      maps.Clone(gs.callerEnv),
			IsUser:   false,
			IsSystem: true,
		},
	})
	if err != nil {
		return nil, backendError(err)
	}
	if out == nil {
		return nil, rpc.Errorf(rpc.ErrBackend, "backend %s returned no outcome", gs.Target(ns))
	}
	if out.Error != nil {
		return nil, normalize(out.Error)
	}
	if len(out.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return out.Result, nil
}
