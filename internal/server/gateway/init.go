package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/session"
)

// GatewayServerInit structure only for initialization of the gateway.
type GatewayServerInit struct {
	Log     *slog.Logger
	Invoker Invoker
	Codec   session.CodecContract

	// TargetPrefix is prepended to a namespace to name its backend target.
	TargetPrefix string
	// CallerEnv is handed to backends as caller.env.
	CallerEnv map[string]string
	// ExposeStack attaches goroutine stacks to internal error responses.
	ExposeStack bool
}

// Builder collects namespaces before the gateway is built.
type Builder struct {
	init       GatewayServerInit
	namespaces []string
	err        error
}

func NewBuilder(o *GatewayServerInit) *Builder {
	return &Builder{init: *o}
}

// AddNamespace registers a namespace. An illegal or duplicate name is
// reported by Build.
func (b *Builder) AddNamespace(namespace string) *Builder {
	if b.err != nil {
		return b
	}
	if !rpc.IdentifierPattern.MatchString(namespace) {
		b.err = fmt.Errorf("illegal namespace: %q", namespace)
		return b
	}
	for _, ns := range b.namespaces {
		if ns == namespace {
			b.err = fmt.Errorf("namespace %s is already registered", namespace)
			return b
		}
	}
	b.namespaces = append(b.namespaces, namespace)
	return b
}

// Build returns the gateway. The namespace list is copied, so later
// builder calls do not affect built gateways.
func (b *Builder) Build() (*GatewayServer, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.init.Invoker == nil {
		return nil, errors.New("gateway requires an invoker")
	}
	if b.init.Codec == nil {
		return nil, errors.New("gateway requires a session codec")
	}
	log := b.init.Log
	if log == nil {
		log = slog.Default()
	}
	return &GatewayServer{
		router:       newRouter(b.namespaces),
		invoker:      b.init.Invoker,
		codec:        b.init.Codec,
		log:          log,
		targetPrefix: b.init.TargetPrefix,
		callerEnv:    maps.Clone(b.init.CallerEnv),
		exposeStack:  b.init.ExposeStack,
	}, nil
}

// Namespaces returns the registered namespaces in registration order.
func (gs *GatewayServer) Namespaces() []string {
	return gs.router.list()
}

// Target names the backend target of a namespace.
func (gs *GatewayServer) Target(namespace string) string {
	return gs.targetPrefix + namespace
}
