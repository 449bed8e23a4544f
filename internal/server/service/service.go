// Package service is the backend side of the gateway: it resolves a method
// against a table of registered interfaces, runs it with a call context and
// turns whatever the handler does, including panicking, into a structured
// outcome.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cmpt-474-edu-monitor/sdk/internal/core/utils"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/juju/errors"
)

// CallContext is handed to every interface as its first argument. Handlers
// mutate Session in place to produce the next session state.
type CallContext struct {
	Session map[string]any
	Caller  rpc.Caller

	ctx context.Context
}

// Context returns the context of the underlying request.
func (c *CallContext) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// HandlerFunc is the untyped interface form: it receives the raw positional
// params and decodes them itself.
type HandlerFunc func(cc *CallContext, params []json.RawMessage) (any, error)

// Handler serves one backend request. It never panics and always returns a
// non-nil response.
type Handler func(ctx context.Context, req *rpc.BackendRequest) *rpc.BackendResponse

// Builder collects interfaces. Registration errors are reported by Build.
type Builder struct {
	interfaces map[string]HandlerFunc
	err        error
}

func NewBuilder() *Builder {
	return &Builder{interfaces: make(map[string]HandlerFunc)}
}

// AddInterface registers fn under name. fn is a HandlerFunc or any function
// whose first parameter is *CallContext followed by positional params, e.g.
//
//	func(cc *CallContext, a, b int) (int, error)
//
// When receiver is not nil, fn is a method expression such as (*T).Method
// and receiver is bound as its first argument.
func (b *Builder) AddInterface(name string, fn any, receiver any) *Builder {
	if b.err != nil {
		return b
	}
	if !rpc.IdentifierPattern.MatchString(name) {
		b.err = errors.NotValidf("interface name %q", name)
		return b
	}
	h, err := bind(fn, receiver)
	if err != nil {
		b.err = errors.Annotatef(err, "interface %s", name)
		return b
	}
	b.interfaces[name] = h
	return b
}

// Names returns the registered interface names, sorted.
func (b *Builder) Names() []string {
	names := make([]string, 0, len(b.interfaces))
	for name := range b.interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build freezes the interface table.
func (b *Builder) Build() (Handler, error) {
	if b.err != nil {
		return nil, b.err
	}
	table := make(map[string]HandlerFunc, len(b.interfaces))
	for name, h := range b.interfaces {
		table[name] = h
	}
	return func(ctx context.Context, req *rpc.BackendRequest) *rpc.BackendResponse {
		return dispatch(ctx, table, req)
	}, nil
}

func dispatch(ctx context.Context, table map[string]HandlerFunc, req *rpc.BackendRequest) (resp *rpc.BackendResponse) {
	defer utils.CatchPanicWithFallback(func(rec any, stack []byte) {
		name := "panic"
		if err, ok := rec.(error); ok {
			name = fmt.Sprintf("%T", err)
		}
		resp = &rpc.BackendResponse{Error: &rpc.RPCError{
			Code:    rpc.ErrBackend,
			Message: fmt.Sprint(rec),
			Data: map[string]any{
				"stack": string(stack),
				"name":  name,
			},
		}}
	})

	h, ok := table[req.Method]
	if !ok {
		return Failure(rpc.Errorf(rpc.ErrMethodNotFound, "method %s does not exist", req.Method))
	}

	cc := &CallContext{
		Session: req.Session,
		Caller:  req.Caller,
		ctx:     ctx,
	}
	if cc.Session == nil {
		cc.Session = map[string]any{}
	}

	result, err := h(cc, req.Params)
	if err != nil {
		return Failure(err)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return Failure(errors.Annotatef(err, "encode result of %s", req.Method))
	}
	return &rpc.BackendResponse{
		Result:  raw,
		Session: cc.Session,
	}
}

// Failure converts err into an error outcome. The code comes from the error
// when it carries one, otherwise it is the generic backend code. Stack and
// name already present in an RPCError's data are kept.
func Failure(err error) *rpc.BackendResponse {
	out := &rpc.RPCError{
		Code:    rpc.CodeOf(err),
		Message: err.Error(),
	}
	data := map[string]any{}
	var rerr *rpc.RPCError
	if errors.As(err, &rerr) {
		out.Message = rerr.Message
		for k, v := range rerr.Data {
			data[k] = v
		}
	}
	if _, ok := data["stack"]; !ok {
		data["stack"] = errors.ErrorStack(err)
	}
	if _, ok := data["name"]; !ok {
		data["name"] = fmt.Sprintf("%T", errors.Cause(err))
	}
	out.Data = data
	return &rpc.BackendResponse{Error: out}
}
