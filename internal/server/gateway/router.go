package gateway

import (
	"slices"
	"strings"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
)

// router is the namespace registry. Read only after construction.
type router struct {
	ordered []string
	known   map[string]struct{}
}

func newRouter(namespaces []string) *router {
	r := &router{
		ordered: slices.Clone(namespaces),
		known:   make(map[string]struct{}, len(namespaces)),
	}
	for _, ns := range namespaces {
		r.known[ns] = struct{}{}
	}
	return r
}

// resolve splits method on the first separator and checks the namespace is
// registered. The method is expected to be validated already.
func (r *router) resolve(method string) (namespace, name string, err error) {
	idx := strings.Index(method, rpc.NamespaceSeparator)
	if idx < 0 {
		return "", "", rpc.Errorf(rpc.ErrInvalidRequest, "a namespace is required")
	}
	namespace = method[:idx]
	name = method[idx+len(rpc.NamespaceSeparator):]
	if _, ok := r.known[namespace]; !ok {
		return "", "", rpc.Errorf(rpc.ErrMethodNotFound, "namespace %s does not exist", namespace)
	}
	return namespace, name, nil
}

func (r *router) list() []string {
	return slices.Clone(r.ordered)
}
