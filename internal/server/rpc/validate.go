package rpc

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// IdentifierPattern is the allowed shape of namespaces and method names.
var IdentifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Validate checks the request shape. Every failure is an invalid request.
func Validate(req *RPCRequest) error {
	if !ValidID(req.ID) {
		return invalid("id is not a string, number, or null")
	}

	if kind(req.Method) != '"' {
		return invalid("method is not a string")
	}
	if _, _, err := SplitMethod(req.MethodName()); err != nil {
		return err
	}

	switch kind(req.Params) {
	case 0, 'n', '[', '{':
	default:
		return invalid("params is not an object or array")
	}

	switch kind(req.Session) {
	case 0, 'n', '"':
	default:
		return invalid("session is not a string")
	}
	return nil
}

// ValidID reports whether the id is absent, null, a string or a number.
func ValidID(id json.RawMessage) bool {
	switch k := kind(id); {
	case k == 0, k == 'n', k == '"':
		return true
	case k == '-' || (k >= '0' && k <= '9'):
		var n json.Number
		return json.Unmarshal(id, &n) == nil
	default:
		return false
	}
}

// SplitMethod splits "Namespace::method" on the first separator and checks
// both halves against IdentifierPattern.
func SplitMethod(method string) (namespace, name string, err error) {
	idx := strings.Index(method, NamespaceSeparator)
	if idx <= 0 {
		return "", "", invalid("a namespace is required")
	}
	namespace = method[:idx]
	name = method[idx+len(NamespaceSeparator):]
	if !IdentifierPattern.MatchString(namespace) {
		return "", "", invalid("illegal namespace: " + namespace)
	}
	if !IdentifierPattern.MatchString(name) {
		return "", "", invalid("illegal method: " + name)
	}
	return namespace, name, nil
}

// kind returns the first significant byte of a raw value, 0 when absent.
// 't' and 'f' mark booleans, 'n' null.
func kind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func invalid(msg string) *RPCError {
	return &RPCError{Code: ErrInvalidRequest, Message: msg}
}
