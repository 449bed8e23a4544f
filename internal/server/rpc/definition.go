package rpc

import (
	"bytes"
	"encoding/json"
)

// RPCRequest is the inbound envelope. Fields are kept raw so that type
// problems are reported by Validate as invalid requests rather than by the
// JSON decoder as parse errors. An absent field has zero length, an explicit
// null is the literal "null".
type RPCRequest struct {
	ID      json.RawMessage `json:"id"`
	Method  json.RawMessage `json:"method"`
	Params  json.RawMessage `json:"params"`
	Session json.RawMessage `json:"session"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	Session string          `json:"session,omitempty"`
}

const (
	JSONRPCVersion = "2.0"

	// NamespaceSeparator splits "Namespace::method".
	NamespaceSeparator = "::"
)

var nullLiteral = []byte("null")

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), nullLiteral)
}

// IsNotification reports whether the request carries no id at all.
// A request with "id": null still expects a response.
func (r *RPCRequest) IsNotification() bool {
	return len(r.ID) == 0
}

// ResponseID returns the id to echo, or nil when none was sent.
func (r *RPCRequest) ResponseID() any {
	if len(r.ID) == 0 {
		return nil
	}
	return r.ID
}

// MethodName returns the decoded method string, or "" if it is not a string.
func (r *RPCRequest) MethodName() string {
	var m string
	if err := json.Unmarshal(r.Method, &m); err != nil {
		return ""
	}
	return m
}

// PositionalParams returns params as an ordered list. A single object is
// promoted to a one element list; absent or null params yield an empty list.
func (r *RPCRequest) PositionalParams() ([]json.RawMessage, error) {
	if isNull(r.Params) {
		return []json.RawMessage{}, nil
	}
	trimmed := bytes.TrimSpace(r.Params)
	if trimmed[0] == '{' {
		return []json.RawMessage{trimmed}, nil
	}
	var params []json.RawMessage
	if err := json.Unmarshal(trimmed, &params); err != nil {
		return nil, err
	}
	if params == nil {
		params = []json.RawMessage{}
	}
	return params, nil
}

// SessionBlob returns the opaque session string and whether one was sent.
func (r *RPCRequest) SessionBlob() (string, bool) {
	if isNull(r.Session) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.Session, &s); err != nil {
		return "", false
	}
	return s, true
}
