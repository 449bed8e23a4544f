package rpc

import "encoding/json"

// Caller describes who originated a backend call. External calls arriving
// through the gateway carry IsUser; service to service calls carry IsSystem.
type Caller struct {
	Env      map[string]string `json:"env"`
	IsUser   bool              `json:"isUser"`
	IsSystem bool              `json:"isSystem"`
}

// BackendRequest is the payload handed to a backend invoker.
type BackendRequest struct {
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	Session map[string]any    `json:"session"`
	Caller  Caller            `json:"caller"`
}

// BackendResponse is what a backend hands back. Error and Result are
// mutually exclusive.
type BackendResponse struct {
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	Session map[string]any  `json:"session"`
}
