package rpc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
)

// Parse decodes a raw request body. When isEncoded is set the body is first
// base64 decoded. Failures are returned as parse errors; a malformed request
// has no recoverable id.
func Parse(raw []byte, isEncoded bool) (*RPCRequest, error) {
	body := raw
	if isEncoded {
		decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(raw)))
		if err != nil {
			return nil, &RPCError{Code: ErrParseError, Message: err.Error()}
		}
		body = decoded
	}

	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		var probe any
		msg := ErrParseErrorS
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			msg = err.Error()
		}
		return nil, &RPCError{Code: ErrParseError, Message: msg}
	}
	// Well formed JSON that is not an object has no members; Validate
	// rejects it as an invalid request.
	if trimmed[0] != '{' {
		return &RPCRequest{}, nil
	}

	var req RPCRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, &RPCError{Code: ErrParseError, Message: err.Error()}
	}
	return &req, nil
}
