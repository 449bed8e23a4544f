package rpc

import "encoding/json"

func NewError(code int, message string, data map[string]any, id any) *RPCResponse {
	return &RPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// NewErrorFrom wraps an already built RPCError.
func NewErrorFrom(err *RPCError, id any) *RPCResponse {
	return &RPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   err,
	}
}

func NewResponse(result json.RawMessage, session string, id any) *RPCResponse {
	if len(result) == 0 {
		result = json.RawMessage(nullLiteral)
	}
	return &RPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
		Session: session,
	}
}
