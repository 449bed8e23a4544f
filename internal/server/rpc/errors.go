package rpc

import (
	"errors"
	"fmt"
)

const (
	ErrParseError  = -32700
	ErrParseErrorS = "Parse error"

	ErrInvalidRequest  = -32600
	ErrInvalidRequestS = "Invalid Request"

	ErrMethodNotFound  = -32601
	ErrMethodNotFoundS = "Method not found"

	ErrInvalidParams  = -32602
	ErrInvalidParamsS = "Invalid params"

	ErrInternalError  = -32603
	ErrInternalErrorS = "Internal error"

	ErrRateLimited  = -32040
	ErrRateLimitedS = "Rate limit exceeded"

	// ErrBackend is the code for backend failures that carry no code of their own.
	ErrBackend = -1
)

// ErrorCoder is implemented by errors that know their JSON-RPC code.
type ErrorCoder interface {
	ErrorCode() int
}

// RPCError is the error member of a response. It doubles as a Go error so
// stages can return it directly.
type RPCError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) ErrorCode() int {
	return e.Code
}

func Errorf(code int, format string, args ...any) *RPCError {
	return &RPCError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code carried by err, or ErrBackend when err carries
// none (or carries zero).
func CodeOf(err error) int {
	var c ErrorCoder
	if errors.As(err, &c) && c.ErrorCode() != 0 {
		return c.ErrorCode()
	}
	return ErrBackend
}
