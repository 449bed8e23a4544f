package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc_WriteResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, Write(rec, NewResponse(json.RawMessage("5"), "blob", json.RawMessage("1"))))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":5,"session":"blob"}`, rec.Body.String())
}

func TestFunc_WriteNullResult(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, Write(rec, NewResponse(nil, "", "x")))
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"x","result":null}`, rec.Body.String())
}

func TestFunc_WriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, Write(rec, NewError(ErrMethodNotFound, "namespace Unknown does not exist", nil, json.RawMessage("1"))))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"namespace Unknown does not exist"}}`, rec.Body.String())
}

func TestFunc_WriteUnencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	err := Write(rec, NewError(7, "bad", map[string]any{"v": math.NaN()}, json.RawMessage("1")))
	require.ErrorIs(t, err, ErrUnencodable)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))
}

func TestFunc_WriteAck(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteAck(rec))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestFunc_CodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New("plain"), ErrBackend},
		{&RPCError{Code: 42}, 42},
		{&RPCError{Code: 0}, ErrBackend},
		{fmt.Errorf("wrapped: %w", &RPCError{Code: -32601}), -32601},
		{nil, ErrBackend},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.err), func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}
