package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/gateway"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/invoker"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/service"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T) *httptest.Server {
	t.Helper()
	h, err := service.NewBuilder().
		AddInterface("add", func(cc *service.CallContext, a, b int) int { return a + b }, nil).
		AddInterface("login", func(cc *service.CallContext, user string) string {
			cc.Session["user"] = user
			return "ok"
		}, nil).
		AddInterface("whoami", func(cc *service.CallContext) (string, error) {
			user, ok := cc.Session["user"].(string)
			if !ok {
				return "", rpc.Errorf(401, "login required")
			}
			return user, nil
		}, nil).
		Build()
	require.NoError(t, err)

	gs, err := gateway.NewBuilder(&gateway.GatewayServerInit{
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Invoker:      invoker.NewLocal().Register("EduMonitor_Math", h),
		Codec:        session.New("client-test"),
		TargetPrefix: "EduMonitor_",
	}).AddNamespace("Math").Build()
	require.NoError(t, err)

	srv := httptest.NewServer(gs)
	t.Cleanup(srv.Close)
	return srv
}

func TestFunc_Invoke(t *testing.T) {
	srv := newGateway(t)
	c := New(srv.URL)

	raw, err := c.Invoke(context.Background(), "Math", "add", 2, 3)
	require.NoError(t, err)
	assert.JSONEq(t, `5`, string(raw))
	assert.NotEmpty(t, c.Session())
}

func TestFunc_NamespaceCall(t *testing.T) {
	srv := newGateway(t)
	math := New(srv.URL).Namespace("Math")

	var sum int
	require.NoError(t, math.Call(context.Background(), "add", &sum, 40, 2))
	assert.Equal(t, 42, sum)
	assert.NoError(t, math.Call(context.Background(), "add", nil, 1, 1))
}

func TestFunc_SessionCarried(t *testing.T) {
	srv := newGateway(t)
	c := New(srv.URL)
	math := c.Namespace("Math")

	err := math.Call(context.Background(), "whoami", nil)
	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 401, gwErr.Code)
	assert.Equal(t, "login required", gwErr.Message)
	assert.NotEmpty(t, gwErr.Stack)

	require.NoError(t, math.Call(context.Background(), "login", nil, "ada"))
	var who string
	require.NoError(t, math.Call(context.Background(), "whoami", &who))
	assert.Equal(t, "ada", who)

	resumed := New(srv.URL, WithSession(c.Session()), WithHTTPClient(srv.Client()))
	require.NoError(t, resumed.Namespace("Math").Call(context.Background(), "whoami", &who))
	assert.Equal(t, "ada", who)
}

func TestFunc_InvokeErrors(t *testing.T) {
	srv := newGateway(t)
	c := New(srv.URL)

	tests := []struct {
		name      string
		namespace string
		method    string
		code      int
	}{
		{"unknown namespace", "Grades", "list", rpc.ErrMethodNotFound},
		{"unknown method", "Math", "sub", rpc.ErrMethodNotFound},
		{"illegal method", "Math", "add-all", rpc.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Invoke(context.Background(), tt.namespace, tt.method)
			var gwErr *Error
			require.True(t, errors.As(err, &gwErr), "got %v", err)
			assert.Equal(t, tt.code, gwErr.Code)
		})
	}
}

func TestFunc_InvokeTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Invoke(context.Background(), "Math", "add")
	assert.ErrorContains(t, err, "502")

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer garbage.Close()

	_, err = New(garbage.URL).Invoke(context.Background(), "Math", "add")
	assert.ErrorContains(t, err, "decode gateway response")
}

func TestFunc_RequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	}))
	defer srv.Close()

	raw, err := New(srv.URL, WithSession("blob")).Invoke(context.Background(), "Auth", "logout")
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
	assert.Equal(t, "Auth::logout", got["method"])
	assert.Equal(t, []any{}, got["params"])
	assert.Equal(t, "blob", got["session"])
	assert.NotEmpty(t, got["id"])
}
