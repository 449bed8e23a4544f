package invoker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/service"
	"github.com/juju/errors"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mathHandler(t *testing.T) service.Handler {
	t.Helper()
	h, err := service.NewBuilder().
		AddInterface("add", func(cc *service.CallContext, a, b int) int { return a + b }, nil).
		Build()
	require.NoError(t, err)
	return h
}

func addRequest() *rpc.BackendRequest {
	return &rpc.BackendRequest{
		Method:  "add",
		Params:  []json.RawMessage{json.RawMessage("2"), json.RawMessage("3")},
		Session: map[string]any{},
		Caller:  rpc.Caller{IsUser: true},
	}
}

func TestFunc_Local(t *testing.T) {
	local := NewLocal().Register("EduMonitor_Math", mathHandler(t))

	out, err := local.Invoke(context.Background(), "EduMonitor_Math", addRequest())
	require.NoError(t, err)
	require.Nil(t, out.Error)
	assert.JSONEq(t, "5", string(out.Result))

	_, err = local.Invoke(context.Background(), "EduMonitor_Nope", addRequest())
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestFunc_Mux(t *testing.T) {
	local := NewLocal().Register("A", mathHandler(t))
	mux := NewMux().Handle("A", local)

	out, err := mux.Invoke(context.Background(), "A", addRequest())
	require.NoError(t, err)
	assert.JSONEq(t, "5", string(out.Result))

	_, err = mux.Invoke(context.Background(), "B", addRequest())
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestFunc_HTTP(t *testing.T) {
	srv := httptest.NewServer(service.HTTPHandler(mathHandler(t), nil))
	defer srv.Close()

	inv := NewHTTP(&HTTPInit{Timeout: time.Second}, map[string]string{"Math": srv.URL})

	out, err := inv.Invoke(context.Background(), "Math", addRequest())
	require.NoError(t, err)
	require.Nil(t, out.Error)
	assert.JSONEq(t, "5", string(out.Result))
	assert.Equal(t, map[string]any{}, out.Session)

	req := addRequest()
	req.Method = "missing"
	out, err = inv.Invoke(context.Background(), "Math", req)
	require.NoError(t, err)
	require.NotNil(t, out.Error)
	assert.Equal(t, rpc.ErrMethodNotFound, out.Error.Code)
}

func TestFunc_HTTPBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	inv := NewHTTP(&HTTPInit{
		Timeout: time.Second,
		Breaker: BreakerConfig{MaxFailures: 2, Timeout: time.Minute},
	}, map[string]string{"Flaky": srv.URL})

	for i := 0; i < 2; i++ {
		_, err := inv.Invoke(context.Background(), "Flaky", addRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	}

	state, ok := inv.State("Flaky")
	require.True(t, ok)
	assert.Equal(t, gobreaker.StateOpen, state)

	_, err := inv.Invoke(context.Background(), "Flaky", addRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, int32(2), hits.Load())
}

func TestFunc_HTTPUnknownTarget(t *testing.T) {
	inv := NewHTTP(&HTTPInit{}, nil)
	_, err := inv.Invoke(context.Background(), "Ghost", addRequest())
	assert.True(t, errors.Is(err, errors.NotFound))
}
