package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/gateway"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/juju/errors"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultTimeout             = 30 * time.Second
	defaultBreakerMaxFailures  = uint32(5)
	defaultBreakerOpenTimeout  = 30 * time.Second
	defaultBreakerResetTimeout = 60 * time.Second

	maxOutcomeBytes = 8 << 20
)

// BreakerConfig tunes the per target circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive transport failures that opens the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a probe is let through.
	Timeout time.Duration
	// Interval clears failure counts while closed. Zero uses the default.
	Interval time.Duration
}

// HTTPInit structure only for initialization of the HTTP invoker.
type HTTPInit struct {
	Log     *slog.Logger
	Client  *http.Client
	Timeout time.Duration
	Breaker BreakerConfig
}

// HTTP posts the backend payload to a service host. Only transport
// failures count against the breaker; an error outcome is a normal answer.
type HTTP struct {
	log       *slog.Logger
	client    *http.Client
	endpoints map[string]string
	breakers  map[string]*gobreaker.CircuitBreaker[*rpc.BackendResponse]
}

var _ gateway.Invoker = (*HTTP)(nil)

// NewHTTP builds an invoker for the given target -> URL endpoints.
func NewHTTP(o *HTTPInit, endpoints map[string]string) *HTTP {
	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	client := o.Client
	if client == nil {
		timeout := o.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	maxFailures := o.Breaker.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	openTimeout := o.Breaker.Timeout
	if openTimeout <= 0 {
		openTimeout = defaultBreakerOpenTimeout
	}
	interval := o.Breaker.Interval
	if interval <= 0 {
		interval = defaultBreakerResetTimeout
	}

	h := &HTTP{
		log:       log,
		client:    client,
		endpoints: make(map[string]string, len(endpoints)),
		breakers:  make(map[string]*gobreaker.CircuitBreaker[*rpc.BackendResponse], len(endpoints)),
	}
	for target, url := range endpoints {
		h.endpoints[target] = url
		h.breakers[target] = gobreaker.NewCircuitBreaker[*rpc.BackendResponse](gobreaker.Settings{
			Name:        "backend:" + target,
			MaxRequests: 1,
			Interval:    interval,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state change",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		})
	}
	return h
}

func (h *HTTP) Invoke(ctx context.Context, target string, req *rpc.BackendRequest) (*rpc.BackendResponse, error) {
	url, ok := h.endpoints[target]
	if !ok {
		return nil, errors.NotFoundf("backend %s", target)
	}
	resp, err := h.breakers[target].Execute(func() (*rpc.BackendResponse, error) {
		return h.post(ctx, url, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Annotatef(err, "backend %s circuit open", target)
		}
		return nil, errors.Annotatef(err, "backend %s", target)
	}
	return resp, nil
}

// State reports the breaker state of a target, for diagnostics.
func (h *HTTP) State(target string) (gobreaker.State, bool) {
	cb, ok := h.breakers[target]
	if !ok {
		return gobreaker.StateClosed, false
	}
	return cb.State(), true
}

func (h *HTTP) post(ctx context.Context, url string, req *rpc.BackendRequest) (*rpc.BackendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Annotate(err, "encode payload")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Trace(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxOutcomeBytes))
		return nil, errors.Errorf("unexpected status %s", httpResp.Status)
	}

	var out rpc.BackendResponse
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, maxOutcomeBytes)).Decode(&out); err != nil {
		return nil, errors.Annotate(err, "decode outcome")
	}
	return &out, nil
}
