package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"github.com/cmpt-474-edu-monitor/sdk/internal/core/utils"
	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"github.com/google/uuid"
)

// EncodedBodyHeader marks a base64 encoded request body when set to "base64".
const EncodedBodyHeader = "Content-Transfer-Encoding"

func (gs *GatewayServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gs.Handle(w, r)
}

// Handle runs one request through the pipeline. Whatever happens the caller
// gets a JSON-RPC envelope with status 200.
func (gs *GatewayServer) Handle(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	w.Header().Set("X-Request-ID", requestID)
	log := gs.log.With(slog.String("request-id", requestID))
	log.Debug("new request", slog.String("http-method", r.Method), slog.Group("connection", slog.String("ip", r.RemoteAddr)))

	resp, ack := gs.Route(r.Context(), log, r)
	if ack {
		if err := rpc.WriteAck(w); err != nil {
			log.Debug("failed to write acknowledgment", slog.String("err", err.Error()))
		}
		return
	}
	err := rpc.Write(w, resp)
	if errors.Is(err, rpc.ErrUnencodable) {
		log.Error("failed to encode response", slog.String("err", err.Error()))
		err = rpc.Write(w, rpc.NewError(rpc.ErrInternalError, rpc.ErrInternalErrorS, nil, resp.ID))
	}
	if err != nil {
		log.Debug("failed to write response", slog.String("err", err.Error()))
	}
}

// Route returns the response for r, or ack=true when the request was a
// notification that succeeded and only needs an empty acknowledgment.
func (gs *GatewayServer) Route(ctx context.Context, log *slog.Logger, r *http.Request) (resp *rpc.RPCResponse, ack bool) {
	var id any
	defer utils.CatchPanicWithFallback(func(rec any, stack []byte) {
		log.Error("panic caught in pipeline", slog.Any("error", rec))
		var data map[string]any
		if gs.exposeStack {
			data = map[string]any{"name": "panic", "stack": string(stack)}
		}
		resp, ack = rpc.NewError(rpc.ErrBackend, "internal server error", data, id), false
	})

	if !strings.EqualFold(r.Method, http.MethodPost) {
		log.Info("invalid request received", slog.String("issue", "must use HTTP POST"))
		return rpc.NewError(rpc.ErrInvalidRequest, "must use HTTP POST", nil, nil), false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Info("invalid request received", slog.String("issue", "failed to read body"), slog.String("err", err.Error()))
		return rpc.NewError(rpc.ErrParseError, err.Error(), nil, nil), false
	}

	req, err := rpc.Parse(body, strings.EqualFold(r.Header.Get(EncodedBodyHeader), "base64"))
	if err != nil {
		log.Info("invalid request received", slog.String("issue", rpc.ErrParseErrorS), slog.String("err", err.Error()))
		return rpc.NewErrorFrom(asRPCError(err, rpc.ErrParseError), nil), false
	}

	if err := rpc.Validate(req); err != nil {
		if rpc.ValidID(req.ID) {
			id = req.ResponseID()
		}
		log.Info("invalid request received", slog.String("issue", rpc.ErrInvalidRequestS), slog.String("err", err.Error()))
		return rpc.NewErrorFrom(asRPCError(err, rpc.ErrInvalidRequest), id), false
	}
	id = req.ResponseID()

	namespace, method, err := gs.router.resolve(req.MethodName())
	if err != nil {
		log.Info("invalid request received", slog.String("issue", rpc.ErrMethodNotFoundS), slog.String("requested-method", req.MethodName()))
		return rpc.NewErrorFrom(asRPCError(err, rpc.ErrMethodNotFound), id), false
	}

	params, err := req.PositionalParams()
	if err != nil {
		return rpc.NewError(rpc.ErrInvalidRequest, "params is not an object or array", nil, id), false
	}

	out, err := gs.invoker.Invoke(ctx, gs.Target(namespace), &rpc.BackendRequest{
		Method:  method,
		Params:  params,
		Session: gs.openSession(log, req),
		Caller: rpc.Caller{
			Env:      maps.Clone(gs.callerEnv),
			IsUser:   true,
			IsSystem: false,
		},
	})
	if err != nil {
		log.Info("backend invocation failed", slog.String("namespace", namespace), slog.String("method", method), slog.String("err", err.Error()))
		return rpc.NewErrorFrom(backendError(err), id), false
	}
	if out == nil {
		return rpc.NewError(rpc.ErrBackend, "backend returned no outcome", nil, id), false
	}
	if out.Error != nil {
		log.Debug("backend returned an error", slog.String("namespace", namespace), slog.String("method", method), slog.Int("code", out.Error.Code))
		return rpc.NewErrorFrom(normalize(out.Error), id), false
	}

	if req.IsNotification() {
		return nil, true
	}

	var blob string
	if out.Session != nil {
		blob, err = gs.codec.Encrypt(out.Session)
		if err != nil {
			log.Error("failed to encrypt session", slog.String("err", err.Error()))
			return rpc.NewError(rpc.ErrInternalError, rpc.ErrInternalErrorS, nil, id), false
		}
	}
	return rpc.NewResponse(out.Result, blob, id), false
}

// openSession decrypts the request session. A corrupted session is not
// fatal: the call proceeds as if no session had been sent.
func (gs *GatewayServer) openSession(log *slog.Logger, req *rpc.RPCRequest) map[string]any {
	blob, ok := req.SessionBlob()
	if !ok {
		return map[string]any{}
	}
	sess, err := gs.codec.Decrypt(blob)
	if err != nil {
		log.Warn("dropping unreadable session", slog.String("err", err.Error()))
		return map[string]any{}
	}
	return sess
}

func asRPCError(err error, code int) *rpc.RPCError {
	var rerr *rpc.RPCError
	if errors.As(err, &rerr) {
		return rerr
	}
	return &rpc.RPCError{Code: code, Message: err.Error()}
}

func backendError(err error) *rpc.RPCError {
	var rerr *rpc.RPCError
	if errors.As(err, &rerr) {
		return normalize(rerr)
	}
	return &rpc.RPCError{Code: rpc.CodeOf(err), Message: err.Error()}
}

// normalize maps a missing code to the generic backend code.
func normalize(e *rpc.RPCError) *rpc.RPCError {
	if e.Code != 0 {
		return e
	}
	out := *e
	out.Code = rpc.ErrBackend
	return &out
}
