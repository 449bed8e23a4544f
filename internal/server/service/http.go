package service

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
)

// HTTPHandler exposes h to remote gateways: the body is a BackendRequest,
// the answer a BackendResponse. Dispatched calls always answer 200; the
// outcome says whether the call failed.
func HTTPHandler(h Handler, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeOutcome(w, http.StatusMethodNotAllowed, &rpc.BackendResponse{
				Error: rpc.Errorf(rpc.ErrInvalidRequest, "must use HTTP POST"),
			})
			return
		}

		var req rpc.BackendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Info("invalid backend payload", slog.String("err", err.Error()))
			writeOutcome(w, http.StatusBadRequest, &rpc.BackendResponse{
				Error: rpc.Errorf(rpc.ErrParseError, "%s", err),
			})
			return
		}

		log.Debug("dispatching", slog.String("method", req.Method), slog.Bool("system", req.Caller.IsSystem))
		resp := h(r.Context(), &req)
		if resp.Error != nil {
			log.Debug("interface failed", slog.String("method", req.Method), slog.Int("code", resp.Error.Code), slog.String("message", resp.Error.Message))
		}
		if err := writeOutcome(w, http.StatusOK, resp); err != nil {
			log.Error("failed to encode outcome", slog.String("method", req.Method), slog.String("err", err.Error()))
			_ = writeOutcome(w, http.StatusOK, &rpc.BackendResponse{
				Error: rpc.Errorf(rpc.ErrInternalError, "outcome of %s cannot be encoded", req.Method),
			})
		}
	})
}

// writeOutcome writes nothing when resp cannot be encoded.
func writeOutcome(w http.ResponseWriter, status int, resp *rpc.BackendResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	return nil
}
