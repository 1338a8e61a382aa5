package shared

import (
	"net/http"
	"sync/atomic"

	"crm/internal/platform/requestctx"
	"crm/internal/transport/http/api"
)

var exposeInternalErrors atomic.Bool

// ExposeInternalErrors controls whether 500 responses carry err.Error().
// The server enables it outside production.
func ExposeInternalErrors(enabled bool) {
	exposeInternalErrors.Store(enabled)
}

// FailInternal logs err and writes a 500 envelope.
func FailInternal(w http.ResponseWriter, r *http.Request, code, message string, err error) {
	requestctx.Logger(r.Context()).Error(message, "code", code, "err", err)
	requestID := requestctx.GetRequestID(r.Context())
	if exposeInternalErrors.Load() && err != nil {
		api.FailWithDetails(w, http.StatusInternalServerError, code, message, map[string]string{"cause": err.Error()}, requestID)
		return
	}
	api.Fail(w, http.StatusInternalServerError, code, message, requestID)
}

// FailPayload reports an undecodable request body.
func FailPayload(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestctx.GetRequestID(r.Context())
	if exposeInternalErrors.Load() && err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", map[string]string{"cause": err.Error()}, requestID)
		return
	}
	api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
}
