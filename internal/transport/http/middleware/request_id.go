package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"crm/internal/platform/requestctx"
)

const maxRequestIDLen = 128

// RequestID propagates X-Request-ID, minting a uuid when the caller sent
// none or an unreasonably long one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" || len(reqID) > maxRequestIDLen {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
