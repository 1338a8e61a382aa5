package shared

import (
	"context"
	"net/http"

	"crm/internal/platform/requestctx"
)

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

// RecordAudit stores an audit event for the request. Failures are logged
// and never fail the request.
func RecordAudit(r *http.Request, auditor Auditor, actorID, action, entityType, entityID string, before, after any) {
	if auditor == nil {
		return
	}
	ctx := r.Context()
	if err := auditor.Record(ctx, actorID, action, entityType, entityID, requestctx.GetRequestID(ctx), ClientIP(r), before, after); err != nil {
		requestctx.Logger(ctx).Warn("audit "+action+" failed", "err", err)
	}
}
