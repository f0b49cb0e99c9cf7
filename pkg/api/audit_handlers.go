package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/novaflow/console/pkg/audit"
	"github.com/novaflow/console/pkg/httputil"
	"github.com/novaflow/console/pkg/observability"
)

// AuditHandlers serves the audit trail search endpoint
type AuditHandlers struct {
	store  *audit.Store
	logger *observability.Logger
}

// NewAuditHandlers creates the audit endpoint handlers
func NewAuditHandlers(store *audit.Store, logger *observability.Logger) *AuditHandlers {
	return &AuditHandlers{store: store, logger: logger}
}

// search is mounted by the server behind the audit page's READ gate
func (h *AuditHandlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Email:    q.Get("email"),
		Type:     q.Get("type"),
		Resource: q.Get("resource"),
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			httputil.WriteBadRequest(w, "since must be RFC 3339")
			return
		}
		filter.Since = t
	}
	if until := q.Get("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			httputil.WriteBadRequest(w, "until must be RFC 3339")
			return
		}
		filter.Until = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			httputil.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	events, err := h.store.Search(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("audit search failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteSuccess(w, map[string]interface{}{"events": events})
}
