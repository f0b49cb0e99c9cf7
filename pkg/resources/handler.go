package resources

import (
	"fmt"
	"net/http"

	"github.com/novaflow/console/pkg/audit"
	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/httputil"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/rbac"
	"github.com/novaflow/console/pkg/session"
	"github.com/novaflow/console/pkg/upstream"
)

// ListResponse carries a resource collection
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// MutationResponse carries the mutated record plus the reloaded collection,
// so the caller renders exactly what the platform now holds, server-assigned
// fields included.
type MutationResponse[T any] struct {
	Record *T  `json:"record,omitempty"`
	Items  []T `json:"items"`
}

// Handler serves the CRUD surface for one resource definition
type Handler[T any] struct {
	def    Definition[T]
	logger *observability.Logger
	audit  audit.Recorder
}

// NewHandler creates the CRUD handler for a definition
func NewHandler[T any](def Definition[T], logger *observability.Logger, recorder audit.Recorder) *Handler[T] {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Handler[T]{def: def, logger: logger, audit: recorder}
}

// List serves the collection, filtered by the optional ?q= query. An upstream
// access denial yields an empty list so composite views keep rendering.
func (h *Handler[T]) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	records, err := rbac.ListGuard(h.def.Client.List(r.Context(), sess.UpstreamToken, sess.SelectedDomainID))
	if err != nil {
		h.writeUpstreamError(w, "list", err)
		return
	}

	query := r.URL.Query().Get("q")
	filtered := make([]T, 0, len(records))
	for _, rec := range records {
		if h.def.matchesQuery(rec, query) {
			filtered = append(filtered, rec)
		}
	}
	httputil.WriteSuccess(w, ListResponse[T]{Items: filtered})
}

// Get serves a single record by id
func (h *Handler[T]) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathParamInt64OrError(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.def.Client.Get(r.Context(), sess.UpstreamToken, id)
	if err != nil {
		h.writeUpstreamError(w, "get", err)
		return
	}
	httputil.WriteSuccess(w, rec)
}

// Create validates, checks uniqueness against the loaded records, persists,
// then reloads. The uniqueness check happens before any mutation reaches the
// platform.
func (h *Handler[T]) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	var rec T
	if !httputil.ParseJSONOrError(w, r, &rec) {
		return
	}
	if err := h.validate(rec); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	existing, err := h.def.Client.List(r.Context(), sess.UpstreamToken, sess.SelectedDomainID)
	if err != nil {
		h.writeUpstreamError(w, "list", err)
		return
	}
	if h.def.findDuplicate(existing, rec, 0) >= 0 {
		httputil.WriteConflict(w, fmt.Sprintf("a %s with this %s already exists",
			singular(h.def.Name), uniqueLabel(h.def)))
		return
	}

	created, err := h.def.Client.Create(r.Context(), sess.UpstreamToken, sess.SelectedDomainID, rec)
	if err != nil {
		h.writeUpstreamError(w, "create", err)
		return
	}

	h.recordMutation(r, sess, audit.TypeResourceCreate, created)

	items, err := h.def.Client.List(r.Context(), sess.UpstreamToken, sess.SelectedDomainID)
	if err != nil {
		h.writeUpstreamError(w, "reload", err)
		return
	}
	httputil.WriteCreated(w, MutationResponse[T]{Record: created, Items: items})
}

// Update validates, checks uniqueness excluding the record itself, persists,
// then reloads.
func (h *Handler[T]) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathParamInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var rec T
	if !httputil.ParseJSONOrError(w, r, &rec) {
		return
	}
	if err := h.validate(rec); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	existing, err := h.def.Client.List(r.Context(), sess.UpstreamToken, sess.SelectedDomainID)
	if err != nil {
		h.writeUpstreamError(w, "list", err)
		return
	}
	if h.def.findDuplicate(existing, rec, id) >= 0 {
		httputil.WriteConflict(w, fmt.Sprintf("a %s with this %s already exists",
			singular(h.def.Name), uniqueLabel(h.def)))
		return
	}

	updated, err := h.def.Client.Update(r.Context(), sess.UpstreamToken, id, rec)
	if err != nil {
		h.writeUpstreamError(w, "update", err)
		return
	}

	h.recordMutation(r, sess, audit.TypeResourceUpdate, updated)

	items, err := h.def.Client.List(r.Context(), sess.UpstreamToken, sess.SelectedDomainID)
	if err != nil {
		h.writeUpstreamError(w, "reload", err)
		return
	}
	httputil.WriteSuccess(w, MutationResponse[T]{Record: updated, Items: items})
}

// Delete removes a record, then reloads the collection
func (h *Handler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	id, ok := httputil.PathParamInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.def.Client.Delete(r.Context(), sess.UpstreamToken, id); err != nil {
		h.writeUpstreamError(w, "delete", err)
		return
	}

	h.audit.Record(r.Context(), audit.Event{
		Type:     audit.TypeResourceDelete,
		Email:    sess.Email,
		DomainID: sess.SelectedDomainID,
		Resource: h.def.Name,
		Detail:   fmt.Sprintf("id=%d", id),
	})

	items, err := h.def.Client.List(r.Context(), sess.UpstreamToken, sess.SelectedDomainID)
	if err != nil {
		h.writeUpstreamError(w, "reload", err)
		return
	}
	httputil.WriteSuccess(w, MutationResponse[T]{Items: items})
}

// SetActive flips the active flag on resources that support it
func (h *Handler[T]) SetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.def.SupportsActivate {
			httputil.WriteNotFound(w, "resource does not support activation")
			return
		}
		sess, ok := h.currentSession(w, r)
		if !ok {
			return
		}
		id, ok := httputil.PathParamInt64OrError(w, r, "id")
		if !ok {
			return
		}

		if err := h.def.Client.SetActive(r.Context(), sess.UpstreamToken, id, active); err != nil {
			h.writeUpstreamError(w, "set_active", err)
			return
		}

		h.audit.Record(r.Context(), audit.Event{
			Type:     audit.TypeResourceUpdate,
			Email:    sess.Email,
			DomainID: sess.SelectedDomainID,
			Resource: h.def.Name,
			Detail:   fmt.Sprintf("id=%d active=%t", id, active),
		})

		items, err := h.def.Client.List(r.Context(), sess.UpstreamToken, sess.SelectedDomainID)
		if err != nil {
			h.writeUpstreamError(w, "reload", err)
			return
		}
		httputil.WriteSuccess(w, MutationResponse[T]{Items: items})
	}
}

func (h *Handler[T]) currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := auth.CurrentSession(r.Context())
	if sess == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return nil, false
	}
	return sess, true
}

func (h *Handler[T]) validate(rec T) error {
	if h.def.Validate == nil {
		return nil
	}
	return h.def.Validate(rec)
}

func (h *Handler[T]) recordMutation(r *http.Request, sess *session.Session, eventType string, rec *T) {
	detail := ""
	if rec != nil && h.def.UniqueKey != nil {
		detail = h.def.UniqueKey(*rec)
	}
	h.audit.Record(r.Context(), audit.Event{
		Type:     eventType,
		Email:    sess.Email,
		DomainID: sess.SelectedDomainID,
		Resource: h.def.Name,
		Detail:   detail,
	})
}

// writeUpstreamError maps an upstream failure onto the console's response.
// Denials and not-found pass through; everything else is a bad gateway.
func (h *Handler[T]) writeUpstreamError(w http.ResponseWriter, op string, err error) {
	h.logger.WithError(err).WithFields(map[string]interface{}{
		"resource":  h.def.Name,
		"operation": op,
	}).Error("upstream call failed")

	switch {
	case upstream.IsAccessDenied(err):
		httputil.WriteForbidden(w, "Access denied")
	case upstream.IsNotFound(err):
		httputil.WriteNotFound(w, fmt.Sprintf("%s not found", singular(h.def.Name)))
	default:
		httputil.WriteErrorMessage(w, http.StatusBadGateway, fmt.Sprintf("the platform rejected the %s request", op))
	}
}

func singular(name string) string {
	// Resource names are conventional English plurals.
	if len(name) > 1 && name[len(name)-1] == 's' {
		return name[:len(name)-1]
	}
	return name
}

func uniqueLabel[T any](def Definition[T]) string {
	if def.UniqueLabel != "" {
		return def.UniqueLabel
	}
	return "name"
}
