package resources

import (
	"fmt"
	"net/http"

	"github.com/novaflow/console/pkg/audit"
	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/httputil"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/rbac"
	"github.com/novaflow/console/pkg/upstream"
)

// GridHandler serves the role-page-permission grid. The grid is edited as a
// whole: saving replaces every row for the page, there is no per-cell
// mutation.
type GridHandler struct {
	client *upstream.PermissionGridClient
	logger *observability.Logger
	audit  audit.Recorder
}

// NewGridHandler creates the permission grid handler
func NewGridHandler(client *upstream.PermissionGridClient, logger *observability.Logger, recorder audit.Recorder) *GridHandler {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &GridHandler{client: client, logger: logger, audit: recorder}
}

// GetForPage serves the grid rows for one page. A denial degrades to an
// empty grid so the surrounding page still renders.
func (h *GridHandler) GetForPage(w http.ResponseWriter, r *http.Request) {
	sess := auth.CurrentSession(r.Context())
	if sess == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	pageID, ok := httputil.PathParamInt64OrError(w, r, "pageId")
	if !ok {
		return
	}

	grid, err := rbac.ListGuard(h.client.GetForPage(r.Context(), sess.UpstreamToken, sess.SelectedDomainID, pageID))
	if err != nil {
		h.logger.WithError(err).WithField("page_id", pageID).Error("failed to load permission grid")
		httputil.WriteErrorMessage(w, http.StatusBadGateway, "the platform rejected the grid request")
		return
	}
	httputil.WriteSuccess(w, ListResponse[upstream.RolePagePermission]{Items: grid})
}

// ReplaceForPage persists the full grid for one page. Unlike list loads, a
// denial here is an explicit save failure and is surfaced.
func (h *GridHandler) ReplaceForPage(w http.ResponseWriter, r *http.Request) {
	sess := auth.CurrentSession(r.Context())
	if sess == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	pageID, ok := httputil.PathParamInt64OrError(w, r, "pageId")
	if !ok {
		return
	}
	var grid []upstream.RolePagePermission
	if !httputil.ParseJSONOrError(w, r, &grid) {
		return
	}
	for _, row := range grid {
		if row.PageID != pageID {
			httputil.WriteBadRequest(w, fmt.Sprintf("grid row for page %d does not belong to page %d", row.PageID, pageID))
			return
		}
	}

	if err := h.client.ReplaceForPage(r.Context(), sess.UpstreamToken, sess.SelectedDomainID, pageID, grid); err != nil {
		h.logger.WithError(err).WithField("page_id", pageID).Error("failed to save permission grid")
		if upstream.IsAccessDenied(err) {
			httputil.WriteForbidden(w, "Access denied")
			return
		}
		httputil.WriteErrorMessage(w, http.StatusBadGateway, "the platform rejected the grid save")
		return
	}

	h.audit.Record(r.Context(), audit.Event{
		Type:     audit.TypeResourceUpdate,
		Email:    sess.Email,
		DomainID: sess.SelectedDomainID,
		Resource: "role_page_permissions",
		Detail:   fmt.Sprintf("page=%d rows=%d", pageID, len(grid)),
	})

	reloaded, err := h.client.GetForPage(r.Context(), sess.UpstreamToken, sess.SelectedDomainID, pageID)
	if err != nil {
		h.logger.WithError(err).WithField("page_id", pageID).Error("failed to reload permission grid")
		httputil.WriteErrorMessage(w, http.StatusBadGateway, "the platform rejected the grid reload")
		return
	}
	httputil.WriteSuccess(w, ListResponse[upstream.RolePagePermission]{Items: reloaded})
}
