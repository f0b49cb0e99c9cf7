package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/novaflow/console/pkg/audit"
	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/domains"
	"github.com/novaflow/console/pkg/httputil"
	"github.com/novaflow/console/pkg/observability"
)

// DomainHandlers serves the user's domain list and selection endpoints
type DomainHandlers struct {
	service *domains.Service
	logger  *observability.Logger
	audit   audit.Recorder
}

// NewDomainHandlers creates the domain endpoint handlers
func NewDomainHandlers(service *domains.Service, logger *observability.Logger, recorder audit.Recorder) *DomainHandlers {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &DomainHandlers{service: service, logger: logger, audit: recorder}
}

// RegisterRoutes mounts the domain endpoints behind the session guard
func (h *DomainHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/user/domains", h.list).Methods(http.MethodGet)
	router.HandleFunc("/api/user/domains/select", h.selectDomain).Methods(http.MethodPost)
}

// domainListResponse pairs the available domains with the effective selection
type domainListResponse struct {
	Domains  []auth.UserDomain `json:"domains"`
	Selected auth.UserDomain   `json:"selected"`
}

func (h *DomainHandlers) list(w http.ResponseWriter, r *http.Request) {
	sess := auth.CurrentSession(r.Context())
	profile := auth.CurrentUser(r.Context())
	if sess == nil || profile == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	selected, err := h.service.Resolve(r.Context(), sess, profile)
	if err != nil {
		h.logger.WithError(err).Error("failed to resolve domain selection")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, domainListResponse{
		Domains:  domains.LoadUserDomains(profile),
		Selected: selected,
	})
}

func (h *DomainHandlers) selectDomain(w http.ResponseWriter, r *http.Request) {
	sess := auth.CurrentSession(r.Context())
	profile := auth.CurrentUser(r.Context())
	if sess == nil || profile == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req struct {
		DomainID int64 `json:"domainId"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	selected, err := h.service.Select(r.Context(), sess, profile, req.DomainID)
	if err != nil {
		if errors.Is(err, domains.ErrNotMember) {
			httputil.WriteForbidden(w, err.Error())
			return
		}
		h.logger.WithError(err).Error("failed to select domain")
		httputil.WriteInternalError(w, err)
		return
	}

	h.audit.Record(r.Context(), audit.Event{
		Type:     audit.TypeDomainSelect,
		Email:    sess.Email,
		DomainID: selected.ID,
		Detail:   selected.Code,
	})
	httputil.WriteSuccess(w, selected)
}
