package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/novaflow/console/pkg/audit"
	"github.com/novaflow/console/pkg/auth"
	"github.com/novaflow/console/pkg/config"
	"github.com/novaflow/console/pkg/domains"
	"github.com/novaflow/console/pkg/guard"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/rbac"
	"github.com/novaflow/console/pkg/resources"
	"github.com/novaflow/console/pkg/session"
)

// Deps carries everything the server needs. Optional fields may be nil.
type Deps struct {
	Config       *config.Config
	Logger       *observability.Logger
	Metrics      *observability.Metrics
	PromRegistry *prometheus.Registry

	Gateway   *auth.Gateway
	Cookies   *session.CookieWriter
	Domains   *domains.Service
	Checker   *rbac.Checker
	Resources *resources.Registry

	Audit       audit.Recorder
	AuditSearch *audit.Store
	Health      *observability.HealthChecker

	TracingEnabled bool
}

// Server is the console's HTTP surface
type Server struct {
	cfg     *config.Config
	logger  *observability.Logger
	router  *mux.Router
	handler http.Handler
	health  http.Handler
	deps    Deps
}

// NewServer assembles the router, middleware chain, and route table
func NewServer(deps Deps) *Server {
	s := &Server{
		cfg:    deps.Config,
		logger: deps.Logger,
		router: mux.NewRouter(),
		deps:   deps,
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.setupHealth()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	// Per-route middleware runs after route matching.
	if s.deps.Metrics != nil {
		s.router.Use(mux.MiddlewareFunc(NewMetricsMiddleware(s.deps.Metrics).Handler))
	}

	// The guards wrap the router from the outside so unmatched paths are
	// still gated; mux middleware never sees requests that match no route.
	edge := guard.NewEdgeGuard(s.deps.Cookies, nil, s.deps.Metrics)

	// Typed nils must not reach the guard's interface fields.
	var resolver guard.DomainResolver
	if s.deps.Domains != nil {
		resolver = s.deps.Domains
	}
	var observer guard.ProfileObserver
	if s.deps.Checker != nil {
		observer = s.deps.Checker
	}
	sessionGuard := guard.NewSessionGuard(s.deps.Gateway, s.deps.Cookies, edge, resolver, observer, s.deps.Metrics)

	var h http.Handler = s.router
	h = sessionGuard.Middleware(h)
	h = edge.Middleware(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = RequestIDMiddleware(h)
	s.handler = h
}

func (s *Server) setupRoutes() {
	authHandlers := NewAuthHandlers(s.deps.Gateway, s.deps.Cookies, s.logger, s.deps.Metrics, s.deps.Audit, s.cfg.DevMode)
	authHandlers.RegisterRoutes(s.router)
	s.registerPages()

	// Everything below runs behind the guards.
	s.router.HandleFunc("/api/users/me", authHandlers.profile).Methods(http.MethodGet)
	s.router.HandleFunc("/api/navigate", guard.RedirectHandler).Methods(http.MethodPost)

	NewDomainHandlers(s.deps.Domains, s.logger, s.deps.Audit).RegisterRoutes(s.router)

	reg := s.deps.Resources
	checker := s.deps.Checker
	mountResource(s.router, checker, "/api/roles", "/roles", reg.Roles)
	mountResource(s.router, checker, "/api/pages", "/pages", reg.Pages)
	mountResource(s.router, checker, "/api/permission-types", "/permission-types", reg.PermissionTypes)
	mountResource(s.router, checker, "/api/domains", "/domains", reg.Domains)
	mountResource(s.router, checker, "/api/connections", "/connections", reg.Connections)
	mountResource(s.router, checker, "/api/holiday-calendars", "/holiday-calendars", reg.HolidayCalendars)
	mountResource(s.router, checker, "/api/ui-metadata", "/ui-metadata", reg.UIMetadata)

	// The permission grid is gated like the pages resource it belongs to.
	grid := reg.PermissionGrid
	s.router.Handle("/api/role-page-permissions/page/{pageId}",
		checker.Require("/pages", []string{"READ"}, rbac.AnyOf)(http.HandlerFunc(grid.GetForPage))).Methods(http.MethodGet)
	s.router.Handle("/api/role-page-permissions/page/{pageId}",
		checker.Require("/pages", []string{"WRITE"}, rbac.AnyOf)(http.HandlerFunc(grid.ReplaceForPage))).Methods(http.MethodPut)

	if s.deps.AuditSearch != nil {
		auditHandlers := NewAuditHandlers(s.deps.AuditSearch, s.logger)
		s.router.Handle("/api/audit/events",
			checker.Require("/audit", []string{"READ"}, rbac.AnyOf)(http.HandlerFunc(auditHandlers.search))).Methods(http.MethodGet)
	}
}

// mountResource wires the CRUD verbs for one resource, gated on the page's
// permissions. Reads need READ; writes need WRITE; delete needs both WRITE
// and DELETE.
func mountResource[T any](router *mux.Router, checker *rbac.Checker, base, page string, h *resources.Handler[T]) {
	read := checker.Require(page, []string{"READ"}, rbac.AnyOf)
	write := checker.Require(page, []string{"WRITE"}, rbac.AnyOf)
	remove := checker.Require(page, []string{"WRITE", "DELETE"}, rbac.AllOf)

	router.Handle(base, read(http.HandlerFunc(h.List))).Methods(http.MethodGet)
	router.Handle(base, write(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	router.Handle(base+"/{id}", read(http.HandlerFunc(h.Get))).Methods(http.MethodGet)
	router.Handle(base+"/{id}", write(http.HandlerFunc(h.Update))).Methods(http.MethodPut)
	router.Handle(base+"/{id}", remove(http.HandlerFunc(h.Delete))).Methods(http.MethodDelete)
	router.Handle(base+"/{id}/activate", write(h.SetActive(true))).Methods(http.MethodPut)
	router.Handle(base+"/{id}/deactivate", write(h.SetActive(false))).Methods(http.MethodPut)
}

func (s *Server) setupHealth() {
	m := mux.NewRouter()
	if s.deps.Health != nil {
		m.HandleFunc("/healthz", s.deps.Health.Liveness).Methods(http.MethodGet)
		m.HandleFunc("/readyz", s.deps.Health.Readiness).Methods(http.MethodGet)
	}
	if s.deps.PromRegistry != nil && s.cfg.Observability.MetricsEnabled {
		m.Handle("/metrics", observability.Handler(s.deps.PromRegistry)).Methods(http.MethodGet)
	}
	s.health = m
}

// Run serves the application and health listeners until the context is
// cancelled, then shuts both down within the configured grace period.
func (s *Server) Run(ctx context.Context) error {
	handler := s.handler
	if s.deps.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "novaflow-console")
	}

	appServer := &http.Server{
		Addr:         s.cfg.Server.Host + ":" + s.cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    s.cfg.Server.Host + ":" + s.cfg.Server.HealthPort,
		Handler: s.health,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.WithField("addr", appServer.Addr).Info("console server listening")
		if err := appServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := appServer.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Warn("console server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Warn("health server shutdown failed")
		}
		return nil
	})

	return g.Wait()
}
