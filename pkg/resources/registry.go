package resources

import (
	"fmt"

	"github.com/novaflow/console/pkg/audit"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/upstream"
)

// Registry holds the handler for every console resource
type Registry struct {
	Roles            *Handler[upstream.Role]
	Pages            *Handler[upstream.Page]
	PermissionTypes  *Handler[upstream.PermissionType]
	Domains          *Handler[upstream.Domain]
	Connections      *Handler[upstream.Connection]
	HolidayCalendars *Handler[upstream.HolidayCalendar]
	UIMetadata       *Handler[upstream.UIMetadata]
	PermissionGrid   *GridHandler
}

// NewRegistry wires a definition and handler for every resource over the
// upstream client set.
func NewRegistry(clients *upstream.Clients, logger *observability.Logger, recorder audit.Recorder) *Registry {
	return &Registry{
		Roles: NewHandler(Definition[upstream.Role]{
			Name:       "roles",
			Client:     clients.Roles,
			ID:         func(r upstream.Role) int64 { return r.ID },
			SearchText: func(r upstream.Role) []string { return []string{r.Name, r.Description} },
			UniqueKey:  func(r upstream.Role) string { return r.Name },
			Validate: func(r upstream.Role) error {
				return requireFields(field{"name", r.Name})
			},
		}, logger, recorder),

		Pages: NewHandler(Definition[upstream.Page]{
			Name:        "pages",
			Client:      clients.Pages,
			ID:          func(p upstream.Page) int64 { return p.ID },
			SearchText:  func(p upstream.Page) []string { return []string{p.Name, p.Path} },
			UniqueKey:   func(p upstream.Page) string { return p.Path },
			UniqueLabel: "path",
			Validate: func(p upstream.Page) error {
				return requireFields(field{"name", p.Name}, field{"path", p.Path})
			},
			SupportsActivate: true,
		}, logger, recorder),

		PermissionTypes: NewHandler(Definition[upstream.PermissionType]{
			Name:       "permission-types",
			Client:     clients.PermissionTypes,
			ID:         func(p upstream.PermissionType) int64 { return p.ID },
			SearchText: func(p upstream.PermissionType) []string { return []string{p.Name, p.Description} },
			UniqueKey:  func(p upstream.PermissionType) string { return p.Name },
			Validate: func(p upstream.PermissionType) error {
				return requireFields(field{"name", p.Name})
			},
		}, logger, recorder),

		Domains: NewHandler(Definition[upstream.Domain]{
			Name:        "domains",
			Client:      clients.Domains,
			ID:          func(d upstream.Domain) int64 { return d.ID },
			SearchText:  func(d upstream.Domain) []string { return []string{d.Code, d.Name} },
			UniqueKey:   func(d upstream.Domain) string { return d.Code },
			UniqueLabel: "code",
			Validate: func(d upstream.Domain) error {
				return requireFields(field{"code", d.Code}, field{"name", d.Name})
			},
			SupportsActivate: true,
		}, logger, recorder),

		Connections: NewHandler(Definition[upstream.Connection]{
			Name:       "connections",
			Client:     clients.Connections,
			ID:         func(c upstream.Connection) int64 { return c.ID },
			SearchText: func(c upstream.Connection) []string { return []string{c.Name, c.Type, c.Endpoint} },
			UniqueKey:  func(c upstream.Connection) string { return c.Name },
			Validate: func(c upstream.Connection) error {
				return requireFields(field{"name", c.Name}, field{"type", c.Type}, field{"endpoint", c.Endpoint})
			},
			SupportsActivate: true,
		}, logger, recorder),

		HolidayCalendars: NewHandler(Definition[upstream.HolidayCalendar]{
			Name:       "holiday-calendars",
			Client:     clients.HolidayCalendars,
			ID:         func(h upstream.HolidayCalendar) int64 { return h.ID },
			SearchText: func(h upstream.HolidayCalendar) []string { return []string{h.Name, h.Country} },
			UniqueKey:  func(h upstream.HolidayCalendar) string { return h.Name },
			Validate: func(h upstream.HolidayCalendar) error {
				if err := requireFields(field{"name", h.Name}); err != nil {
					return err
				}
				if h.Year == 0 {
					return fmt.Errorf("year is required")
				}
				return nil
			},
		}, logger, recorder),

		UIMetadata: NewHandler(Definition[upstream.UIMetadata]{
			Name:       "ui-metadata",
			Client:     clients.UIMetadata,
			ID:         func(m upstream.UIMetadata) int64 { return m.ID },
			SearchText: func(m upstream.UIMetadata) []string { return []string{m.Name, m.PagePath} },
			UniqueKey:  func(m upstream.UIMetadata) string { return m.Name },
			Validate: func(m upstream.UIMetadata) error {
				return requireFields(field{"name", m.Name}, field{"pagePath", m.PagePath})
			},
		}, logger, recorder),

		PermissionGrid: NewGridHandler(clients.Permissions, logger, recorder),
	}
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	return nil
}
