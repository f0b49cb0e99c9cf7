package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/novaflow/console/pkg/observability"
)

// Event types recorded by the console
const (
	TypeLogin          = "auth.login"
	TypeLogout         = "auth.logout"
	TypeDomainSelect   = "domain.select"
	TypeResourceCreate = "resource.create"
	TypeResourceUpdate = "resource.update"
	TypeResourceDelete = "resource.delete"
)

// Event is one audit trail entry
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Email     string    `json:"email"`
	DomainID  int64     `json:"domain_id,omitempty"`
	Resource  string    `json:"resource,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder accepts audit events. Recording failures are logged, never
// propagated: the audit trail must not take user actions down with it.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// NopRecorder discards every event. Used when no audit database is
// configured.
type NopRecorder struct{}

// Record discards the event
func (NopRecorder) Record(ctx context.Context, event Event) {}

// Store writes audit events to PostgreSQL
type Store struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewStore creates a Postgres-backed audit store
func NewStore(db *sql.DB, logger *observability.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Migrate creates the audit table if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id         UUID PRIMARY KEY,
			type       TEXT NOT NULL,
			email      TEXT NOT NULL,
			domain_id  BIGINT NOT NULL DEFAULT 0,
			resource   TEXT NOT NULL DEFAULT '',
			detail     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create audit table: %w", err)
	}
	return nil
}

// Record writes one event. ID and timestamp are filled in when absent.
func (s *Store) Record(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, type, email, domain_id, resource, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.Type, event.Email, event.DomainID, event.Resource, event.Detail, event.CreatedAt)
	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"type":  event.Type,
			"email": event.Email,
		}).Error("failed to record audit event")
	}
}

// Filter narrows an audit search. Zero values match everything.
type Filter struct {
	Email    string
	Type     string
	Resource string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// DefaultSearchLimit caps unbounded searches
const DefaultSearchLimit = 200

// Search returns matching events, newest first
func (s *Store) Search(ctx context.Context, f Filter) ([]Event, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}

	if f.Email != "" {
		add("email = ", f.Email)
	}
	if f.Type != "" {
		add("type = ", f.Type)
	}
	if f.Resource != "" {
		add("resource = ", f.Resource)
	}
	if !f.Since.IsZero() {
		add("created_at >= ", f.Since)
	}
	if !f.Until.IsZero() {
		add("created_at < ", f.Until)
	}

	query := "SELECT id, type, email, domain_id, resource, detail, created_at FROM audit_events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	args = append(args, limit)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit search failed: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Email, &e.DomainID, &e.Resource, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit search failed: %w", err)
	}
	return events, nil
}
