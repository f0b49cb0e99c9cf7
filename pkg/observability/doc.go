// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, and health probes for the NovaFlow console.
//
// The logger is a thin wrapper over log/slog emitting JSON. Handlers should
// obtain a request-scoped logger via FromContext so the request ID and user
// fields are carried automatically.
package observability
