// Package rbac resolves page-level permissions from the user's profile,
// scoped to the selected domain.
//
// Requirements combine with AnyOf by default; AllOf is an explicit opt-in at
// the call site. Decisions are cached per user and invalidated whenever a
// fresh profile is fetched. Access denials on optional list loads degrade to
// empty results; denials on explicit actions are surfaced as errors.
package rbac
