// Package domains manages the per-session domain (tenant) selection.
//
// The selected domain is persisted on the session record before the change is
// broadcast, so subscribers and late readers never observe a selection the
// store does not yet hold. Profiles without any domain assignment operate in
// a synthetic administration domain.
package domains
