package resources

import (
	"strings"

	"github.com/novaflow/console/pkg/upstream"
)

// Definition parameterizes the generic CRUD surface for one resource. All
// console resources behave identically once these hooks are filled in.
type Definition[T any] struct {
	// Name is the plural resource name used in routes, audit events and logs
	Name string

	// Client talks to the platform collection endpoint
	Client *upstream.ResourceClient[T]

	// ID extracts the server-assigned identifier
	ID func(T) int64

	// SearchText returns the display fields matched by the ?q= filter.
	// Matching is case-insensitive substring.
	SearchText func(T) []string

	// UniqueKey extracts the client-side uniqueness key. Comparison is a
	// case-sensitive exact match against currently loaded records; an empty
	// function disables the check.
	UniqueKey func(T) string

	// UniqueLabel names the unique field in conflict messages ("code",
	// "path"). Defaults to "name".
	UniqueLabel string

	// Validate checks required fields before anything is sent upstream
	Validate func(T) error

	// SupportsActivate enables the activate/deactivate endpoints
	SupportsActivate bool
}

// matchesQuery reports whether any search field contains the query,
// case-insensitively. An empty query matches everything.
func (d *Definition[T]) matchesQuery(rec T, query string) bool {
	if query == "" {
		return true
	}
	if d.SearchText == nil {
		return false
	}
	query = strings.ToLower(query)
	for _, field := range d.SearchText(rec) {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// findDuplicate returns the index of a record sharing the candidate's unique
// key, or -1. Records with the excluded id are skipped so updates do not
// collide with themselves.
func (d *Definition[T]) findDuplicate(records []T, candidate T, excludeID int64) int {
	if d.UniqueKey == nil {
		return -1
	}
	key := d.UniqueKey(candidate)
	if key == "" {
		return -1
	}
	for i, rec := range records {
		if excludeID != 0 && d.ID(rec) == excludeID {
			continue
		}
		if d.UniqueKey(rec) == key {
			return i
		}
	}
	return -1
}
