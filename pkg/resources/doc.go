// Package resources implements the console's generic CRUD surface. Every
// resource (roles, pages, domains, connections, and the rest) is a
// Definition plugged into one shared Handler: list with search, create and
// update with required-field validation and a client-side uniqueness check,
// delete, and activate where the platform supports it.
//
// Mutations persist upstream first and then reload the collection, so the
// response always reflects what the platform holds, server-assigned fields
// included. The uniqueness check runs against the loaded records before any
// network call; duplicates never reach the platform.
package resources
