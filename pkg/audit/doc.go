// Package audit records who did what in the console: sign-ins, sign-outs,
// domain switches, and resource mutations. Events land in PostgreSQL and are
// queryable with simple filters. Recording is fire-and-forget; a failing
// audit write is logged but never fails the user's action.
package audit
