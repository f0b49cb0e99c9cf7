// Package session owns the console session lifecycle: signed session tokens,
// the cookie consumed by the edge route guard, and the server-side session
// record holding the user's identity and selected domain.
//
// A token proves only that a completed sign-in issued it. Presence of a token
// does not imply validity; the session route guard still has to fetch the
// profile before rendering protected content. Malformed tokens are treated as
// absent (fail closed).
package session
