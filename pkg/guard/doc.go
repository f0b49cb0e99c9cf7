// Package guard implements the console's two-tier route protection.
//
// The edge tier runs on every request before anything else. It proves only
// that a session cookie is present: public paths pass unconditionally, and
// everything else without a cookie is redirected to login with the original
// path preserved. It never inspects token validity; that keeps the rejection
// path cheap and fail-fast.
//
// The session tier runs behind the edge tier on protected routes. It proves
// the token is currently valid: it parses the token, loads the session
// record, and fetches the profile from the platform. A failure at any step
// signs the user out and redirects to login. Only after a successful profile
// fetch does the request reach a handler; there is no state in which
// protected content is served while validation is still pending.
//
// The two tiers are deliberately separate state machines. Collapsing them
// into one would lose the cheap edge rejection and push every unauthenticated
// probe through a profile fetch.
package guard
