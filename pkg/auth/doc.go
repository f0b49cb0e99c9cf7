// Package auth implements the console's authentication gateway: Google
// sign-in over OIDC, the exchange of a verified identity for a platform
// bearer token, profile fetching, and sign-out.
//
// The profile fetch doubles as the authority check. A non-2xx response from
// the platform's profile endpoint always forces sign-out; it is never treated
// as a soft failure.
package auth
