// Package upstream contains the thin clients for the platform's REST API:
// one typed client per resource over a shared base client.
//
// The base client injects the bearer token, speaks JSON, and maps every
// non-2xx response to a StatusError carrying the HTTP status. There are no
// retries and no caching: every call hits the network. That is a deliberate
// simplicity choice for an admin console with low request volume and a human
// in the loop.
package upstream
