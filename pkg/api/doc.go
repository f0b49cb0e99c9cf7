// Package api assembles the console's HTTP surface: the route table, the
// middleware chain (request ID, logging, metrics, the two guard tiers), and
// the paired application and health listeners with graceful shutdown.
package api
