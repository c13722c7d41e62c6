// Package server provides the optional admin HTTP endpoint.
//
// It is meant for loopback use by developers and support tooling and is
// not a channel to the backend:
//
//	GET /health   supervisor status; 200 while the backend runs, 503 otherwise
//	GET /metrics  Prometheus exposition
package server
