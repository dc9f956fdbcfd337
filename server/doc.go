// Package server exposes the appointment detail aggregation over HTTP.
//
// Routes:
//
//	GET  /v1/appointments/:id         assembled appointment detail
//	GET  /v1/breakers                 per-dependency protection state
//	POST /v1/breakers/:name/reset     close one dependency's circuit
//	GET  /healthz /readyz /health     liveness, readiness, detailed health
//	GET  /metrics                     Prometheus exposition
//
// /v1 routes require a staff bearer token.
package server
