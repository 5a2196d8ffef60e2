// Package api hosts the HTTP server, middleware, and REST handlers. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /api/scrape?url= returning {metadata, industry}.
//   - POST /api/scrape/batch for several URLs at once.
//   - GET /api/robots, /api/status and /api/images for the individual checks.
//   - GET /api/results for recent scrape history.
package api
