/*
Package observability turns environment lifecycle hooks into Prometheus
metrics and structured log lines.

Metrics uses its own registry so several environments can live in one
process, and exposes it through Handler for scraping. The counters double as
functional coverage: every (direction, status) pair of the control plane and
every (boundary, status) pair of a record stream is a bin.
*/
package observability
