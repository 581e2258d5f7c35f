// Package http serves the state of a running environment: health, metrics,
// objections, persisted streams and a live record feed over server-sent events.
package http
