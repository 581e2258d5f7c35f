// Package file provides filesystem adapters: register map loading and
// watching, and per-stream run reports.
package file
