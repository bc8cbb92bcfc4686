// Package metrics provides filter.Collector implementations for exporting
// engine-lifecycle counts, and the Server interface for serving them over
// HTTP.
package metrics

import "context"

// Server defines the interface for a metrics HTTP server.
type Server interface {
	// Start begins serving metrics. It blocks until the context is canceled
	// or an error occurs.
	Start(ctx context.Context) error

	// Shutdown gracefully stops the metrics server.
	Shutdown(ctx context.Context) error
}
