package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServer exposes a Prometheus registry's metrics at /metrics. It
// implements the Server interface.
type HTTPServer struct {
	srv *http.Server
}

// NewHTTPServer builds a metrics server bound to addr, serving gatherer's
// metrics at /metrics.
func NewHTTPServer(addr string, gatherer prometheus.Gatherer) *HTTPServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &HTTPServer{srv: &http.Server{Addr: addr, Handler: mux}}
}

// Start begins serving metrics. It blocks until the context is canceled or
// an error occurs.
func (s *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the metrics server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
