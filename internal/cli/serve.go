package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/alignenv"
	alignhttp "github.com/aretw0/alignenv/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

// statusServer is the HTTP view of a running environment.
type statusServer struct {
	srv      *http.Server
	addr     string
	errs     chan error
	detaches []func()
	logger   *slog.Logger
}

// startServer listens on addr and serves the environment status. Every record
// bridge is subscribed so /events follows the run live.
func startServer(addr string, env *alignenv.Environment, logger *slog.Logger) (*statusServer, error) {
	opts := []alignhttp.Option{
		alignhttp.WithLogger(logger),
		alignhttp.WithObjections(env.Objection()),
		alignhttp.WithVersion(strings.TrimSpace(alignenv.Version)),
	}
	if m := env.Metrics(); m != nil {
		opts = append(opts, alignhttp.WithMetrics(m.Handler()))
	}
	api := alignhttp.NewServer(env.Sink(), opts...)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &statusServer{
		srv:    &http.Server{Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second},
		addr:   ln.Addr().String(),
		errs:   make(chan error, 1),
		logger: logger,
	}
	for _, b := range env.Bridges() {
		s.detaches = append(s.detaches, b.Subscribe("http", api.Publish(b.Stream())))
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
		close(s.errs)
	}()
	logger.Info("status server listening", "addr", s.addr)
	return s, nil
}

// Errors reports a failure of the listener. It is closed once the server stops.
func (s *statusServer) Errors() <-chan error {
	return s.errs
}

// Shutdown detaches from the bridges and stops the server gracefully.
func (s *statusServer) Shutdown(ctx context.Context) {
	for _, detach := range s.detaches {
		detach()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
		if err := s.srv.Close(); err != nil {
			s.logger.Warn("failed to close server", "err", err)
		}
	}
}
