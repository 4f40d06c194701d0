package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"routinetimer/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type Daemon struct {
	addr     string
	token    string
	version  string
	services *Services
	logger   logging.Logger
	server   *http.Server
}

func New(addr, token, version string, services *Services, logger logging.Logger) *Daemon {
	return &Daemon{
		addr:     addr,
		token:    token,
		version:  version,
		services: services,
		logger:   logging.OrNop(logger),
	}
}

// Handler builds the authenticated API handler. Run uses it; tests can
// mount it on httptest servers.
func (d *Daemon) Handler() (http.Handler, *API) {
	api := NewAPI(d.version, d.services, d.logger)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	return LoggingMiddleware(d.logger, TokenAuthMiddleware(d.token, mux)), api
}

// Run serves until ctx is done or a client requests shutdown, then closes
// the services.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.services.Close()

	handler, api := d.Handler()
	d.server = &http.Server{
		Addr:              d.addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	api.Shutdown = d.server.Shutdown
	// Event streams only end when the engine releases its subscribers.
	if d.services.Engine != nil {
		d.server.RegisterOnShutdown(d.services.Engine.Close)
	}

	listener, err := net.Listen("tcp", d.addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("daemon_listening", logging.F("addr", "http://"+listener.Addr().String()), logging.F("version", d.version))
		errCh <- d.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		d.logger.Info("daemon_stopping", logging.F("reason", "signal"))
		return d.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			d.logger.Info("daemon_stopping", logging.F("reason", "shutdown_request"))
			return nil
		}
		return err
	}
}
