package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Server is the http server of the fulfiller. It always serves `/metrics`; callers
// register additional routes through `routes`.
type Server struct {
	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a server listening on `addr`.
func NewServer(log zerolog.Logger, addr string, routes func(r *mux.Router)) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if routes != nil {
		routes(router)
	}

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log.With().Str("component", "http_server").Logger(),
	}
}

// Handler returns the router of the server.
func (m *Server) Handler() http.Handler {
	return m.server.Handler
}

// Ready starts serving in the background and returns a channel that closes once started.
func (m *Server) Ready() <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		m.log.Info().Str("address", m.server.Addr).Msg("http server started")
		if err := m.server.ListenAndServe(); err != nil {
			// http.ErrServerClosed is returned when Close or Shutdown is called
			if errors.Is(err, http.ErrServerClosed) {
				m.log.Debug().Err(err).Msg("http server shutdown")
			} else {
				m.log.Err(err).Msg("http server failed")
			}
		}
	}()
	close(ready)
	return ready
}

// Done returns a channel that will close when shutdown is complete.
func (m *Server) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = m.server.Shutdown(ctx)
		cancel()
		close(done)
	}()
	return done
}
