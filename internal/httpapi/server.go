// Package httpapi exposes the Coordinator's public surface over HTTP+JSON,
// plus a websocket subscribe stream, as a thin wrapper over
// coordinator.Coordinator. Follows the shape of internal/server
// (mux.NewRouter, PathPrefix("/api").Subrouter(), SecurityHeadersMiddleware)
// and internal/handlers (one handler struct per resource, gorilla/mux
// path variables, limit/offset pagination).
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hive-mind/coordinator/internal/coordinator"
)

// Server is the HTTP+WebSocket front door over one Coordinator.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	coord      *coordinator.Coordinator
	hub        *hub
	log        *logrus.Entry
	stop       chan struct{}
}

// New builds a Server listening on addr, wired to coord. Call Start to
// begin serving and Shutdown to stop.
func New(coord *coordinator.Coordinator, addr string, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		coord: coord,
		hub:   newHub(),
		log:   log,
		stop:  make(chan struct{}),
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	s.router.Use(securityHeadersMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	swarms := &swarmHandler{coord: s.coord}
	api.HandleFunc("/swarms", swarms.HandleInitialize).Methods(http.MethodPost)
	api.HandleFunc("/swarms/{id}", swarms.HandleStatus).Methods(http.MethodGet)
	api.HandleFunc("/objectives", swarms.HandleSubmitObjective).Methods(http.MethodPost)

	th := &taskHandler{coord: s.coord}
	api.HandleFunc("/swarms/{id}/tasks", th.HandleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/swarms/{id}/tasks", th.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{task_id}/cancel", th.HandleCancel).Methods(http.MethodPost)

	ch := &consensusHandler{coord: s.coord}
	api.HandleFunc("/swarms/{id}/proposals", ch.HandlePropose).Methods(http.MethodPost)
	api.HandleFunc("/proposals/{proposal_id}/votes", ch.HandleVote).Methods(http.MethodPost)

	mh := &memoryHandler{coord: s.coord}
	api.HandleFunc("/memory/search", mh.HandleSearch).Methods(http.MethodGet)
	api.HandleFunc("/memory/{namespace}", mh.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/memory/{namespace}/{key}", mh.HandlePut).Methods(http.MethodPut)
	api.HandleFunc("/memory/{namespace}/{key}", mh.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/memory/{namespace}/{key}", mh.HandleDelete).Methods(http.MethodDelete)

	mt := &metricsHandler{coord: s.coord}
	api.HandleFunc("/metrics", mt.HandleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/swarms/{id}/metrics", mt.HandleTeamSummary).Methods(http.MethodGet)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/shutdown", s.handleShutdown).Methods(http.MethodPost)

	s.router.HandleFunc("/ws/subscribe", s.handleSubscribe)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleShutdown drains the Coordinator and stops this Server, the daemon
// process's remote-triggerable equivalent of internal/instance's
// ConflictResolver.stopExisting graceful path. The response is written
// before the server actually stops so the caller observes success.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "shutting_down"})
	go func() {
		if err := s.coord.Shutdown(0); err != nil {
			s.log.WithError(err).Warn("coordinator shutdown")
		}
		s.Shutdown()
	}()
}

// Start runs the hub loop and begins serving. It blocks until the server
// stops; run it in a goroutine.
func (s *Server) Start() error {
	go s.hub.run(s.stop)

	events, cancel := s.coord.Subscribe()
	go s.hub.pumpFromCoordinator(events)
	go func() {
		<-s.stop
		cancel()
	}()

	s.log.WithField("addr", s.httpServer.Addr).Info("httpapi listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown closes the listener and every open connection and stops the hub
// loop; frames still queued in the hub are not delivered.
func (s *Server) Shutdown() error {
	close(s.stop)
	return s.httpServer.Close()
}
