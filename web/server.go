// ABOUTME: Kanban HTTP server: a chi router exposing boards, cards, transitions, and exports as JSON.
// ABOUTME: Every mutation goes through the board's actor so concurrent requests are serialised.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389-research/kanban/board/server"
)

// Server is the kanban HTTP server.
type Server struct {
	state  *server.AppState
	router chi.Router
	addr   string
	now    func() time.Time
}

// ServerConfig holds the configuration for the web server.
type ServerConfig struct {
	Addr      string // listen address (default: server.DefaultBind)
	AuthToken string // when set, /api requires this bearer token
}

// NewServer creates a Server over state. Boards on disk are opened lazily
// on first request if they were not loaded beforehand.
func NewServer(state *server.AppState, cfg ServerConfig) (*Server, error) {
	if state == nil {
		return nil, errors.New("web: nil app state")
	}
	if cfg.Addr == "" {
		cfg.Addr = server.DefaultBind
	}
	s := &Server{
		state: state,
		addr:  cfg.Addr,
		now:   func() time.Time { return time.Now().UTC() },
	}
	s.router = s.buildRouter(cfg.AuthToken)
	return s, nil
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		// Event streams watch the request context, so cancelling ctx ends them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("component=web action=listen addr=%s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter(authToken string) chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if authToken != "" {
		r.Use(server.AuthMiddleware(authToken))
		r.Get("/login", server.LoginHandler(authToken))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/boards", func(r chi.Router) {
		r.Get("/", s.handleBoardList)
		r.Post("/", s.handleBoardCreate)

		r.Route("/{boardID}", func(r chi.Router) {
			r.Get("/", s.handleBoardView)
			r.Get("/events", s.handleBoardEvents)
			r.Post("/commands", s.handleCommand)
			r.Post("/clear", s.handleClear)
			r.Get("/export.{format}", s.handleExport)
			r.Post("/exports", s.handleWriteExports)

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", s.handleCardIndex)
				r.Post("/", s.handleCardCreate)
				r.Route("/{cardID}", func(r chi.Router) {
					r.Get("/", s.handleCardGet)
					r.Patch("/", s.handleCardEdit)
					r.Delete("/", s.handleCardDelete)
					r.Post("/move", s.handleCardMove)
					r.Post("/back", s.handleCardBack)
					r.Post("/toggle", s.handleCardToggle)
				})
			})
		})
	})

	return r
}

// handleHealth returns a JSON health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("component=web action=encode_failed err=%v", err)
	}
}
