// Package web exposes archived discussions and live progress over HTTP. It
// contains no engine logic: the handlers invoke the engine façade and render
// its records, and the websocket endpoint relays the progress event stream.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hupe1980/deliberate/core"
	"github.com/hupe1980/deliberate/logging"
	"github.com/hupe1980/deliberate/store"
)

// Runner starts deliberations; implemented by deliberate.Deliberate.
type Runner interface {
	Discuss(ctx context.Context, prompt string) (*core.Discussion, error)
}

// Server serves the JSON API and the live progress stream.
type Server struct {
	runner  Runner
	gateway store.Gateway
	logger  logging.Logger

	mu          sync.RWMutex
	subscribers map[chan core.ProgressEvent]struct{}
}

// NewServer constructs a Server. Wire Progress() into the engine's options so
// live events reach websocket clients.
func NewServer(runner Runner, gateway store.Gateway, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Server{
		runner:      runner,
		gateway:     gateway,
		logger:      logger,
		subscribers: make(map[chan core.ProgressEvent]struct{}),
	}
}

// Progress returns the callback that fans engine events out to websocket
// subscribers. Events carry their discussion id; clients filter as needed.
func (s *Server) Progress() core.ProgressFunc {
	return func(ev core.ProgressEvent) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for ch := range s.subscribers {
			select {
			case ch <- ev:
			default:
				// Slow consumer: drop rather than stall the sequencer.
			}
		}
	}
}

// Handler returns the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/discussions", func(r chi.Router) {
		r.Post("/", s.handleDiscuss)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
	})
	r.Get("/ws", s.handleWebsocket)
	return r
}

type discussRequest struct {
	Prompt string `json:"prompt"`
}

// handleDiscuss runs a full deliberation and returns the concluded record.
// Clients wanting live feedback watch /ws while this request is in flight.
func (s *Server) handleDiscuss(w http.ResponseWriter, r *http.Request) {
	var req discussRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	d, err := s.runner.Discuss(r.Context(), req.Prompt)
	if err != nil {
		s.logger.Error("discussion failed", "error", err)
		http.Error(w, "discussion halted: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	discussions, err := s.gateway.ListDiscussions(r.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, discussions)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := s.gateway.LoadDiscussion(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "discussion not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleWebsocket streams progress events to the client until it disconnects.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}

func (s *Server) subscribe() chan core.ProgressEvent {
	ch := make(chan core.ProgressEvent, 64)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan core.ProgressEvent) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
