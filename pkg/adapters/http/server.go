// Package http serves the host over HTTP: synchronous command execution, a
// server-sent event stream of progress, metrics and the websocket relay.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/progress"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxBody = 4 << 20

// Executor runs one command to completion.
type Executor interface {
	Execute(ctx context.Context, req domain.CommandRequest) domain.CommandResponse
}

// Server routes HTTP requests to an Executor.
type Server struct {
	router   chi.Router
	exec     Executor
	commands func() []string
	hub      *progress.Hub
	metrics  *observability.Metrics
	relay    http.Handler
	spec     *openapi3.T
	request  *openapi3.Schema
	logger   *slog.Logger
}

type Option func(*Server)

// WithEvents streams progress from hub on GET /events.
func WithEvents(hub *progress.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

// WithMetrics serves m on GET /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRelay mounts a websocket relay on GET /ws.
func WithRelay(h http.Handler) Option {
	return func(s *Server) { s.relay = h }
}

// WithCommands lists command names on GET /commands/names.
func WithCommands(fn func() []string) Option {
	return func(s *Server) { s.commands = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer builds the router. It fails only if the embedded spec is broken.
func NewServer(exec Executor, opts ...Option) (*Server, error) {
	s := &Server{exec: exec, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	spec, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	s.spec = spec
	if s.request, err = schema(spec, "CommandRequest"); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(cors)

	r.Get("/health", s.handleHealth)
	r.Get("/info", s.handleInfo)
	r.Get("/openapi.yaml", s.handleSpec)
	r.Post("/commands", s.handleCommand)
	r.Get("/commands/names", s.handleCommandNames)
	if s.hub != nil {
		r.Get("/events", s.handleEvents)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	if s.relay != nil {
		r.Method(http.MethodGet, "/ws", s.relay)
	}
	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "quill-host",
		"version":     quill.Version,
		"api_version": apiVersion,
	})
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(rawSpec)
}

func (s *Server) handleCommandNames(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if s.commands != nil {
		names = s.commands()
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": names})
}

// handleCommand validates the envelope against the API schema, runs it and
// answers with the response envelope. The status reflects the error kind.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		jsonError(w, "failed to read request body", http.StatusRequestEntityTooLarge)
		return
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.request.VisitJSON(raw); err != nil {
		jsonError(w, "invalid command request: "+err.Error(), http.StatusBadRequest)
		return
	}

	var req domain.CommandRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, "invalid command request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	resp := s.exec.Execute(r.Context(), req)
	writeJSON(w, statusFor(resp.ErrorKind), resp)
}

// handleEvents streams progress events. With a commandId the stream closes
// after that command's terminal event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	commandID := r.URL.Query().Get("commandId")

	events, cancel := s.hub.Subscribe(commandID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("failed to encode progress event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data)
			flusher.Flush()
			if commandID != "" && ev.Status.Terminal() {
				return
			}
		}
	}
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case "":
		return http.StatusOK
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound, domain.KindUnknownCommand:
		return http.StatusNotFound
	case domain.KindUnsupported:
		return http.StatusUnprocessableEntity
	case domain.KindResourceLoad:
		return http.StatusFailedDependency
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
