package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/rillweb"
	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/appstore"
	"github.com/aretw0/rillweb/pkg/artifacts"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/notifications"
	"github.com/aretw0/rillweb/pkg/ports"
	"github.com/aretw0/rillweb/pkg/requestqueue"
	"github.com/aretw0/rillweb/pkg/sources"
	"github.com/aretw0/rillweb/pkg/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Workflows runs the source workflows.
type Workflows interface {
	CreateSource(ctx context.Context, instanceID, tableName, yaml string) ([]domain.ReconcileError, error)
	RefreshSource(ctx context.Context, connector, sourceName, instanceID string) (*domain.ReconcileResponse, error)
}

// FileReader reads the project files of an instance.
type FileReader interface {
	List(ctx context.Context, instanceID string) ([]string, error)
	Get(ctx context.Context, instanceID, path string) (*domain.FileContent, error)
}

// Deps are the components served over HTTP. Store and Workflows are required.
type Deps struct {
	Store         *appstore.Store
	Workflows     Workflows
	Artifacts     *artifacts.Store
	Notifications *notifications.Notifications
	Overlay       *notifications.Overlay
	Queue         *requestqueue.Queue
	Health        ports.HealthChecker
	Files         FileReader
	FileList      *store.Writable[[]string]
	Metrics       http.Handler
	Logger        *slog.Logger
}

// Server implements ServerInterface.
type Server struct {
	deps    Deps
	Streams *StreamManager
	logger  *slog.Logger
	unsubs  []func()
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates a Server and starts forwarding store changes to SSE clients.
func NewServer(deps Deps) *Server {
	if deps.Artifacts == nil {
		deps.Artifacts = artifacts.New()
	}
	if deps.Notifications == nil {
		deps.Notifications = notifications.New()
	}
	if deps.Overlay == nil {
		deps.Overlay = notifications.NewOverlay()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		deps:    deps,
		Streams: NewStreamManager(logger),
		logger:  logger,
	}

	s.unsubs = append(s.unsubs,
		deps.Store.Subscribe(func(v domain.AppState) { s.publish(TopicState, v) }),
		deps.Overlay.Subscribe(func(v *notifications.OverlayState) { s.publish(TopicOverlay, v) }),
		deps.Notifications.Subscribe(func(v []notifications.Notification) { s.publish(TopicNotifications, v) }),
		deps.Artifacts.Subscribe(func(v artifacts.State) { s.publish(TopicArtifacts, v.Entities) }),
	)
	if deps.FileList != nil {
		s.unsubs = append(s.unsubs, deps.FileList.Subscribe(func(v []string) { s.publish(TopicFiles, v) }))
	}
	return s
}

// Close stops forwarding store changes.
func (s *Server) Close() {
	for _, u := range s.unsubs {
		u()
	}
	s.unsubs = nil
}

// Handler returns the router of the Server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics)
	}

	return enableCORS(HandlerFromMux(s, r))
}

// NewHandler creates a new HTTP handler for deps.
func NewHandler(deps Deps) http.Handler {
	return NewServer(deps).Handler()
}

// NewAppHandler serves app.
func NewAppHandler(app *rillweb.App, logger *slog.Logger) *Server {
	deps := Deps{
		Store:         app.Store,
		Workflows:     app.Sources,
		Artifacts:     app.Artifacts,
		Notifications: app.Notifications,
		Overlay:       app.Overlay,
		Queue:         app.Queue,
		Health:        app,
		FileList:      app.FileList,
		Metrics:       app.Metrics.Handler(),
		Logger:        logger,
	}
	if app.Files != nil {
		deps.Files = app.Files
	}
	return NewServer(deps)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>rillweb API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

func (s *Server) publish(topic string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("SSE: encode failed", "topic", topic, "err", err)
		return
	}
	s.Streams.Broadcast(topic, string(data))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrUnknownEntityType),
		errors.Is(err, domain.ErrNoFileSelected):
		return http.StatusBadRequest
	case errors.Is(err, errFilesUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrUploadFailed),
		errors.Is(err, domain.ErrRuntimeRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetHealth handles the GET /health request. It reports the runtime as
// unavailable when it does not answer a ping.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(r.Context()); err != nil {
			s.logger.Warn("Runtime health check failed", "err", err)
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "rillweb",
		"version":     strings.TrimSpace(rillweb.Version),
		"api_version": apiVersion,
	})
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Store.State())
}

type setActiveEntityRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SetActiveEntity handles the PUT /state/active request.
func (s *Server) SetActiveEntity(w http.ResponseWriter, r *http.Request) {
	var body setActiveEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SetActiveEntity: Invalid request body", "err", err)
		return
	}
	if body.Name == "" {
		s.writeError(w, domain.ErrEmptyName)
		return
	}
	t, err := domain.ParseEntityType(body.Type)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.deps.Store.SetActiveEntity(body.Name, t)
	s.writeJSON(w, http.StatusOK, s.deps.Store.State())
}

type createSourceRequest struct {
	Name       string         `json:"name"`
	YAML       string         `json:"yaml"`
	Connector  string         `json:"connector"`
	Properties map[string]any `json:"properties"`
}

type createSourceResponse struct {
	Errors []domain.ReconcileError `json:"errors"`
}

// CreateSource handles the POST /instances/{instanceId}/sources request.
// The artifact is either given as yaml or compiled from connector and properties.
func (s *Server) CreateSource(w http.ResponseWriter, r *http.Request, instanceID string) {
	var body createSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CreateSource: Invalid request body", "err", err)
		return
	}

	blob := body.YAML
	if blob == "" {
		if body.Connector == "" {
			http.Error(w, "Either yaml or connector is required", http.StatusBadRequest)
			return
		}
		var err error
		blob, err = sources.CompileCreateSourceYAML(body.Properties, body.Connector)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid properties: %v", err), http.StatusBadRequest)
			return
		}
	}

	errs, err := s.deps.Workflows.CreateSource(r.Context(), instanceID, body.Name, blob)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusCreated
	if len(errs) > 0 {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, createSourceResponse{Errors: errs})
}

type refreshSourceRequest struct {
	Connector string `json:"connector"`
}

// RefreshSource handles the POST /instances/{instanceId}/sources/{name}/refresh request.
func (s *Server) RefreshSource(w http.ResponseWriter, r *http.Request, instanceID string, name string) {
	var body refreshSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("RefreshSource: Invalid request body", "err", err)
		return
	}
	resp, err := s.deps.Workflows.RefreshSource(r.Context(), body.Connector, name, instanceID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

var errFilesUnavailable = errors.New("file browsing is not supported by the runtime")

// ListFiles handles the GET /instances/{instanceId}/files request.
func (s *Server) ListFiles(w http.ResponseWriter, r *http.Request, instanceID string) {
	if s.deps.Files == nil {
		s.writeError(w, errFilesUnavailable)
		return
	}
	paths, err := s.deps.Files.List(r.Context(), instanceID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if paths == nil {
		paths = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
}

// GetFile handles the GET /instances/{instanceId}/files/-/{path} request.
func (s *Server) GetFile(w http.ResponseWriter, r *http.Request, instanceID string, path string) {
	if s.deps.Files == nil {
		s.writeError(w, errFilesUnavailable)
		return
	}
	f, err := s.deps.Files.Get(r.Context(), instanceID, path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, f)
}

// GetArtifactErrors handles the GET /artifacts/errors request.
func (s *Server) GetArtifactErrors(w http.ResponseWriter, r *http.Request, params GetArtifactErrorsParams) {
	if params.Path != nil {
		errs := s.deps.Artifacts.Errors(*params.Path)
		if errs == nil {
			errs = []domain.ReconcileError{}
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"path": *params.Path, "errors": errs})
		return
	}
	all := make(map[string][]domain.ReconcileError)
	for _, p := range s.deps.Artifacts.Paths() {
		all[p] = s.deps.Artifacts.Errors(p)
	}
	s.writeJSON(w, http.StatusOK, all)
}

// ListNotifications handles the GET /notifications request.
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	list := s.deps.Notifications.List()
	if list == nil {
		list = []notifications.Notification{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

// DismissNotification handles the DELETE /notifications/{id} request.
func (s *Server) DismissNotification(w http.ResponseWriter, r *http.Request, id string) {
	s.deps.Notifications.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}

// GetQueue handles the GET /queue request.
func (s *Server) GetQueue(w http.ResponseWriter, r *http.Request) {
	pending := []requestqueue.PendingRequest{}
	if s.deps.Queue != nil {
		pending = append(pending, s.deps.Queue.Pending()...)
	}
	s.writeJSON(w, http.StatusOK, pending)
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	topics := Topics
	if params.Watch != nil && *params.Watch != "" {
		topics = nil
		for _, t := range strings.Split(*params.Watch, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}

	ch, cancel := s.Streams.Subscribe(topics...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: Client connected", "topics", topics)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: Client disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, ev.Data)
			flusher.Flush()
		}
	}
}
