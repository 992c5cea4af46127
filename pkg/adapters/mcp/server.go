// Package mcp exposes the active entity and the source workflows as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/rillweb"
	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/appstore"
	"github.com/aretw0/rillweb/pkg/artifacts"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/sources"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Workflows runs the source workflows.
type Workflows interface {
	CreateSource(ctx context.Context, instanceID, tableName, yaml string) ([]domain.ReconcileError, error)
	RefreshSource(ctx context.Context, connector, sourceName, instanceID string) (*domain.ReconcileResponse, error)
}

// StateResponse is the structured result of the state tools.
type StateResponse struct {
	ActiveEntity         *domain.ActiveEntity `json:"activeEntity,omitempty" jsonschema_description:"The entity in focus"`
	PreviousActiveEntity *domain.ActiveEntity `json:"previousActiveEntity,omitempty" jsonschema_description:"The entity in focus before the last change"`
}

// CreateSourceResponse is the structured result of create_source.
type CreateSourceResponse struct {
	Created bool                    `json:"created" jsonschema_description:"True when the source reconciled without errors"`
	Errors  []domain.ReconcileError `json:"errors" jsonschema_description:"Reconcile errors, empty on success"`
}

// RefreshSourceResponse is the structured result of refresh_source.
type RefreshSourceResponse struct {
	Errors        []domain.ReconcileError `json:"errors" jsonschema_description:"Reconcile errors"`
	AffectedPaths []string                `json:"affectedPaths" jsonschema_description:"Artifacts touched by the refresh"`
}

// SetActiveEntityArgs are the arguments of set_active_entity.
type SetActiveEntityArgs struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CreateSourceArgs are the arguments of create_source.
type CreateSourceArgs struct {
	Name       string `json:"name"`
	YAML       string `json:"yaml"`
	Connector  string `json:"connector"`
	Properties string `json:"properties"`
	InstanceID string `json:"instance_id"`
}

// RefreshSourceArgs are the arguments of refresh_source.
type RefreshSourceArgs struct {
	Name       string `json:"name"`
	Connector  string `json:"connector"`
	InstanceID string `json:"instance_id"`
}

// Server exposes rillweb as an MCP Server.
type Server struct {
	store      *appstore.Store
	workflows  Workflows
	artifacts  *artifacts.Store
	instanceID string
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithArtifacts exposes artifact errors as a resource.
func WithArtifacts(a *artifacts.Store) Option {
	return func(s *Server) {
		s.artifacts = a
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server. instanceID is used when a tool call names none.
func NewServer(store *appstore.Store, workflows Workflows, instanceID string, opts ...Option) *Server {
	s := &Server{
		store:      store,
		workflows:  workflows,
		instanceID: instanceID,
		logger:     logging.NewNop(),
		mcpServer:  server.NewMCPServer("rillweb-mcp", strings.TrimSpace(rillweb.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// NewAppServer serves app.
func NewAppServer(app *rillweb.App, logger *slog.Logger) *Server {
	return NewServer(app.Store, app.Sources, app.InstanceID, WithArtifacts(app.Artifacts), WithLogger(logger))
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("set_active_entity",
		mcp.WithDescription("Focus an entity. The previously focused entity becomes the previous active entity."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Entity name")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Table, Model, MetricsDefinition, MetricsExplorer or Application")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetActiveEntity))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the active and previous active entity."),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetState))

	s.mcpServer.AddTool(mcp.NewTool("create_source",
		mcp.WithDescription("Create a source artifact and reconcile it. Give either yaml or connector with properties."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Source (table) name")),
		mcp.WithString("yaml", mcp.Description("Full source artifact")),
		mcp.WithString("connector", mcp.Description("Connector: local_file, s3, gcs or https")),
		mcp.WithString("properties", mcp.Description("JSON object of connector properties, e.g. {\"path\": \"s3://bucket/file.csv\"}")),
		mcp.WithString("instance_id", mcp.Description("Runtime instance (optional)")),
		mcp.WithOutputSchema[CreateSourceResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreateSource))

	s.mcpServer.AddTool(mcp.NewTool("refresh_source",
		mcp.WithDescription("Re-ingest a source. Remote connectors are refreshed by the runtime."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Source (table) name")),
		mcp.WithString("connector", mcp.Required(), mcp.Description("Connector of the source")),
		mcp.WithString("instance_id", mcp.Description("Runtime instance (optional)")),
		mcp.WithOutputSchema[RefreshSourceResponse](),
	), mcp.NewStructuredToolHandler(s.handleRefreshSource))
}

func (s *Server) stateResponse() StateResponse {
	st := s.store.State()
	return StateResponse{
		ActiveEntity:         st.ActiveEntity,
		PreviousActiveEntity: st.PreviousActiveEntity,
	}
}

func (s *Server) instance(id string) string {
	if id != "" {
		return id
	}
	return s.instanceID
}

func (s *Server) handleSetActiveEntity(ctx context.Context, request mcp.CallToolRequest, args SetActiveEntityArgs) (StateResponse, error) {
	if args.Name == "" {
		return StateResponse{}, domain.ErrEmptyName
	}
	t, err := domain.ParseEntityType(args.Type)
	if err != nil {
		return StateResponse{}, err
	}
	s.store.SetActiveEntity(args.Name, t)
	return s.stateResponse(), nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args struct{}) (StateResponse, error) {
	return s.stateResponse(), nil
}

func (s *Server) handleCreateSource(ctx context.Context, request mcp.CallToolRequest, args CreateSourceArgs) (CreateSourceResponse, error) {
	blob := args.YAML
	if blob == "" {
		if args.Connector == "" {
			return CreateSourceResponse{}, errors.New("either yaml or connector is required")
		}
		props := map[string]any{}
		if args.Properties != "" {
			if err := json.Unmarshal([]byte(args.Properties), &props); err != nil {
				return CreateSourceResponse{}, fmt.Errorf("invalid properties: %w", err)
			}
		}
		var err error
		blob, err = sources.CompileCreateSourceYAML(props, args.Connector)
		if err != nil {
			return CreateSourceResponse{}, err
		}
	}

	errs, err := s.workflows.CreateSource(ctx, s.instance(args.InstanceID), args.Name, blob)
	if err != nil {
		s.logger.Warn("MCP create_source failed", "source", args.Name, "err", err)
		return CreateSourceResponse{}, fmt.Errorf("create source failed: %w", err)
	}
	if errs == nil {
		errs = []domain.ReconcileError{}
	}
	return CreateSourceResponse{Created: len(errs) == 0, Errors: errs}, nil
}

func (s *Server) handleRefreshSource(ctx context.Context, request mcp.CallToolRequest, args RefreshSourceArgs) (RefreshSourceResponse, error) {
	resp, err := s.workflows.RefreshSource(ctx, args.Connector, args.Name, s.instance(args.InstanceID))
	if err != nil {
		s.logger.Warn("MCP refresh_source failed", "source", args.Name, "err", err)
		return RefreshSourceResponse{}, fmt.Errorf("refresh source failed: %w", err)
	}
	out := RefreshSourceResponse{Errors: resp.Errors, AffectedPaths: resp.AffectedPaths}
	if out.Errors == nil {
		out.Errors = []domain.ReconcileError{}
	}
	if out.AffectedPaths == nil {
		out.AffectedPaths = []string{}
	}
	return out, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("rillweb://state", "Active Entity",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.store.State())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "rillweb://state",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	if s.artifacts == nil {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource("rillweb://artifacts/errors", "Artifact Errors",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		all := make(map[string][]domain.ReconcileError)
		for _, p := range s.artifacts.Paths() {
			all[p] = s.artifacts.Errors(p)
		}
		jsonBytes, _ := json.Marshal(all)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "rillweb://artifacts/errors",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
