// Package runtimeclient talks to the runtime REST API.
package runtimeclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/ports"
	"github.com/go-resty/resty/v2"
)

// Endpoints of the runtime API.
const (
	putAndReconcilePath     = "/v1/put-and-reconcile"
	refreshAndReconcilePath = "/v1/refresh-and-reconcile"
	uploadPath              = "/v1/instances/{instanceId}/files/upload/-/{path}"
	listFilesPath           = "/v1/instances/{instanceId}/files"
	getFilePath             = "/v1/instances/{instanceId}/files/-/{path}"
)

// UploadFolder is the project folder uploaded files are written to.
const UploadFolder = "data"

// Doer runs a request on behalf of an entity name, e.g. a requestqueue.Queue.
type Doer interface {
	Do(ctx context.Context, name string, fn func(context.Context) error) error
}

// APIError is a non-2xx answer of the runtime.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("runtime returned %d", e.StatusCode)
	}
	return fmt.Sprintf("runtime returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match every runtime failure with domain.ErrRuntimeRequest.
func (e *APIError) Unwrap() error {
	return domain.ErrRuntimeRequest
}

// Client implements ports.RuntimeService and ports.Uploader over HTTP.
type Client struct {
	resty  *resty.Client
	queue  Doer
	logger *slog.Logger
}

var (
	_ ports.RuntimeService = (*Client)(nil)
	_ ports.Uploader       = (*Client)(nil)
	_ ports.FileBrowser    = (*Client)(nil)
	_ ports.HealthChecker  = (*Client)(nil)
)

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.resty.SetTimeout(d)
	}
}

// WithQueue routes every request through q.
func WithQueue(q Doer) Option {
	return func(c *Client) {
		c.queue = q
	}
}

// WithHeader adds a default header, e.g. an Authorization token.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.resty.SetHeader(key, value)
	}
}

// WithLogger configures a logger for the Client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the runtime at baseURL.
// Retries are disabled: failures propagate to the caller.
func New(baseURL string, opts ...Option) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "rillweb")

	c := &Client{
		resty:  r,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ ports.RuntimeService = (*Client)(nil)
	_ ports.Uploader       = (*Client)(nil)
)

func (c *Client) do(ctx context.Context, name string, fn func(context.Context) error) error {
	if c.queue == nil {
		return fn(ctx)
	}
	return c.queue.Do(ctx, name, fn)
}

func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRuntimeRequest, err)
	}
	if resp.IsError() {
		apiErr, _ := resp.Error().(*APIError)
		if apiErr == nil {
			apiErr = &APIError{Message: resp.String()}
		}
		apiErr.StatusCode = resp.StatusCode()
		c.logger.Warn("Runtime request failed", "op", op, "status", apiErr.StatusCode, "err", apiErr.Message)
		return fmt.Errorf("%s: %w", op, apiErr)
	}
	return nil
}

// PutFileAndReconcile implements ports.RuntimeService.
func (c *Client) PutFileAndReconcile(ctx context.Context, req domain.PutFileAndReconcileRequest) (*domain.ReconcileResponse, error) {
	var out domain.ReconcileResponse
	err := c.do(ctx, domain.NameFromFilePath(req.Path), func(ctx context.Context) error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&out).
			SetError(&APIError{}).
			Post(putAndReconcilePath)
		return c.check("put and reconcile", resp, err)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshAndReconcile implements ports.RuntimeService.
func (c *Client) RefreshAndReconcile(ctx context.Context, req domain.RefreshAndReconcileRequest) (*domain.ReconcileResponse, error) {
	var out domain.ReconcileResponse
	err := c.do(ctx, domain.NameFromFilePath(req.Path), func(ctx context.Context) error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&out).
			SetError(&APIError{}).
			Post(refreshAndReconcilePath)
		return c.check("refresh and reconcile", resp, err)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type uploadResponse struct {
	FilePath string `json:"filePath"`
}

// UploadFile implements ports.Uploader. The file lands in the project's data folder.
func (c *Client) UploadFile(ctx context.Context, instanceID string, file ports.File) (string, error) {
	if file.Open == nil {
		return "", fmt.Errorf("upload %s: %w", file.Name, domain.ErrUploadFailed)
	}
	body, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer body.Close()

	target := path.Join(UploadFolder, path.Base(file.Name))
	var out uploadResponse
	err = c.do(ctx, domain.NameFromFilePath(file.Name), func(ctx context.Context) error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetPathParam("instanceId", instanceID).
			SetRawPathParam("path", target).
			SetFileReader("file", path.Base(file.Name), body).
			SetResult(&out).
			SetError(&APIError{}).
			Post(uploadPath)
		return c.check("upload file", resp, err)
	})
	if err != nil {
		return "", err
	}
	return out.FilePath, nil
}

type listFilesResponse struct {
	Paths []string `json:"paths"`
}

// ListFiles returns the artifact paths of an instance.
func (c *Client) ListFiles(ctx context.Context, instanceID string) ([]string, error) {
	var out listFilesResponse
	resp, err := c.resty.R().
		SetContext(ctx).
		SetPathParam("instanceId", instanceID).
		SetResult(&out).
		SetError(&APIError{}).
		Get(listFilesPath)
	if err := c.check("list files", resp, err); err != nil {
		return nil, err
	}
	return out.Paths, nil
}

// GetFile returns the content of an artifact.
func (c *Client) GetFile(ctx context.Context, instanceID, filePath string) (*domain.FileContent, error) {
	var out domain.FileContent
	resp, err := c.resty.R().
		SetContext(ctx).
		SetPathParam("instanceId", instanceID).
		SetRawPathParam("path", trimLeadingSlash(filePath)).
		SetResult(&out).
		SetError(&APIError{}).
		Get(getFilePath)
	if err := c.check("get file", resp, err); err != nil {
		return nil, err
	}
	out.Path = filePath
	return &out, nil
}

func trimLeadingSlash(p string) string {
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	return p
}

// Ping checks that the runtime answers.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.resty.R().SetContext(ctx).Get("/v1/ping")
	if err != nil {
		return fmt.Errorf("ping: %w: %w", domain.ErrRuntimeRequest, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ping: %w", &APIError{StatusCode: resp.StatusCode(), Message: resp.String()})
	}
	return nil
}
