package runtimeclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/rillweb/pkg/adapters/runtimeclient"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_PutFileAndReconcile(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/put-and-reconcile", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{
			"errors":        []any{},
			"affectedPaths": []string{"/sources/orders.yaml"},
		})
	}))
	defer srv.Close()

	c := runtimeclient.New(srv.URL)
	resp, err := c.PutFileAndReconcile(context.Background(), domain.PutFileAndReconcileRequest{
		InstanceID: "default",
		Path:       "/sources/orders.yaml",
		Blob:       "type: s3\n",
		Create:     true,
		Strict:     true,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, []string{"/sources/orders.yaml"}, resp.AffectedPaths)

	assert.Equal(t, "default", got["instanceId"])
	assert.Equal(t, "/sources/orders.yaml", got["path"])
	assert.Equal(t, true, got["create"])
	assert.Equal(t, true, got["strict"])
}

func TestClient_RefreshAndReconcileReturnsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refresh-and-reconcile", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"errors": []map[string]any{
				{"message": "bucket not found", "filePath": "/sources/orders.yaml"},
			},
			"affectedPaths": []string{"/sources/orders.yaml"},
		})
	}))
	defer srv.Close()

	c := runtimeclient.New(srv.URL)
	resp, err := c.RefreshAndReconcile(context.Background(), domain.RefreshAndReconcileRequest{
		InstanceID: "default",
		Path:       "/sources/orders.yaml",
	})
	require.NoError(t, err)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "bucket not found", resp.Errors[0].Message)
	assert.Equal(t, "/sources/orders.yaml", resp.Errors[0].FilePath)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 3, "message": "invalid path"})
	}))
	defer srv.Close()

	c := runtimeclient.New(srv.URL)
	_, err := c.PutFileAndReconcile(context.Background(), domain.PutFileAndReconcileRequest{Path: "/sources/x.yaml"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRuntimeRequest)

	var apiErr *runtimeclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid path", apiErr.Message)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := runtimeclient.New(url)
	_, err := c.RefreshAndReconcile(context.Background(), domain.RefreshAndReconcileRequest{Path: "/sources/x.yaml"})
	assert.ErrorIs(t, err, domain.ErrRuntimeRequest)
}

func TestClient_UploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/instances/default/files/upload/-/data/orders.csv", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "orders.csv", hdr.Filename)
		assert.Equal(t, "id,total\n1,10\n", string(body))
		writeJSON(w, http.StatusOK, map[string]any{"filePath": "data/orders.csv"})
	}))
	defer srv.Close()

	c := runtimeclient.New(srv.URL)
	p, err := c.UploadFile(context.Background(), "default", ports.File{
		Name: "/home/me/orders.csv",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("id,total\n1,10\n")), nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "data/orders.csv", p)
}

func TestClient_UploadWithoutReader(t *testing.T) {
	c := runtimeclient.New("http://127.0.0.1:0")
	_, err := c.UploadFile(context.Background(), "default", ports.File{Name: "orders.csv"})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestClient_ListAndGetFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/instances/default/files":
			writeJSON(w, http.StatusOK, map[string]any{"paths": []string{"/sources/orders.yaml"}})
		case "/v1/instances/default/files/-/sources/orders.yaml":
			writeJSON(w, http.StatusOK, map[string]any{"blob": "type: s3\n"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "no such file"})
		}
	}))
	defer srv.Close()

	c := runtimeclient.New(srv.URL)
	paths, err := c.ListFiles(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"/sources/orders.yaml"}, paths)

	f, err := c.GetFile(context.Background(), "default", "/sources/orders.yaml")
	require.NoError(t, err)
	assert.Equal(t, "type: s3\n", f.Blob)
	assert.Equal(t, "/sources/orders.yaml", f.Path)

	_, err = c.GetFile(context.Background(), "default", "/sources/missing.yaml")
	assert.ErrorIs(t, err, domain.ErrRuntimeRequest)
}

type recordingQueue struct {
	mu    sync.Mutex
	names []string
}

func (q *recordingQueue) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	q.mu.Lock()
	q.names = append(q.names, name)
	q.mu.Unlock()
	return fn(ctx)
}

func TestClient_RoutesThroughQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer srv.Close()

	q := &recordingQueue{}
	c := runtimeclient.New(srv.URL, runtimeclient.WithQueue(q))
	_, err := c.RefreshAndReconcile(context.Background(), domain.RefreshAndReconcileRequest{Path: "/sources/orders.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, q.names)
}

func TestClient_Ping(t *testing.T) {
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ping", r.URL.Path)
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer srv.Close()

	c := runtimeclient.New(srv.URL)
	require.NoError(t, c.Ping(context.Background()))

	down.Store(true)
	err := c.Ping(context.Background())
	var apiErr *runtimeclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.ErrorIs(t, err, domain.ErrRuntimeRequest)
}
