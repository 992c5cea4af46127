package sources_test

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/ports"
	"github.com/aretw0/rillweb/pkg/sources"
)

// recorder implements every collaborator port and logs the calls in order.
type recorder struct {
	mu    sync.Mutex
	calls []string

	putReqs     []domain.PutFileAndReconcileRequest
	refreshReqs []domain.RefreshAndReconcileRequest
	putResp     *domain.ReconcileResponse
	refreshResp *domain.ReconcileResponse
	runtimeErr  error

	files      []ports.File
	uploadPath string
	uploadErr  error

	routes        []string
	messages      []string
	overlay       []string
	recorded      [][]domain.ReconcileError
	recordedPaths [][]string
	invalidated   []*domain.ReconcileResponse
	invalidateErr error
}

func (r *recorder) log(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) PutFileAndReconcile(_ context.Context, req domain.PutFileAndReconcileRequest) (*domain.ReconcileResponse, error) {
	r.log("put")
	r.putReqs = append(r.putReqs, req)
	return r.putResp, r.runtimeErr
}

func (r *recorder) RefreshAndReconcile(_ context.Context, req domain.RefreshAndReconcileRequest) (*domain.ReconcileResponse, error) {
	r.log("refresh")
	r.refreshReqs = append(r.refreshReqs, req)
	return r.refreshResp, r.runtimeErr
}

func (r *recorder) UploadFile(_ context.Context, _ string, _ ports.File) (string, error) {
	r.log("upload")
	return r.uploadPath, r.uploadErr
}

func (r *recorder) Open(_ context.Context, multiple bool) ([]ports.File, error) {
	r.log("dialog")
	if multiple {
		panic("refresh must ask for a single file")
	}
	return r.files, nil
}

func (r *recorder) Goto(route string) {
	r.log("navigate")
	r.routes = append(r.routes, route)
}

func (r *recorder) Send(message string) {
	r.log("notify")
	r.messages = append(r.messages, message)
}

func (r *recorder) Set(title string) {
	r.log("overlay")
	r.overlay = append(r.overlay, title)
}

func (r *recorder) Clear() {
	r.log("overlay_clear")
}

func (r *recorder) SetErrors(paths []string, errs []domain.ReconcileError) {
	r.log("record")
	r.recordedPaths = append(r.recordedPaths, paths)
	r.recorded = append(r.recorded, errs)
}

func (r *recorder) InvalidateAfterReconcile(_ context.Context, _ string, resp *domain.ReconcileResponse) error {
	r.log("invalidate")
	r.invalidated = append(r.invalidated, resp)
	return r.invalidateErr
}

func (r *recorder) deps() sources.Deps {
	return sources.Deps{
		Runtime:   r,
		Uploader:  r,
		Dialog:    r,
		Navigator: r,
		Notifier:  r,
		Overlay:   r,
		Errors:    r,
		Cache:     r,
	}
}

func csvFile(name string) ports.File {
	return ports.File{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("a,b\n")), nil
		},
	}
}
