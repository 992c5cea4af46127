package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/rillweb"
	"github.com/aretw0/rillweb/pkg/adapters/dialog"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	blob string
	resp *domain.ReconcileResponse
}

func (f *fakeRuntime) PutFileAndReconcile(_ context.Context, req domain.PutFileAndReconcileRequest) (*domain.ReconcileResponse, error) {
	f.blob = req.Blob
	return f.resp, nil
}

func (f *fakeRuntime) RefreshAndReconcile(context.Context, domain.RefreshAndReconcileRequest) (*domain.ReconcileResponse, error) {
	return f.resp, nil
}

func newTestApp(t *testing.T, rt *fakeRuntime, opts Options, extra ...rillweb.Option) *rillweb.App {
	t.Helper()
	app, _, _, err := NewApp(opts, append([]rillweb.Option{rillweb.WithRuntime(rt, nil)}, extra...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestCreateSource_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: s3\nuri: s3://b/o.csv\n"), 0o644))

	var out bytes.Buffer
	trace := &StepTrace{}
	opts := Options{Out: &out, Trace: trace}
	rt := &fakeRuntime{resp: &domain.ReconcileResponse{AffectedPaths: []string{"/sources/orders.yaml"}}}
	app := newTestApp(t, rt, opts)

	err := CreateSource(context.Background(), app, opts, CreateOptions{Name: "orders", File: path})
	require.NoError(t, err)
	assert.Equal(t, "type: s3\nuri: s3://b/o.csv\n", rt.blob)
	assert.Contains(t, out.String(), "Source `orders` is up to date")
	assert.Contains(t, trace.Completed, sources.StepNotify)
}

func TestCreateSource_FromConnector(t *testing.T) {
	var out bytes.Buffer
	opts := Options{Out: &out}
	rt := &fakeRuntime{resp: &domain.ReconcileResponse{}}
	app := newTestApp(t, rt, opts)

	err := CreateSource(context.Background(), app, opts, CreateOptions{
		Name:       "orders",
		Connector:  "https",
		Properties: map[string]string{"path": "https://example.com/o.csv"},
	})
	require.NoError(t, err)
	assert.Contains(t, rt.blob, "uri: https://example.com/o.csv")
}

func TestCreateSource_ReconcileErrors(t *testing.T) {
	var out bytes.Buffer
	opts := Options{Out: &out}
	rt := &fakeRuntime{resp: &domain.ReconcileResponse{Errors: []domain.ReconcileError{{Message: "bad"}}}}
	app := newTestApp(t, rt, opts)

	err := CreateSource(context.Background(), app, opts, CreateOptions{Name: "orders", Connector: "s3"})
	assert.ErrorIs(t, err, ErrReconcile)
	assert.Contains(t, out.String(), "has 1 error(s)")
}

func TestCreateSource_RequiresInput(t *testing.T) {
	opts := Options{Out: &bytes.Buffer{}}
	app := newTestApp(t, &fakeRuntime{}, opts)
	err := CreateSource(context.Background(), app, opts, CreateOptions{Name: "orders"})
	assert.Error(t, err)
}

func TestRefreshSource_CancelledSelection(t *testing.T) {
	var out bytes.Buffer
	opts := Options{Out: &out}
	app := newTestApp(t, &fakeRuntime{}, opts, rillweb.WithFileDialog(dialog.NewStatic()))

	err := RefreshSource(context.Background(), app, opts, "orders", domain.ConnectorLocalFile)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No file selected")
}

func TestRefreshSource_Remote(t *testing.T) {
	var out bytes.Buffer
	opts := Options{Out: &out, Quiet: true}
	rt := &fakeRuntime{resp: &domain.ReconcileResponse{AffectedPaths: []string{"/sources/orders.yaml"}}}
	app := newTestApp(t, rt, opts)

	err := RefreshSource(context.Background(), app, opts, "orders", domain.ConnectorS3)
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestPrintGraph(t *testing.T) {
	var out bytes.Buffer
	trace := &StepTrace{Completed: []string{sources.StepValidate}}
	require.NoError(t, PrintGraph(&out, domain.WorkflowCreateSource, trace))
	assert.Contains(t, out.String(), "class validate completed;")

	assert.Error(t, PrintGraph(&out, "nope", nil))
}
