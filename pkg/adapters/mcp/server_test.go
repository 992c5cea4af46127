package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/rillweb/pkg/appstore"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkflows struct {
	yaml        string
	instanceID  string
	createErrs  []domain.ReconcileError
	refreshResp *domain.ReconcileResponse
	err         error
}

func (f *fakeWorkflows) CreateSource(_ context.Context, instanceID, _ string, yaml string) ([]domain.ReconcileError, error) {
	f.instanceID = instanceID
	f.yaml = yaml
	return f.createErrs, f.err
}

func (f *fakeWorkflows) RefreshSource(_ context.Context, _, _ string, instanceID string) (*domain.ReconcileResponse, error) {
	f.instanceID = instanceID
	return f.refreshResp, f.err
}

func TestSetActiveEntityAndGetState(t *testing.T) {
	s := NewServer(appstore.New(), &fakeWorkflows{}, "default")
	ctx := context.Background()

	_, err := s.handleSetActiveEntity(ctx, mcp.CallToolRequest{}, SetActiveEntityArgs{Name: "orders", Type: "Table"})
	require.NoError(t, err)
	resp, err := s.handleSetActiveEntity(ctx, mcp.CallToolRequest{}, SetActiveEntityArgs{Name: "revenue", Type: "MetricsDefinition"})
	require.NoError(t, err)

	assert.Equal(t, "revenue", resp.ActiveEntity.Name)
	assert.Equal(t, "orders", resp.PreviousActiveEntity.Name)

	got, err := s.handleGetState(ctx, mcp.CallToolRequest{}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, resp, got)

	_, err = s.handleSetActiveEntity(ctx, mcp.CallToolRequest{}, SetActiveEntityArgs{Name: "x", Type: "Nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownEntityType)
}

func TestCreateSource_FromProperties(t *testing.T) {
	wf := &fakeWorkflows{}
	s := NewServer(appstore.New(), wf, "default")

	resp, err := s.handleCreateSource(context.Background(), mcp.CallToolRequest{}, CreateSourceArgs{
		Name:       "orders",
		Connector:  "gcs",
		Properties: `{"path":"gs://bucket/orders.csv"}`,
	})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, "default", wf.instanceID)
	assert.Contains(t, wf.yaml, "uri: gs://bucket/orders.csv")
}

func TestCreateSource_ReconcileErrors(t *testing.T) {
	wf := &fakeWorkflows{createErrs: []domain.ReconcileError{{Message: "bad"}}}
	s := NewServer(appstore.New(), wf, "default")

	resp, err := s.handleCreateSource(context.Background(), mcp.CallToolRequest{}, CreateSourceArgs{
		Name: "orders", YAML: "type: s3\n", InstanceID: "other",
	})
	require.NoError(t, err)
	assert.False(t, resp.Created)
	assert.Len(t, resp.Errors, 1)
	assert.Equal(t, "other", wf.instanceID)
}

func TestCreateSource_RequiresContent(t *testing.T) {
	s := NewServer(appstore.New(), &fakeWorkflows{}, "default")
	_, err := s.handleCreateSource(context.Background(), mcp.CallToolRequest{}, CreateSourceArgs{Name: "orders"})
	assert.Error(t, err)
}

func TestRefreshSource(t *testing.T) {
	wf := &fakeWorkflows{refreshResp: &domain.ReconcileResponse{AffectedPaths: []string{"/sources/orders.yaml"}}}
	s := NewServer(appstore.New(), wf, "default")

	resp, err := s.handleRefreshSource(context.Background(), mcp.CallToolRequest{}, RefreshSourceArgs{Name: "orders", Connector: "s3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/sources/orders.yaml"}, resp.AffectedPaths)
	assert.NotNil(t, resp.Errors)

	wf.err = errors.New("runtime down")
	_, err = s.handleRefreshSource(context.Background(), mcp.CallToolRequest{}, RefreshSourceArgs{Name: "orders", Connector: "s3"})
	assert.Error(t, err)
}
