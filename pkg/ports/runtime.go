package ports

import (
	"context"
	"io"

	"github.com/aretw0/rillweb/pkg/domain"
)

// RuntimeService exposes the reconcile mutations of the runtime API.
type RuntimeService interface {
	// PutFileAndReconcile writes a file blob and reconciles the affected artifacts.
	PutFileAndReconcile(ctx context.Context, req domain.PutFileAndReconcileRequest) (*domain.ReconcileResponse, error)

	// RefreshAndReconcile re-ingests an artifact and reconciles.
	RefreshAndReconcile(ctx context.Context, req domain.RefreshAndReconcileRequest) (*domain.ReconcileResponse, error)
}

// File is a file picked by the user.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Uploader sends a local file to the runtime.
type Uploader interface {
	// UploadFile returns the server-side path of the uploaded file.
	// An empty path means the upload did not produce a usable file.
	UploadFile(ctx context.Context, instanceID string, file File) (string, error)
}

// FileBrowser reads the project artifacts of an instance.
type FileBrowser interface {
	ListFiles(ctx context.Context, instanceID string) ([]string, error)
	GetFile(ctx context.Context, instanceID, path string) (*domain.FileContent, error)
}

// HealthChecker reports whether the runtime answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
