package sources

import (
	"context"
	"fmt"

	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/ports"
)

// RefreshSource re-ingests the source sourceName.
//
// Remote connectors are refreshed by the runtime. For local_file the user
// picks a replacement file, which is uploaded and written into a new source
// artifact. In both branches cached queries are invalidated and errors are
// recorded whatever the reconcile outcome, and the raw response is returned.
// The overlay is cleared before returning.
func (o *Orchestrator) RefreshSource(ctx context.Context, connector, sourceName, instanceID string) (*domain.ReconcileResponse, error) {
	var out *domain.ReconcileResponse
	err := o.exclusive(ctx, instanceID, sourceName, func(ctx context.Context) error {
		var err error
		out, err = o.refreshSource(ctx, connector, sourceName, instanceID)
		return err
	})
	return out, err
}

func (o *Orchestrator) refreshSource(ctx context.Context, connector, sourceName, instanceID string) (*domain.ReconcileResponse, error) {
	const wf = domain.WorkflowRefreshSource

	err := o.step(ctx, wf, sourceName, StepValidate, func() error {
		if sourceName == "" {
			return domain.ErrEmptyName
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	artifactPath := domain.FilePathFromNameAndType(sourceName, domain.EntityTable)

	var resp *domain.ReconcileResponse
	if connector != domain.ConnectorLocalFile {
		o.deps.Overlay.Set(importingTitle(sourceName))
		defer o.deps.Overlay.Clear()

		err = o.step(ctx, wf, sourceName, StepRefresh, func() error {
			var err error
			resp, err = o.deps.Runtime.RefreshAndReconcile(ctx, domain.RefreshAndReconcileRequest{
				InstanceID: instanceID,
				Path:       artifactPath,
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to refresh source %q: %w", sourceName, err)
		}
	} else {
		file, err := o.selectFile(ctx, sourceName)
		if err != nil {
			return nil, err
		}

		o.deps.Overlay.Set(importingTitle(sourceName))
		defer o.deps.Overlay.Clear()

		resp, err = o.replaceLocalFile(ctx, sourceName, instanceID, artifactPath, file)
		if err != nil {
			return nil, err
		}
	}
	if resp == nil {
		resp = &domain.ReconcileResponse{}
	}

	o.settle(ctx, wf, sourceName, instanceID, resp)
	o.logger.Info("Source refreshed", "source", sourceName, "connector", connector, "errors", len(resp.Errors))
	return resp, nil
}

// selectFile asks for the replacement file. Cancelling yields domain.ErrNoFileSelected.
func (o *Orchestrator) selectFile(ctx context.Context, sourceName string) (ports.File, error) {
	const wf = domain.WorkflowRefreshSource

	var files []ports.File
	err := o.step(ctx, wf, sourceName, StepSelectFile, func() error {
		var err error
		files, err = o.deps.Dialog.Open(ctx, false)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return domain.ErrNoFileSelected
		}
		return nil
	})
	if err != nil {
		return ports.File{}, err
	}
	return files[0], nil
}

func (o *Orchestrator) replaceLocalFile(ctx context.Context, sourceName, instanceID, artifactPath string, file ports.File) (*domain.ReconcileResponse, error) {
	const wf = domain.WorkflowRefreshSource

	var filePath string
	err := o.step(ctx, wf, sourceName, StepUpload, func() error {
		p, err := o.deps.Uploader.UploadFile(ctx, instanceID, file)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
		}
		if p == "" {
			return domain.ErrUploadFailed
		}
		filePath = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	var blob string
	err = o.step(ctx, wf, sourceName, StepCompile, func() error {
		var err error
		blob, err = CompileCreateSourceYAML(map[string]any{
			"sourceName": sourceName,
			"path":       filePath,
		}, domain.ConnectorLocalFile)
		return err
	})
	if err != nil {
		return nil, err
	}

	var resp *domain.ReconcileResponse
	err = o.step(ctx, wf, sourceName, StepPutFile, func() error {
		var err error
		resp, err = o.deps.Runtime.PutFileAndReconcile(ctx, domain.PutFileAndReconcileRequest{
			InstanceID: instanceID,
			Path:       artifactPath,
			Blob:       blob,
			Create:     true,
			Strict:     true,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh source %q: %w", sourceName, err)
	}
	return resp, nil
}

func importingTitle(sourceName string) string {
	return "Importing " + sourceName
}
