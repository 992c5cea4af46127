package sources

import (
	"context"
	"fmt"

	"github.com/aretw0/rillweb/pkg/domain"
)

// CreateSource writes the source artifact for tableName and reconciles.
//
// Reconcile errors are returned unchanged and nothing else happens. On
// success the user is taken to the source view, cached queries are
// invalidated, the affected paths are cleared of errors and a notification
// is sent; the returned list is empty.
func (o *Orchestrator) CreateSource(ctx context.Context, instanceID, tableName, yaml string) ([]domain.ReconcileError, error) {
	var out []domain.ReconcileError
	err := o.exclusive(ctx, instanceID, tableName, func(ctx context.Context) error {
		var err error
		out, err = o.createSource(ctx, instanceID, tableName, yaml)
		return err
	})
	return out, err
}

func (o *Orchestrator) createSource(ctx context.Context, instanceID, tableName, yaml string) ([]domain.ReconcileError, error) {
	const wf = domain.WorkflowCreateSource

	err := o.step(ctx, wf, tableName, StepValidate, func() error {
		if tableName == "" {
			return domain.ErrEmptyName
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var resp *domain.ReconcileResponse
	err = o.step(ctx, wf, tableName, StepPutFile, func() error {
		var err error
		resp, err = o.deps.Runtime.PutFileAndReconcile(ctx, domain.PutFileAndReconcileRequest{
			InstanceID: instanceID,
			Path:       domain.FilePathFromNameAndType(tableName, domain.EntityTable),
			Blob:       yaml,
			Create:     true,
			CreateOnly: false,
			Strict:     true,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create source %q: %w", tableName, err)
	}
	if resp == nil {
		resp = &domain.ReconcileResponse{}
	}

	if resp.HasErrors() {
		o.logger.Debug("Source rejected", "source", tableName, "errors", len(resp.Errors))
		return resp.Errors, nil
	}

	_ = o.step(ctx, wf, tableName, StepNavigate, func() error {
		o.deps.Navigator.Goto(domain.RouteFromNameAndType(tableName, domain.EntityTable))
		return nil
	})
	o.settle(ctx, wf, tableName, instanceID, resp)
	_ = o.step(ctx, wf, tableName, StepNotify, func() error {
		o.deps.Notifier.Send(fmt.Sprintf("Created source %s", tableName))
		return nil
	})

	o.logger.Info("Source created", "source", tableName, "affected", len(resp.AffectedPaths))
	return []domain.ReconcileError{}, nil
}
