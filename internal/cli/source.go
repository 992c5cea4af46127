package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/rillweb"
	"github.com/aretw0/rillweb/internal/presentation/tui"
	"github.com/aretw0/rillweb/pkg/domain"
)

// ErrReconcile is returned when the runtime rejected a source.
var ErrReconcile = errors.New("source did not reconcile")

// CreateOptions describe a source to create.
type CreateOptions struct {
	Name       string
	File       string
	Connector  string
	Properties map[string]string
}

func (c CreateOptions) blob(app *rillweb.App) (string, error) {
	if c.File != "" {
		b, err := os.ReadFile(c.File)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", c.File, err)
		}
		return string(b), nil
	}
	if c.Connector == "" {
		return "", errors.New("either --file or --connector is required")
	}
	values := make(map[string]any, len(c.Properties))
	for k, v := range c.Properties {
		values[k] = v
	}
	return app.CompileSource(values, c.Connector)
}

// CreateSource runs the create-source workflow and prints its outcome.
func CreateSource(ctx context.Context, app *rillweb.App, opts Options, c CreateOptions) error {
	blob, err := c.blob(app)
	if err != nil {
		return err
	}
	errs, err := app.CreateSource(ctx, c.Name, blob)
	if err != nil {
		return err
	}
	report(opts, c.Name, errs, nil)
	if len(errs) > 0 {
		return fmt.Errorf("%w: %d error(s)", ErrReconcile, len(errs))
	}
	return nil
}

// RefreshSource runs the refresh-source workflow and prints its outcome.
// A cancelled file selection is not an error.
func RefreshSource(ctx context.Context, app *rillweb.App, opts Options, name, connector string) error {
	resp, err := app.RefreshSource(ctx, connector, name)
	if errors.Is(err, domain.ErrNoFileSelected) {
		if !opts.Quiet {
			printSystemMessage(opts.out(), "No file selected, %s left unchanged.", name)
		}
		return nil
	}
	if err != nil {
		return err
	}
	report(opts, name, resp.Errors, resp.AffectedPaths)
	if len(resp.Errors) > 0 {
		return fmt.Errorf("%w: %d error(s)", ErrReconcile, len(resp.Errors))
	}
	return nil
}

func report(opts Options, name string, errs []domain.ReconcileError, affected []string) {
	if opts.Quiet {
		return
	}
	md := tui.ReconcileReport(name, errs, affected)
	if opts.Render {
		if out, err := tui.NewRenderer()(md); err == nil {
			md = out
		}
	}
	io.WriteString(opts.out(), md)
}
