// Package cli implements the commands of the rillweb binary.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/rillweb"
	"github.com/aretw0/rillweb/internal/config"
	"github.com/aretw0/rillweb/internal/metrics"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/spf13/pflag"
)

// Options are shared by every command.
type Options struct {
	ConfigPath string
	Flags      *pflag.FlagSet
	Out        io.Writer
	Quiet      bool
	Render     bool
	Trace      *StepTrace
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// NewApp loads the configuration and builds the App.
func NewApp(opts Options, appOpts ...rillweb.Option) (*rillweb.App, *config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.New(), opts.ConfigPath, opts.Flags)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := createLogger(cfg)

	hooks := []domain.WorkflowHooks{createDebugHooks(logger)}
	if opts.Trace != nil {
		hooks = append(hooks, opts.Trace.Hooks())
	}

	all := append([]rillweb.Option{
		rillweb.WithLogger(logger),
		rillweb.WithWorkflowHooks(metrics.Chain(hooks...)),
	}, appOpts...)
	app, err := rillweb.New(cfg, all...)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, cfg, logger, nil
}
