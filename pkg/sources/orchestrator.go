package sources

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/keylock"
	"github.com/aretw0/rillweb/pkg/ports"
)

// Step names reported through domain.WorkflowHooks.
const (
	StepValidate     = "validate"
	StepSelectFile   = "select_file"
	StepUpload       = "upload"
	StepCompile      = "compile"
	StepPutFile      = "put_file"
	StepRefresh      = "refresh"
	StepNavigate     = "navigate"
	StepInvalidate   = "invalidate"
	StepRecordErrors = "record_errors"
	StepNotify       = "notify"
)

// Deps are the collaborators of the workflows. Runtime is required; the
// others default to no-ops.
type Deps struct {
	Runtime   ports.RuntimeService
	Uploader  ports.Uploader
	Dialog    ports.FileDialog
	Navigator ports.Navigator
	Notifier  ports.Notifier
	Overlay   ports.Overlay
	Errors    ports.ErrorRecorder
	Cache     ports.CacheInvalidator
}

// Orchestrator runs the source workflows.
type Orchestrator struct {
	deps   Deps
	hooks  domain.WorkflowHooks
	locks  *keylock.Locks
	logger *slog.Logger
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithHooks registers step callbacks.
func WithHooks(hooks domain.WorkflowHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithLocks serializes workflows touching the same source.
func WithLocks(locks *keylock.Locks) Option {
	return func(o *Orchestrator) {
		o.locks = locks
	}
}

// WithLogger configures a logger for the Orchestrator.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator.
func New(deps Deps, opts ...Option) *Orchestrator {
	if deps.Uploader == nil {
		deps.Uploader = nopUploader{}
	}
	if deps.Dialog == nil {
		deps.Dialog = nopDialog{}
	}
	if deps.Navigator == nil {
		deps.Navigator = nop{}
	}
	if deps.Notifier == nil {
		deps.Notifier = nop{}
	}
	if deps.Overlay == nil {
		deps.Overlay = nop{}
	}
	if deps.Errors == nil {
		deps.Errors = nop{}
	}
	if deps.Cache == nil {
		deps.Cache = nop{}
	}

	o := &Orchestrator{
		deps:   deps,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// exclusive runs fn holding the lock of the source, when locks are configured.
func (o *Orchestrator) exclusive(ctx context.Context, instanceID, source string, fn func(context.Context) error) error {
	if o.locks == nil {
		return fn(ctx)
	}
	return o.locks.WithLock(ctx, instanceID+"/"+source, fn)
}

// step runs fn and reports it through the hooks.
func (o *Orchestrator) step(ctx context.Context, workflow, source, name string, fn func() error) error {
	start := time.Now()
	if o.hooks.OnStepStart != nil {
		o.hooks.OnStepStart(ctx, &domain.StepEvent{
			Timestamp: start,
			Workflow:  workflow,
			Step:      name,
			Source:    source,
		})
	}

	err := fn()

	if o.hooks.OnStepEnd != nil {
		o.hooks.OnStepEnd(ctx, &domain.StepEvent{
			Timestamp: time.Now(),
			Workflow:  workflow,
			Step:      name,
			Source:    source,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return err
}

// settle invalidates cached queries and records the reconcile errors.
// A failed invalidation is logged; the runtime mutation already happened.
func (o *Orchestrator) settle(ctx context.Context, workflow, source, instanceID string, resp *domain.ReconcileResponse) {
	_ = o.step(ctx, workflow, source, StepInvalidate, func() error {
		if err := o.deps.Cache.InvalidateAfterReconcile(ctx, instanceID, resp); err != nil {
			o.logger.Warn("Cache invalidation failed", "workflow", workflow, "source", source, "err", err)
			return err
		}
		return nil
	})
	_ = o.step(ctx, workflow, source, StepRecordErrors, func() error {
		o.deps.Errors.SetErrors(resp.AffectedPaths, resp.Errors)
		return nil
	})
}

type nop struct{}

func (nop) Goto(string)                                 {}
func (nop) Send(string)                                 {}
func (nop) Set(string)                                  {}
func (nop) Clear()                                      {}
func (nop) SetErrors([]string, []domain.ReconcileError) {}
func (nop) InvalidateAfterReconcile(context.Context, string, *domain.ReconcileResponse) error {
	return nil
}

type nopDialog struct{}

func (nopDialog) Open(context.Context, bool) ([]ports.File, error) { return nil, nil }

type nopUploader struct{}

func (nopUploader) UploadFile(context.Context, string, ports.File) (string, error) { return "", nil }
