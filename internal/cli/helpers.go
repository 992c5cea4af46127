package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/rillweb/internal/config"
	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// Unlike signal.NotifyContext it remembers which signal arrived.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sc.sigCh)
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger on stderr so stdout stays clean.
func createLogger(cfg *config.Config) *slog.Logger {
	return logging.NewWithWriter(os.Stderr, cfg.Level(), logging.Format(cfg.LogFormat))
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.WorkflowHooks {
	return domain.WorkflowHooks{
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("Step Start", "workflow", e.Workflow, "step", e.Step, "source", e.Source)
		},
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			if e.Err != nil {
				logger.Debug("Step End (Error)", "workflow", e.Workflow, "step", e.Step, "duration", e.Duration, "err", e.Err)
			} else {
				logger.Debug("Step End", "workflow", e.Workflow, "step", e.Step, "duration", e.Duration)
			}
		},
	}
}

// StepTrace records the steps a workflow run went through.
type StepTrace struct {
	mu        sync.Mutex
	Completed []string
	Failed    string
}

// Hooks returns hooks feeding the trace.
func (t *StepTrace) Hooks() domain.WorkflowHooks {
	return domain.WorkflowHooks{
		OnStepEnd: func(_ context.Context, e *domain.StepEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.Completed = append(t.Completed, e.Step)
			if e.Err != nil && t.Failed == "" {
				t.Failed = e.Step
			}
		},
	}
}
