package domain

import (
	"context"
	"time"
)

// Workflow names.
const (
	WorkflowCreateSource  = "create_source"
	WorkflowRefreshSource = "refresh_source"
)

// StepEvent describes one step of a source workflow.
type StepEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Workflow  string        `json:"workflow"`
	Step      string        `json:"step"`
	Source    string        `json:"source"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// WorkflowHooks defines callbacks for workflow observability.
type WorkflowHooks struct {
	OnStepStart func(context.Context, *StepEvent)
	OnStepEnd   func(context.Context, *StepEvent)
}
