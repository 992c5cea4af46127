// Package metrics exposes workflow step metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of the application.
type Metrics struct {
	registry     *prometheus.Registry
	steps        *prometheus.CounterVec
	stepFailures *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	active       prometheus.Counter
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rillweb_workflow_steps_total",
				Help: "Total number of workflow steps run",
			},
			[]string{"workflow", "step"},
		),
		stepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rillweb_workflow_step_failures_total",
				Help: "Total number of workflow steps that returned an error",
			},
			[]string{"workflow", "step"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rillweb_workflow_step_duration_seconds",
				Help:    "Duration of workflow steps",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"workflow", "step"},
		),
		active: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rillweb_active_entity_changes_total",
			Help: "Number of active entity changes since start",
		}),
	}
	m.registry.MustRegister(
		m.steps,
		m.stepFailures,
		m.stepDuration,
		m.active,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks returns workflow hooks recording every finished step.
func (m *Metrics) Hooks() domain.WorkflowHooks {
	return domain.WorkflowHooks{
		OnStepEnd: func(_ context.Context, e *domain.StepEvent) {
			m.steps.WithLabelValues(e.Workflow, e.Step).Inc()
			m.stepDuration.WithLabelValues(e.Workflow, e.Step).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.stepFailures.WithLabelValues(e.Workflow, e.Step).Inc()
			}
		},
	}
}

// ObserveActiveEntityChange counts a change of the active entity.
func (m *Metrics) ObserveActiveEntityChange() {
	m.active.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Chain combines hooks so every callback runs in order.
func Chain(hooks ...domain.WorkflowHooks) domain.WorkflowHooks {
	return domain.WorkflowHooks{
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepStart != nil {
					h.OnStepStart(ctx, e)
				}
			}
		},
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepEnd != nil {
					h.OnStepEnd(ctx, e)
				}
			}
		},
	}
}
