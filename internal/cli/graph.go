package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/rillweb/internal/presentation/graph"
	"github.com/aretw0/rillweb/pkg/sources"
)

// PrintGraph writes the Mermaid flowchart of workflow, highlighting trace when given.
func PrintGraph(w io.Writer, workflow string, trace *StepTrace) error {
	steps, edges := sources.Graph(workflow)
	if steps == nil {
		return fmt.Errorf("unknown workflow %q", workflow)
	}
	var overlay *graph.StepOverlay
	if trace != nil {
		trace.mu.Lock()
		overlay = &graph.StepOverlay{
			Completed: append([]string(nil), trace.Completed...),
			Failed:    trace.Failed,
		}
		trace.mu.Unlock()
	}
	_, err := io.WriteString(w, graph.GenerateMermaid(steps, edges, overlay))
	return err
}
