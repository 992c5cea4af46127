// Package graph renders workflow step graphs as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/rillweb/pkg/sources"
)

// StepOverlay contains run data to visualize on the graph.
type StepOverlay struct {
	Completed []string
	Failed    string
}

// GenerateMermaid produces a Mermaid flowchart of a workflow.
// Shapes follow the kind of step:
// - validate and done: ((Circle))
// - runtime calls: [[Subroutine]]
// - user input: [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(steps []string, edges []sources.Edge, overlay *StepOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range steps {
		opener, closer := "[", "]"
		switch step {
		case sources.StepValidate, sources.StepDone:
			opener, closer = "((", "))"
		case sources.StepPutFile, sources.StepRefresh, sources.StepUpload:
			opener, closer = "[[", "]]"
		case sources.StepSelectFile:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(step), opener, step, closer))
	}

	for _, e := range edges {
		arrow := "-->"
		if e.Label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(e.Label, "\"", "'"))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, step := range overlay.Completed {
			id := sanitizeMermaidID(step)
			if id == "" || seen[id] || step == overlay.Failed {
				continue
			}
			seen[id] = true
			sb.WriteString(fmt.Sprintf("    class %s completed;\n", id))
		}
		if overlay.Failed != "" {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", sanitizeMermaidID(overlay.Failed)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
