package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ReconcileReport describes the outcome of a source workflow as markdown.
func ReconcileReport(source string, errs []domain.ReconcileError, affectedPaths []string) string {
	var sb strings.Builder
	if len(errs) == 0 {
		fmt.Fprintf(&sb, "# Source `%s` is up to date\n\n", source)
	} else {
		fmt.Fprintf(&sb, "# Source `%s` has %d error(s)\n\n", source, len(errs))
		sb.WriteString("| File | Code | Message |\n|---|---|---|\n")
		for _, e := range errs {
			file := e.FilePath
			if e.StartLocation != nil {
				file = fmt.Sprintf("%s:%d", file, e.StartLocation.Line)
			}
			msg := strings.ReplaceAll(e.Message, "|", "\\|")
			msg = strings.ReplaceAll(msg, "\n", " ")
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", file, e.Code, msg)
		}
		sb.WriteString("\n")
	}
	if len(affectedPaths) > 0 {
		sb.WriteString("Affected artifacts:\n\n")
		for _, p := range affectedPaths {
			fmt.Fprintf(&sb, "- `%s`\n", p)
		}
	}
	return sb.String()
}
