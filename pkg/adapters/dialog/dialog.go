// Package dialog implements ports.FileDialog for non-browser front ends.
package dialog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/rillweb/pkg/ports"
	"golang.org/x/term"
)

// ErrNotInteractive is returned by Prompt when its input is not a terminal.
var ErrNotInteractive = errors.New("file prompt requires an interactive terminal")

func localFile(path string) ports.File {
	return ports.File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

func selectPaths(paths []string, multiple bool) ([]ports.File, error) {
	if !multiple && len(paths) > 1 {
		paths = paths[:1]
	}
	files := make([]ports.File, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot select %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("cannot select %s: is a directory", p)
		}
		files = append(files, localFile(p))
	}
	return files, nil
}

// Static answers every Open with a fixed list of paths, e.g. from a CLI flag.
type Static struct {
	Paths []string
}

// NewStatic creates a Static dialog. No paths means the user cancelled.
func NewStatic(paths ...string) *Static {
	return &Static{Paths: paths}
}

// Open implements ports.FileDialog.
func (s *Static) Open(_ context.Context, multiple bool) ([]ports.File, error) {
	return selectPaths(s.Paths, multiple)
}

// Prompt asks for file paths on a terminal. An empty answer cancels.
type Prompt struct {
	in  io.Reader
	out io.Writer
}

// NewPrompt creates a Prompt reading answers from in and writing questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: in, out: out}
}

// Open implements ports.FileDialog. Multiple paths are separated by commas.
func (p *Prompt) Open(ctx context.Context, multiple bool) ([]ports.File, error) {
	if f, ok := p.in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return nil, ErrNotInteractive
	}

	question := "File to import (empty to cancel): "
	if multiple {
		question = "Files to import, comma separated (empty to cancel): "
	}
	fmt.Fprint(p.out, question)

	lines := make(chan string, 1)
	go func() {
		sc := bufio.NewScanner(p.in)
		if sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	var answer string
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case answer = <-lines:
	}

	var paths []string
	for _, part := range strings.Split(answer, ",") {
		if part = strings.TrimSpace(part); part != "" {
			paths = append(paths, part)
		}
	}
	return selectPaths(paths, multiple)
}
