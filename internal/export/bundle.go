package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/stepgraph/internal/workflow"
	"golang.org/x/sync/errgroup"
)

// Bundle file names written by WriteBundle.
const (
	BundleJSON    = "workflow.json"
	BundleText    = "workflow.txt"
	BundleMermaid = "workflow.mmd"
)

// WriteBundle writes the JSON, text and Mermaid exports of w into dir,
// creating it if needed. The three files are written in parallel; the first
// failure cancels the rest. It returns the paths written.
func WriteBundle(ctx context.Context, dir string, w *workflow.Workflow) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	snapshot := w.Clone()
	jsonData, err := JSON(snapshot)
	if err != nil {
		return nil, err
	}

	files := []struct {
		name string
		data []byte
	}{
		{BundleJSON, append(jsonData, '\n')},
		{BundleText, []byte(Text(snapshot) + "\n")},
		{BundleMermaid, []byte(Mermaid(snapshot) + "\n")},
	}

	paths := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, f.name)
			if err := os.WriteFile(path, f.data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", f.name, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
