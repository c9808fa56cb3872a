// Package render delivers serialized diagrams to a diagram renderer.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Renderer consumes Mermaid text. Errors mean the artifact could not be
// produced; they say nothing about the workflow itself.
type Renderer interface {
	Render(ctx context.Context, diagram string) error
}

// Nop discards every diagram.
type Nop struct{}

// Render implements Renderer.
func (Nop) Render(context.Context, string) error { return nil }

// Func adapts a function to the Renderer interface.
type Func func(ctx context.Context, diagram string) error

// Render calls f.
func (f Func) Render(ctx context.Context, diagram string) error {
	return f(ctx, diagram)
}

// FileRenderer writes each diagram to a .mmd file that an external Mermaid
// tool (mmdc, an editor preview) picks up. Writes replace the file
// atomically so readers never see a partial diagram.
type FileRenderer struct {
	path string
}

// Compile-time interface check.
var _ Renderer = (*FileRenderer)(nil)

// NewFileRenderer creates a FileRenderer targeting path.
func NewFileRenderer(path string) *FileRenderer {
	return &FileRenderer{path: path}
}

// Path returns the output file path.
func (r *FileRenderer) Path() string {
	return r.path
}

// Render writes diagram to the output file.
func (r *FileRenderer) Render(ctx context.Context, diagram string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("render: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*")
	if err != nil {
		return fmt.Errorf("render: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(diagram + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("render: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("render: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("render: replace %s: %w", r.path, err)
	}
	return nil
}
