package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRenderer_WritesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "diagram.mmd")
	r := NewFileRenderer(path)

	require.NoError(t, r.Render(context.Background(), "graph TD\n  S1[\"a\"]"))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n  S1[\"a\"]\n", string(got))

	require.NoError(t, r.Render(context.Background(), "graph TD"))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileRenderer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "diagram.mmd")
	err := NewFileRenderer(path).Render(ctx, "graph TD")
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFuncAndNop(t *testing.T) {
	var got string
	f := Func(func(_ context.Context, d string) error {
		got = d
		return errors.New("boom")
	})
	assert.EqualError(t, f.Render(context.Background(), "graph TD"), "boom")
	assert.Equal(t, "graph TD", got)
	assert.NoError(t, Nop{}.Render(context.Background(), "anything"))
}
