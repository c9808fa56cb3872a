package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/stepgraph/internal/config"
	"github.com/dusk-indust/stepgraph/internal/planner"
	"github.com/dusk-indust/stepgraph/internal/session"
	"github.com/dusk-indust/stepgraph/internal/workflow"
)

func stubSession(t *testing.T, steps string) *session.Session {
	t.Helper()
	client := planner.ClientFunc(func(_ context.Context, _ planner.Request) (*planner.Response, error) {
		batch, ok := workflow.DecodeSuggestions([]byte(steps))
		return &planner.Response{Steps: batch, ShapeOK: ok}, nil
	})
	sess := session.New(client)
	t.Cleanup(sess.Close)
	return sess
}

func runScript(t *testing.T, sess *session.Session, script string, opts replOptions) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), sess, strings.NewReader(script), &out, opts))
	return out.String()
}

func TestREPL_SubmitUndoRedo(t *testing.T) {
	sess := stubSession(t, `[{"id":1,"text":"Open form"},{"id":2,"text":"Submit","next":1}]`)

	out := runScript(t, sess, "build a form\n:undo\n:undo\n:redo\n:export\n:quit\n", replOptions{})

	assert.Contains(t, out, "added 2 step(s)")
	assert.Contains(t, out, "undone (0 step(s))")
	assert.Contains(t, out, "nothing to undo")
	assert.Contains(t, out, "redone (2 step(s))")
	assert.Contains(t, out, "1. Open form [action]\n2. Submit [action]")
	assert.Equal(t, 2, sess.State().Steps)
}

func TestREPL_DanglingWarning(t *testing.T) {
	sess := stubSession(t, `[{"id":1,"text":"A","next":9}]`)

	out := runScript(t, sess, "x\n", replOptions{})
	assert.Contains(t, out, "warning: step 1 points at missing step 9")
}

func TestREPL_NewAndDiagram(t *testing.T) {
	sess := stubSession(t, `[{"id":1,"text":"A"}]`)

	out := runScript(t, sess, "x\n:diagram\n:new\n:diagram\n", replOptions{})
	assert.Contains(t, out, "graph TD\n  S1[\"A\"]")
	assert.Contains(t, out, "started a new workflow")
	assert.Equal(t, 0, sess.State().Steps)
}

func TestREPL_Anchored(t *testing.T) {
	var anchors []int
	client := planner.ClientFunc(func(_ context.Context, req planner.Request) (*planner.Response, error) {
		if req.AnchorStepID != nil {
			anchors = append(anchors, *req.AnchorStepID)
		}
		return &planner.Response{ShapeOK: true}, nil
	})
	sess := session.New(client)
	t.Cleanup(sess.Close)

	out := runScript(t, sess, ":at 4 add a review\n:at nope x\n:at 1\n", replOptions{})
	assert.Equal(t, []int{4}, anchors)
	assert.Contains(t, out, `invalid step id "nope"`)
	assert.Contains(t, out, "usage: :at <id> <task>")
}

func TestREPL_SaveAndCheck(t *testing.T) {
	sess := stubSession(t, `[{"id":1,"text":"A","next":9}]`)
	dir := filepath.Join(t.TempDir(), "bundle")

	out := runScript(t, sess, "x\n:save "+dir+"\n:check\n", replOptions{Backend: "memory"})

	assert.FileExists(t, filepath.Join(dir, "workflow.json"))
	assert.FileExists(t, filepath.Join(dir, "workflow.mmd"))
	assert.Contains(t, out, "dangling: step 1 --> 9")
}

func TestREPL_UnknownCommand(t *testing.T) {
	sess := stubSession(t, `[]`)

	out := runScript(t, sess, ":frobnicate\n:export yaml\n", replOptions{})
	assert.Contains(t, out, "unknown command :frobnicate")
	assert.Contains(t, out, `unsupported format "yaml"`)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stepgraph.yml"), []byte("planner:\n  endpoint: http://file/plan\nlogLevel: warn\n"), 0o644))

	cfg, err := loadConfig(cliFlags{Dir: dir, LogLevel: "debug", Unresolved: "drop"})
	require.NoError(t, err)
	assert.Equal(t, "http://file/plan", cfg.Planner.Endpoint)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "drop", cfg.Merge.Unresolved)
	assert.Equal(t, config.DefaultDiagramPath, cfg.Diagram.Path)
}

func TestLoadConfig_RejectsUnknownUnresolvedPolicy(t *testing.T) {
	dir := t.TempDir()
	_, err := loadConfig(cliFlags{Dir: dir, Unresolved: "Drop"})
	require.ErrorIs(t, err, workflow.ErrUnknownPolicy)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stepgraph.yml"), []byte("merge:\n  unresolved: none\n"), 0o644))
	_, err = loadConfig(cliFlags{Dir: dir})
	require.ErrorIs(t, err, workflow.ErrUnknownPolicy)
	assert.Contains(t, err.Error(), `"none"`)
}

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	existing := `{"mcpServers":{"other":{"type":"stdio","command":"other"}},"version":2}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcp.json"), []byte(existing), 0o644))

	var out bytes.Buffer
	require.NoError(t, runInit(dir, false, &out))
	assert.Contains(t, out.String(), "created stepgraph.yml")
	assert.Contains(t, out.String(), "updated .mcp.json")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPlannerEndpoint, cfg.Planner.Endpoint)
	assert.Empty(t, cfg.Planner.APIKey)

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	require.NoError(t, err)
	var doc struct {
		MCPServers map[string]mcpServerEntry `json:"mcpServers"`
		Version    int                       `json:"version"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 2, doc.Version, "unrelated keys survive")
	assert.Equal(t, "other", doc.MCPServers["other"].Command)
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"--dir", abs, "--serve-mcp"}, doc.MCPServers[mcpServerName].Args)

	out.Reset()
	require.NoError(t, runInit(dir, false, &out))
	assert.Contains(t, out.String(), "skipped stepgraph.yml")
	assert.Contains(t, out.String(), "skipped .mcp.json stepgraph entry")
}

func TestRunInit_RejectsMalformedMCPConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcp.json"), []byte(`{not json`), 0o644))

	err := runInit(dir, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestRunExportAndCheck(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"steps":[{"id":1,"text":"A","type":"action","approval":false,"next":2,"branches":null},{"id":2,"text":"B","type":"action","approval":false,"next":null,"branches":null}]}`), 0o644))

	out := filepath.Join(dir, "out")
	require.NoError(t, runExport(context.Background(), []string{src, out}, "unused"))
	mmd, err := os.ReadFile(filepath.Join(out, "workflow.mmd"))
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n  S1[\"A\"]\n  S1 --> S2\n  S2[\"B\"]\n", string(mmd))

	require.NoError(t, runCheck(context.Background(), []string{src}, "memory"))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"steps":[{"id":1,"text":"A","type":"action","next":5}]}`), 0o644))
	require.Error(t, runCheck(context.Background(), []string{bad}, "memory"))

	require.Error(t, runExport(context.Background(), nil, "x"))
}

func TestRun_Version(t *testing.T) {
	require.NoError(t, run([]string{"--version"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run([]string{"--dir", t.TempDir(), "frob"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
