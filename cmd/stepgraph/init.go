package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/stepgraph/internal/config"
)

// mcpServerName is the key stepgraph registers under in .mcp.json.
const mcpServerName = "stepgraph"

// mcpServerEntry is one stdio server registration in .mcp.json.
type mcpServerEntry struct {
	Type    string   `json:"type"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// runInit writes a stepgraph.yml populated with defaults and registers the
// stepgraph MCP server, pinned to dir, in .mcp.json.
func runInit(dir string, force bool, out io.Writer) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving directory: %w", err)
	}

	if err := writeDefaultConfig(filepath.Join(abs, "stepgraph.yml"), force, out); err != nil {
		return err
	}
	entry := mcpServerEntry{
		Type:    "stdio",
		Command: "stepgraph",
		Args:    []string{"--dir", abs, "--serve-mcp"},
	}
	if err := registerMCPServer(filepath.Join(abs, ".mcp.json"), entry, force, out); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSetup complete.")
	return nil
}

// writeDefaultConfig writes the default configuration to path. The API key
// is left out so it is read from the environment.
func writeDefaultConfig(path string, force bool, out io.Writer) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "  skipped %s (exists, use --force to overwrite)\n", filepath.Base(path))
			return nil
		}
	}

	cfg := config.Config{}.WithDefaults()
	cfg.Planner.APIKey = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(out, "  created %s\n", filepath.Base(path))
	return nil
}

// registerMCPServer adds entry under mcpServers in the .mcp.json at path.
// Other servers and top-level keys are carried over untouched.
func registerMCPServer(path string, entry mcpServerEntry, force bool, out io.Writer) error {
	doc := map[string]json.RawMessage{}
	servers := map[string]json.RawMessage{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	case err != nil:
		return fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if raw, ok := doc["mcpServers"]; ok {
			if err := json.Unmarshal(raw, &servers); err != nil {
				return fmt.Errorf("parsing %s mcpServers: %w", path, err)
			}
		}
	}

	if _, exists := servers[mcpServerName]; exists && !force {
		fmt.Fprintf(out, "  skipped .mcp.json %s entry (exists, use --force to overwrite)\n", mcpServerName)
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling %s entry: %w", mcpServerName, err)
	}
	servers[mcpServerName] = raw
	if doc["mcpServers"], err = json.Marshal(servers); err != nil {
		return fmt.Errorf("marshaling mcpServers: %w", err)
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(out, "  %s .mcp.json with %s MCP server\n", action, mcpServerName)
	return nil
}
