package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted when the file leaves a value empty.
const (
	EnvPlannerAPIKey = "STEPGRAPH_PLANNER_API_KEY"
	EnvLogLevel      = "STEPGRAPH_LOG_LEVEL"
)

// Defaults applied by WithDefaults.
const (
	DefaultPlannerEndpoint = "http://127.0.0.1:8000/plan"
	DefaultPlannerTimeout  = 60 * time.Second
	DefaultHistoryLimit    = 100
	DefaultDiagramPath     = "workflow.mmd"
	DefaultExportDir       = "export"
	DefaultLogLevel        = "info"
	DefaultUnresolved      = "keep"
	DefaultAnalysisBackend = "memory"
	DefaultMCPAddr         = "127.0.0.1:8765"
)

// Config holds settings loaded from stepgraph.yml.
type Config struct {
	Planner  PlannerConfig  `yaml:"planner,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Merge    MergeConfig    `yaml:"merge,omitempty"`
	Diagram  DiagramConfig  `yaml:"diagram,omitempty"`
	Export   ExportConfig   `yaml:"export,omitempty"`
	Analysis AnalysisConfig `yaml:"analysis,omitempty"`
	MCP      MCPConfig      `yaml:"mcp,omitempty"`
	LogLevel string         `yaml:"logLevel,omitempty"`
}

// PlannerConfig configures the planner client.
type PlannerConfig struct {
	Endpoint   string        `yaml:"endpoint,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	APIKey     string        `yaml:"apiKey,omitempty"`
	AppendOnly bool          `yaml:"appendOnly,omitempty"`
}

// HistoryConfig bounds the undo/redo stacks. Limit <= 0 after defaults
// means unbounded; use -1 in the file to request that.
type HistoryConfig struct {
	Limit int `yaml:"limit,omitempty"`
}

// MergeConfig selects how unresolved step references are handled:
// "keep" stores them as-is, "drop" nulls references to missing steps.
type MergeConfig struct {
	Unresolved string `yaml:"unresolved,omitempty"`
}

// DiagramConfig configures where rendered diagrams are written.
type DiagramConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ExportConfig configures the export bundle directory.
type ExportConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// AnalysisConfig selects the graph index backend: "memory" or "kuzu".
type AnalysisConfig struct {
	Backend string `yaml:"backend,omitempty"`
}

// MCPConfig configures the streamable HTTP MCP listener.
type MCPConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Load attempts to read stepgraph.yml or stepgraph.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"stepgraph.yml", "stepgraph.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &Config{}, nil
}

// WithDefaults returns a copy of c with empty fields filled from the
// environment and the package defaults.
func (c Config) WithDefaults() Config {
	if c.Planner.Endpoint == "" {
		c.Planner.Endpoint = DefaultPlannerEndpoint
	}
	if c.Planner.Timeout <= 0 {
		c.Planner.Timeout = DefaultPlannerTimeout
	}
	if c.Planner.APIKey == "" {
		c.Planner.APIKey = os.Getenv(EnvPlannerAPIKey)
	}
	if c.History.Limit == 0 {
		c.History.Limit = DefaultHistoryLimit
	}
	if c.Merge.Unresolved == "" {
		c.Merge.Unresolved = DefaultUnresolved
	}
	if c.Diagram.Path == "" {
		c.Diagram.Path = DefaultDiagramPath
	}
	if c.Export.Dir == "" {
		c.Export.Dir = DefaultExportDir
	}
	if c.Analysis.Backend == "" {
		c.Analysis.Backend = DefaultAnalysisBackend
	}
	if c.MCP.Addr == "" {
		c.MCP.Addr = DefaultMCPAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = os.Getenv(EnvLogLevel)
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}
