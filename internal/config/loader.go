// Package config loads the ambient YAML configuration (model, compaction
// threshold, executor concurrency, completer selection): itself an external
// collaborator concern (spec.md §1 places "config parsing" out of scope),
// but the loader mechanics are carried as ambient stack, grounded on the
// teacher's internal/config/loader.go ($include resolution, env expansion).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// Config is the agentcore process configuration.
type Config struct {
	Model                    string `yaml:"model" json:"model"`
	Provider                 string `yaml:"provider" json:"provider"`
	APIKey                   string `yaml:"api_key" json:"api_key"`
	CompactionTokenThreshold int    `yaml:"compaction_token_threshold" json:"compaction_token_threshold"`
	ContextWindowTokens      int    `yaml:"context_window_tokens" json:"context_window_tokens"`
	ExecutorConcurrency      int    `yaml:"executor_concurrency" json:"executor_concurrency"`
	WorkingDir               string `yaml:"working_dir" json:"working_dir"`
	SessionDBPath            string `yaml:"session_db_path" json:"session_db_path"`

	// Include is consumed by Load and never populated on the returned
	// Config; it is parsed out here only so unknown-field-strict decoding
	// elsewhere doesn't choke on it.
	Include string `yaml:"$include" json:"$include"`
}

// Load reads the config file at path, resolving any top-level `$include:
// other.yaml` directive by merging the included file's fields underneath
// the includer's (the includer's explicit fields win), expanding
// environment variables of the form ${VAR} or $VAR in the raw file text
// before parsing, and detecting include cycles.
func Load(path string) (*Config, error) {
	return load(path, make(map[string]bool))
}

func load(path string, visited map[string]bool) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve path %s: %w", path, err)
	}
	if visited[abs] {
		return nil, fmt.Errorf("config: include cycle detected at %s", abs)
	}
	visited[abs] = true

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", abs, err)
	}
	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := decode(abs, []byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}

	if cfg.Include == "" {
		return &cfg, nil
	}

	includePath := cfg.Include
	if !filepath.IsAbs(includePath) {
		includePath = filepath.Join(filepath.Dir(abs), includePath)
	}
	base, err := load(includePath, visited)
	if err != nil {
		return nil, err
	}

	merged := mergeOver(*base, cfg)
	return &merged, nil
}

// decode parses data as JSON5 when path ends in .json5/.json, and as YAML
// otherwise, so a $include chain can freely mix either format.
func decode(path string, data []byte, cfg *Config) error {
	if strings.HasSuffix(path, ".json5") || strings.HasSuffix(path, ".json") {
		return json5.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// mergeOver returns override layered on top of base: any field override
// left at its zero value falls back to base's value.
func mergeOver(base, override Config) Config {
	merged := base
	if override.Model != "" {
		merged.Model = override.Model
	}
	if override.Provider != "" {
		merged.Provider = override.Provider
	}
	if override.APIKey != "" {
		merged.APIKey = override.APIKey
	}
	if override.CompactionTokenThreshold != 0 {
		merged.CompactionTokenThreshold = override.CompactionTokenThreshold
	}
	if override.ContextWindowTokens != 0 {
		merged.ContextWindowTokens = override.ContextWindowTokens
	}
	if override.ExecutorConcurrency != 0 {
		merged.ExecutorConcurrency = override.ExecutorConcurrency
	}
	if override.WorkingDir != "" {
		merged.WorkingDir = override.WorkingDir
	}
	if override.SessionDBPath != "" {
		merged.SessionDBPath = override.SessionDBPath
	}
	merged.Include = ""
	return merged
}
