package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSimple(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
model: claude-sonnet
provider: anthropic
compaction_token_threshold: 50000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "claude-sonnet" || cfg.Provider != "anthropic" || cfg.CompactionTokenThreshold != 50000 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_AGENTCORE_KEY", "sk-from-env")
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
model: gpt-4
api_key: ${TEST_AGENTCORE_KEY}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-from-env" {
		t.Fatalf("expected env expansion, got %q", cfg.APIKey)
	}
}

func TestLoadResolvesInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
model: claude-sonnet
executor_concurrency: 4
`)
	path := writeFile(t, dir, "config.yaml", `
$include: base.yaml
provider: anthropic
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "claude-sonnet" || cfg.ExecutorConcurrency != 4 || cfg.Provider != "anthropic" {
		t.Fatalf("unexpected merged config: %+v", cfg)
	}
}

func TestLoadDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", `$include: b.yaml`)
	path := writeFile(t, dir, "b.yaml", `$include: a.yaml`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an include-cycle error")
	}
}

func TestLoadOverrideWinsOverInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `model: claude-sonnet`)
	path := writeFile(t, dir, "config.yaml", `
$include: base.yaml
model: claude-opus
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "claude-opus" {
		t.Fatalf("expected override to win, got %q", cfg.Model)
	}
}
