package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// persistDir and persistFile name the on-disk layout from spec.md §6:
// <working_dir>/.coding_assistant/history.json.
const (
	persistDir  = ".coding_assistant"
	persistFile = "history.json"
)

// pathFor returns the history file path under workingDir.
func pathFor(workingDir string) string {
	return filepath.Join(workingDir, persistDir, persistFile)
}

// SaveOrchestratorHistory writes h's messages to
// <workingDir>/.coding_assistant/history.json, creating the directory if
// needed. The write goes to a temp file in the same directory and is
// renamed into place, so a crash mid-write never leaves a truncated file for
// LoadOrchestratorHistory to trip over.
func SaveOrchestratorHistory(workingDir string, h *History) error {
	dir := filepath.Join(workingDir, persistDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("history: create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(h.Messages(), "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "history-*.json.tmp")
	if err != nil {
		return fmt.Errorf("history: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("history: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("history: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, pathFor(workingDir)); err != nil {
		return fmt.Errorf("history: rename into place: %w", err)
	}
	return nil
}

// LoadOrchestratorHistory reads <workingDir>/.coding_assistant/history.json,
// repairs a trailing unresolved tool-call batch left by a crash (see
// RepairTranscript), and returns a valid History. A missing file yields an
// empty History, not an error: a fresh working directory has no prior
// session.
func LoadOrchestratorHistory(workingDir string) (*History, error) {
	data, err := os.ReadFile(pathFor(workingDir))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("history: read %s: %w", pathFor(workingDir), err)
	}

	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", pathFor(workingDir), err)
	}

	return FromMessages(RepairTranscript(msgs)), nil
}
