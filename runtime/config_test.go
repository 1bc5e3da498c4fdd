package runtime

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveEnvVar(t *testing.T) {
	t.Setenv("NASAGENT_TEST_VAR", "resolved")

	if got := resolveEnvVar("${NASAGENT_TEST_VAR}"); got != "resolved" {
		t.Errorf("resolveEnvVar(set var) = %v, want resolved", got)
	}
	if got := resolveEnvVar("${NASAGENT_TEST_MISSING:fallback}"); got != "fallback" {
		t.Errorf("resolveEnvVar(missing var with default) = %v, want fallback", got)
	}
	if got := resolveEnvVar("plain string"); got != "plain string" {
		t.Errorf("resolveEnvVar(non-pattern) = %v, want it unchanged", got)
	}
	if got := resolveEnvVar(42); got != 42 {
		t.Errorf("resolveEnvVar(non-string) = %v, want it unchanged", got)
	}
}

func TestLoadSortingConfigValidatesAndSubstitutesEnv(t *testing.T) {
	t.Setenv("NASAGENT_TEST_INPUT", "/watched")

	dir := t.TempDir()
	path := filepath.Join(dir, "sorting.yml")
	doc := `
pipelines:
  - name: classify
    input: "${NASAGENT_TEST_INPUT}"
    glob: "*.txt"
    process:
      - type: parse_filename
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadSortingConfig(path, testRegistry())
	if err != nil {
		t.Fatalf("LoadSortingConfig: %v", err)
	}
	if len(cfg.Pipelines) != 1 {
		t.Fatalf("got %d pipelines, want 1", len(cfg.Pipelines))
	}
	if cfg.Pipelines[0].Input != "/watched" {
		t.Errorf("input = %q, want /watched (env var substitution)", cfg.Pipelines[0].Input)
	}
	if cfg.Debounce != time.Second {
		t.Errorf("debounce = %v, want the 1s default", cfg.Debounce)
	}
}

func TestLoadDoveConfigDefaultsChannelTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dove.yml")
	doc := `
doves:
  - name: alerts
    type: bark
    arg:
      key: testkey
  - name: urgent
    type: serverchan
    timeout: 3s
    arg:
      key: testkey
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadDoveConfig(path)
	if err != nil {
		t.Fatalf("LoadDoveConfig: %v", err)
	}
	if len(cfg.Doves) != 2 {
		t.Fatalf("got %d doves, want 2", len(cfg.Doves))
	}
	if cfg.Doves[0].Timeout != 10*time.Second {
		t.Errorf("doves[0].Timeout = %v, want the 10s default", cfg.Doves[0].Timeout)
	}
	if cfg.Doves[1].Timeout != 3*time.Second {
		t.Errorf("doves[1].Timeout = %v, want the configured 3s", cfg.Doves[1].Timeout)
	}
}

func TestLoadDoveConfigNamesUnnamedChannel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dove.yml")
	doc := `
doves:
  - type: bark
    arg:
      key: testkey
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadDoveConfig(path)
	if err != nil {
		t.Fatalf("LoadDoveConfig: %v", err)
	}
	if len(cfg.Doves) != 1 {
		t.Fatalf("got %d doves, want 1", len(cfg.Doves))
	}
	if cfg.Doves[0].Name == "" {
		t.Error("unnamed channel should have been given a generated name")
	}
}

func TestLoadSortingConfigRejectsUnknownProcessor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sorting.yml")
	doc := `
pipelines:
  - name: classify
    input: "/in"
    glob: "*.txt"
    process:
      - type: not_a_real_processor
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadSortingConfig(path, testRegistry()); err == nil {
		t.Error("LoadSortingConfig should fail config load for an unregistered processor type")
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yml")
	doc := `
agents:
  - type: sorting_agent
    name: main
    config: sorting.yml
  - type: dove
    name: alerts
    config: dove.yml
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(m.Agents) != 2 {
		t.Fatalf("got %d agents, want 2", len(m.Agents))
	}
	if m.Agents[0].Type != AgentTypeSorting || m.Agents[1].Type != AgentTypeDove {
		t.Errorf("agent types = %v, %v", m.Agents[0].Type, m.Agents[1].Type)
	}
}
