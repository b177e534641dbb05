package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- Defaults ---

func TestLoadFiles_DefaultsWhenNoFiles(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFiles(filepath.Join(dir, "missing.yaml"), "")
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}

	d := Default()
	if cfg.DataDir != d.DataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, d.DataDir)
	}
	if cfg.PlansDir != "docs/plans" {
		t.Errorf("PlansDir = %q", cfg.PlansDir)
	}
	if len(cfg.KnowledgeSources) != len(d.KnowledgeSources) {
		t.Errorf("KnowledgeSources = %v", cfg.KnowledgeSources)
	}
	if cfg.MaxSearchResults != 200 || cfg.DefaultSearchLimit != 20 {
		t.Errorf("limits = %d/%d", cfg.DefaultSearchLimit, cfg.MaxSearchResults)
	}
}

// --- Merging ---

func TestLoadFiles_ProjectOverridesGlobal(t *testing.T) {
	global := writeFile(t, t.TempDir(), `
data_dir: /srv/recall
plans_dir: plans
knowledge_sources: [RULES.md]
log_level: warn
`)
	project := writeFile(t, t.TempDir(), `
plans_dir: docs/roadmap
max_search_results: 50
`)

	cfg, err := LoadFiles(global, project)
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if cfg.DataDir != "/srv/recall" {
		t.Errorf("DataDir = %q, global value should survive", cfg.DataDir)
	}
	if cfg.PlansDir != "docs/roadmap" {
		t.Errorf("PlansDir = %q, project should win", cfg.PlansDir)
	}
	if len(cfg.KnowledgeSources) != 1 || cfg.KnowledgeSources[0] != "RULES.md" {
		t.Errorf("KnowledgeSources = %v", cfg.KnowledgeSources)
	}
	if cfg.MaxSearchResults != 50 {
		t.Errorf("MaxSearchResults = %d", cfg.MaxSearchResults)
	}
	if lvl, _ := cfg.Level(); lvl != zerolog.WarnLevel {
		t.Errorf("Level = %s, want warn", lvl)
	}
}

func TestLoadFiles_EnvironmentWins(t *testing.T) {
	file := writeFile(t, t.TempDir(), "plans_dir: plans\n")
	t.Setenv("RECALL_PLANS_DIR", "specs")
	t.Setenv("RECALL_KNOWLEDGE_SOURCES", "A.md,B.md")
	t.Setenv("RECALL_DATA_DIR", "~/elsewhere")

	cfg, err := LoadFiles(file)
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if cfg.PlansDir != "specs" {
		t.Errorf("PlansDir = %q, want env value", cfg.PlansDir)
	}
	if len(cfg.KnowledgeSources) != 2 || cfg.KnowledgeSources[1] != "B.md" {
		t.Errorf("KnowledgeSources = %v", cfg.KnowledgeSources)
	}
	home, _ := os.UserHomeDir()
	if cfg.DataDir != filepath.Join(home, "elsewhere") {
		t.Errorf("DataDir = %q, ~ should expand", cfg.DataDir)
	}
}

// --- Validation ---

func TestLoadFiles_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "plans_dir: [unclosed\n", "config: read"},
		{"bad level", "log_level: chatty\n", "log_level"},
		{"bad max", "max_search_results: 0\n", "max_search_results"},
		{"default above max", "max_search_results: 5\ndefault_search_limit: 10\n", "default_search_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFiles(writeFile(t, t.TempDir(), tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

// --- Projections ---

func TestConfig_MemoryAndCapture(t *testing.T) {
	cfg := &Config{
		DataDir:            "/data",
		KnowledgeSources:   []string{"ADR.md"},
		PlansDir:           "plans",
		ProjectRoot:        "/work/app",
		DefaultSearchLimit: 7,
		MaxSearchResults:   70,
	}
	mem := cfg.Memory()
	if mem.DataDir != "/data" || mem.DefaultSearchLimit != 7 || mem.MaxSearchResults != 70 {
		t.Errorf("Memory() = %+v", mem)
	}
	opts := cfg.Capture()
	if opts.PlansDir != "plans" || opts.ProjectRoot != "/work/app" || opts.KnowledgeSources[0] != "ADR.md" {
		t.Errorf("Capture() = %+v", opts)
	}
}

func TestConfig_YAMLRoundTripKeys(t *testing.T) {
	out, err := Default().YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	var keys map[string]any
	if err := yaml.Unmarshal(out, &keys); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"data_dir", "knowledge_sources", "plans_dir", "log_level", "max_search_results"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("rendered config missing %q", k)
		}
	}
}

func TestPaths(t *testing.T) {
	if !strings.HasSuffix(GlobalPath(), filepath.Join(".recall", "config.yaml")) {
		t.Errorf("GlobalPath = %q", GlobalPath())
	}
	if !strings.HasSuffix(ProjectPath(), filepath.Join(".recall", "config.yaml")) {
		t.Errorf("ProjectPath = %q", ProjectPath())
	}
}
