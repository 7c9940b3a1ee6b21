package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	HTTP struct {
		Port string `yaml:"port" env:"SAMPLE_PORT"`
	} `yaml:"http"`
	Limits struct {
		Ratio   float64       `yaml:"ratio"`
		Retries int           `yaml:"retries"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"limits"`
	Tags    []string `yaml:"tags" env:"SAMPLE_TAGS"`
	Ignored string   `yaml:"ignored" env:"-"`
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("http:\n  port: \"9000\"\nlimits:\n  ratio: 0.5\n  retries: 2\nignored: from-file\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SAMPLE_PORT", "9100")
	t.Setenv("LIMITS_RETRIES", "4")
	t.Setenv("LIMITS_TIMEOUT", "1500ms")
	t.Setenv("SAMPLE_TAGS", "a, b,,c")
	t.Setenv("IGNORED", "from-env")

	var cfg sample
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTP.Port != "9100" {
		t.Fatalf("expected env port override, got %q", cfg.HTTP.Port)
	}
	if cfg.Limits.Ratio != 0.5 {
		t.Fatalf("expected ratio from file, got %v", cfg.Limits.Ratio)
	}
	if cfg.Limits.Retries != 4 {
		t.Fatalf("expected derived env key override, got %d", cfg.Limits.Retries)
	}
	if cfg.Limits.Timeout != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s timeout, got %s", cfg.Limits.Timeout)
	}
	if len(cfg.Tags) != 3 || cfg.Tags[2] != "c" {
		t.Fatalf("unexpected tags %v", cfg.Tags)
	}
	if cfg.Ignored != "from-file" {
		t.Fatalf("env:\"-\" field must not be overridden, got %q", cfg.Ignored)
	}
}

func TestLoadConfigRejectsBadTargets(t *testing.T) {
	if err := LoadConfigFile("", nil); err == nil {
		t.Fatalf("expected error for nil target")
	}
	var notStruct int
	if err := LoadConfigFile("", &notStruct); err == nil {
		t.Fatalf("expected error for non-struct target")
	}
}

func TestLoadConfigReportsParseErrors(t *testing.T) {
	t.Setenv("LIMITS_RETRIES", "many")
	var cfg sample
	if err := LoadConfigFile("", &cfg); err == nil {
		t.Fatalf("expected parse error")
	}
}
