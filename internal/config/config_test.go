package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.IntentMode != "keyword" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.DatasetPath == "" || cfg.TranscriptsDir == "" {
		t.Fatalf("paths must default: %+v", cfg)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
http_port: "9000"
dataset_path: data/master.xlsx
intent_mode: llm
rep_codes: ["雁", "梅"]
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "9100") // env beats file

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != "9100" {
		t.Fatalf("env should override file: %q", cfg.HTTPPort)
	}
	if cfg.DatasetPath != "data/master.xlsx" {
		t.Fatalf("file value not applied: %q", cfg.DatasetPath)
	}
	if cfg.IntentMode != "llm" {
		t.Fatalf("intent mode = %q", cfg.IntentMode)
	}
	if len(cfg.RepCodes) != 2 {
		t.Fatalf("rep codes = %v", cfg.RepCodes)
	}
}

func TestLoadRejectsBadIntentMode(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("INTENT_MODE", "magic")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown intent mode")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}
