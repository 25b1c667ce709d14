package config

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/saruga/shaderxc/internal/rewriter"
)

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "shaderxc.json")

	content := `{
		"strictMode": true,
		"targetVersion": 450,
		"prefix": "sx",
		"rewriteFlags": ["log10", "matrixLayout"]
	}`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.StrictMode == nil || *cfg.StrictMode != true {
		t.Errorf("StrictMode: got %v, want true", cfg.StrictMode)
	}
	if cfg.TargetVersion == nil || *cfg.TargetVersion != 450 {
		t.Errorf("TargetVersion: got %v, want 450", cfg.TargetVersion)
	}
	if cfg.Prefix == nil || *cfg.Prefix != "sx" {
		t.Errorf("Prefix: got %v, want sx", cfg.Prefix)
	}
	if len(cfg.RewriteFlags) != 2 || cfg.RewriteFlags[0] != "log10" || cfg.RewriteFlags[1] != "matrixLayout" {
		t.Errorf("RewriteFlags: got %v, want [log10 matrixLayout]", cfg.RewriteFlags)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "shaders")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}

	configPath := filepath.Join(tmpDir, "project", "shaderxc.json")
	content := `{"targetVersion": 330}`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, foundPath, err := Load(subDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}
	if foundPath != configPath {
		t.Errorf("found config at %s, expected %s", foundPath, configPath)
	}
	if cfg.TargetVersion == nil || *cfg.TargetVersion != 330 {
		t.Errorf("TargetVersion: got %v, want 330", cfg.TargetVersion)
	}
}

func TestLoadNoConfig(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, path, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %v", cfg)
	}
	if path != "" {
		t.Errorf("expected empty path, got %s", path)
	}
}

func TestToOptionsDefaultsToEveryRewriteRule(t *testing.T) {
	cfg := &Config{}

	opts, err := cfg.ToOptions()
	if err != nil {
		t.Fatalf("ToOptions failed: %v", err)
	}
	if opts.RewriteFlags != rewriter.All {
		t.Errorf("RewriteFlags: got %v, want rewriter.All (no rewriteFlags entry means every rule on)", opts.RewriteFlags)
	}
}

func TestToOptionsRejectsUnknownRewriteFlag(t *testing.T) {
	cfg := &Config{RewriteFlags: []string{"bogus"}}

	if _, err := cfg.ToOptions(); err == nil {
		t.Errorf("expected an error for an unrecognized rewriteFlags entry")
	}
}

func TestToOptionsAppliesFields(t *testing.T) {
	strict := true
	version := 410
	prefix := "sx"

	cfg := &Config{
		StrictMode:    &strict,
		TargetVersion: &version,
		Prefix:        &prefix,
		RewriteFlags:  []string{"log10"},
	}

	opts, err := cfg.ToOptions()
	if err != nil {
		t.Fatalf("ToOptions failed: %v", err)
	}
	if opts.StrictMode != true {
		t.Errorf("StrictMode: got %v, want true", opts.StrictMode)
	}
	if opts.TargetVersion != 410 {
		t.Errorf("TargetVersion: got %v, want 410", opts.TargetVersion)
	}
	if opts.Prefix != "sx" {
		t.Errorf("Prefix: got %v, want sx", opts.Prefix)
	}
	if opts.RewriteFlags != rewriter.ConvertLog10 {
		t.Errorf("RewriteFlags: got %v, want only ConvertLog10", opts.RewriteFlags)
	}
}

func TestMergeCLIOverridesConfig(t *testing.T) {
	configVersion := 330
	cliVersion := 450

	cfg := &Config{TargetVersion: &configVersion}
	cliOpts := MergeOptions{TargetVersion: &cliVersion}

	opts, err := cfg.Merge(cliOpts)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if opts.TargetVersion != 450 {
		t.Errorf("TargetVersion: got %v, want 450 (CLI override)", opts.TargetVersion)
	}
}

func TestMergeCLIRewriteFlagsReplaceConfig(t *testing.T) {
	cfg := &Config{RewriteFlags: []string{"log10", "matrixLayout"}}
	cliOpts := MergeOptions{RewriteFlags: []string{"vectorCompare"}}

	opts, err := cfg.Merge(cliOpts)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if opts.RewriteFlags != rewriter.ConvertVectorCompare {
		t.Errorf("RewriteFlags: got %v, want only ConvertVectorCompare", opts.RewriteFlags)
	}
}

func TestConfigFileNames(t *testing.T) {
	tmpDir := t.TempDir()

	rcPath := filepath.Join(tmpDir, ".shaderxcrc")
	content := `{"targetVersion": 330}`

	if err := os.WriteFile(rcPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, foundPath, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}
	if filepath.Base(foundPath) != ".shaderxcrc" {
		t.Errorf("expected .shaderxcrc, got %s", filepath.Base(foundPath))
	}

	jsonPath := filepath.Join(tmpDir, "shaderxc.json")
	jsonContent := `{"targetVersion": 450}`

	if err := os.WriteFile(jsonPath, []byte(jsonContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, foundPath, err = Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Base(foundPath) != "shaderxc.json" {
		t.Errorf("expected shaderxc.json (higher priority), got %s", filepath.Base(foundPath))
	}
	if cfg.TargetVersion == nil || *cfg.TargetVersion != 450 {
		t.Errorf("TargetVersion: got %v, want 450 (from shaderxc.json)", cfg.TargetVersion)
	}
}
