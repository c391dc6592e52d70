package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.CanvasWidth = 100
	cfg.Turbo = 3
	cfg.Oracle.Model = "test"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CanvasWidth != 100 {
		t.Errorf("expected canvas width 100, got %d", loaded.CanvasWidth)
	}
	if loaded.Turbo != 3 {
		t.Errorf("expected turbo 3, got %d", loaded.Turbo)
	}
	if loaded.Oracle.Model != "test" {
		t.Errorf("expected oracle model test, got %s", loaded.Oracle.Model)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("canvas_width: 99\ncanvas_height: 99\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CanvasWidth != 99 {
		t.Errorf("expected canvas width 99, got %d", cfg.CanvasWidth)
	}
	if cfg.MaxCodeLen != DefaultMaxCodeLen {
		t.Errorf("expected default max code len, got %d", cfg.MaxCodeLen)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero canvas", func(c *Config) { c.CanvasWidth = 0 }},
		{"zero vision", func(c *Config) { c.VisionRows = 0 }},
		{"zero code len", func(c *Config) { c.MaxCodeLen = 0 }},
		{"zero ops", func(c *Config) { c.OpsPerCycle = 0 }},
		{"pace step below one", func(c *Config) { c.Pace.Step = 0.9 }},
		{"inverted pace bounds", func(c *Config) { c.Pace.Min = 2; c.Pace.Max = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestOpsCap(t *testing.T) {
	cfg := Default()
	if cfg.OpsCap() != cfg.OpsPerCycle {
		t.Errorf("expected ops cap %d, got %d", cfg.OpsPerCycle, cfg.OpsCap())
	}
	cfg.Turbo = 4
	if cfg.OpsCap() != 4*cfg.OpsPerCycle {
		t.Errorf("expected turbo ops cap %d, got %d", 4*cfg.OpsPerCycle, cfg.OpsCap())
	}
}

func TestPresets(t *testing.T) {
	if GetPreset("nope") != nil {
		t.Error("unknown preset must return nil")
	}
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("listed preset %s not gettable", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}
