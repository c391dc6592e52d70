package config

import "sort"

// Presets are named starting configurations for common session shapes.
var presets = map[string]func() *Config{
	"sketch": func() *Config {
		cfg := Default()
		cfg.CanvasWidth = 120
		cfg.CanvasHeight = 120
		cfg.VisionCols = 40
		cfg.VisionRows = 20
		cfg.Cycles = 50
		return cfg
	},
	"mural": func() *Config {
		cfg := Default()
		cfg.CanvasWidth = 640
		cfg.CanvasHeight = 480
		cfg.Cycles = 1000
		cfg.Checkpoint = 25
		return cfg
	},
	"turbo": func() *Config {
		cfg := Default()
		cfg.Turbo = 4
		cfg.Policy.MinRun = 2
		return cfg
	},
}

// GetPreset returns a fresh config for the named preset, or nil when unknown.
func GetPreset(name string) *Config {
	fn, ok := presets[name]
	if !ok {
		return nil
	}
	return fn()
}

// ListPresets returns the available preset names, sorted.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
