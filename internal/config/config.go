package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/opcanvas/internal/policy"
)

// Documented defaults. Thresholds and caps are configuration, not magic
// numbers buried in the pipeline.
const (
	DefaultCanvasSize  = 240
	DefaultVisionCols  = 60
	DefaultVisionRows  = 30
	DefaultMaxCodeLen  = 40
	DefaultOpsPerCycle = 64
	DefaultCycles      = 200
	DefaultWindow      = 8
	DefaultRecent      = 5
	DefaultCheckpoint  = 10
)

type Config struct {
	CanvasWidth  int `yaml:"canvas_width"`
	CanvasHeight int `yaml:"canvas_height"`

	VisionCols int `yaml:"vision_cols"`
	VisionRows int `yaml:"vision_rows"`

	// MaxCodeLen is the protocol cap on a single oracle response; longer
	// responses are truncated before tokenization.
	MaxCodeLen int `yaml:"max_code_len"`
	// OpsPerCycle bounds the tokens executed per cycle.
	OpsPerCycle int `yaml:"ops_per_cycle"`
	// Turbo multiplies OpsPerCycle. 0 or 1 means off.
	Turbo  int `yaml:"turbo"`
	Cycles int `yaml:"cycles"`

	CoverageWindow int `yaml:"coverage_window"`
	RecentRecords  int `yaml:"recent_records"`
	// Checkpoint is how many cycles pass between canvas snapshots to disk.
	Checkpoint int `yaml:"checkpoint"`

	Pace   PaceConfig    `yaml:"pace"`
	Policy policy.Config `yaml:"policy"`
	Oracle OracleConfig  `yaml:"oracle"`
}

type PaceConfig struct {
	Step float64 `yaml:"step"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

type OracleConfig struct {
	Backend   string `yaml:"backend"` // "chat" or "script"
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

func Default() *Config {
	return &Config{
		CanvasWidth:    DefaultCanvasSize,
		CanvasHeight:   DefaultCanvasSize,
		VisionCols:     DefaultVisionCols,
		VisionRows:     DefaultVisionRows,
		MaxCodeLen:     DefaultMaxCodeLen,
		OpsPerCycle:    DefaultOpsPerCycle,
		Cycles:         DefaultCycles,
		CoverageWindow: DefaultWindow,
		RecentRecords:  DefaultRecent,
		Checkpoint:     DefaultCheckpoint,
		Pace:           PaceConfig{Step: 1.25, Min: 0.25, Max: 4.0},
		Policy:         policy.DefaultConfig(),
		Oracle: OracleConfig{
			Backend:   "chat",
			BaseURL:   "http://localhost:11434/v1",
			Model:     "llama3.2",
			APIKeyEnv: "OPCANVAS_API_KEY",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("canvas dimensions must be positive, got %dx%d", c.CanvasWidth, c.CanvasHeight)
	}
	if c.VisionCols <= 0 || c.VisionRows <= 0 {
		return fmt.Errorf("vision grid must be positive, got %dx%d", c.VisionCols, c.VisionRows)
	}
	if c.MaxCodeLen <= 0 {
		return fmt.Errorf("max_code_len must be positive, got %d", c.MaxCodeLen)
	}
	if c.OpsPerCycle <= 0 {
		return fmt.Errorf("ops_per_cycle must be positive, got %d", c.OpsPerCycle)
	}
	if c.Pace.Step <= 1 {
		return fmt.Errorf("pace step must exceed 1, got %f", c.Pace.Step)
	}
	if c.Pace.Min <= 0 || c.Pace.Max < c.Pace.Min {
		return fmt.Errorf("invalid pace bounds [%f, %f]", c.Pace.Min, c.Pace.Max)
	}
	return nil
}

// OpsCap returns the per-cycle token budget with turbo applied.
func (c *Config) OpsCap() int {
	if c.Turbo > 1 {
		return c.OpsPerCycle * c.Turbo
	}
	return c.OpsPerCycle
}
