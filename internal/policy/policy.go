// Package policy carries the adaptive decisions between cycles: tool
// escalation under sustained low coverage and pace nudges from the oracle's
// pause behavior. It is a deterministic function of summarized history, not a
// learning model.
package policy

import (
	"fmt"

	"github.com/san-kum/opcanvas/internal/canvas"
	"github.com/san-kum/opcanvas/internal/coverage"
)

// ladder orders the escalatable tools by footprint size. Stamp tools (star,
// circle, diamond) sit outside the ladder; while one is in hand, escalation
// resumes from the last ladder level held.
var ladder = []canvas.Tool{
	canvas.ToolPoint,
	canvas.ToolBrush,
	canvas.ToolLargeBrush,
	canvas.ToolLargerBrush,
}

// Config holds the policy thresholds. Exact values are deliberately
// configuration, not hard-coded: the defaults below are the documented
// choice.
type Config struct {
	LowCoverage  float64 `yaml:"low_coverage"`  // escalate below this ratio
	HighCoverage float64 `yaml:"high_coverage"` // de-escalate above this ratio
	MinRun       int     `yaml:"min_run"`       // consecutive samples required either way
	HistorySize  int     `yaml:"history_size"`  // bounded sample history
	PauseHigh    float64 `yaml:"pause_high"`    // pause/draw ratio above which pace slows
	PauseLow     float64 `yaml:"pause_low"`     // pause/draw ratio below which pace quickens
	PaceStep     float64 `yaml:"pace_step"`     // multiplicative pace nudge
}

func DefaultConfig() Config {
	return Config{
		LowCoverage:  0.15,
		HighCoverage: 0.55,
		MinRun:       3,
		HistorySize:  32,
		PauseHigh:    0.5,
		PauseLow:     0.05,
		PaceStep:     1.25,
	}
}

// CycleStats summarizes one completed cycle for the policy.
type CycleStats struct {
	Sample      coverage.Sample
	Tool        canvas.Tool
	Pace        float64
	PauseTokens int
	DrawTokens  int
}

// Decision is at most one adjustment for the next cycle. Tool changes take
// priority over pace changes; both flags unset means hold steady.
type Decision struct {
	Tool        canvas.Tool
	ToolChanged bool
	Pace        float64
	PaceChanged bool
	Reason      string
}

// Policy accumulates coverage history and derives decisions. State is carried
// across cycles and reset only at session start or explicit memory reset.
type Policy struct {
	cfg     Config
	level   int
	lowRun  int
	highRun int
	samples []coverage.Sample
	pauses  []int
	draws   []int
}

func New(cfg Config) *Policy {
	if cfg.MinRun <= 0 {
		cfg.MinRun = 1
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultConfig().HistorySize
	}
	if cfg.PaceStep <= 1 {
		cfg.PaceStep = DefaultConfig().PaceStep
	}
	return &Policy{
		cfg:   cfg,
		level: ladderIndex(canvas.DefaultTool),
	}
}

// Seed installs priors loaded from session memory: the tool in use at the end
// of the last persisted cycle.
func (p *Policy) Seed(tool canvas.Tool) {
	if idx := ladderIndex(tool); idx >= 0 {
		p.level = idx
	}
}

// Reset clears all carried state back to session-start defaults.
func (p *Policy) Reset() {
	p.level = ladderIndex(canvas.DefaultTool)
	p.lowRun = 0
	p.highRun = 0
	p.samples = p.samples[:0]
	p.pauses = p.pauses[:0]
	p.draws = p.draws[:0]
}

// History returns the bounded coverage sample history, oldest first.
func (p *Policy) History() []coverage.Sample {
	out := make([]coverage.Sample, len(p.samples))
	copy(out, p.samples)
	return out
}

// Advise ingests one cycle's statistics and returns at most one adjustment
// for the next cycle. Identical histories always produce identical decisions.
func (p *Policy) Advise(stats CycleStats) Decision {
	p.push(stats)

	// Track the oracle's own tool choices so escalation moves relative to
	// what is actually in hand.
	if idx := ladderIndex(stats.Tool); idx >= 0 {
		p.level = idx
	}

	switch {
	case stats.Sample.Ratio < p.cfg.LowCoverage:
		p.lowRun++
		p.highRun = 0
	case stats.Sample.Ratio > p.cfg.HighCoverage:
		p.highRun++
		p.lowRun = 0
	default:
		p.lowRun = 0
		p.highRun = 0
	}

	if p.lowRun >= p.cfg.MinRun && p.level < len(ladder)-1 {
		p.level++
		p.lowRun = 0
		return Decision{
			Tool:        ladder[p.level],
			ToolChanged: true,
			Reason:      fmt.Sprintf("coverage below %.2f for %d samples", p.cfg.LowCoverage, p.cfg.MinRun),
		}
	}
	if p.highRun >= p.cfg.MinRun && p.level > 0 {
		p.level--
		p.highRun = 0
		return Decision{
			Tool:        ladder[p.level],
			ToolChanged: true,
			Reason:      fmt.Sprintf("coverage above %.2f for %d samples", p.cfg.HighCoverage, p.cfg.MinRun),
		}
	}

	// No tool change this cycle: consider a pace nudge from the recent
	// pause-to-draw ratio.
	ratio, ok := p.pauseRatio()
	if !ok {
		return Decision{}
	}
	if ratio > p.cfg.PauseHigh {
		return Decision{
			Pace:        stats.Pace / p.cfg.PaceStep,
			PaceChanged: true,
			Reason:      fmt.Sprintf("pause ratio %.2f above %.2f", ratio, p.cfg.PauseHigh),
		}
	}
	if ratio < p.cfg.PauseLow {
		return Decision{
			Pace:        stats.Pace * p.cfg.PaceStep,
			PaceChanged: true,
			Reason:      fmt.Sprintf("pause ratio %.2f below %.2f", ratio, p.cfg.PauseLow),
		}
	}
	return Decision{}
}

func (p *Policy) push(stats CycleStats) {
	p.samples = append(p.samples, stats.Sample)
	p.pauses = append(p.pauses, stats.PauseTokens)
	p.draws = append(p.draws, stats.DrawTokens)
	if len(p.samples) > p.cfg.HistorySize {
		p.samples = p.samples[1:]
		p.pauses = p.pauses[1:]
		p.draws = p.draws[1:]
	}
}

// pauseRatio computes pauses/draws over the recent window. It reports false
// until at least MinRun cycles with drawing activity exist, so a quiet
// session start does not trigger pace churn.
func (p *Policy) pauseRatio() (float64, bool) {
	totalPause, totalDraw, active := 0, 0, 0
	for i := range p.draws {
		totalPause += p.pauses[i]
		totalDraw += p.draws[i]
		if p.draws[i] > 0 {
			active++
		}
	}
	if totalDraw == 0 || active < p.cfg.MinRun {
		return 0, false
	}
	return float64(totalPause) / float64(totalDraw), true
}

func ladderIndex(t canvas.Tool) int {
	for i, lt := range ladder {
		if lt == t {
			return i
		}
	}
	return -1
}
