package metrics

import "github.com/san-kum/opcanvas/internal/memory"

// Metric observes completed cycles and reduces them to a single value
// reported in session metadata.
type Metric interface {
	Name() string
	Observe(rec memory.Record)
	Value() float64
	Reset()
}

// Defaults returns the metric set every session records.
func Defaults() []Metric {
	return []Metric{
		NewStampCount(),
		NewMeanCoverage(),
		NewPauseRatio(),
	}
}

// StampCount totals stamps placed across all cycles.
type StampCount struct {
	total int
}

func NewStampCount() *StampCount { return &StampCount{} }

func (s *StampCount) Name() string { return "stamps" }

func (s *StampCount) Observe(rec memory.Record) { s.total += rec.Stamps }

func (s *StampCount) Value() float64 { return float64(s.total) }

func (s *StampCount) Reset() { s.total = 0 }

// MeanCoverage averages the coverage ratio over observed cycles.
type MeanCoverage struct {
	sum     float64
	samples int
}

func NewMeanCoverage() *MeanCoverage { return &MeanCoverage{} }

func (m *MeanCoverage) Name() string { return "mean_coverage" }

func (m *MeanCoverage) Observe(rec memory.Record) {
	m.sum += rec.Coverage.Ratio
	m.samples++
}

func (m *MeanCoverage) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanCoverage) Reset() {
	m.sum = 0
	m.samples = 0
}

// PauseRatio relates pause signal to executed tokens, the session-level view
// of how reflective the oracle has been.
type PauseRatio struct {
	pauses int
	tokens int
}

func NewPauseRatio() *PauseRatio { return &PauseRatio{} }

func (p *PauseRatio) Name() string { return "pause_ratio" }

func (p *PauseRatio) Observe(rec memory.Record) {
	p.pauses += rec.Pauses
	p.tokens += rec.Tokens
}

func (p *PauseRatio) Value() float64 {
	if p.tokens == 0 {
		return 0
	}
	return float64(p.pauses) / float64(p.tokens)
}

func (p *PauseRatio) Reset() {
	p.pauses = 0
	p.tokens = 0
}
