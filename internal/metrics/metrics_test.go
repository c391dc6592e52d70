package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/opcanvas/internal/coverage"
	"github.com/san-kum/opcanvas/internal/memory"
)

func TestStampCount(t *testing.T) {
	m := NewStampCount()
	m.Observe(memory.Record{Stamps: 5})
	m.Observe(memory.Record{Stamps: 3})

	if m.Value() != 8 {
		t.Errorf("expected 8 stamps, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestMeanCoverage(t *testing.T) {
	m := NewMeanCoverage()
	if m.Value() != 0 {
		t.Errorf("expected 0 with no samples, got %f", m.Value())
	}

	m.Observe(memory.Record{Coverage: coverage.Sample{Ratio: 0.2}})
	m.Observe(memory.Record{Coverage: coverage.Sample{Ratio: 0.6}})

	if math.Abs(m.Value()-0.4) > 1e-12 {
		t.Errorf("expected mean 0.4, got %f", m.Value())
	}
}

func TestPauseRatio(t *testing.T) {
	m := NewPauseRatio()
	if m.Value() != 0 {
		t.Errorf("expected 0 with no tokens, got %f", m.Value())
	}

	m.Observe(memory.Record{Pauses: 2, Tokens: 8})
	m.Observe(memory.Record{Pauses: 2, Tokens: 8})

	if m.Value() != 0.25 {
		t.Errorf("expected 0.25, got %f", m.Value())
	}
}
