// Package brush holds the virtual brush and applies tokens to it one at a
// time. It is the only component allowed to mutate the canvas.
package brush

import (
	"fmt"

	"github.com/san-kum/opcanvas/internal/canvas"
	"github.com/san-kum/opcanvas/internal/opcode"
)

// PaceLimits bounds the pace multiplier and sets the step factor applied per
// faster/slower token.
type PaceLimits struct {
	Step float64
	Min  float64
	Max  float64
}

func DefaultPaceLimits() PaceLimits {
	return PaceLimits{Step: 1.25, Min: 0.25, Max: 4.0}
}

// State is the live brush: position, pen, tool, color and pace. Exactly one
// instance exists per session and only Apply mutates it.
type State struct {
	Pos     canvas.Point
	PenDown bool
	Tool    canvas.Tool
	Color   canvas.Color
	Pace    float64

	limits PaceLimits

	// cycle-scoped counters, reset by BeginCycle
	stamps  int
	pauses  int
	strokes int
	dirty   canvas.Rect
}

// New places the brush at the canvas center with pen up and the documented
// defaults: tool=brush, color=white, pace=1.
func New(c *canvas.Canvas, limits PaceLimits) *State {
	w, h := c.Dimensions()
	return &State{
		Pos:    canvas.Point{X: w / 2, Y: h / 2},
		Tool:   canvas.DefaultTool,
		Color:  canvas.DefaultColor,
		Pace:   1.0,
		limits: limits,
	}
}

// BeginCycle resets the per-cycle counters and dirty region.
func (s *State) BeginCycle() {
	s.stamps = 0
	s.pauses = 0
	s.strokes = 0
	s.dirty = canvas.Rect{}
}

// Stamps returns the number of stamps placed since BeginCycle.
func (s *State) Stamps() int { return s.stamps }

// Pauses returns the pause signal accumulated since BeginCycle.
func (s *State) Pauses() int { return s.pauses }

// Strokes returns how many down-to-up transitions closed a stroke this cycle.
func (s *State) Strokes() int { return s.strokes }

// Dirty returns the canvas region touched since BeginCycle; empty when
// nothing was stamped.
func (s *State) Dirty() canvas.Rect { return s.dirty }

// Apply executes one token against the brush and canvas. Out-of-bounds moves
// clamp; the only error path is a canvas primitive failure, which the caller
// treats as fatal for the session.
func (s *State) Apply(c *canvas.Canvas, tok opcode.Token) error {
	switch tok.Kind {
	case opcode.KindMove:
		s.move(c, tok.Dir)
		if s.PenDown {
			touched, err := c.Stamp(s.Pos, s.Tool.Footprint(), s.Color)
			if err != nil {
				return fmt.Errorf("stamp at (%d,%d): %w", s.Pos.X, s.Pos.Y, err)
			}
			s.stamps++
			s.dirty = s.dirty.Union(touched)
		}

	case opcode.KindPenToggle:
		if s.PenDown && !tok.PenDown {
			s.strokes++
		}
		s.PenDown = tok.PenDown

	case opcode.KindToolSelect:
		s.Tool = tok.Tool

	case opcode.KindColorSelect:
		s.Color = tok.Color

	case opcode.KindPause:
		s.pauses += tok.Count

	case opcode.KindPaceChange:
		if tok.Faster {
			s.Pace *= s.limits.Step
		} else {
			s.Pace /= s.limits.Step
		}
		if s.Pace < s.limits.Min {
			s.Pace = s.limits.Min
		}
		if s.Pace > s.limits.Max {
			s.Pace = s.limits.Max
		}

	default:
		return fmt.Errorf("unknown token kind %d", tok.Kind)
	}
	return nil
}

// SetPace clamps and installs a pace chosen by the adaptive policy.
func (s *State) SetPace(pace float64) {
	if pace < s.limits.Min {
		pace = s.limits.Min
	}
	if pace > s.limits.Max {
		pace = s.limits.Max
	}
	s.Pace = pace
}

func (s *State) move(c *canvas.Canvas, dir opcode.Direction) {
	w, h := c.Dimensions()
	p := s.Pos.Add(dir.Offset())
	if p.X < 0 {
		p.X = 0
	}
	if p.X >= w {
		p.X = w - 1
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y >= h {
		p.Y = h - 1
	}
	s.Pos = p
}
