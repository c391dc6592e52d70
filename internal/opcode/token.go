package opcode

import (
	"fmt"

	"github.com/san-kum/opcanvas/internal/canvas"
)

// Kind discriminates the token variants produced by the lexer.
type Kind uint8

const (
	KindMove Kind = iota
	KindPenToggle
	KindToolSelect
	KindColorSelect
	KindPause
	KindPaceChange
)

// Direction of a single-unit move. The digit mapping is part of the wire
// contract: 0=up, 1=down, 2=left, 3=right.
type Direction uint8

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "invalid"
}

// Offset returns the unit displacement for the direction.
func (d Direction) Offset() canvas.Point {
	switch d {
	case DirUp:
		return canvas.Point{X: 0, Y: -1}
	case DirDown:
		return canvas.Point{X: 0, Y: 1}
	case DirLeft:
		return canvas.Point{X: -1, Y: 0}
	case DirRight:
		return canvas.Point{X: 1, Y: 0}
	}
	return canvas.Point{}
}

// Token is one resolved instruction from an operation-code string. Tool and
// color keywords are resolved to their enums here so the rest of the pipeline
// never re-matches strings. Tokens are immutable once produced.
type Token struct {
	Kind    Kind
	Dir     Direction     // KindMove
	PenDown bool          // KindPenToggle
	Tool    canvas.Tool   // KindToolSelect
	Color   canvas.Color  // KindColorSelect
	Count   int           // KindPause: run length, 1..9
	Faster  bool          // KindPaceChange
}

func Move(d Direction) Token { return Token{Kind: KindMove, Dir: d} }

func PenToggle(down bool) Token { return Token{Kind: KindPenToggle, PenDown: down} }

func ToolSelect(t canvas.Tool) Token { return Token{Kind: KindToolSelect, Tool: t} }

func ColorSelect(c canvas.Color) Token { return Token{Kind: KindColorSelect, Color: c} }

func Pause(count int) Token { return Token{Kind: KindPause, Count: count} }

func PaceChange(faster bool) Token { return Token{Kind: KindPaceChange, Faster: faster} }

// Drawing reports whether the token moves or marks the canvas, as opposed to
// the reflective tokens (pause, pace) the pacing policy counts separately.
func (t Token) Drawing() bool {
	return t.Kind == KindMove || t.Kind == KindPenToggle
}

func (t Token) String() string {
	switch t.Kind {
	case KindMove:
		return fmt.Sprintf("move(%s)", t.Dir)
	case KindPenToggle:
		if t.PenDown {
			return "pen(down)"
		}
		return "pen(up)"
	case KindToolSelect:
		return fmt.Sprintf("tool(%s)", t.Tool)
	case KindColorSelect:
		return fmt.Sprintf("color(%s)", t.Color)
	case KindPause:
		return fmt.Sprintf("pause(%d)", t.Count)
	case KindPaceChange:
		if t.Faster {
			return "pace(faster)"
		}
		return "pace(slower)"
	}
	return "invalid"
}
