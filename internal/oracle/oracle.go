// Package oracle abstracts the generative text source supplying operation
// codes. The core treats it as a black box behind a synchronous call: a
// prompt goes out, one bounded string comes back, and no structure beyond
// character-level recognizability is assumed of it.
package oracle

import (
	"context"
	"fmt"
	"strings"
)

// Oracle produces the next operation-code string for a cycle.
type Oracle interface {
	Next(ctx context.Context, p Prompt) (string, error)
}

// Prompt carries everything the oracle gets to see each cycle.
type Prompt struct {
	Vision   string   // ASCII vision grid
	Overview string   // one-line canvas summary
	Status   string   // brush position, pen, tool, color, pace
	Recent   []string // short summaries of recent cycles
	Examples []string // canned code examples seeded at session start
	MaxLen   int      // protocol cap communicated to the oracle
}

// Render flattens the prompt into the text sent to the oracle.
func (p Prompt) Render() string {
	var b strings.Builder
	b.WriteString("You are drawing on a canvas. This is your current view:\n\n")
	b.WriteString(p.Vision)
	b.WriteString("\n\n")
	if p.Overview != "" {
		b.WriteString(p.Overview)
		b.WriteByte('\n')
	}
	if p.Status != "" {
		b.WriteString(p.Status)
		b.WriteByte('\n')
	}
	if len(p.Recent) > 0 {
		b.WriteString("\nRecent moves:\n")
		for _, r := range p.Recent {
			b.WriteString("  ")
			b.WriteString(r)
			b.WriteByte('\n')
		}
	}
	if len(p.Examples) > 0 {
		b.WriteString("\nExample codes:\n")
		for _, e := range p.Examples {
			b.WriteString("  ")
			b.WriteString(e)
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "\nReply with one code of at most %d characters. "+
		"Digits 0-3 move up/down/left/right, 4 lifts the pen, 5 lowers it. "+
		"Words select tools (brush, large_brush, larger_brush, star, circle, diamond), "+
		"colors (red, blue, yellow, ...) or pace (faster, slower). "+
		"Digits 6-9 pause to think.\n", p.MaxLen)
	return b.String()
}

// Examples are canned codes shown to the oracle at session start so it knows
// what well-formed output looks like.
var Examples = []string{
	"red53333orange53333yellow53333",   // horizontal rainbow stripe
	"533330000222211113333",            // expanding square spiral
	"blue533311122200cyan533311122200", // flowing wave
	"534425344253442",                  // dotted trail
}
