// Package memory accumulates the per-cycle record log for a session. Records
// are append-only; aggregates are maintained incrementally so histogram reads
// stay cheap on long sessions.
package memory

import (
	"time"

	"github.com/san-kum/opcanvas/internal/coverage"
)

// Record captures one completed cycle. Never mutated after Append.
type Record struct {
	Step     int             `json:"step"`
	Code     string          `json:"code"`
	Tokens   int             `json:"tokens"`
	Coverage coverage.Sample `json:"coverage"`
	Tool     string          `json:"tool"`
	Color    string          `json:"color"`
	Pace     float64         `json:"pace"`
	Stamps   int             `json:"stamps"`
	Pauses   int             `json:"pauses"`
	At       time.Time       `json:"at"`
}

// Log is the in-memory record set. Appends must happen synchronously before
// the next cycle starts so policy reads see their own writes; durable
// persistence is the storage package's concern.
type Log struct {
	records  []Record
	toolUse  map[string]int
	colorUse map[string]int
}

func NewLog() *Log {
	return &Log{
		toolUse:  make(map[string]int),
		colorUse: make(map[string]int),
	}
}

// Append adds one record and folds it into the aggregates.
func (l *Log) Append(r Record) {
	l.records = append(l.records, r)
	l.toolUse[r.Tool]++
	l.colorUse[r.Color]++
}

func (l *Log) Len() int { return len(l.records) }

// Last returns the most recent record, used to seed policy priors on resume.
func (l *Log) Last() (Record, bool) {
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[len(l.records)-1], true
}

// Recent returns up to k most recent records, oldest first.
func (l *Log) Recent(k int) []Record {
	if k <= 0 || len(l.records) == 0 {
		return nil
	}
	if k > len(l.records) {
		k = len(l.records)
	}
	out := make([]Record, k)
	copy(out, l.records[len(l.records)-k:])
	return out
}

// All returns the full record set, oldest first.
func (l *Log) All() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// ToolUsage returns the tool histogram over the full record set.
func (l *Log) ToolUsage() map[string]int {
	return copyHistogram(l.toolUse)
}

// ColorUsage returns the color histogram over the full record set.
func (l *Log) ColorUsage() map[string]int {
	return copyHistogram(l.colorUse)
}

func copyHistogram(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
