package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(step int, tool, color string) Record {
	return Record{Step: step, Code: "533", Tokens: 3, Tool: tool, Color: color, Pace: 1.0}
}

func TestAppendAndRecent(t *testing.T) {
	l := NewLog()
	for i := 0; i < 5; i++ {
		l.Append(rec(i, "brush", "red"))
	}

	require.Equal(t, 5, l.Len())

	recent := l.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, 2, recent[0].Step, "recent must be oldest-first")
	assert.Equal(t, 4, recent[2].Step)

	assert.Len(t, l.Recent(100), 5, "k beyond length returns everything")
	assert.Nil(t, l.Recent(0))
}

func TestLast(t *testing.T) {
	l := NewLog()
	_, ok := l.Last()
	assert.False(t, ok, "empty log has no last record")

	l.Append(rec(0, "brush", "red"))
	l.Append(rec(1, "star", "blue"))

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, 1, last.Step)
	assert.Equal(t, "star", last.Tool)
}

func TestHistograms(t *testing.T) {
	l := NewLog()
	l.Append(rec(0, "brush", "red"))
	l.Append(rec(1, "brush", "blue"))
	l.Append(rec(2, "large_brush", "red"))

	assert.Equal(t, map[string]int{"brush": 2, "large_brush": 1}, l.ToolUsage())
	assert.Equal(t, map[string]int{"red": 2, "blue": 1}, l.ColorUsage())

	// Returned maps are copies; mutating them must not corrupt the log.
	h := l.ToolUsage()
	h["brush"] = 99
	assert.Equal(t, 2, l.ToolUsage()["brush"])
}

func TestAllCopies(t *testing.T) {
	l := NewLog()
	l.Append(rec(0, "brush", "red"))

	all := l.All()
	require.Len(t, all, 1)
	all[0].Step = 42
	again, _ := l.Last()
	assert.Equal(t, 0, again.Step, "All must return a copy")
}
