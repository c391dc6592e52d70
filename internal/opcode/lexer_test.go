package opcode

import (
	"strings"
	"testing"

	"github.com/san-kum/opcanvas/internal/canvas"
)

func TestLexMovementDigits(t *testing.T) {
	tokens := Lex("0123")
	want := []Direction{DirUp, DirDown, DirLeft, DirRight}

	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, d := range want {
		if tokens[i].Kind != KindMove || tokens[i].Dir != d {
			t.Errorf("token %d: expected move(%s), got %s", i, d, tokens[i])
		}
	}
}

func TestLexPenToggles(t *testing.T) {
	tokens := Lex("45")
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].Kind != KindPenToggle || tokens[0].PenDown {
		t.Errorf("expected pen(up), got %s", tokens[0])
	}
	if tokens[1].Kind != KindPenToggle || !tokens[1].PenDown {
		t.Errorf("expected pen(down), got %s", tokens[1])
	}
}

func TestLexKeywordGreedy(t *testing.T) {
	tokens := Lex("larger_brushlarge_brushbrush")
	want := []canvas.Tool{canvas.ToolLargerBrush, canvas.ToolLargeBrush, canvas.ToolBrush}

	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, tool := range want {
		if tokens[i].Kind != KindToolSelect || tokens[i].Tool != tool {
			t.Errorf("token %d: expected tool(%s), got %s", i, tool, tokens[i])
		}
	}
}

func TestLexColorStrokeScenario(t *testing.T) {
	tokens := Lex("red533333orange522222")

	want := []string{
		"color(red)", "pen(down)",
		"move(right)", "move(right)", "move(right)", "move(right)", "move(right)",
		"color(orange)", "pen(down)",
		"move(left)", "move(left)", "move(left)", "move(left)", "move(left)",
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].String() != w {
			t.Errorf("token %d: expected %s, got %s", i, w, tokens[i])
		}
	}
}

func TestLexPauseRuns(t *testing.T) {
	tokens := Lex("67893678")
	// 6789 -> pause(4), 3 -> move(right), 678 -> pause(3)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0].Kind != KindPause || tokens[0].Count != 4 {
		t.Errorf("expected pause(4), got %s", tokens[0])
	}
	if tokens[1].Kind != KindMove || tokens[1].Dir != DirRight {
		t.Errorf("expected move(right), got %s", tokens[1])
	}
	if tokens[2].Kind != KindPause || tokens[2].Count != 3 {
		t.Errorf("expected pause(3), got %s", tokens[2])
	}
}

func TestLexLongPauseRunSplits(t *testing.T) {
	tokens := Lex(strings.Repeat("9", 12))
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0].Count != 9 || tokens[1].Count != 3 {
		t.Errorf("expected pause(9) pause(3), got %s %s", tokens[0], tokens[1])
	}
}

func TestLexPaceKeywords(t *testing.T) {
	tokens := Lex("fasterslower")
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].Kind != KindPaceChange || !tokens[0].Faster {
		t.Errorf("expected pace(faster), got %s", tokens[0])
	}
	if tokens[1].Kind != KindPaceChange || tokens[1].Faster {
		t.Errorf("expected pace(slower), got %s", tokens[1])
	}
}

func TestLexGarbageTolerated(t *testing.T) {
	cases := []string{
		"",
		"!!@@##$$",
		"hello world",
		"\x00\xff\x7f",
		"re d5 33x33",
	}
	for _, code := range cases {
		tokens := Lex(code)
		if len(tokens) > len(code) {
			t.Errorf("Lex(%q): %d tokens exceeds input length %d", code, len(tokens), len(code))
		}
	}
	if got := Lex(""); len(got) != 0 {
		t.Errorf("empty input: expected empty sequence, got %v", got)
	}
}

func TestLexTokenCountBounded(t *testing.T) {
	// Every byte yields at most one token; pause runs collapse.
	for _, code := range []string{"0123456789", "red533333", strings.Repeat("5", 40)} {
		tokens := Lex(code)
		if len(tokens) > len(code) {
			t.Errorf("Lex(%q): %d tokens exceeds input length %d", code, len(tokens), len(code))
		}
	}
}

func TestLexDeterministic(t *testing.T) {
	code := "red5333brush99purple0214faster??slower"
	a := Lex(code)
	b := Lex(code)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic token count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("token %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}
