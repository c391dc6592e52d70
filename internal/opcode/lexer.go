// Package opcode turns operation-code strings from the oracle into typed
// token sequences. The lexer is a pure function: it never fails, never keeps
// state, and silently drops anything it does not recognize, because the
// oracle is free to emit garbage.
package opcode

import (
	"sort"
	"strings"

	"github.com/san-kum/opcanvas/internal/canvas"
)

// maxPauseRun caps the count carried by a single Pause token. Longer runs
// split into multiple tokens.
const maxPauseRun = 9

type keyword struct {
	word string
	tok  Token
}

// keywords holds every recognized word sorted longest-first so that
// "larger_brush" wins over "large_brush" and both win over "brush".
var keywords = buildKeywords()

func buildKeywords() []keyword {
	var kws []keyword
	for _, name := range canvas.ToolNames() {
		t, _ := canvas.ParseTool(name)
		kws = append(kws, keyword{name, ToolSelect(t)})
	}
	for _, name := range canvas.ColorNames() {
		c, _ := canvas.ParseColor(name)
		kws = append(kws, keyword{name, ColorSelect(c)})
	}
	kws = append(kws,
		keyword{"faster", PaceChange(true)},
		keyword{"slower", PaceChange(false)},
	)
	sort.SliceStable(kws, func(i, j int) bool {
		return len(kws[i].word) > len(kws[j].word)
	})
	return kws
}

// Lex scans the code left to right and produces its token sequence. Keyword
// substrings are matched greedily and consume their full span; remaining
// single characters map positionally: 0-3 move, 4 pen up, 5 pen down, 6-9
// contribute to a Pause run. Consecutive pause digits collapse into one Pause
// token carrying the run length. Unrecognized characters are skipped. An
// empty or fully-unrecognized string yields an empty sequence, not an error.
func Lex(code string) []Token {
	tokens := make([]Token, 0, len(code))
	pauseRun := 0

	flushPause := func() {
		for pauseRun > 0 {
			n := pauseRun
			if n > maxPauseRun {
				n = maxPauseRun
			}
			tokens = append(tokens, Pause(n))
			pauseRun -= n
		}
	}

	i := 0
	for i < len(code) {
		if kw, n := matchKeyword(code[i:]); n > 0 {
			flushPause()
			tokens = append(tokens, kw)
			i += n
			continue
		}

		ch := code[i]
		i++
		switch {
		case ch >= '0' && ch <= '3':
			flushPause()
			tokens = append(tokens, Move(Direction(ch-'0')))
		case ch == '4':
			flushPause()
			tokens = append(tokens, PenToggle(false))
		case ch == '5':
			flushPause()
			tokens = append(tokens, PenToggle(true))
		case ch >= '6' && ch <= '9':
			pauseRun++
		default:
			// Unknown byte: malformed oracle output never halts a session.
		}
	}
	flushPause()

	return tokens
}

// matchKeyword tries every known word at the head of s and returns the token
// and consumed length, or zero when nothing matches.
func matchKeyword(s string) (Token, int) {
	for _, kw := range keywords {
		if strings.HasPrefix(s, kw.word) {
			return kw.tok, len(kw.word)
		}
	}
	return Token{}, 0
}
