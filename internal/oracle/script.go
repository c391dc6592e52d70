package oracle

import (
	"context"
	"io"
	"sync"
)

// Script replays a fixed list of codes in order, used by tests and the
// replay command. Next returns io.EOF once the script is exhausted.
type Script struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func NewScript(codes []string) *Script {
	return &Script{codes: codes}
}

func (s *Script) Next(ctx context.Context, _ Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.codes) {
		return "", io.EOF
	}
	code := s.codes[s.next]
	s.next++
	return code, nil
}
