// Package session drives the adaptive drawing loop: each cycle asks the
// oracle for an operation code, executes it against the brush and canvas,
// samples coverage, applies the policy decision and records the outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/san-kum/opcanvas/internal/brush"
	"github.com/san-kum/opcanvas/internal/canvas"
	"github.com/san-kum/opcanvas/internal/config"
	"github.com/san-kum/opcanvas/internal/coverage"
	"github.com/san-kum/opcanvas/internal/memory"
	"github.com/san-kum/opcanvas/internal/metrics"
	"github.com/san-kum/opcanvas/internal/opcode"
	"github.com/san-kum/opcanvas/internal/oracle"
	"github.com/san-kum/opcanvas/internal/policy"
	"github.com/san-kum/opcanvas/internal/storage"
	"github.com/san-kum/opcanvas/internal/vision"
)

// Phase tracks the session lifecycle. Transitions are one-way:
// Idle -> Initialized -> Running -> Terminated.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInitialized
	PhaseRunning
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitialized:
		return "initialized"
	case PhaseRunning:
		return "running"
	case PhaseTerminated:
		return "terminated"
	}
	return "invalid"
}

// Observer is notified after every completed cycle with the record and the
// vision frame that will be shown to the oracle next.
type Observer interface {
	OnCycle(rec memory.Record, frame string)
}

// Result summarizes a finished run.
type Result struct {
	SessionID string
	Cycles    int
	Skipped   int
	Coverage  float64
	Metrics   map[string]float64
}

// Session owns the full pipeline state for one drawing run. Not safe for
// concurrent use; observers run on the loop goroutine.
type Session struct {
	cfg       *config.Config
	id        string
	canvas    *canvas.Canvas
	brush     *brush.State
	analyzer  *coverage.Analyzer
	policy    *policy.Policy
	encoder   *vision.Encoder
	log       *memory.Log
	oracle    oracle.Oracle
	store     *storage.Store
	metrics   []metrics.Metric
	observers []Observer
	logger    *slog.Logger

	phase   Phase
	step    int
	skipped int
	created time.Time

	persistCh   chan persistReq
	persistDone chan struct{}
}

type persistReq struct {
	rec      memory.Record
	snapshot *image.RGBA
	meta     *storage.SessionMeta
}

// New builds a fresh session from configuration. The oracle is the only
// required collaborator; persistence and observers attach separately.
func New(cfg *config.Config, orc oracle.Oracle, logger *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if orc == nil {
		return nil, errors.New("session needs an oracle")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c, err := canvas.New(cfg.CanvasWidth, cfg.CanvasHeight)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:      cfg,
		id:       storage.NewSessionID(),
		canvas:   c,
		brush:    brush.New(c, brush.PaceLimits{Step: cfg.Pace.Step, Min: cfg.Pace.Min, Max: cfg.Pace.Max}),
		analyzer: coverage.New(cfg.CoverageWindow),
		policy:   policy.New(cfg.Policy),
		encoder:  vision.New(cfg.VisionCols, cfg.VisionRows),
		log:      memory.NewLog(),
		oracle:   orc,
		metrics:  metrics.Defaults(),
		logger:   logger,
		created:  time.Now(),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Canvas() *canvas.Canvas { return s.canvas }

func (s *Session) Memory() *memory.Log { return s.log }

func (s *Session) Brush() *brush.State { return s.brush }

// AttachStore enables disk persistence under the store's base directory.
func (s *Session) AttachStore(store *storage.Store) { s.store = store }

func (s *Session) AddMetric(m metrics.Metric) { s.metrics = append(s.metrics, m) }

func (s *Session) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Resume reloads a stored session: memory records, canvas snapshot and the
// brush/policy priors from the last persisted cycle. Must be called before
// Run. A missing or partially corrupt store degrades to defaults with a
// warning rather than failing the session.
func (s *Session) Resume(store *storage.Store, id string) error {
	if s.phase != PhaseIdle {
		return fmt.Errorf("cannot resume a %s session", s.phase)
	}
	meta, err := store.LoadMeta(id)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}
	s.store = store
	s.id = id
	s.created = meta.CreatedAt

	// The stored dimensions win over the current config; a config-sized
	// canvas would crop the snapshot and overwrite it on termination.
	if w, h := s.canvas.Dimensions(); meta.CanvasWidth > 0 && meta.CanvasHeight > 0 &&
		(meta.CanvasWidth != w || meta.CanvasHeight != h) {
		c, err := canvas.New(meta.CanvasWidth, meta.CanvasHeight)
		if err != nil {
			return fmt.Errorf("restore canvas for session %s: %w", id, err)
		}
		s.canvas = c
		s.brush = brush.New(c, brush.PaceLimits{Step: s.cfg.Pace.Step, Min: s.cfg.Pace.Min, Max: s.cfg.Pace.Max})
	}

	recs, err := store.LoadRecords(id)
	if err != nil {
		s.logger.Warn("record log unreadable, resuming with empty memory", "session", id, "err", err)
		recs = nil
	}
	// The replayed records are the only metric seed.
	for _, m := range s.metrics {
		m.Reset()
	}
	for _, rec := range recs {
		s.log.Append(rec)
		for _, m := range s.metrics {
			m.Observe(rec)
		}
	}
	if last, ok := s.log.Last(); ok {
		s.step = last.Step + 1
		if tool, found := canvas.ParseTool(last.Tool); found {
			s.policy.Seed(tool)
		}
	}

	if err := store.LoadCanvas(id, s.canvas); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("canvas snapshot unreadable, starting blank", "session", id, "err", err)
	}

	s.restoreBrush(meta)
	return nil
}

func (s *Session) restoreBrush(meta *storage.SessionMeta) {
	if tool, ok := canvas.ParseTool(meta.Tool); ok {
		s.brush.Tool = tool
	}
	if color, ok := canvas.ParseColor(meta.Color); ok {
		s.brush.Color = color
	}
	if meta.Pace > 0 {
		s.brush.SetPace(meta.Pace)
	}
	w, h := s.canvas.Dimensions()
	if meta.PosX >= 0 && meta.PosX < w && meta.PosY >= 0 && meta.PosY < h {
		s.brush.Pos = canvas.Point{X: meta.PosX, Y: meta.PosY}
	}
	s.brush.PenDown = meta.PenDown
}

// Run executes up to cfg.Cycles drawing cycles. Cancellation is honored
// between cycles; the partial result is still returned. A session runs once.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if s.phase != PhaseIdle {
		return nil, fmt.Errorf("session already %s", s.phase)
	}

	if err := s.initialize(); err != nil {
		return nil, err
	}
	s.phase = PhaseRunning

	var runErr error
	for attempt := 0; attempt < s.cfg.Cycles; attempt++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
			runErr = s.cycle(ctx)
		}
		if runErr != nil {
			break
		}
	}

	result := s.terminate()
	if errors.Is(runErr, io.EOF) || errors.Is(runErr, context.Canceled) {
		// Script exhaustion and user stop end the session cleanly.
		runErr = nil
	}
	return result, runErr
}

func (s *Session) initialize() error {
	if s.log.Len() == 0 {
		// Fresh start; a resumed session keeps its replayed metrics.
		for _, m := range s.metrics {
			m.Reset()
		}
	}
	if s.store != nil {
		if _, err := s.store.LoadMeta(s.id); err != nil {
			// Fresh session: create the directory and initial metadata.
			if err := s.store.Create(s.meta()); err != nil {
				return fmt.Errorf("create session store: %w", err)
			}
		}
		s.persistCh = make(chan persistReq, 64)
		s.persistDone = make(chan struct{})
		go s.persistWorker()
	}
	s.phase = PhaseInitialized
	return nil
}

// cycle runs one full oracle -> lexer -> brush -> coverage -> policy ->
// memory pass. Oracle failures skip the cycle; canvas failures are fatal.
func (s *Session) cycle(ctx context.Context) error {
	frame := s.encoder.EncodeWithBrush(s.canvas, s.brush.Pos, s.brush.PenDown)

	code, err := s.oracle.Next(ctx, s.prompt(frame))
	if err != nil {
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return err
		}
		s.skipped++
		s.logger.Warn("oracle failed, skipping cycle", "step", s.step, "err", err)
		return nil
	}
	if len(code) > s.cfg.MaxCodeLen {
		code = code[:s.cfg.MaxCodeLen]
	}

	tokens := opcode.Lex(code)
	if budget := s.cfg.OpsCap(); len(tokens) > budget {
		tokens = tokens[:budget]
	}

	s.brush.BeginCycle()
	draws := 0
	for _, tok := range tokens {
		if err := s.brush.Apply(s.canvas, tok); err != nil {
			// Canvas primitive failure is the one unrecoverable path:
			// flush what we have and terminate.
			s.logger.Error("canvas failure", "step", s.step, "err", err)
			return fmt.Errorf("cycle %d: %w", s.step, err)
		}
		if tok.Drawing() {
			draws++
		}
	}

	sample := s.analyzer.Sample(s.canvas, s.brush.Dirty(), s.brush.Pos, s.step)

	decision := s.policy.Advise(policy.CycleStats{
		Sample:      sample,
		Tool:        s.brush.Tool,
		Pace:        s.brush.Pace,
		PauseTokens: s.brush.Pauses(),
		DrawTokens:  draws,
	})
	if decision.ToolChanged {
		s.brush.Tool = decision.Tool
		s.logger.Info("tool change", "step", s.step, "tool", decision.Tool, "reason", decision.Reason)
	} else if decision.PaceChanged {
		s.brush.SetPace(decision.Pace)
	}

	rec := memory.Record{
		Step:     s.step,
		Code:     code,
		Tokens:   len(tokens),
		Coverage: sample,
		Tool:     s.brush.Tool.String(),
		Color:    s.brush.Color.String(),
		Pace:     s.brush.Pace,
		Stamps:   s.brush.Stamps(),
		Pauses:   s.brush.Pauses(),
		At:       time.Now(),
	}

	// The in-memory append happens before the next cycle starts so the
	// prompt and policy always see their own writes; disk persistence is
	// asynchronous.
	s.log.Append(rec)
	for _, m := range s.metrics {
		m.Observe(rec)
	}
	s.persist(rec)

	nextFrame := s.encoder.EncodeWithBrush(s.canvas, s.brush.Pos, s.brush.PenDown)
	for _, obs := range s.observers {
		obs.OnCycle(rec, nextFrame)
	}

	s.step++
	return nil
}

func (s *Session) persist(rec memory.Record) {
	if s.persistCh == nil {
		return
	}
	req := persistReq{rec: rec}
	if s.cfg.Checkpoint > 0 && (s.step+1)%s.cfg.Checkpoint == 0 {
		// Snapshot synchronously; the worker only does the disk write.
		req.snapshot = s.canvas.Image()
		meta := s.meta()
		req.meta = &meta
	}
	s.persistCh <- req
}

func (s *Session) persistWorker() {
	defer close(s.persistDone)
	for req := range s.persistCh {
		if err := s.store.AppendRecords(s.id, []memory.Record{req.rec}); err != nil {
			s.logger.Warn("record persist failed", "session", s.id, "err", err)
		}
		if req.snapshot != nil {
			if err := s.store.SaveImage(s.id, req.snapshot); err != nil {
				s.logger.Warn("canvas snapshot failed", "session", s.id, "err", err)
			}
		}
		if req.meta != nil {
			if err := s.store.SaveMeta(*req.meta); err != nil {
				s.logger.Warn("metadata persist failed", "session", s.id, "err", err)
			}
		}
	}
}

// terminate drains pending persistence and writes the final state. Called on
// every exit path, including fatal canvas errors, so memory is never lost.
func (s *Session) terminate() *Result {
	s.phase = PhaseTerminated

	if s.persistCh != nil {
		close(s.persistCh)
		<-s.persistDone
		s.persistCh = nil

		if err := s.store.SaveMeta(s.meta()); err != nil {
			s.logger.Warn("final metadata write failed", "session", s.id, "err", err)
		}
		if err := s.store.SaveCanvas(s.id, s.canvas); err != nil {
			s.logger.Warn("final canvas write failed", "session", s.id, "err", err)
		}
	}

	result := &Result{
		SessionID: s.id,
		Cycles:    s.log.Len(),
		Skipped:   s.skipped,
		Coverage:  s.canvas.OccupiedRatio(s.canvas.Bounds()),
		Metrics:   make(map[string]float64, len(s.metrics)),
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result
}

func (s *Session) meta() storage.SessionMeta {
	vals := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		vals[m.Name()] = m.Value()
	}
	w, h := s.canvas.Dimensions()
	return storage.SessionMeta{
		ID:           s.id,
		CreatedAt:    s.created,
		CanvasWidth:  w,
		CanvasHeight: h,
		Cycles:       s.log.Len(),
		Tool:         s.brush.Tool.String(),
		Color:        s.brush.Color.String(),
		Pace:         s.brush.Pace,
		PenDown:      s.brush.PenDown,
		PosX:         s.brush.Pos.X,
		PosY:         s.brush.Pos.Y,
		Metrics:      vals,
	}
}

func (s *Session) prompt(frame string) oracle.Prompt {
	p := oracle.Prompt{
		Vision:   frame,
		Overview: vision.Overview(s.canvas),
		Status:   s.status(),
		MaxLen:   s.cfg.MaxCodeLen,
	}
	for _, rec := range s.log.Recent(s.cfg.RecentRecords) {
		p.Recent = append(p.Recent, summarize(rec))
	}
	if s.log.Len() == 0 {
		p.Examples = oracle.Examples
	}
	return p
}

func (s *Session) status() string {
	pen := "up"
	if s.brush.PenDown {
		pen = "down"
	}
	return fmt.Sprintf("Brush at (%d,%d), pen %s, tool %s, color %s, pace %.2f.",
		s.brush.Pos.X, s.brush.Pos.Y, pen, s.brush.Tool, s.brush.Color, s.brush.Pace)
}

func summarize(rec memory.Record) string {
	return fmt.Sprintf("step %d: %q -> %d tokens, %d stamps, coverage %.2f",
		rec.Step, rec.Code, rec.Tokens, rec.Stamps, rec.Coverage.Ratio)
}
