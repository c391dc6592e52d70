package session

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/opcanvas/internal/canvas"
	"github.com/san-kum/opcanvas/internal/config"
	"github.com/san-kum/opcanvas/internal/memory"
	"github.com/san-kum/opcanvas/internal/metrics"
	"github.com/san-kum/opcanvas/internal/oracle"
	"github.com/san-kum/opcanvas/internal/storage"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.CanvasWidth = 32
	cfg.CanvasHeight = 32
	cfg.VisionCols = 16
	cfg.VisionRows = 8
	cfg.Cycles = 10
	cfg.Checkpoint = 2
	return cfg
}

// flakyOracle fails a fixed number of calls before delegating.
type flakyOracle struct {
	failures int
	inner    oracle.Oracle
}

func (f *flakyOracle) Next(ctx context.Context, p oracle.Prompt) (string, error) {
	if f.failures > 0 {
		f.failures--
		return "", errors.New("oracle offline")
	}
	return f.inner.Next(ctx, p)
}

// recorder collects observer callbacks.
type recorder struct {
	records []memory.Record
	frames  []string
}

func (r *recorder) OnCycle(rec memory.Record, frame string) {
	r.records = append(r.records, rec)
	r.frames = append(r.frames, frame)
}

func TestRunExecutesScript(t *testing.T) {
	codes := []string{"red533333", "0000", "blue52222", "4111153333"}
	s, err := New(testConfig(), oracle.NewScript(codes), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cycles != len(codes) {
		t.Errorf("expected %d cycles, got %d", len(codes), result.Cycles)
	}
	if s.Phase() != PhaseTerminated {
		t.Errorf("expected terminated phase, got %s", s.Phase())
	}
	if result.Coverage <= 0 {
		t.Error("expected painted canvas after pen-down moves")
	}
	if result.Metrics["stamps"] <= 0 {
		t.Errorf("expected positive stamp metric, got %v", result.Metrics["stamps"])
	}
	if s.Memory().Len() != len(codes) {
		t.Errorf("expected %d records, got %d", len(codes), s.Memory().Len())
	}
}

func TestRecordsCarryBrushState(t *testing.T) {
	s, _ := New(testConfig(), oracle.NewScript([]string{"orange53333"}), nil)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, ok := s.Memory().Last()
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Color != "orange" {
		t.Errorf("expected color orange, got %s", rec.Color)
	}
	if rec.Stamps != 4 {
		t.Errorf("expected 4 stamps, got %d", rec.Stamps)
	}
	if rec.Coverage.Ratio <= 0 {
		t.Error("expected a positive coverage sample for a painting cycle")
	}
}

func TestOracleFailureSkipsCycle(t *testing.T) {
	orc := &flakyOracle{failures: 2, inner: oracle.NewScript([]string{"533", "533"})}
	s, _ := New(testConfig(), orc, nil)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("oracle failures must be recoverable: %v", err)
	}
	if result.Skipped != 2 {
		t.Errorf("expected 2 skipped cycles, got %d", result.Skipped)
	}
	if result.Cycles != 2 {
		t.Errorf("expected 2 completed cycles, got %d", result.Cycles)
	}
}

func TestCodeTruncatedToProtocolCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCodeLen = 10
	s, _ := New(cfg, oracle.NewScript([]string{"red533333orange522222"}), nil)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, _ := s.Memory().Last()
	if len(rec.Code) != 10 {
		t.Errorf("expected code truncated to 10 chars, got %d (%q)", len(rec.Code), rec.Code)
	}
}

func TestOpsPerCycleCapsTokens(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCodeLen = 40
	cfg.OpsPerCycle = 5
	s, _ := New(cfg, oracle.NewScript([]string{"533333333333333333"}), nil)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, _ := s.Memory().Last()
	if rec.Tokens != 5 {
		t.Errorf("expected 5 executed tokens, got %d", rec.Tokens)
	}
}

func TestCancelStopsBetweenCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	codes := make([]string, 100)
	for i := range codes {
		codes[i] = "53333"
	}
	cfg := testConfig()
	cfg.Cycles = 100

	s, _ := New(cfg, oracle.NewScript(codes), nil)
	s.AddObserver(observerFunc(func(rec memory.Record, _ string) {
		if rec.Step == 3 {
			cancel()
		}
	}))

	result, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("cancellation must end the run cleanly: %v", err)
	}
	if result.Cycles != 4 {
		t.Errorf("expected 4 cycles before stop, got %d", result.Cycles)
	}
	if s.Phase() != PhaseTerminated {
		t.Errorf("expected terminated phase, got %s", s.Phase())
	}
}

type observerFunc func(memory.Record, string)

func (f observerFunc) OnCycle(rec memory.Record, frame string) { f(rec, frame) }

func TestObserversSeeEveryCycle(t *testing.T) {
	obs := &recorder{}
	s, _ := New(testConfig(), oracle.NewScript([]string{"533", "522", "511"}), nil)
	s.AddObserver(obs)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(obs.records) != 3 {
		t.Fatalf("expected 3 callbacks, got %d", len(obs.records))
	}
	for i, rec := range obs.records {
		if rec.Step != i {
			t.Errorf("expected step %d, got %d", i, rec.Step)
		}
	}
	if obs.frames[0] == "" {
		t.Error("expected a vision frame with each callback")
	}
}

func TestSessionRunsOnce(t *testing.T) {
	s, _ := New(testConfig(), oracle.NewScript([]string{"533"}), nil)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Run(context.Background()); err == nil {
		t.Error("expected error on second run")
	}
}

func TestPersistAndResume(t *testing.T) {
	store := storage.New(t.TempDir(), nil)
	if err := store.Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := New(testConfig(), oracle.NewScript([]string{"red533333", "0000", "522223"}), nil)
	first.AttachStore(store)
	result, err := first.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta, err := store.LoadMeta(result.SessionID)
	if err != nil {
		t.Fatalf("expected persisted metadata: %v", err)
	}
	if meta.Cycles != 3 {
		t.Errorf("expected 3 cycles in metadata, got %d", meta.Cycles)
	}
	if meta.Color != "red" {
		t.Errorf("expected color red in metadata, got %s", meta.Color)
	}
	recs, err := store.LoadRecords(result.SessionID)
	if err != nil || len(recs) != 3 {
		t.Fatalf("expected 3 persisted records, got %d (err=%v)", len(recs), err)
	}

	resumed, _ := New(testConfig(), oracle.NewScript([]string{"53333"}), nil)
	if err := resumed.Resume(store, result.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resumed.Memory().Len() != 3 {
		t.Errorf("expected 3 reloaded records, got %d", resumed.Memory().Len())
	}
	if resumed.Brush().Color.String() != "red" {
		t.Errorf("expected brush color red after resume, got %s", resumed.Brush().Color)
	}
	if !resumed.Canvas().Occupied(meta.PosX, meta.PosY) {
		t.Error("expected restored canvas painted at the last brush position")
	}

	if _, err := resumed.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, _ := resumed.Memory().Last()
	if rec.Step != 3 {
		t.Errorf("expected resumed run to continue at step 3, got %d", rec.Step)
	}
	recs, _ = store.LoadRecords(result.SessionID)
	if len(recs) != 4 {
		t.Errorf("expected 4 records after resumed run, got %d", len(recs))
	}
}

func TestResumeAdoptsStoredCanvasSize(t *testing.T) {
	store := storage.New(t.TempDir(), nil)
	if err := store.Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := New(testConfig(), oracle.NewScript([]string{"red533333", "511111", "522222"}), nil)
	first.AttachStore(store)
	result, err := first.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	painted, _ := first.Canvas().ReadRegion(first.Canvas().Bounds())
	if painted == 0 {
		t.Fatal("expected a painted canvas before resume")
	}

	small := testConfig()
	small.CanvasWidth = 16
	small.CanvasHeight = 16
	resumed, _ := New(small, oracle.NewScript([]string{"40123"}), nil)
	if err := resumed.Resume(store, result.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w, h := resumed.Canvas().Dimensions(); w != 32 || h != 32 {
		t.Fatalf("expected resumed canvas 32x32, got %dx%d", w, h)
	}
	if got, _ := resumed.Canvas().ReadRegion(resumed.Canvas().Bounds()); got != painted {
		t.Errorf("expected %d restored pixels, got %d", painted, got)
	}

	if _, err := resumed.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meta, err := store.LoadMeta(result.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.CanvasWidth != 32 || meta.CanvasHeight != 32 {
		t.Errorf("expected stored dimensions 32x32, got %dx%d", meta.CanvasWidth, meta.CanvasHeight)
	}
	stored, err := canvas.New(meta.CanvasWidth, meta.CanvasHeight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.LoadCanvas(result.SessionID, stored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := stored.ReadRegion(stored.Bounds()); got != painted {
		t.Errorf("expected %d pixels in the stored canvas, got %d", painted, got)
	}
}

func TestRunResetsSeededMetrics(t *testing.T) {
	s, _ := New(testConfig(), oracle.NewScript([]string{"53333"}), nil)
	stale := metrics.NewStampCount()
	stale.Observe(memory.Record{Stamps: 50})
	s.AddMetric(stale)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stale.Value(); got != 4 {
		t.Errorf("expected 4 stamps from this run, got %v", got)
	}
}

func TestResumeReplaysMetricsFromScratch(t *testing.T) {
	store := storage.New(t.TempDir(), nil)
	if err := store.Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := New(testConfig(), oracle.NewScript([]string{"red533333"}), nil)
	first.AttachStore(store)
	result, err := first.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resumed, _ := New(testConfig(), oracle.NewScript([]string{"0000"}), nil)
	stale := metrics.NewStampCount()
	stale.Observe(memory.Record{Stamps: 50})
	resumed.AddMetric(stale)
	if err := resumed.Resume(store, result.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stale.Value(); got != 4 {
		t.Errorf("expected 4 stamps replayed from the record log, got %v", got)
	}
}

func TestPenUpCyclesLeaveCanvasBlank(t *testing.T) {
	codes := make([]string, 50)
	for i := range codes {
		codes[i] = "0123"
	}
	cfg := testConfig()
	cfg.Cycles = 50

	s, _ := New(cfg, oracle.NewScript(codes), nil)
	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Coverage != 0 {
		t.Errorf("expected blank canvas, got coverage %f", result.Coverage)
	}
	if result.Metrics["stamps"] != 0 {
		t.Errorf("expected zero stamps, got %v", result.Metrics["stamps"])
	}
	for _, rec := range s.Memory().All() {
		if rec.Coverage.Ratio != 0 {
			t.Fatalf("step %d: expected coverage 0, got %f", rec.Step, rec.Coverage.Ratio)
		}
	}
}

func TestRejectsMissingOracle(t *testing.T) {
	if _, err := New(testConfig(), nil, nil); err == nil {
		t.Error("expected error for nil oracle")
	}
}
