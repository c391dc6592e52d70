// Package storage persists session artifacts: metadata, the append-only
// cycle record log, and canvas snapshots. The record log is line-delimited
// JSON so a torn final write after a crash loses at most one record and
// never corrupts the ones before it.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/opcanvas/internal/canvas"
	"github.com/san-kum/opcanvas/internal/memory"
)

const (
	metaFile    = "metadata.json"
	recordsFile = "records.jsonl"
	canvasFile  = "canvas.png"
)

// SessionMeta is the per-session summary record, rewritten on checkpoint.
type SessionMeta struct {
	ID           string             `json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	CanvasWidth  int                `json:"canvas_width"`
	CanvasHeight int                `json:"canvas_height"`
	Cycles       int                `json:"cycles"`
	Tool         string             `json:"tool"`
	Color        string             `json:"color"`
	Pace         float64            `json:"pace"`
	PenDown      bool               `json:"pen_down"`
	PosX         int                `json:"pos_x"`
	PosY         int                `json:"pos_y"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// NewSessionID builds a sortable session identifier.
func NewSessionID() string {
	return time.Now().UTC().Format("20060102T150405") + "_" + uuid.NewString()[:8]
}

type Store struct {
	baseDir string
	log     *slog.Logger
}

func New(baseDir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{baseDir: baseDir, log: log}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) sessionDir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// Create makes the session directory and writes the initial metadata.
func (s *Store) Create(meta SessionMeta) error {
	if err := os.MkdirAll(s.sessionDir(meta.ID), 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return s.SaveMeta(meta)
}

func (s *Store) SaveMeta(meta SessionMeta) error {
	meta.UpdatedAt = time.Now()
	path := filepath.Join(s.sessionDir(meta.ID), metaFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (s *Store) LoadMeta(id string) (*SessionMeta, error) {
	data, err := os.ReadFile(filepath.Join(s.sessionDir(id), metaFile))
	if err != nil {
		return nil, err
	}
	var meta SessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata for %s: %w", id, err)
	}
	return &meta, nil
}

// AppendRecords appends cycle records to the session's jsonl log.
func (s *Store) AppendRecords(id string, recs []memory.Record) error {
	if len(recs) == 0 {
		return nil
	}
	path := filepath.Join(s.sessionDir(id), recordsFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open record log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("append record %d: %w", rec.Step, err)
		}
	}
	return w.Flush()
}

// LoadRecords reads the record log back, oldest first. A missing log yields
// an empty slice; unparseable lines (a torn final write, stray corruption)
// are skipped with a warning so a damaged store degrades instead of failing
// startup.
func (s *Store) LoadRecords(id string) ([]memory.Record, error) {
	path := filepath.Join(s.sessionDir(id), recordsFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var recs []memory.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec memory.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.log.Warn("skipping corrupt record", "session", id, "line", line, "err", err)
			continue
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return recs, fmt.Errorf("scan record log: %w", err)
	}
	return recs, nil
}

// SaveCanvas snapshots the canvas as a PNG.
func (s *Store) SaveCanvas(id string, c *canvas.Canvas) error {
	return s.SaveImage(id, c.Image())
}

// SaveImage writes an already-rendered snapshot, for callers that capture
// the image on one goroutine and flush it on another.
func (s *Store) SaveImage(id string, img image.Image) error {
	path := filepath.Join(s.sessionDir(id), canvasFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write canvas: %w", err)
	}
	defer f.Close()
	return png.Encode(f, img)
}

// LoadCanvas restores a snapshot into c. Missing snapshots return
// os.ErrNotExist so callers can start from a blank canvas.
func (s *Store) LoadCanvas(id string, c *canvas.Canvas) error {
	f, err := os.Open(filepath.Join(s.sessionDir(id), canvasFile))
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return fmt.Errorf("decode canvas snapshot: %w", err)
	}
	c.SetImage(img)
	return nil
}

// CanvasPath returns where the session's snapshot lives, for export commands.
func (s *Store) CanvasPath(id string) string {
	return filepath.Join(s.sessionDir(id), canvasFile)
}

// List returns metadata for every stored session, newest first.
func (s *Store) List() ([]SessionMeta, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMeta{}, nil
		}
		return nil, err
	}

	sessions := make([]SessionMeta, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.LoadMeta(entry.Name())
		if err != nil {
			s.log.Warn("skipping unreadable session", "session", entry.Name(), "err", err)
			continue
		}
		sessions = append(sessions, *meta)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}
