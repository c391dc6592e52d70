package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/opcanvas/internal/canvas"
	"github.com/san-kum/opcanvas/internal/config"
	"github.com/san-kum/opcanvas/internal/memory"
	"github.com/san-kum/opcanvas/internal/opcode"
	"github.com/san-kum/opcanvas/internal/oracle"
	"github.com/san-kum/opcanvas/internal/session"
	"github.com/san-kum/opcanvas/internal/storage"
	"github.com/san-kum/opcanvas/internal/vision"
	"github.com/san-kum/opcanvas/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	canvasSize int
	cycles     int
	turbo      int
	backend    string
	baseURL    string
	modelName  string
	sessionID  string
	colorView  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "opcanvas",
		Short: "adaptive drawing loop driven by a generative oracle",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".opcanvas", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless drawing session",
		RunE:  runSession,
	}
	addSessionFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a session with a live terminal view",
		RunE:  runLive,
	}
	addSessionFlags(liveCmd)

	replayCmd := &cobra.Command{
		Use:   "replay [session_id]",
		Short: "re-execute a stored session's codes deterministically",
		Args:  cobra.ExactArgs(1),
		RunE:  replaySession,
	}
	replayCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored sessions",
		RunE:  listSessions,
	}

	showCmd := &cobra.Command{
		Use:   "show [session_id]",
		Short: "print the ASCII vision of a stored canvas",
		Args:  cobra.ExactArgs(1),
		RunE:  showSession,
	}
	showCmd.Flags().BoolVar(&colorView, "color", false, "show dominant-color letters instead of density")

	coverageCmd := &cobra.Command{
		Use:   "coverage [session_id]",
		Short: "plot the coverage history of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  plotCoverage,
	}

	tokensCmd := &cobra.Command{
		Use:   "tokens [code]",
		Short: "tokenize an operation code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, tok := range opcode.Lex(args[0]) {
				fmt.Printf("%3d  %s\n", i, tok)
			}
			return nil
		},
	}

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [session_id] [out.png]",
		Short: "export a stored canvas snapshot",
		Args:  cobra.ExactArgs(2),
		RunE:  exportPNG,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list named configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, replayCmd, listCmd, showCmd, coverageCmd, tokensCmd, exportPNGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "named preset configuration")
	cmd.Flags().IntVar(&canvasSize, "canvas", config.DefaultCanvasSize, "square canvas size in pixels")
	cmd.Flags().IntVar(&cycles, "cycles", config.DefaultCycles, "number of drawing cycles")
	cmd.Flags().IntVar(&turbo, "turbo", 0, "ops-per-cycle multiplier")
	cmd.Flags().StringVar(&backend, "backend", "", "oracle backend (chat)")
	cmd.Flags().StringVar(&baseURL, "url", "", "oracle endpoint base url")
	cmd.Flags().StringVar(&modelName, "model", "", "oracle model name")
	cmd.Flags().StringVar(&sessionID, "session", "", "resume a stored session")
}

// buildConfig layers preset, config file and flags, flags winning.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("canvas") {
		cfg.CanvasWidth = canvasSize
		cfg.CanvasHeight = canvasSize
	}
	if cmd.Flags().Changed("cycles") {
		cfg.Cycles = cycles
	}
	if cmd.Flags().Changed("turbo") {
		cfg.Turbo = turbo
	}
	if cmd.Flags().Changed("backend") {
		cfg.Oracle.Backend = backend
	}
	if cmd.Flags().Changed("url") {
		cfg.Oracle.BaseURL = baseURL
	}
	if cmd.Flags().Changed("model") {
		cfg.Oracle.Model = modelName
	}
	return cfg, cfg.Validate()
}

func buildOracle(cfg *config.Config) (oracle.Oracle, error) {
	switch cfg.Oracle.Backend {
	case "", "chat":
		return oracle.NewChat(oracle.ChatOptions{
			BaseURL: cfg.Oracle.BaseURL,
			Model:   cfg.Oracle.Model,
			APIKey:  os.Getenv(cfg.Oracle.APIKeyEnv),
		}, nil), nil
	default:
		return nil, fmt.Errorf("unknown oracle backend: %s", cfg.Oracle.Backend)
	}
}

// buildSession assembles the full pipeline behind run and live.
func buildSession(cmd *cobra.Command) (*session.Session, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	orc, err := buildOracle(cfg)
	if err != nil {
		return nil, err
	}

	st := storage.New(dataDir, nil)
	if err := st.Init(); err != nil {
		return nil, err
	}

	sess, err := session.New(cfg, orc, nil)
	if err != nil {
		return nil, err
	}
	if sessionID != "" {
		if err := sess.Resume(st, sessionID); err != nil {
			return nil, err
		}
	} else {
		sess.AttachStore(st)
	}
	return sess, nil
}

func runSession(cmd *cobra.Command, args []string) error {
	sess, err := buildSession(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("session %s\n", sess.ID())
	start := time.Now()

	result, err := sess.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("cycles: %d (skipped %d)\n", result.Cycles, result.Skipped)
	fmt.Printf("canvas coverage: %.1f%%\n", 100*result.Coverage)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.4f\n", name, val)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	sess, err := buildSession(cmd)
	if err != nil {
		return err
	}
	result, err := viz.Live(context.Background(), sess)
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Printf("session %s: %d cycles, %.1f%% coverage\n",
			result.SessionID, result.Cycles, 100*result.Coverage)
	}
	return nil
}

// replaySession re-runs a stored session's codes through a fresh pipeline.
// The same codes against the same defaults reproduce the same canvas.
func replaySession(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, nil)
	meta, err := st.LoadMeta(args[0])
	if err != nil {
		return err
	}
	recs, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("session %s has no records to replay", args[0])
	}

	codes := make([]string, len(recs))
	for i, rec := range recs {
		codes[i] = rec.Code
	}

	cfg := config.Default()
	if configFile != "" {
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
	}
	cfg.CanvasWidth = meta.CanvasWidth
	cfg.CanvasHeight = meta.CanvasHeight
	cfg.Cycles = len(codes)

	sess, err := session.New(cfg, oracle.NewScript(codes), nil)
	if err != nil {
		return err
	}
	result, err := sess.Run(context.Background())
	if err != nil {
		return err
	}

	enc := vision.New(cfg.VisionCols, cfg.VisionRows)
	fmt.Println(enc.Encode(sess.Canvas()))
	fmt.Println()
	fmt.Println(vision.Overview(sess.Canvas()))
	fmt.Printf("replayed %d cycles, %.1f%% coverage\n", result.Cycles, 100*result.Coverage)
	return nil
}

func listSessions(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, nil)
	sessions, err := st.List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tCYCLES\tCANVAS\tTOOL\tCOLOR\tPACE")
	for _, meta := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%dx%d\t%s\t%s\t%.2f\n",
			meta.ID,
			meta.CreatedAt.Format("2006-01-02 15:04:05"),
			meta.Cycles,
			meta.CanvasWidth,
			meta.CanvasHeight,
			meta.Tool,
			meta.Color,
			meta.Pace,
		)
	}
	return w.Flush()
}

func showSession(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, nil)
	c, err := loadSessionCanvas(st, args[0])
	if err != nil {
		return err
	}

	enc := vision.New(config.DefaultVisionCols, config.DefaultVisionRows)
	if colorView {
		fmt.Println(enc.EncodeColor(c))
	} else {
		fmt.Println(enc.Encode(c))
	}
	fmt.Println()
	fmt.Println(vision.Overview(c))
	return nil
}

func plotCoverage(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, nil)
	recs, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("session %s has no coverage history", args[0])
	}

	data := make([]float64, len(recs))
	for i, rec := range recs {
		data[i] = rec.Coverage.Ratio
	}
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("coverage ratio per cycle"),
	))
	fmt.Println()
	return printUsage(recs)
}

func printUsage(recs []memory.Record) error {
	tools := make(map[string]int)
	colors := make(map[string]int)
	for _, rec := range recs {
		tools[rec.Tool]++
		colors[rec.Color]++
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tCYCLES")
	for name, n := range tools {
		fmt.Fprintf(w, "%s\t%d\n", name, n)
	}
	fmt.Fprintln(w, "\nCOLOR\tCYCLES")
	for name, n := range colors {
		fmt.Fprintf(w, "%s\t%d\n", name, n)
	}
	return w.Flush()
}

func exportPNG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, nil)
	data, err := os.ReadFile(st.CanvasPath(args[0]))
	if err != nil {
		return fmt.Errorf("no canvas snapshot for session %s: %w", args[0], err)
	}
	if err := os.WriteFile(args[1], data, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func loadSessionCanvas(st *storage.Store, id string) (*canvas.Canvas, error) {
	meta, err := st.LoadMeta(id)
	if err != nil {
		return nil, err
	}
	c, err := canvas.New(meta.CanvasWidth, meta.CanvasHeight)
	if err != nil {
		return nil, err
	}
	if err := st.LoadCanvas(id, c); err != nil {
		return nil, fmt.Errorf("load canvas for %s: %w", id, err)
	}
	return c, nil
}
