package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/blobsim/internal/analysis"
	"github.com/san-kum/blobsim/internal/config"
	"github.com/san-kum/blobsim/internal/export"
	"github.com/san-kum/blobsim/internal/gui"
	"github.com/san-kum/blobsim/internal/logging"
	"github.com/san-kum/blobsim/internal/metrics"
	"github.com/san-kum/blobsim/internal/optim"
	"github.com/san-kum/blobsim/internal/sim"
	"github.com/san-kum/blobsim/internal/storage"
	"github.com/san-kum/blobsim/internal/viz"
	"github.com/san-kum/blobsim/internal/world"
)

var (
	dataDir    string
	configPath string
	logLevel   string
	logDev     bool

	preset        string
	numBlobs      int
	width         int
	height        int
	dt            float64
	duration      float64
	seed          int64
	snapshotEvery int
	stopOnInvalid bool

	fps        int
	recordPath string
	scale      int

	outPath     string
	svgScale    float64
	svgTrails   bool
	svgBraille  bool
	snapshotIdx int

	benchRuns int

	sweepParams []string
	sweepMetric string

	log *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blobsim",
		Short: "2d blob repulsion simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel, logDev)
			if err != nil {
				return err
			}
			log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".blobsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "yaml/json config file, polled for changes")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logDev, "log-dev", false, "human readable logs")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		RunE:  runSimulation,
	}
	addWorldFlags(runCmd)
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration")
	runCmd.Flags().IntVar(&snapshotEvery, "snapshot-every", 1, "store every nth tick")
	runCmd.Flags().BoolVar(&stopOnInvalid, "stop-on-invalid", false, "stop at the first non-finite blob")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "braille live view in the terminal",
		RunE:  runLive,
	}
	addWorldFlags(liveCmd)
	liveCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frames (and ticks) per second")
	liveCmd.Flags().StringVar(&recordPath, "record", "", "record to this gif from the start (g toggles)")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "open the simulation in a window",
		RunE:  runGUI,
	}
	addWorldFlags(guiCmd)
	guiCmd.Flags().IntVar(&scale, "scale", gui.DefaultScale, "window pixels per world pixel")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot <run-id>",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv <run-id>",
		Short: "write a run's states as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json <run-id>",
		Short: "write a run's metadata and states as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg <run-id>",
		Short: "render a stored snapshot as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().Float64Var(&svgScale, "scale", 2, "svg units per world pixel")
	exportSVGCmd.Flags().BoolVar(&svgTrails, "trails", false, "draw every blob's path instead of one snapshot")
	exportSVGCmd.Flags().BoolVar(&svgBraille, "braille", false, "render through the braille canvas")
	exportSVGCmd.Flags().IntVar(&snapshotIdx, "snapshot", -1, "snapshot index, negative counts from the end")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "write the default config file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "run seeded worlds in parallel and report throughput",
		RunE:  runBench,
	}
	addWorldFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchRuns, "runs", runtime.GOMAXPROCS(0), "number of worlds")
	benchCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	benchCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search physics constants for the lowest metric",
		Long: "Each --param is name=lo:hi:n, for example repel_force=10:80:8.\n" +
			"Parameters: " + strings.Join(optim.Params(), ", "),
		RunE: runSweep,
	}
	addWorldFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	sweepCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration per point")
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter range name=lo:hi:n (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "kinetic_energy", "metric to minimise")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, listCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, initCmd, benchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addWorldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "preset name (see presets)")
	cmd.Flags().IntVar(&numBlobs, "blobs", config.DefaultBlobs, "number of blobs")
	cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "world width")
	cmd.Flags().IntVar(&height, "height", config.DefaultHeight, "world height")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 for time based")
}

// loadConfig layers the preset, the config file and then any flag the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.File, error) {
	cfg := config.Default()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
		cfg = p
	}

	if configPath != "" {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}

	flags := cmd.Flags()
	if flags.Changed("blobs") {
		cfg.World.Blobs = numBlobs
	}
	if flags.Changed("width") {
		cfg.World.Width = width
	}
	if flags.Changed("height") {
		cfg.World.Height = height
	}
	if flags.Changed("seed") {
		cfg.World.Seed = seed
	}
	if flags.Lookup("dt") != nil && flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Lookup("time") != nil && flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Lookup("fps") != nil && flags.Changed("fps") {
		cfg.Run.FPS = fps
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// watcher returns a reloader for --config, or nil when none was given.
func watcher() (sim.Reloader, error) {
	if configPath == "" {
		return nil, nil
	}
	w, err := config.NewWatcher(configPath)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.World.Seed == 0 {
		cfg.World.Seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := cfg.NewWorld()
	runner := sim.New(w, log)
	for _, m := range metrics.Default() {
		runner.AddMetric(m)
	}
	rl, err := watcher()
	if err != nil {
		return err
	}
	if rl != nil {
		runner.SetReloader(rl, cfg.Run.ReloadInterval)
	}

	log.Info("starting run",
		zap.String("preset", preset),
		zap.Int("blobs", cfg.World.Blobs),
		zap.Int64("seed", cfg.World.Seed),
		zap.Float64("dt", cfg.Run.Dt),
		zap.Float64("duration", cfg.Run.Duration),
	)

	start := time.Now()
	result, err := runner.Run(ctx, sim.Config{
		Dt:            cfg.Run.Dt,
		Duration:      cfg.Run.Duration,
		SnapshotEvery: snapshotEvery,
		StopOnInvalid: stopOnInvalid,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunInfo{
		Preset:   preset,
		Seed:     cfg.World.Seed,
		Width:    cfg.World.Width,
		Height:   cfg.World.Height,
		Blobs:    cfg.World.Blobs,
		Dt:       cfg.Run.Dt,
		Duration: cfg.Run.Duration,
		Physics:  cfg.Constants,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("snapshots: %d\n", len(result.Snapshots))
	for _, e := range result.Errors {
		fmt.Printf("warning: %v\n", e)
	}

	if len(result.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		names := make([]string, 0, len(result.Metrics))
		for name := range result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.4f\n", name, result.Metrics[name])
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rl, err := watcher()
	if err != nil {
		return err
	}
	return viz.Run(cfg.NewWorld(), viz.Options{
		FPS:         cfg.Run.FPS,
		Reloader:    rl,
		ReloadEvery: cfg.Run.ReloadInterval,
		RecordPath:  recordPath,
		Log:         log,
	})
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rl, err := watcher()
	if err != nil {
		return err
	}
	if cfg.World.Width > cfg.World.Height {
		log.Warn("frame rows are strided by the arena height, columns past it wrap into the next row",
			zap.Int("width", cfg.World.Width),
			zap.Int("height", cfg.World.Height))
	}
	return gui.Run(cfg.NewWorld(), gui.Options{
		Scale:       scale,
		Reloader:    rl,
		ReloadEvery: cfg.Run.ReloadInterval,
		Log:         log,
	})
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tBLOBS\tSIZE\tDURATION\tSTEPS\tTIMESTAMP")
	for _, r := range runs {
		p := r.Preset
		if p == "" {
			p = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%dx%d\t%.2f\t%d\t%s\n",
			r.ID, p, r.Blobs, r.Width, r.Height, r.Duration, r.StepsTaken,
			r.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snaps, times, err := st.LoadSnapshots(runID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("blobs: %d\n", meta.Blobs)
	fmt.Printf("samples: %d (t=%.3f..%.3f)\n\n", len(snaps), times[0], times[len(times)-1])

	speed := make([]float64, len(snaps))
	energy := make([]float64, len(snaps))
	for i, snap := range snaps {
		var sum, ke float64
		for _, b := range snap {
			m := b.Velocity.Magnitude()
			sum += m
			ke += 0.5 * m * m
		}
		if len(snap) > 0 {
			speed[i] = sum / float64(len(snap))
		}
		energy[i] = ke
	}

	for _, series := range []struct {
		caption string
		data    []float64
	}{
		{"mean speed", speed},
		{"kinetic energy", energy},
	} {
		if !finite(series.data) {
			fmt.Printf("%s: non-finite values, skipped\n\n", series.caption)
			continue
		}
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		if len(times) > 1 {
			step := (times[len(times)-1] - times[0]) / float64(len(times)-1)
			if f := analysis.DominantFrequency(series.data, step); f > 0 {
				fmt.Printf("dominant frequency: %.3f Hz\n", f)
			}
		}
		fmt.Println()
	}
	return nil
}

func finite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// output returns stdout or the --out file.
func output() (io.Writer, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportCSV(w, args[0]); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.New(dataDir).ExportJSON(w, args[0]); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snaps, _, err := st.LoadSnapshots(runID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("run %s has no snapshots", runID)
	}

	idx := snapshotIdx
	if idx < 0 {
		idx += len(snaps)
	}
	if idx < 0 || idx >= len(snaps) {
		return fmt.Errorf("snapshot %d out of range [0, %d)", snapshotIdx, len(snaps))
	}

	var doc string
	switch {
	case svgTrails:
		doc = export.TrailsToSVG(meta.Width, meta.Height, snaps, svgScale)
	case svgBraille:
		canvas := viz.NewCanvas((meta.Width+1)/2, (meta.Height+3)/4)
		for _, b := range snaps[idx] {
			if b.Position.IsFinite() {
				canvas.Set(int(b.Position.X), int(b.Position.Y))
			}
		}
		doc = export.CanvasToSVG(canvas, svgScale)
	default:
		doc = export.SnapshotToSVG(meta.Width, meta.Height, meta.Physics.BlobSize, snaps[idx], svgScale)
	}

	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, doc); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBLOBS\tREPEL\tDISTANCE\tFRICTION\tMODEL")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		model := p.FrictionModel
		if model == "" {
			model = string(world.FrictionDrag)
		}
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.1f\t%s\n",
			name, p.World.Blobs, p.RepelForce, p.RepelDistance, p.FrictionForce, model)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s", preset)
		}
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if benchRuns <= 0 {
		return fmt.Errorf("--runs must be positive")
	}

	build := func(s int64) *world.World {
		w := world.NewSeeded(cfg.World.Width, cfg.World.Height, cfg.Physics(), s)
		w.AddRandomBlobs(cfg.World.Blobs)
		return w
	}
	seedStart := cfg.World.Seed
	if seedStart == 0 {
		seedStart = 1
	}

	ens := sim.NewEnsemble(build, benchRuns, seedStart).
		WithMetrics(metrics.Default).
		WithLogger(log)

	fmt.Printf("benchmarking %d worlds of %d blobs\n\n", benchRuns, cfg.World.Blobs)

	start := time.Now()
	results, err := ens.Run(context.Background(), sim.Config{
		Dt:            cfg.Run.Dt,
		Duration:      cfg.Run.Duration,
		SnapshotEvery: math.MaxInt32,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tKINETIC\tCONTAINED")
	total := 0
	for i, r := range results {
		total += r.StepsTaken
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.3f\n",
			seedStart+int64(i), r.StepsTaken,
			r.Metrics["kinetic_energy"], r.Metrics["containment"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ntime: %v\n", elapsed)
	fmt.Printf("steps/sec: %.0f\n", float64(total)/elapsed.Seconds())
	return nil
}

// parseRange parses name=lo:hi:n.
func parseRange(s string) (string, []float64, error) {
	name, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("bad --param %q, want name=lo:hi:n", s)
	}
	parts := strings.Split(bounds, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("bad --param %q, want name=lo:hi:n", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad --param %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad --param %q: %w", s, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n <= 0 {
		return "", nil, fmt.Errorf("bad --param %q: n must be a positive integer", s)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, p := range sweepParams {
		name, values, err := parseRange(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	worldSeed := cfg.World.Seed
	if worldSeed == 0 {
		worldSeed = 1
	}
	build := func(phys world.Config) *world.World {
		w := world.NewSeeded(cfg.World.Width, cfg.World.Height, phys, worldSeed)
		w.AddRandomBlobs(cfg.World.Blobs)
		return w
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	best, trials, err := g.Search(ctx, cfg.Physics(), build, metrics.Default, sweepMetric, sim.Config{
		Dt:            cfg.Run.Dt,
		Duration:      cfg.Run.Duration,
		SnapshotEvery: math.MaxInt32,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	for _, tr := range trials {
		for _, name := range names {
			fmt.Fprintf(w, "%.3f\t", tr.Params[name])
		}
		fmt.Fprintf(w, "%.4f\n", tr.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nevaluated %d points in %v\n", len(trials), time.Since(start))
	if best.Params == nil {
		fmt.Println("no valid point")
		return nil
	}
	fmt.Printf("best %s: %.4f\n", sweepMetric, best.Value)
	for _, name := range names {
		fmt.Printf("  %s: %.3f\n", name, best.Params[name])
	}
	return nil
}
