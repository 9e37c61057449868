package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/san-kum/rrk/internal/analysis"
	"github.com/san-kum/rrk/internal/automation"
	"github.com/san-kum/rrk/internal/config"
	"github.com/san-kum/rrk/internal/experiment"
	"github.com/san-kum/rrk/internal/export"
	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/relax"
	"github.com/san-kum/rrk/internal/sim"
	"github.com/san-kum/rrk/internal/store"
	"github.com/san-kum/rrk/internal/viz"
)

var (
	dataDir string
	verbose bool

	method     string
	duration   float64
	h0         float64
	rtol       float64
	atol       float64
	fixedStep  bool
	initState  []float64
	setParams  []string
	configFile string
	preset     string

	solver     string
	noRelax    bool
	lowerBound float64
	upperBound float64

	sweepSteps []float64

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepN     int

	mcTrials  int
	mcPerturb float64
	mcSeed    int64

	svgOut  string
	svgKind string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rrk",
		Short: "relaxation Runge-Kutta lab for entropy-stable integration",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(
				tint.NewHandler(os.Stderr, &tint.Options{
					Level:      level,
					TimeFormat: "15:04:05",
				}),
			))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rrk", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "integrate a problem and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runProblem,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export full run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSONRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSVRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a stored run as an SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVGRun,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output path (default <run_id>.svg)")
	exportSVGCmd.Flags().StringVar(&svgKind, "kind", "components", "chart kind (components, phase, param)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify [run_id]",
		Short: "verify the stored trajectory checksum",
		Args:  cobra.ExactArgs(1),
		RunE:  verifyRun,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [problem]",
		Short: "run with and without relaxation and compare drift",
		Args:  cobra.ExactArgs(1),
		RunE:  compareRelaxation,
	}
	addRunFlags(compareCmd)
	compareCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	compareCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	convergeCmd := &cobra.Command{
		Use:   "converge [problem]",
		Short: "fixed-step convergence sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  convergeProblem,
	}
	addRunFlags(convergeCmd)
	convergeCmd.Flags().Float64SliceVar(&sweepSteps, "steps", []float64{0.1, 0.05, 0.025, 0.0125}, "step sizes to sweep")

	benchCmd := &cobra.Command{
		Use:   "bench [problem]",
		Short: "benchmark a problem across step sizes",
		Args:  cobra.ExactArgs(1),
		RunE:  benchProblem,
	}
	benchCmd.Flags().StringVar(&method, "method", "dormand_prince", "integration method")
	benchCmd.Flags().BoolVar(&noRelax, "no-relax", false, "disable relaxation")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [problem]",
		Short: "sweep a system parameter and record the response",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "lowest parameter value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "highest parameter value")
	sweepCmd.Flags().IntVar(&sweepN, "n", 5, "number of values")
	sweepCmd.Flags().StringVar(&method, "method", "dormand_prince", "integration method")
	sweepCmd.Flags().Float64Var(&duration, "time", 10.0, "duration per run")
	sweepCmd.Flags().Float64Var(&h0, "h0", 0.01, "initial step size")
	sweepCmd.Flags().BoolVar(&noRelax, "no-relax", false, "disable relaxation")

	mcCmd := &cobra.Command{
		Use:   "mc [problem]",
		Short: "Monte Carlo perturbation study",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().IntVar(&mcTrials, "trials", 20, "number of trials")
	mcCmd.Flags().Float64Var(&mcPerturb, "perturb", 0.01, "initial state perturbation")
	mcCmd.Flags().Int64Var(&mcSeed, "seed", 0, "rng seed (0 seeds from the clock)")
	mcCmd.Flags().StringVar(&method, "method", "dormand_prince", "integration method")
	mcCmd.Flags().Float64Var(&duration, "time", 10.0, "duration per trial")
	mcCmd.Flags().Float64Var(&h0, "h0", 0.01, "initial step size")
	mcCmd.Flags().BoolVar(&noRelax, "no-relax", false, "disable relaxation")

	liveCmd := &cobra.Command{
		Use:   "live [problem]",
		Short: "integrate with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&method, "method", "dormand_prince", "integration method")
	liveCmd.Flags().Float64Var(&h0, "h0", 0.01, "step size")
	liveCmd.Flags().Float64SliceVar(&initState, "init", nil, "initial state")
	liveCmd.Flags().StringArrayVar(&setParams, "set", nil, "system parameter (name=value)")

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list problems and methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			fmt.Println("problems:")
			for _, name := range reg.ListProblems() {
				fmt.Printf("  %s\n", name)
			}
			fmt.Println("methods:")
			for _, name := range reg.ListMethods() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportJSONCmd,
		exportCSVCmd, exportSVGCmd, verifyCmd, compareCmd, convergeCmd, benchCmd,
		batchCmd, sweepCmd, mcCmd, liveCmd, presetsCmd, problemsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&method, "method", "dormand_prince", "integration method")
	cmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	cmd.Flags().Float64Var(&h0, "h0", 0.01, "initial step size")
	cmd.Flags().Float64Var(&rtol, "rtol", 1e-6, "relative tolerance")
	cmd.Flags().Float64Var(&atol, "atol", 1e-9, "absolute tolerance")
	cmd.Flags().BoolVar(&fixedStep, "fixed", false, "fixed-step integration")
	cmd.Flags().Float64SliceVar(&initState, "init", nil, "initial state")
	cmd.Flags().StringArrayVar(&setParams, "set", nil, "system parameter (name=value)")
	cmd.Flags().StringVar(&solver, "solver", "newton", "relaxation solver (newton, brent)")
	cmd.Flags().BoolVar(&noRelax, "no-relax", false, "disable relaxation")
	cmd.Flags().Float64Var(&lowerBound, "lower", 0.8, "relaxation acceptance lower bound")
	cmd.Flags().Float64Var(&upperBound, "upper", 1.2, "relaxation acceptance upper bound")
}

// buildConfig resolves preset, config file and flags into an
// experiment configuration. Flags override the file, the file
// overrides the preset.
func buildConfig(cmd *cobra.Command, problem string) (experiment.Config, error) {
	base := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(problem, preset)
		if p == nil {
			return experiment.Config{}, fmt.Errorf("unknown preset: %s (available: %v)",
				preset, config.ListPresets(problem))
		}
		c := *p
		base = &c
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return experiment.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		base = loaded
	}

	base.Problem = problem
	if cmd.Flags().Changed("method") {
		base.Method = method
	}
	if cmd.Flags().Changed("time") {
		base.Duration = duration
	}
	if cmd.Flags().Changed("h0") {
		base.H0 = h0
	}
	if cmd.Flags().Changed("rtol") {
		base.RelTol = rtol
	}
	if cmd.Flags().Changed("atol") {
		base.AbsTol = atol
	}
	if cmd.Flags().Changed("fixed") {
		base.FixedStep = fixedStep
	}
	if cmd.Flags().Changed("init") {
		base.InitState = initState
	}
	if cmd.Flags().Changed("solver") {
		base.Relaxation.Solver = solver
	}
	if cmd.Flags().Changed("no-relax") {
		base.Relaxation.Enabled = !noRelax
	}
	if cmd.Flags().Changed("lower") {
		base.Relaxation.LowerBound = lowerBound
	}
	if cmd.Flags().Changed("upper") {
		base.Relaxation.UpperBound = upperBound
	}

	if len(setParams) > 0 {
		params := make(map[string]float64, len(base.Params)+len(setParams))
		for k, v := range base.Params {
			params[k] = v
		}
		if err := parseParams(setParams, params); err != nil {
			return experiment.Config{}, err
		}
		base.Params = params
	}

	return experiment.FromConfig(base)
}

func parseParams(kvs []string, into map[string]float64) error {
	for _, kv := range kvs {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid parameter %q, want name=value", kv)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("invalid parameter value %q: %w", kv, err)
		}
		into[strings.TrimSpace(name)] = val
	}
	return nil
}

func runInfo(cfg experiment.Config) store.RunInfo {
	info := store.RunInfo{
		Problem:  cfg.Problem,
		Method:   cfg.Method,
		Relaxed:  cfg.Relax,
		Duration: cfg.Duration,
	}
	if cfg.Relax {
		info.Solver = cfg.RelaxCfg.Solver.String()
	}
	return info
}

func runProblem(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("running %s with %s...\n", cfg.Problem, cfg.Method)
	start := time.Now()

	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(runInfo(cfg), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n\n", runID)
	fmt.Print(viz.Summary(cfg.Problem, cfg.Relax, result))

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tMETHOD\tRELAX\tTIME\tDURATION\tSTEPS")

	for _, run := range runs {
		relaxCol := "-"
		if run.Relaxed {
			relaxCol = run.Solver
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2fs\t%d\n",
			run.ID,
			run.Problem,
			run.Method,
			relaxCol,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Steps,
		)
	}

	return w.Flush()
}

func resultFromStore(states [][]float64, times, params []float64) *sim.Result {
	res := &sim.Result{
		States: make([]ode.State, len(states)),
		Times:  times,
		Params: params,
		Steps:  len(states),
	}
	for i, s := range states {
		res.States[i] = s
	}
	return res
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, params, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	res := resultFromStore(states, times, params)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("samples: %d\n\n", len(states))

	numVars := len(states[0])
	if numVars > 4 {
		numVars = 4
	}
	for varIdx := 0; varIdx < numVars; varIdx++ {
		fmt.Println(viz.PlotComponent(res, varIdx, 70, 10))
		fmt.Println()
	}

	reg := experiment.NewRegistry()
	if sys, err := reg.GetProblem(meta.Problem); err == nil {
		if ent, ok := sys.(ode.Entropy); ok {
			fmt.Println(viz.PlotEntropy(res, ent.Entropy, 70, 8))
			fmt.Println()
		}
	}

	if meta.Relaxed {
		fmt.Println(viz.PlotParam(res, 70, 8))
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSONRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, params, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	res := resultFromStore(states, times, params)
	res.Steps = meta.Steps
	res.ErrRejects = meta.ErrRejects
	res.FnEvals = meta.FnEvals
	res.Metrics = meta.Metrics
	res.RelaxStats = meta.Stats()

	info := store.RunInfo{
		Problem:  meta.Problem,
		Method:   meta.Method,
		Solver:   meta.Solver,
		Relaxed:  meta.Relaxed,
		Duration: meta.Duration,
	}
	return store.ExportJSONStdout(info, res)
}

func exportCSVRun(cmd *cobra.Command, args []string) error {
	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	states, times, params, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time"}
	for i := range states[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	header = append(header, "r")
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'g', 17, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'g', 17, 64))
		}
		row = append(row, strconv.FormatFloat(params[i], 'g', 17, 64))
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func verifyRun(cmd *cobra.Command, args []string) error {
	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	if err := st.Verify(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s: checksum ok\n", args[0])
	return nil
}

func compareRelaxation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("comparing relaxation for %s (%s, T=%.1f)\n\n", cfg.Problem, cfg.Method, cfg.Duration)

	cmp, err := experiment.CompareRelaxation(context.Background(), cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tSTEPS\tFN_EVALS\tRELAX_EVALS\tENTROPY_DRIFT\tSOLUTION_ERR")

	row := func(name string, res *sim.Result, relaxed bool) {
		relaxEvals := "-"
		if relaxed {
			st := res.RelaxStats
			relaxEvals = fmt.Sprintf("%d", st.FnEvals+st.JacEvals)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%.3e\t%.3e\n",
			name, res.Steps, res.FnEvals, relaxEvals,
			res.Metrics["entropy_drift"], res.Metrics["solution_error"])
	}
	row("plain", cmp.Unrelaxed, false)
	row("relaxed", cmp.Relaxed, true)
	if err := w.Flush(); err != nil {
		return err
	}

	plain := cmp.Unrelaxed.Metrics["entropy_drift"]
	relaxed := cmp.Relaxed.Metrics["entropy_drift"]
	if relaxed > 0 && plain > 0 {
		fmt.Printf("\ndrift improvement: %.1fx\n", plain/relaxed)
	}

	return nil
}

func convergeProblem(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("convergence sweep for %s (%s)\n\n", cfg.Problem, cfg.Method)

	points, err := experiment.Convergence(context.Background(), cfg, sweepSteps)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "H\tSTEPS\tERROR\tORDER\tDRIFT")

	for i, p := range points {
		order := "-"
		if i > 0 && p.Error > 0 && points[i-1].Error > 0 {
			est := math.Log(points[i-1].Error/p.Error) / math.Log(points[i-1].H/p.H)
			order = fmt.Sprintf("%.2f", est)
		}
		fmt.Fprintf(w, "%.4g\t%d\t%.3e\t%s\t%.3e\n", p.H, p.Steps, p.Error, order, p.Drift)
	}

	return w.Flush()
}

func benchProblem(cmd *cobra.Command, args []string) error {
	problem := args[0]

	durations := []float64{1.0, 5.0}
	steps := []float64{0.001, 0.01, 0.1}

	fmt.Printf("benchmarking %s\n\n", problem)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tH\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, h := range steps {
			exp := experiment.New(experiment.Config{
				Problem:   problem,
				Method:    method,
				Duration:  dur,
				H0:        h,
				FixedStep: true,
				Relax:     !noRelax,
				RelaxCfg:  relax.DefaultConfig(),
			})
			if err := exp.Setup(); err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			stepsPerSec := float64(result.Steps) / elapsed.Seconds()
			fmt.Fprintf(w, "%.1fs\t%.4g\t%d\t%v\t%.0f\n",
				dur, h, result.Steps, elapsed, stepsPerSec)
		}
	}

	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	problem := args[0]

	reg := experiment.NewRegistry()
	sys, err := reg.GetProblem(problem)
	if err != nil {
		return err
	}

	if len(setParams) > 0 {
		c, ok := sys.(ode.Configurable)
		if !ok {
			return fmt.Errorf("problem %s takes no parameters", problem)
		}
		params := make(map[string]float64)
		if err := parseParams(setParams, params); err != nil {
			return err
		}
		for name, value := range params {
			if err := c.SetParam(name, value); err != nil {
				return err
			}
		}
	}

	erk, err := reg.GetMethod(method)
	if err != nil {
		return err
	}

	y0 := ode.State(initState)
	if len(y0) == 0 {
		ds, ok := sys.(interface{ DefaultState() ode.State })
		if !ok {
			return fmt.Errorf("problem %s needs an explicit initial state", problem)
		}
		y0 = ds.DefaultState()
	}

	return viz.RunLive(sys, erk, y0, h0, problem)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) < 4 || len(states[0]) == 0 {
		return fmt.Errorf("not enough samples for frequency analysis")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("problem: %s\n\n", meta.Problem)

	data := make([]float64, len(states))
	for i := range states {
		data[i] = states[i][0]
	}

	ps := analysis.PowerSpectrum(data)
	plotData := ps
	if len(ps) >= 8 {
		plotData = ps[:len(ps)/4]
	}

	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (x0)"),
	))
	fmt.Println()

	// Adaptive runs are resampled unevenly; the mean spacing is close
	// enough for a dominant-frequency readout.
	dt := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	freq, power := analysis.DominantFrequency(ps, dt)
	if power > 0 && freq > 0 {
		fmt.Printf("dominant frequency: %.3f hz\n", freq)
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	} else {
		fmt.Println("no dominant frequency found")
	}

	return nil
}

func exportSVGRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	states, times, params, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) < 2 {
		return fmt.Errorf("not enough samples to chart")
	}

	var svg string
	switch svgKind {
	case "components":
		numVars := len(states[0])
		if numVars > 4 {
			numVars = 4
		}
		series := make([]export.Series, numVars)
		for v := 0; v < numVars; v++ {
			vals := make([]float64, len(states))
			for i := range states {
				vals[i] = states[i][v]
			}
			series[v] = export.Series{Name: fmt.Sprintf("x%d", v), Values: vals}
		}
		svg = export.TimeSeriesSVG(times, series, 800, 400)
	case "phase":
		if len(states[0]) < 2 {
			return fmt.Errorf("phase chart needs at least 2 state components")
		}
		xs := make([]float64, len(states))
		ys := make([]float64, len(states))
		for i := range states {
			xs[i] = states[i][0]
			ys[i] = states[i][1]
		}
		svg = export.PhaseSVG(xs, ys, 600, 600, "")
	case "param":
		svg = export.TimeSeriesSVG(times, []export.Series{{Name: "r", Values: params}}, 800, 300)
	default:
		return fmt.Errorf("unknown chart kind %q (want components, phase or param)", svgKind)
	}

	if svg == "" {
		return fmt.Errorf("nothing to chart")
	}

	out := svgOut
	if out == "" {
		out = runID + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st, err := store.New(dataDir)
	if err != nil {
		return err
	}
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	fmt.Println()

	outcomes, err := automation.RunScenario(context.Background(), sc, st)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPROBLEM\tSTEPS\tDRIFT\tRUN_ID")
	for i, out := range outcomes {
		id := out.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.3e\t%s\n",
			i+1, out.Problem, out.Result.Steps, out.Result.Metrics["entropy_drift"], id)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	sw := &automation.ParameterSweep{
		Problem:  args[0],
		Method:   method,
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		Steps:    sweepN,
		Duration: duration,
		H0:       h0,
		Relax:    !noRelax,
	}

	fmt.Printf("sweeping %s.%s over [%g, %g]\n\n", sw.Problem, sw.Param, sw.Min, sw.Max)

	points, err := automation.RunSweep(context.Background(), sw)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tSTEPS\tDRIFT\tSOL_ERR")
	for _, p := range points {
		fmt.Fprintf(w, "%.4g\t%d\t%.3e\t%.3e\n", p.Value, p.Steps, p.Drift, p.SolError)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	mc := &automation.MonteCarlo{
		Problem:      args[0],
		Method:       method,
		Perturbation: mcPerturb,
		Trials:       mcTrials,
		Duration:     duration,
		H0:           h0,
		Seed:         mcSeed,
		Relax:        !noRelax,
	}

	fmt.Printf("monte carlo: %d trials of %s, perturbation %g\n\n", mc.Trials, mc.Problem, mc.Perturbation)

	summary, err := automation.RunMonteCarlo(context.Background(), mc)
	if err != nil {
		return err
	}

	fmt.Printf("completed:  %d/%d\n", len(summary.Trials)-summary.FatalCount, len(summary.Trials))
	fmt.Printf("fatal:      %d\n", summary.FatalCount)
	fmt.Printf("mean drift: %.3e\n", summary.MeanDrift)
	fmt.Printf("max drift:  %.3e\n", summary.MaxDrift)
	return nil
}
