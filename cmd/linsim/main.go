package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/linsim/internal/analysis"
	"github.com/san-kum/linsim/internal/automation"
	"github.com/san-kum/linsim/internal/config"
	"github.com/san-kum/linsim/internal/control"
	"github.com/san-kum/linsim/internal/experiment"
	"github.com/san-kum/linsim/internal/export"
	"github.com/san-kum/linsim/internal/linsys"
	"github.com/san-kum/linsim/internal/logging"
	"github.com/san-kum/linsim/internal/metrics"
	"github.com/san-kum/linsim/internal/optim"
	"github.com/san-kum/linsim/internal/sim"
	"github.com/san-kum/linsim/internal/storage"
	"github.com/san-kum/linsim/internal/tui"
	"github.com/san-kum/linsim/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

var (
	dataDir  string
	logLevel string
	theme    string

	tFinal     float64
	seed       int64
	controller string
	setValues  []string
	metricList []string
	configFile string
	preset     string
	noSave     bool
	showPlot   bool

	csvOutput   string
	jsonOutput  string
	chartOutput string
	chartWidth  int
	chartHeight int
	phase       bool
	estimated   bool

	eventsDir string

	gainDt    float64
	stiffness float64
	damping   float64
	affine    bool
	qPos      float64
	qVel      float64
	rWeight   float64

	tuneParams []string
	points     int
	tuneMetric string

	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepMetric string

	trials       int
	ensembleRuns int
	perturbation float64
	bound        float64

	logger *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "linsim",
		Short: "discrete linear system and kalman filter lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger(logLevel, os.Stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// no subcommand opens the slider panel on the default scenario
			return runTUI(cmd, nil)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".linsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "chalk", "terminal theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	rootCmd.Flags().Float64Var(&tFinal, "time", config.DefaultTFinal, "simulated seconds")
	rootCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "noise seed")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&tFinal, "time", config.DefaultTFinal, "simulated seconds")
	runCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "noise seed")
	runCmd.Flags().StringVar(&controller, "controller", "", "controller override ("+strings.Join(config.ControllerTypes(), ", ")+")")
	runCmd.Flags().StringArrayVar(&setValues, "set", nil, "scenario value as name=value (repeatable)")
	runCmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metrics to record ("+strings.Join(metrics.Names(), ", ")+")")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the result after the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&chartWidth, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&chartHeight, "height", 10, "chart height")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&csvOutput, "output", "o", "-", "output file, - for stdout")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOutput, "output", "o", "-", "output file, - for stdout")

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "write a png, svg, pdf or html chart",
		Args:  cobra.ExactArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "chart.png", "output file; the extension picks the format")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the position series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().BoolVar(&phase, "phase", false, "also draw the phase portrait")
	analyzeCmd.Flags().BoolVar(&estimated, "estimated", false, "phase portrait of the estimate")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios and their values",
		RunE:  listScenarios,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	stagesCmd := &cobra.Command{
		Use:   "stages [script.yaml]",
		Short: "run a multi-stage script",
		Args:  cobra.ExactArgs(1),
		RunE:  runStages,
	}
	stagesCmd.Flags().StringVar(&eventsDir, "events", "", "directory for the JSONL event log")

	gainCmd := &cobra.Command{
		Use:   "gain",
		Short: "compute the discrete LQR gain of a mass on ice",
		RunE:  computeGain,
	}
	gainCmd.Flags().Float64Var(&gainDt, "dt", linsys.DefaultDt, "timestep")
	gainCmd.Flags().Float64Var(&stiffness, "stiffness", 0, "spring stiffness")
	gainCmd.Flags().Float64Var(&damping, "damping", 0, "friction coefficient")
	gainCmd.Flags().BoolVar(&affine, "affine", false, "append the constant state")
	gainCmd.Flags().Float64Var(&qPos, "q-pos", config.DefaultQPos, "position cost")
	gainCmd.Flags().Float64Var(&qVel, "q-vel", config.DefaultQVel, "velocity cost")
	gainCmd.Flags().Float64Var(&rWeight, "r", config.DefaultR, "control cost")

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search scenario values for the lowest metric",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneScenario,
	}
	tuneCmd.Flags().StringSliceVar(&tuneParams, "params", nil, "values to search (default all)")
	tuneCmd.Flags().IntVar(&points, "points", 5, "grid points per value")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "control_effort", "metric to minimise")
	tuneCmd.Flags().Float64Var(&tFinal, "time", config.DefaultTFinal, "simulated seconds")
	tuneCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "noise seed")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "sweep one scenario value",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepScenario,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "value to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "", "metric to report")
	sweepCmd.Flags().Float64Var(&tFinal, "time", config.DefaultTFinal, "simulated seconds")
	sweepCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "noise seed")
	_ = sweepCmd.MarkFlagRequired("param")

	montecarloCmd := &cobra.Command{
		Use:   "montecarlo [scenario]",
		Short: "perturb the initial state and count bounded runs",
		Args:  cobra.ExactArgs(1),
		RunE:  monteCarlo,
	}
	montecarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	montecarloCmd.Flags().Float64Var(&perturbation, "perturbation", 0.5, "max initial position and velocity offset")
	montecarloCmd.Flags().Float64Var(&bound, "bound", 10, "final |pos| and |vel| bound")
	montecarloCmd.Flags().StringArrayVar(&setValues, "set", nil, "scenario value as name=value (repeatable)")
	montecarloCmd.Flags().Float64Var(&tFinal, "time", config.DefaultTFinal, "simulated seconds")
	montecarloCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "noise seed")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [scenario]",
		Short: "run a scenario under consecutive seeds in parallel",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().IntVar(&ensembleRuns, "runs", 8, "number of seeds")
	ensembleCmd.Flags().StringArrayVar(&setValues, "set", nil, "scenario value as name=value (repeatable)")
	ensembleCmd.Flags().Float64Var(&tFinal, "time", config.DefaultTFinal, "simulated seconds")
	ensembleCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "first seed")

	tuiCmd := &cobra.Command{
		Use:   "tui [scenario]",
		Short: "interactive slider panel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTUI,
	}
	tuiCmd.Flags().Float64Var(&tFinal, "time", config.DefaultTFinal, "simulated seconds")
	tuiCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "noise seed")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, chartCmd,
		analyzeCmd, scenariosCmd, presetsCmd, stagesCmd, gainCmd, tuneCmd, sweepCmd,
		montecarloCmd, ensembleCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scenario, preset)
		if p == nil {
			return fmt.Errorf("unknown preset %q for scenario %s", preset, cfg.Scenario)
		}
		cfg = p
		fmt.Printf("using preset: %s\n", preset)
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Scenario = args[0]
		}
	}

	if cmd.Flags().Changed("time") {
		cfg.TFinal = tFinal
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("controller") {
		cfg.Controller = config.DefaultController(controller)
	}
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics = metricList
	}
	values, err := parseValues(setValues)
	if err != nil {
		return err
	}
	if len(values) > 0 {
		if cfg.Values == nil {
			cfg.Values = map[string]float64{}
		}
		for k, v := range values {
			cfg.Values[k] = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry())
	exp.SetLogger(logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	styles := viz.NewStyles(viz.GetTheme(theme))
	fmt.Println(styles.Title.Render(runTitle(exp.Scenario(), cfg.Scenario)))
	fmt.Printf("%s\n\n", result)
	fmt.Println(viz.MetricsTable(result.Metrics, styles))

	if showPlot {
		fmt.Println()
		fmt.Println(viz.Render(result, viz.DefaultChartOptions()))
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	meta := storage.RunMetadata{
		Scenario: cfg.Scenario,
		Title:    runTitle(exp.Scenario(), cfg.Scenario),
		Seed:     cfg.Seed,
		Dt:       exp.GetSimulator().System().Dt,
		TFinal:   cfg.TFinal,
		Values:   cfg.Values,
	}
	if s := exp.Scenario(); s != nil {
		if resolved, err := s.Resolve(cfg.Values); err == nil {
			meta.Values = resolved
		}
	}
	if cfg.Controller != nil {
		meta.Controller = cfg.Controller.Type
	}

	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}
	logger.Debug("run stored", "id", runID, "dir", dataDir)

	fmt.Printf("\nrun: %s\n", runID)
	return nil
}

func runTitle(s *experiment.Scenario, fallback string) string {
	if s != nil && s.Title != "" {
		return s.Title
	}
	if fallback == "" {
		return "custom system"
	}
	return fallback
}

// parseValues reads name=value pairs.
func parseValues(pairs []string) (map[string]float64, error) {
	values := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("bad value %q, want name=value", pair)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value for %s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

// loadRun accepts a full id, a unique prefix or "latest".
func loadRun(st *storage.Store, runID string) (*storage.RunMetadata, *sim.Result, error) {
	if runID == "latest" {
		latest, err := st.Latest()
		if err != nil {
			return nil, nil, err
		}
		runID = latest.ID
	}

	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadResult(meta.ID)
	if err != nil {
		return nil, nil, err
	}
	return meta, result, nil
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tSEED\tTICKS\tFILTER\tCONTROLLER")
	for _, run := range runs {
		ctrl := run.Controller
		if ctrl == "" {
			ctrl = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%t\t%s\n",
			run.ID[:8],
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Ticks,
			run.Filtering,
			ctrl,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Title)
	fmt.Printf("samples: %d\n\n", len(result.Position.Samples))

	fmt.Println(viz.Render(result, viz.ChartOptions{Width: chartWidth, Height: chartHeight, Legend: true}))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, result, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	return export.ExportCSV(csvOutput, result)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	doc := &export.Document{
		RunID:    meta.ID,
		Scenario: meta.Scenario,
		Title:    meta.Title,
		Dt:       meta.Dt,
		TFinal:   meta.TFinal,
		Seed:     meta.Seed,
		Values:   meta.Values,
		Created:  meta.Timestamp,
		Result:   result,
	}
	return export.ExportJSON(jsonOutput, doc)
}

func chartRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	title := meta.Title
	if title == "" {
		title = meta.ID
	}

	if strings.EqualFold(filepath.Ext(chartOutput), ".html") {
		err = export.SaveHTML(chartOutput, result, title)
	} else {
		err = export.SaveChart(chartOutput, result, title)
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", chartOutput)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	times := result.Position.Times()
	if len(times) < 2 {
		return fmt.Errorf("no data")
	}
	spacing := times[1] - times[0]

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Title)

	spectrum, err := analysis.DominantFrequency(result.Position.Values(), spacing)
	if err != nil {
		return err
	}

	plotData := spectrum.Bins[:max(len(spectrum.Bins)/4, 2)]
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (pos), %.4g hz per bin", spectrum.Resolution)),
	)
	fmt.Println(graph)
	fmt.Println()

	fmt.Printf("dominant frequency: %.3f hz\n", spectrum.Frequency)
	if spectrum.Frequency > 0 {
		fmt.Printf("period: %.3f s\n", spectrum.Period)
	}

	values := result.Position.Values()
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if crossings := analysis.Crossings(result.Position, mean); len(crossings) >= 2 {
		fmt.Printf("mean crossing period: %.3f s (%d crossings)\n", analysis.MeanPeriod(crossings), len(crossings))
	}

	if phase {
		fmt.Println()
		fmt.Println(analysis.NewPhasePortrait(result, estimated).ASCII(60, 20))
	}
	return nil
}

func listScenarios(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tVALUE\tDEFAULT\tRANGE\tDESCRIPTION")
	for _, name := range registry.List() {
		s, err := registry.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t\t\t\t%s\n", name, s.Title)
		for _, p := range s.Params {
			fmt.Fprintf(w, "\t%s\t%g\t%g .. %g\t%s\n", p.Name, p.Default, p.Min, p.Max, p.Description)
		}
	}
	return w.Flush()
}

func runStages(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}

	runner := automation.NewRunner(experiment.NewRegistry())
	runner.SetLogger(logger)
	if eventsDir != "" {
		events := logging.NewEventLog(eventsDir, logLevel)
		defer events.Close()
		runner.SetEventLog(events)
	}

	fmt.Printf("script: %s\n", script.Name)
	if script.Description != "" {
		fmt.Printf("%s\n", script.Description)
	}
	fmt.Println()

	results, err := runner.Run(cmd.Context(), script)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tSCENARIO\tTICKS\tFINAL POS\tFINAL VEL\tCONTINUE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%.4f\t%t\n",
			r.Stage.Name, r.Stage.Scenario, r.Result.Ticks,
			r.Result.Final.Pos(), r.Result.Final.Vel(), r.Stage.Continue)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func computeGain(cmd *cobra.Command, args []string) error {
	sys, err := linsys.Build(linsys.Options{
		Dt:        gainDt,
		Stiffness: stiffness,
		Damping:   damping,
		IsAffine:  affine,
	})
	if err != nil {
		return err
	}

	n := sys.N()
	k, err := control.Gain(sys.A, sys.B, control.Weights(n, qPos, qVel), control.Weights(1, rWeight))
	if err != nil {
		return err
	}

	fmt.Printf("A = %v\n\n", mat.Formatted(sys.A, mat.Prefix("    ")))
	fmt.Printf("B = %v\n\n", mat.Formatted(sys.B, mat.Prefix("    ")))
	fmt.Printf("K = %v\n", mat.Formatted(k, mat.Prefix("    ")))
	return nil
}

func tuneScenario(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	scenario, err := registry.Get(args[0])
	if err != nil {
		return err
	}

	grid, err := optim.ScenarioGrid(scenario, tuneParams, points)
	if err != nil {
		return err
	}
	fmt.Printf("searching %d points of %s for the lowest %s\n", grid.Size(), scenario.Name, tuneMetric)

	build := func(values map[string]float64) (*experiment.Experiment, error) {
		cfg := config.DefaultConfig()
		cfg.Scenario = scenario.Name
		cfg.Values = values
		cfg.TFinal = tFinal
		cfg.Seed = seed
		cfg.Metrics = []string{tuneMetric}
		exp := experiment.New(cfg, registry)
		exp.SetLogger(logger)
		return exp, nil
	}

	best, err := grid.Search(cmd.Context(), build, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated: %d, failed: %d\n", best.Evaluated, best.Failed)
	fmt.Printf("best %s: %.6g\n", tuneMetric, best.Score)

	names := make([]string, 0, len(best.Values))
	for name := range best.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best.Values[name])
	}
	return nil
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Scenario:  args[0],
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		TFinal:    tFinal,
		Seed:      seed,
		Metric:    sweepMetric,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	header := strings.ToUpper(sweepParam) + "\tFINAL POS\tFINAL VEL"
	if sweepMetric != "" {
		header += "\t" + strings.ToUpper(sweepMetric)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.4f\t%.4f", r.ParamValue, r.FinalPos, r.FinalVel)
		if sweepMetric != "" {
			fmt.Fprintf(w, "\t%.6g", r.MetricValue)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	values, err := parseValues(setValues)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Scenario:     args[0],
		Values:       values,
		Perturbation: perturbation,
		NumTrials:    trials,
		TFinal:       tFinal,
		Seed:         seed,
		Bound:        bound,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d\n", len(results))
	fmt.Printf("bounded: %d\n", stable)
	fmt.Printf("unbounded: %d\n", unstable)
	if len(results) > 0 {
		fmt.Printf("bounded fraction: %.2f\n", float64(stable)/float64(len(results)))
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	scenario, err := experiment.NewRegistry().Get(args[0])
	if err != nil {
		return err
	}
	values, err := parseValues(setValues)
	if err != nil {
		return err
	}

	ensemble := sim.NewEnsemble(func() (*linsys.System, linsys.State, error) {
		return scenario.Build(values)
	}, ensembleRuns, seed).WithMetrics(metrics.Standard)

	results, err := ensemble.Run(cmd.Context(), sim.Config{TFinal: tFinal})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tFINAL POS\tFINAL VEL\tCONTROL EFFORT")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.6g\n", seed+int64(i), r.Final.Pos(), r.Final.Vel(), r.Metrics["control_effort"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nmean final position: %.4f\n", sim.MeanFinalPosition(results))
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	name := config.DefaultScenario
	if len(args) > 0 {
		name = args[0]
	}

	scenario, err := experiment.NewRegistry().Get(name)
	if err != nil {
		return err
	}

	panel := tui.NewPanel(scenario, tui.Options{TFinal: tFinal, Seed: seed, Theme: theme})
	defer panel.Close()

	if _, err := tea.NewProgram(panel).Run(); err != nil {
		return err
	}
	return nil
}
