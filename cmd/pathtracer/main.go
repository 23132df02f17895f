package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pathtracer/internal/config"
	"github.com/san-kum/pathtracer/internal/integrators"
	"github.com/san-kum/pathtracer/internal/viz"
)

var (
	dataDir string
	verbose bool
	preset  string
	// Overrides of the problem file.
	dt            float64
	fps           int
	skip          int
	segments      int
	integrator    string
	validateState bool
	// run
	points int
	format string
	save   bool
	// live
	theme string
	// window commands
	column string
	fit    bool
	width  int
	height int
	output string
	// compare, lyapunov
	steps int
	d0    float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pathtracer",
		Short:         "trace dynamical systems in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pathtracer", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [problem.yaml]",
		Short: "run headless and print emitted points",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	problemFlags(runCmd)
	runCmd.Flags().IntVar(&points, "points", 100, "stop after this many emitted points (0 runs until interrupted)")
	runCmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	runCmd.Flags().BoolVar(&save, "save", false, "save the final window")

	liveCmd := &cobra.Command{
		Use:   "live [problem.yaml]",
		Short: "trace a problem in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	problemFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, fmt.Sprintf("colour theme %v", viz.ThemeNames()))
	liveCmd.Flags().BoolVar(&save, "save", false, "save the window when quitting")

	validateCmd := &cobra.Command{
		Use:   "validate [problem.yaml]",
		Short: "check a problem and show its initial point",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateProblem,
	}
	problemFlags(validateCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in problems",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [preset] [problem.yaml]",
		Short: "write a built-in problem to a file",
		Args:  cobra.ExactArgs(2),
		RunE:  writePreset,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [problem.yaml]",
		Short: "compare integrators on the same problem",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareIntegrators,
	}
	problemFlags(compareCmd)
	compareCmd.Flags().IntVar(&steps, "steps", 1000, "steps per integrator")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [problem.yaml]",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  lyapunov,
	}
	problemFlags(lyapunovCmd)
	lyapunovCmd.Flags().IntVar(&steps, "steps", 10000, "steps to average over")
	lyapunovCmd.Flags().Float64Var(&d0, "d0", 1e-8, "initial separation")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved windows",
		Args:  cobra.NoArgs,
		RunE:  listWindows,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [window_id]",
		Short: "plot the columns of a saved window",
		Args:  cobra.ExactArgs(1),
		RunE:  plotWindow,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "plot only this column")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [window_id]",
		Short: "frequency analysis of a saved window column",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeWindow,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "", "column to analyse (default: first variable)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [window_id]",
		Short: "export a saved window to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportJSONCmd := &cobra.Command{
		Use:   "export-json [window_id]",
		Short: "export a saved window to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [window_id]",
		Short: "draw the projected trail of a saved window as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().BoolVar(&fit, "fit", false, "fit the trail instead of the configured viewport")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 800, "image height")
	for _, c := range []*cobra.Command{exportCSVCmd, exportJSONCmd, exportSVGCmd} {
		c.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	}

	rootCmd.AddCommand(runCmd, liveCmd, validateCmd, presetsCmd, initCmd, compareCmd, lyapunovCmd,
		listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func problemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", fmt.Sprintf("use a built-in problem %v", config.ListPresets()))
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "step size")
	cmd.Flags().IntVar(&fps, "fps", config.DefaultMaxFPS, "max emitted points per second")
	cmd.Flags().IntVar(&skip, "skip", config.DefaultFrameSkip, "steps computed but not emitted between two points")
	cmd.Flags().IntVar(&segments, "segments", config.DefaultMaxSegments, "trail length")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, fmt.Sprintf("integration method %v", integrators.Names()))
	cmd.Flags().BoolVar(&validateState, "validate-state", false, "stop the run on the first NaN or Inf point")
}

// loadProblem reads the problem named by --preset or the file argument and applies
// the flags the user set explicitly.
func loadProblem(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "" && len(args) > 0:
		return nil, fmt.Errorf("give either --preset or a problem file, not both")
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	case len(args) == 1:
		var err error
		if cfg, err = config.Load(args[0]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("need a problem file or --preset (available: %v)", config.ListPresets())
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Time.Dt = dt
	}
	if flags.Changed("fps") {
		cfg.Plot.MaxFPS = fps
	}
	if flags.Changed("skip") {
		cfg.Plot.FrameSkip = skip
	}
	if flags.Changed("segments") {
		cfg.Plot.MaxSegments = segments
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("validate-state") {
		cfg.ValidateState = validateState
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newLiveLogger keeps the terminal for the viewer: nothing is logged unless --verbose
// is set, and then only to a file in the data directory.
func newLiveLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{filepath.Join(dataDir, "live.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	return cfg.Build()
}
