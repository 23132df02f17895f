package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pathtracer/internal/analysis"
	"github.com/san-kum/pathtracer/internal/config"
	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/integrators"
)

func validateProblem(cmd *cobra.Command, args []string) error {
	cfg, err := loadProblem(cmd, args)
	if err != nil {
		return err
	}
	m, err := cfg.Model()
	if err != nil {
		return err
	}
	proj, err := cfg.Projector()
	if err != nil {
		return err
	}
	p := m.Initial()
	x, y, err := proj.Project(p)
	if err != nil {
		return err
	}

	fmt.Printf("problem: %s\n", cfg.Name)
	if cfg.Description != "" {
		fmt.Printf("         %s\n", cfg.Description)
	}
	fmt.Printf("integrator: %s, dt: %g, max fps: %d, frame skip: %d, trail: %d\n\n",
		cfg.Integrator, cfg.Time.Dt, cfg.Plot.MaxFPS, cfg.Plot.FrameSkip, cfg.Plot.MaxSegments)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tRULE\tINITIAL")
	fmt.Fprintf(w, "%s\ttime\t\t%g\n", dynamo.TimeName, p.T)
	for i, v := range cfg.Variables {
		fmt.Fprintf(w, "%s\tvariable\t%s\t%g\n", v.Name, v.Derivative, p.Vars[i])
	}
	for i, par := range cfg.Parameters {
		fmt.Fprintf(w, "%s\tparameter\t%s\t%g\n", par.Name, par.Equation, p.Params[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ncompiled: %d variables [%s], %d parameters [%s], h=%g\n",
		m.VarCount(), strings.Join(m.VarNames(), " "),
		m.ParamCount(), strings.Join(m.ParamNames(), " "), m.StepSize())
	fmt.Printf("plot: (%s, %s) starts at (%g, %g)\n", cfg.Plot.XTransform, cfg.Plot.YTransform, x, y)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVARIABLES\tDT\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%g\t%s\n", name, strings.Join(cfg.VariableNames(), ","), cfg.Time.Dt, cfg.Description)
	}
	return w.Flush()
}

func writePreset(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if err := config.Save(args[1], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s to %s\n", args[0], args[1])
	return nil
}

// compareIntegrators runs every method for the same number of steps and reports how
// far each final state lies from the RK4 one.
func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadProblem(cmd, args)
	if err != nil {
		return err
	}
	if steps <= 0 {
		return fmt.Errorf("--steps must be positive, got %d", steps)
	}

	type result struct {
		name    string
		final   dynamo.Point
		steps   int
		elapsed time.Duration
		err     error
	}
	var results []result
	var reference *dynamo.Point

	for _, name := range integrators.Names() {
		m, err := cfg.Model()
		if err != nil {
			return err
		}
		method, err := integrators.Get(name)
		if err != nil {
			return err
		}
		st := integrators.New(m, method)

		r := result{name: name}
		start := time.Now()
		for i := 0; i < steps && r.err == nil; i++ {
			_, r.err = st.CalculateStep()
		}
		r.elapsed = time.Since(start)
		r.final = st.Current()
		r.steps = st.Steps()
		if name == "rk4" && r.err == nil {
			reference = &r.final
		}
		results = append(results, r)
	}

	fmt.Printf("comparing integrators for %s (dt=%g, %d steps, t=%g)\n\n", cfg.Name, cfg.Time.Dt, steps, cfg.Time.TInit+float64(steps)*cfg.Time.Dt)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := []string{"INTEGRATOR"}
	for _, v := range cfg.VariableNames() {
		header = append(header, "FINAL_"+strings.ToUpper(v))
	}
	header = append(header, "STEPS", "DIST_RK4", "TIME_MS")
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(w, "%s\terror after %d steps: %v\n", r.name, r.steps, r.err)
			continue
		}
		row := []string{r.name}
		for _, v := range r.final.Vars {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
		dist := "-"
		if reference != nil {
			dist = fmt.Sprintf("%.2e", distance(r.final, *reference))
		}
		row = append(row, fmt.Sprint(r.steps), dist, fmt.Sprintf("%.2f", float64(r.elapsed.Microseconds())/1000))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func distance(a, b dynamo.Point) float64 {
	sum := 0.0
	for i := range a.Vars {
		d := a.Vars[i] - b.Vars[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func lyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := loadProblem(cmd, args)
	if err != nil {
		return err
	}
	m, err := cfg.Model()
	if err != nil {
		return err
	}
	method, err := cfg.Method()
	if err != nil {
		return err
	}

	start := time.Now()
	lambda, err := analysis.LyapunovExponent(m, method, steps, d0)
	if err != nil {
		return err
	}

	fmt.Printf("problem: %s (%s, dt=%g, %d steps, d0=%g)\n", cfg.Name, method.Name(), cfg.Time.Dt, steps, d0)
	fmt.Printf("largest lyapunov exponent: %.4f\n", lambda)
	switch {
	case lambda > 0.01:
		fmt.Println("behaviour: chaotic")
	case lambda < -0.01:
		fmt.Println("behaviour: converging")
	default:
		fmt.Println("behaviour: neutral (periodic or marginal)")
	}
	fmt.Printf("computed in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}
