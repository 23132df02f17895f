package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pathtracer/internal/config"
	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/labels"
	"github.com/san-kum/pathtracer/internal/sim"
	"github.com/san-kum/pathtracer/internal/storage"
	"github.com/san-kum/pathtracer/internal/trajectory"
	"github.com/san-kum/pathtracer/internal/viz"
)

// pointPrinter writes one row per emitted point with the current label values. It
// must be registered after the board so the board already holds the point.
type pointPrinter struct {
	w     *tabwriter.Writer
	board *labels.Board
	rows  int
}

func (pp *pointPrinter) OnPoint(dynamo.Point) {
	rows := pp.board.Rows()
	if pp.rows == 0 {
		names := make([]string, len(rows))
		for i, r := range rows {
			names[i] = strings.ToUpper(r.Name)
		}
		fmt.Fprintln(pp.w, strings.Join(names, "\t"))
	}
	values := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.Value
	}
	fmt.Fprintln(pp.w, strings.Join(values, "\t"))
	pp.rows++
	if pp.rows%20 == 0 {
		pp.w.Flush()
	}
}

// emissionLimit stops the scheduler after n points.
func emissionLimit(n int, stop func()) sim.Observer {
	var count atomic.Int64
	return sim.ObserverFunc(func(dynamo.Point) {
		if count.Add(1) == int64(n) {
			stop()
		}
	})
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadProblem(cmd, args)
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format: %s (available: text, json)", format)
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	stepper, err := cfg.Stepper()
	if err != nil {
		return err
	}

	buffer := trajectory.New(cfg.Plot.MaxSegments)
	observers := []sim.Observer{buffer}

	var printer *pointPrinter
	if format == "text" {
		board := labels.New(cfg.ParameterNames(), log)
		_ = board.Add(dynamo.TimeName, false)
		for _, name := range cfg.Plot.LabelParameters {
			_ = board.Add(name, true)
		}
		printer = &pointPrinter{w: tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0), board: board}
		observers = append(observers, board, printer)
	}

	var sched *sim.Scheduler
	if points > 0 {
		observers = append(observers, emissionLimit(points, func() { sched.Stop() }))
	}
	sched, err = sim.New(stepper, cfg.SchedulerOptions(log), observers...)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Info("run started",
		zap.String("problem", cfg.Name),
		zap.String("integrator", cfg.Integrator),
		zap.Float64("dt", cfg.Time.Dt),
		zap.Int("max_fps", cfg.Plot.MaxFPS),
		zap.Int("frame_skip", cfg.Plot.FrameSkip))
	start := time.Now()
	if err := sched.Start(ctx); err != nil {
		return err
	}
	sched.Resume()
	runErr := sched.Wait()
	elapsed := time.Since(start)

	if printer != nil {
		printer.w.Flush()
	}

	window := buffer.Chronological()
	meta := windowMetadata(cfg, sched.Stats(), runErr)
	if format == "json" {
		meta.Points = len(window)
		if err := storage.ExportJSON(os.Stdout, meta, window); err != nil {
			return err
		}
	} else {
		stats := sched.Stats()
		fmt.Fprintf(os.Stderr, "\ncompleted in %v: %d steps, %d points\n", elapsed.Round(time.Millisecond), stats.Steps, stats.Emitted)
	}

	if save {
		id, err := saveWindow(meta, window)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "window id: %s\n", id)
	}
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadProblem(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLiveLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	stepper, err := cfg.Stepper()
	if err != nil {
		return err
	}
	buffer := trajectory.New(cfg.Plot.MaxSegments)
	mailbox := sim.NewMailbox()
	sched, err := sim.New(stepper, cfg.SchedulerOptions(log), buffer, mailbox)
	if err != nil {
		return err
	}

	model, err := viz.NewModel(viz.Options{
		Title:       cfg.Name,
		Description: cfg.Description,
		Scheduler:   sched,
		Mailbox:     mailbox,
		Buffer:      buffer,
		Projector:   cfg.Projector,
		Viewport:    cfg.Viewport(),
		ParamNames:  cfg.ParameterNames(),
		Labels:      cfg.Plot.LabelParameters,
		Theme:       theme,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sched.Start(ctx); err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, uiErr := p.Run()
	sched.Stop()
	runErr := sched.Wait()
	if uiErr != nil {
		return uiErr
	}

	if save {
		id, err := saveWindow(windowMetadata(cfg, sched.Stats(), runErr), buffer.Chronological())
		if err != nil {
			return err
		}
		fmt.Printf("window id: %s\n", id)
	}
	return runErr
}

func windowMetadata(cfg *config.Config, stats sim.Stats, runErr error) storage.WindowMetadata {
	meta := storage.WindowMetadata{
		Problem:     cfg.Name,
		Integrator:  cfg.Integrator,
		Dt:          cfg.Time.Dt,
		MaxFPS:      cfg.Plot.MaxFPS,
		FrameSkip:   cfg.Plot.FrameSkip,
		MaxSegments: cfg.Plot.MaxSegments,
		Variables:   cfg.VariableNames(),
		Parameters:  cfg.ParameterNames(),
		XTransform:  cfg.Plot.XTransform,
		YTransform:  cfg.Plot.YTransform,
		Viewport:    cfg.Viewport(),
		Steps:       stats.Steps,
		Emitted:     stats.Emitted,
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	return meta
}

func saveWindow(meta storage.WindowMetadata, window []dynamo.Point) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(meta, window)
}

// openOutput returns stdout, or the --output file.
func openOutput() (io.WriteCloser, error) {
	if output == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(output)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
