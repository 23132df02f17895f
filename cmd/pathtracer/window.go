package main

import (
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pathtracer/internal/analysis"
	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/projection"
	"github.com/san-kum/pathtracer/internal/storage"
)

const maxPlots = 6

func listWindows(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	windows, err := st.List()
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		fmt.Println("no saved windows")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tTIME\tINTEG\tDT\tPOINTS\tSTEPS\tSTATUS")
	for _, m := range windows {
		status := "ok"
		if m.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d/%d\t%d\t%s\n",
			m.ID,
			m.Problem,
			m.Timestamp.Local().Format("2006-01-02 15:04:05"),
			m.Integrator,
			m.Dt,
			m.Points, m.MaxSegments,
			m.Steps,
			status,
		)
	}
	return w.Flush()
}

// columnNames lists the columns of a window in CSV order.
func columnNames(meta *storage.WindowMetadata) []string {
	names := []string{dynamo.TimeName}
	names = append(names, meta.Variables...)
	return append(names, meta.Parameters...)
}

func columnData(meta *storage.WindowMetadata, points []dynamo.Point, name string) ([]float64, error) {
	data := make([]float64, len(points))
	if name == dynamo.TimeName {
		for i, p := range points {
			data[i] = p.T
		}
		return data, nil
	}
	if i := slices.Index(meta.Variables, name); i >= 0 {
		for j, p := range points {
			data[j] = p.Vars[i]
		}
		return data, nil
	}
	if i := slices.Index(meta.Parameters, name); i >= 0 {
		for j, p := range points {
			data[j] = p.Params[i]
		}
		return data, nil
	}
	return nil, fmt.Errorf("unknown column: %s (available: %v)", name, columnNames(meta))
}

func loadWindow(id string) (*storage.WindowMetadata, []dynamo.Point, error) {
	meta, points, err := storage.New(dataDir).LoadWindow(id)
	if err != nil {
		return nil, nil, err
	}
	if len(points) == 0 {
		return nil, nil, fmt.Errorf("window %s is empty", id)
	}
	return meta, points, nil
}

func plotWindow(cmd *cobra.Command, args []string) error {
	meta, points, err := loadWindow(args[0])
	if err != nil {
		return err
	}

	names := columnNames(meta)[1:]
	if column != "" {
		names = []string{column}
	}
	if len(names) > maxPlots {
		names = names[:maxPlots]
	}

	fmt.Printf("window: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("points: %d, t = %g .. %g\n\n", len(points), points[0].T, points[len(points)-1].T)
	if meta.Error != "" {
		fmt.Printf("run ended with: %s\n\n", meta.Error)
	}

	for _, name := range names {
		data, err := columnData(meta, points, name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs t"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeWindow(cmd *cobra.Command, args []string) error {
	meta, points, err := loadWindow(args[0])
	if err != nil {
		return err
	}
	name := column
	if name == "" {
		name = meta.Variables[0]
	}
	data, err := columnData(meta, points, name)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("problem: %s, column: %s, samples: %d\n\n", meta.Problem, name, len(data))

	s := analysis.Summarize(data)
	fmt.Printf("min %.6g  max %.6g  mean %.6g  std %.6g\n\n", s.Min, s.Max, s.Mean, s.Std)

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 1 {
		graph := asciigraph.Plot(ps,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+name+")"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	// Emitted points are frame_skip+1 steps apart.
	interval := meta.Dt * float64(meta.FrameSkip+1)
	freq, ok := analysis.DominantFrequency(data, interval)
	if !ok {
		fmt.Println("no dominant frequency")
		return nil
	}
	fmt.Printf("dominant frequency: %.4f (per unit t)\n", freq)
	fmt.Printf("period: %.4f\n", 1/freq)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	meta, points, err := loadWindow(args[0])
	if err != nil {
		return err
	}
	out, err := openOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	return storage.WriteCSV(out, meta.Variables, meta.Parameters, points)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, points, err := loadWindow(args[0])
	if err != nil {
		return err
	}
	out, err := openOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	return storage.ExportJSON(out, *meta, points)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, points, err := loadWindow(args[0])
	if err != nil {
		return err
	}
	if meta.XTransform == "" || meta.YTransform == "" {
		return fmt.Errorf("window %s has no plot transforms", meta.ID)
	}
	proj, err := projection.New(meta.XTransform, meta.YTransform, meta.Parameters,
		projection.WithVariables(meta.Variables))
	if err != nil {
		return err
	}

	// Stored oldest first; paths run newest first.
	newest := slices.Clone(points)
	slices.Reverse(newest)
	path, err := proj.Path(newest)
	if err != nil {
		return err
	}

	vp := projection.Viewport{}
	if !fit {
		vp = meta.Viewport.Fit(width, height)
	}
	out, err := openOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	return storage.ExportSVG(out, path, vp, width, height)
}
