package storage

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/pathtracer/internal/projection"
)

// ExportSVG draws a projected path, oldest segment first so the newest stays on top,
// each segment stroked with the colour of its newer end. A zero viewport fits the
// path's bounds with 10% padding.
func ExportSVG(w io.Writer, path projection.Path, vp projection.Viewport, width, height int) error {
	if len(path) < 2 {
		return fmt.Errorf("storage: need at least 2 vertices for svg, got %d", len(path))
	}
	if vp == (projection.Viewport{}) {
		vp = paddedBounds(path)
	}
	if err := vp.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="none" stroke-width="1.5" stroke-linecap="round">
`, width, height, width, height)

	toSVG := func(v projection.Vertex) (float64, float64) {
		x := (v.X - vp.X1) / vp.Width() * float64(width)
		y := float64(height) - (v.Y-vp.Y1)/vp.Height()*float64(height)
		return x, y
	}

	for i := len(path) - 1; i > 0; i-- {
		x0, y0 := toSVG(path[i])
		x1, y1 := toSVG(path[i-1])
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>
`, x0, y0, x1, y1, path[i-1].Color.Hex())
	}

	sb.WriteString("</g>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func paddedBounds(path projection.Path) projection.Viewport {
	b, _ := path.Bounds()
	rangeX, rangeY := b.Width(), b.Height()
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return projection.Viewport{
		X1: b.X1 - rangeX*0.1,
		Y1: b.Y1 - rangeY*0.1,
		X2: b.X2 + rangeX*0.1,
		Y2: b.Y2 + rangeY*0.1,
	}
}
