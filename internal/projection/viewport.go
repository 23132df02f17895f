package projection

import (
	"fmt"
	"math"
)

// Viewport is an axis-aligned world rectangle with X1 < X2 and Y1 < Y2.
type Viewport struct {
	X1, Y1, X2, Y2 float64
}

func (v Viewport) Width() float64  { return v.X2 - v.X1 }
func (v Viewport) Height() float64 { return v.Y2 - v.Y1 }

func (v Viewport) Validate() error {
	for _, c := range []float64{v.X1, v.Y1, v.X2, v.Y2} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("viewport coordinates must be finite: %+v", v)
		}
	}
	if v.X2 <= v.X1 || v.Y2 <= v.Y1 {
		return fmt.Errorf("viewport is degenerate: (%g, %g)-(%g, %g)", v.X1, v.Y1, v.X2, v.Y2)
	}
	return nil
}

// Fit grows v along one axis so it has the aspect ratio of a w x h canvas, keeping v
// centred and fully visible.
func (v Viewport) Fit(w, h int) Viewport {
	if w <= 0 || h <= 0 {
		return v
	}
	defW, defH := v.Width(), v.Height()
	fw, fh := float64(w), float64(h)

	var ratio float64
	if defW*fh < defH*fw {
		ratio = defH / fh // letterbox left and right
	} else {
		ratio = defW / fw // letterbox top and bottom
	}
	nw, nh := fw*ratio, fh*ratio

	x := v.X1 + (defW-nw)/2
	y := v.Y1 + (defH-nh)/2
	return Viewport{X1: x, Y1: y, X2: x + nw, Y2: y + nh}
}

// ToPixel maps world (x, y) onto a w x h pixel grid whose row 0 is at the top.
// ok is false for points outside the viewport.
func (v Viewport) ToPixel(x, y float64, w, h int) (px, py int, ok bool) {
	fx := (x - v.X1) / v.Width() * float64(w)
	fy := (v.Y2 - y) / v.Height() * float64(h)
	if math.IsNaN(fx) || math.IsNaN(fy) || fx < 0 || fy < 0 || fx > float64(w) || fy > float64(h) {
		return 0, 0, false
	}
	px, py = int(fx), int(fy)
	if px == w {
		px--
	}
	if py == h {
		py--
	}
	return px, py, true
}
