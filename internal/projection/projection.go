// Package projection maps trajectory points to 2D drawing coordinates through a pair of
// user expressions and fits a world rectangle onto a canvas.
package projection

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/expr"
)

var (
	defaultHead = colorful.Color{R: 1, G: 0.85, B: 0.25}
	defaultTail = colorful.Color{R: 0.15, G: 0.2, B: 0.55}
)

// Vertex is one projected point. Age runs from 0 at the newest point to 1 at the oldest.
type Vertex struct {
	X, Y  float64
	Age   float64
	Color colorful.Color
}

// Path is a projected polyline, newest vertex first.
type Path []Vertex

// Projector evaluates the x and y transforms for points of one model. The expressions
// read t and the parameters, and the variables when WithVariables is given.
// A Projector owns its own cells and must be used from a single goroutine.
type Projector struct {
	arena      *expr.Arena
	x, y       *expr.Expr
	varBase    int
	paramBase  int
	nvars      int
	nparams    int
	head, tail colorful.Color
}

type Option func(*options)

type options struct {
	varNames   []string
	head, tail colorful.Color
}

// WithVariables also exposes the state variables to the transforms.
func WithVariables(names []string) Option {
	return func(o *options) { o.varNames = names }
}

// WithColors sets the colours of the newest and oldest vertices.
func WithColors(head, tail colorful.Color) Option {
	return func(o *options) { o.head, o.tail = head, tail }
}

func New(xExpr, yExpr string, paramNames []string, opts ...Option) (*Projector, error) {
	o := options{head: defaultHead, tail: defaultTail}
	for _, fn := range opts {
		fn(&o)
	}

	p := &Projector{
		arena:   expr.NewArena(),
		nvars:   len(o.varNames),
		nparams: len(paramNames),
		head:    o.head,
		tail:    o.tail,
	}
	if _, err := p.arena.Define(dynamo.TimeName); err != nil {
		return nil, &dynamo.ConfigurationError{Field: dynamo.TimeName, Err: err}
	}
	p.varBase = p.arena.Len()
	for _, name := range o.varNames {
		if _, err := p.arena.Define(name); err != nil {
			return nil, &dynamo.ConfigurationError{Field: "variables", Err: err}
		}
	}
	p.paramBase = p.arena.Len()
	for _, name := range paramNames {
		if _, err := p.arena.Define(name); err != nil {
			return nil, &dynamo.ConfigurationError{Field: "parameters", Err: err}
		}
	}

	var err error
	if p.x, err = expr.Compile(xExpr, p.arena); err != nil {
		return nil, &dynamo.ConfigurationError{Field: "plot.x_transform", Err: err}
	}
	if p.y, err = expr.Compile(yExpr, p.arena); err != nil {
		return nil, &dynamo.ConfigurationError{Field: "plot.y_transform", Err: err}
	}
	return p, nil
}

// Project returns the display coordinates of pt.
func (p *Projector) Project(pt dynamo.Point) (float64, float64, error) {
	if len(pt.Params) != p.nparams || (p.nvars > 0 && len(pt.Vars) != p.nvars) {
		return 0, 0, fmt.Errorf("%w: point has %d vars/%d params, projection expects %d/%d",
			dynamo.ErrInvalidState, len(pt.Vars), len(pt.Params), p.nvars, p.nparams)
	}
	p.arena.Set(0, pt.T)
	for i := 0; i < p.nvars; i++ {
		p.arena.Set(p.varBase+i, pt.Vars[i])
	}
	for i, v := range pt.Params {
		p.arena.Set(p.paramBase+i, v)
	}

	x, err := p.x.Eval()
	if err != nil {
		return 0, 0, &dynamo.EvaluationError{Time: pt.T, Rule: "x_transform", Err: err}
	}
	y, err := p.y.Eval()
	if err != nil {
		return 0, 0, &dynamo.EvaluationError{Time: pt.T, Rule: "y_transform", Err: err}
	}
	return x, y, nil
}

// Path projects points, which must be newest first, into an aged, colour-graded
// polyline. The gradient is blended in CIE-L*a*b* so brightness falls off evenly.
func (p *Projector) Path(points []dynamo.Point) (Path, error) {
	path := make(Path, len(points))
	last := float64(len(points) - 1)
	for i, pt := range points {
		x, y, err := p.Project(pt)
		if err != nil {
			return nil, err
		}
		age := 0.0
		if last > 0 {
			age = float64(i) / last
		}
		path[i] = Vertex{X: x, Y: y, Age: age, Color: p.head.BlendLab(p.tail, age).Clamped()}
	}
	return path, nil
}

// Bounds returns the smallest viewport containing every vertex.
func (path Path) Bounds() (Viewport, bool) {
	if len(path) == 0 {
		return Viewport{}, false
	}
	v := Viewport{X1: path[0].X, Y1: path[0].Y, X2: path[0].X, Y2: path[0].Y}
	for _, p := range path[1:] {
		v.X1 = min(v.X1, p.X)
		v.Y1 = min(v.Y1, p.Y)
		v.X2 = max(v.X2, p.X)
		v.Y2 = max(v.Y2, p.Y)
	}
	return v, true
}
