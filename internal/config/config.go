package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/expr"
	"github.com/san-kum/pathtracer/internal/integrators"
	"github.com/san-kum/pathtracer/internal/projection"
	"github.com/san-kum/pathtracer/internal/sim"
)

const (
	DefaultDt          = 0.1
	DefaultMaxFPS      = 60
	DefaultFrameSkip   = 0
	DefaultMaxSegments = 100
	DefaultExtent      = 10.0
	DefaultXTransform  = "x"
	DefaultYTransform  = "y"
	DefaultIntegrator  = "rk4"
)

// Config is one problem: the rules to integrate and how to show them.
type Config struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Variables   []Variable  `yaml:"variables"`
	Parameters  []Parameter `yaml:"parameters,omitempty"`
	Time        TimeConfig  `yaml:"time"`
	Integrator  string      `yaml:"integrator"`
	Plot        PlotConfig  `yaml:"plot"`
	// ValidateState stops a run on the first point with a NaN or Inf component.
	ValidateState bool `yaml:"validate_state,omitempty"`
}

type Variable struct {
	Name       string  `yaml:"name"`
	Derivative string  `yaml:"derivative"`
	Initial    float64 `yaml:"initial"`
}

type Parameter struct {
	Name     string `yaml:"name"`
	Equation string `yaml:"equation"`
}

type TimeConfig struct {
	TInit float64 `yaml:"t_init"`
	Dt    float64 `yaml:"dt"`
}

type PlotConfig struct {
	X1              float64  `yaml:"x1"`
	Y1              float64  `yaml:"y1"`
	X2              float64  `yaml:"x2"`
	Y2              float64  `yaml:"y2"`
	XTransform      string   `yaml:"x_transform"`
	YTransform      string   `yaml:"y_transform"`
	MaxFPS          int      `yaml:"max_fps"`
	FrameSkip       int      `yaml:"frame_skip"`
	MaxSegments     int      `yaml:"max_segments"`
	LabelParameters []string `yaml:"label_parameters,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: DefaultIntegrator,
		Time:       TimeConfig{Dt: DefaultDt},
		Plot: PlotConfig{
			X1:          -DefaultExtent,
			Y1:          -DefaultExtent,
			X2:          DefaultExtent,
			Y2:          DefaultExtent,
			XTransform:  DefaultXTransform,
			YTransform:  DefaultYTransform,
			MaxFPS:      DefaultMaxFPS,
			FrameSkip:   DefaultFrameSkip,
			MaxSegments: DefaultMaxSegments,
		},
	}
}

// Load reads, normalises and validates the problem file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML problem over DefaultConfig. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &dynamo.ConfigurationError{Err: err}
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Normalize trims every name and rewrites it in Unicode NFC, so names typed with
// combining marks match their precomposed spelling inside formulas.
func (c *Config) Normalize() {
	for i := range c.Variables {
		c.Variables[i].Name = normName(c.Variables[i].Name)
		c.Variables[i].Derivative = norm.NFC.String(c.Variables[i].Derivative)
	}
	for i := range c.Parameters {
		c.Parameters[i].Name = normName(c.Parameters[i].Name)
		c.Parameters[i].Equation = norm.NFC.String(c.Parameters[i].Equation)
	}
	for i, l := range c.Plot.LabelParameters {
		c.Plot.LabelParameters[i] = normName(l)
	}
	c.Plot.XTransform = norm.NFC.String(c.Plot.XTransform)
	c.Plot.YTransform = norm.NFC.String(c.Plot.YTransform)
	c.Integrator = strings.ToLower(strings.TrimSpace(c.Integrator))
}

func normName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Validate reports the first problem found as a *dynamo.ConfigurationError. It checks
// shape and ranges only; formulas are compiled by Model.
func (c *Config) Validate() error {
	if len(c.Variables) == 0 {
		return dynamo.Configf("variables", "at least one variable is required")
	}

	seen := map[string]string{dynamo.TimeName: "time"}
	checkName := func(field, name string) error {
		if !expr.IsIdentifier(name) {
			return dynamo.Configf(field, "invalid name %q", name)
		}
		if prev, ok := seen[name]; ok {
			return dynamo.Configf(field, "name %q already used by %s", name, prev)
		}
		seen[name] = field
		return nil
	}

	for i, v := range c.Variables {
		field := fmt.Sprintf("variables[%d]", i)
		if err := checkName(field+".name", v.Name); err != nil {
			return err
		}
		if strings.TrimSpace(v.Derivative) == "" {
			return dynamo.Configf(field+".derivative", "missing derivative for %q", v.Name)
		}
		if !finite(v.Initial) {
			return dynamo.Configf(field+".initial", "must be finite, got %v", v.Initial)
		}
	}
	for i, p := range c.Parameters {
		field := fmt.Sprintf("parameters[%d]", i)
		if err := checkName(field+".name", p.Name); err != nil {
			return err
		}
		if strings.TrimSpace(p.Equation) == "" {
			return dynamo.Configf(field+".equation", "missing equation for %q", p.Name)
		}
	}

	if !finite(c.Time.TInit) {
		return dynamo.Configf("time.t_init", "must be finite, got %v", c.Time.TInit)
	}
	if c.Time.Dt <= 0 || !finite(c.Time.Dt) {
		return dynamo.Configf("time.dt", "must be positive, got %v", c.Time.Dt)
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return &dynamo.ConfigurationError{Field: "integrator", Err: err}
	}

	p := c.Plot
	if err := c.Viewport().Validate(); err != nil {
		return &dynamo.ConfigurationError{Field: "plot", Err: err}
	}
	if strings.TrimSpace(p.XTransform) == "" {
		return dynamo.Configf("plot.x_transform", "must not be empty")
	}
	if strings.TrimSpace(p.YTransform) == "" {
		return dynamo.Configf("plot.y_transform", "must not be empty")
	}
	if p.MaxFPS <= 0 {
		return dynamo.Configf("plot.max_fps", "must be positive, got %d", p.MaxFPS)
	}
	if p.FrameSkip < 0 {
		return dynamo.Configf("plot.frame_skip", "must not be negative, got %d", p.FrameSkip)
	}
	if p.MaxSegments < 1 {
		return dynamo.Configf("plot.max_segments", "must be at least 1, got %d", p.MaxSegments)
	}
	return nil
}

func (c *Config) VariableRules() []dynamo.VariableRule {
	rules := make([]dynamo.VariableRule, len(c.Variables))
	for i, v := range c.Variables {
		rules[i] = dynamo.VariableRule{Name: v.Name, Derivative: v.Derivative}
	}
	return rules
}

func (c *Config) ParameterRules() []dynamo.ParameterRule {
	rules := make([]dynamo.ParameterRule, len(c.Parameters))
	for i, p := range c.Parameters {
		rules[i] = dynamo.ParameterRule{Name: p.Name, Expression: p.Equation}
	}
	return rules
}

func (c *Config) VariableNames() []string {
	names := make([]string, len(c.Variables))
	for i, v := range c.Variables {
		names[i] = v.Name
	}
	return names
}

func (c *Config) ParameterNames() []string {
	names := make([]string, len(c.Parameters))
	for i, p := range c.Parameters {
		names[i] = p.Name
	}
	return names
}

// InitialPoint returns the configured start. Params are filled in by dynamo.Configure.
func (c *Config) InitialPoint() dynamo.Point {
	p := dynamo.Point{T: c.Time.TInit, Vars: make([]float64, len(c.Variables))}
	for i, v := range c.Variables {
		p.Vars[i] = v.Initial
	}
	return p
}

// Model compiles the problem's rules.
func (c *Config) Model() (*dynamo.Model, error) {
	return dynamo.Configure(c.VariableRules(), c.ParameterRules(), c.InitialPoint(), c.Time.Dt)
}

func (c *Config) Method() (integrators.Method, error) {
	return integrators.Get(c.Integrator)
}

// Stepper compiles the model and pairs it with the configured integrator.
func (c *Config) Stepper() (*integrators.Stepper, error) {
	m, err := c.Model()
	if err != nil {
		return nil, err
	}
	method, err := c.Method()
	if err != nil {
		return nil, &dynamo.ConfigurationError{Field: "integrator", Err: err}
	}
	return integrators.New(m, method), nil
}

func (c *Config) SchedulerOptions(log *zap.Logger) sim.Options {
	return sim.Options{
		MaxFPS:        c.Plot.MaxFPS,
		Skip:          c.Plot.FrameSkip,
		ValidateState: c.ValidateState,
		Logger:        log,
	}
}

func (c *Config) Viewport() projection.Viewport {
	return projection.Viewport{X1: c.Plot.X1, Y1: c.Plot.Y1, X2: c.Plot.X2, Y2: c.Plot.Y2}
}

// Projector compiles the plot transforms. They may read t, the parameters and the
// variables.
func (c *Config) Projector(opts ...projection.Option) (*projection.Projector, error) {
	opts = append([]projection.Option{projection.WithVariables(c.VariableNames())}, opts...)
	return projection.New(c.Plot.XTransform, c.Plot.YTransform, c.ParameterNames(), opts...)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Variables = append([]Variable(nil), c.Variables...)
	cp.Parameters = append([]Parameter(nil), c.Parameters...)
	cp.Plot.LabelParameters = append([]string(nil), c.Plot.LabelParameters...)
	return &cp
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
