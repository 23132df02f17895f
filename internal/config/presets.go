package config

import "sort"

// Presets are built-in problems, addressable by name from the CLI.
var Presets = map[string]*Config{
	"lorenz": {
		Name:        "lorenz",
		Description: "Lorenz attractor, x/z plane",
		Variables: []Variable{
			{Name: "x", Derivative: "sigma*(y - x)", Initial: 1},
			{Name: "y", Derivative: "x*(rho - z) - y", Initial: 1},
			{Name: "z", Derivative: "x*y - beta*z", Initial: 1},
		},
		Parameters: []Parameter{
			{Name: "sigma", Equation: "10"},
			{Name: "rho", Equation: "28"},
			{Name: "beta", Equation: "8/3"},
			{Name: "r", Equation: "sqrt(x^2 + y^2 + z^2)"},
		},
		Time:       TimeConfig{Dt: 0.01},
		Integrator: "rk4",
		Plot: PlotConfig{
			X1: -30, Y1: -5, X2: 30, Y2: 55,
			XTransform: "x", YTransform: "z",
			MaxFPS: 60, FrameSkip: 1, MaxSegments: 400,
			LabelParameters: []string{"r"},
		},
	},
	"oscillator": {
		Name:        "oscillator",
		Description: "Harmonic oscillator in phase space",
		Variables: []Variable{
			{Name: "x", Derivative: "v", Initial: 1},
			{Name: "v", Derivative: "-omega^2*x"},
		},
		Parameters: []Parameter{
			{Name: "omega", Equation: "2"},
			{Name: "energy", Equation: "(v^2 + omega^2*x^2)/2"},
		},
		Time:       TimeConfig{Dt: 0.05},
		Integrator: "rk4",
		Plot: PlotConfig{
			X1: -3, Y1: -3, X2: 3, Y2: 3,
			XTransform: "x", YTransform: "v",
			MaxFPS: 60, MaxSegments: 150,
			LabelParameters: []string{"energy"},
		},
	},
	"vanderpol": {
		Name:        "vanderpol",
		Description: "Van der Pol relaxation oscillator",
		Variables: []Variable{
			{Name: "x", Derivative: "v", Initial: 2},
			{Name: "v", Derivative: "mu*(1 - x^2)*v - x"},
		},
		Parameters: []Parameter{
			{Name: "mu", Equation: "1.5"},
		},
		Time:       TimeConfig{Dt: 0.02},
		Integrator: "rk4",
		Plot: PlotConfig{
			X1: -5, Y1: -5, X2: 5, Y2: 5,
			XTransform: "x", YTransform: "v",
			MaxFPS: 60, MaxSegments: 300,
			LabelParameters: []string{"mu"},
		},
	},
	"pendulum": {
		Name:        "pendulum",
		Description: "Simple pendulum, bob position",
		Variables: []Variable{
			{Name: "theta", Derivative: "omega", Initial: 2.5},
			{Name: "omega", Derivative: "-g_over_l*sin(theta)"},
		},
		Parameters: []Parameter{
			{Name: "g_over_l", Equation: "9.81"},
			{Name: "px", Equation: "sin(theta)"},
			{Name: "py", Equation: "-cos(theta)"},
			{Name: "energy", Equation: "omega^2/2 - g_over_l*cos(theta)"},
		},
		Time:       TimeConfig{Dt: 0.01},
		Integrator: "rk4",
		Plot: PlotConfig{
			X1: -1.5, Y1: -1.5, X2: 1.5, Y2: 1.5,
			XTransform: "px", YTransform: "py",
			MaxFPS: 60, FrameSkip: 2, MaxSegments: 60,
			LabelParameters: []string{"energy", "px", "py"},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
