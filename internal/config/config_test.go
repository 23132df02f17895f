package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/integrators"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "rk4", cfg.Integrator)
	assert.Equal(t, 0.1, cfg.Time.Dt)
	assert.Equal(t, 60, cfg.Plot.MaxFPS)
	assert.Equal(t, 0, cfg.Plot.FrameSkip)
	assert.Equal(t, 100, cfg.Plot.MaxSegments)
	assert.Equal(t, "x", cfg.Plot.XTransform)
	assert.Equal(t, "y", cfg.Plot.YTransform)
	assert.Equal(t, -10.0, cfg.Plot.X1)
	assert.Equal(t, 10.0, cfg.Plot.Y2)
}

func TestParse_FillsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
name: decay
variables:
  - name: x
    derivative: -k*x
    initial: 1
parameters:
  - name: k
    equation: "0.5"
plot:
  max_fps: 30
`))
	require.NoError(t, err)

	assert.Equal(t, "decay", cfg.Name)
	assert.Equal(t, 0.1, cfg.Time.Dt)
	assert.Equal(t, 30, cfg.Plot.MaxFPS)
	assert.Equal(t, 100, cfg.Plot.MaxSegments)
	assert.Equal(t, []string{"x"}, cfg.VariableNames())
	assert.Equal(t, []string{"k"}, cfg.ParameterNames())

	opts := cfg.SchedulerOptions(nil)
	assert.Equal(t, 30, opts.MaxFPS)
	assert.Equal(t, 0, opts.Skip)
	assert.False(t, opts.ValidateState)
}

func TestParse_ValidateState(t *testing.T) {
	cfg, err := Parse([]byte("variables: [{name: x, derivative: '1/0'}]\nvalidate_state: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.ValidateState)
	assert.True(t, cfg.SchedulerOptions(nil).ValidateState)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("variables: [{name: x, derivative: '1'}]\nplot:\n  maxfps: 10\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrConfiguration)
}

func TestParse_EmptyDocument(t *testing.T) {
	_, err := Parse(nil)
	var cfgErr *dynamo.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "variables", cfgErr.Field)
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Variables = []Variable{{Name: "x", Derivative: "v"}, {Name: "v", Derivative: "-x"}}
		cfg.Parameters = []Parameter{{Name: "e", Equation: "x^2 + v^2"}}
		return cfg
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no variables", func(c *Config) { c.Variables = nil }, "variables"},
		{"bad name", func(c *Config) { c.Variables[0].Name = "2x" }, "variables[0].name"},
		{"time name", func(c *Config) { c.Variables[1].Name = "t" }, "variables[1].name"},
		{"duplicate across kinds", func(c *Config) { c.Parameters[0].Name = "x" }, "parameters[0].name"},
		{"missing derivative", func(c *Config) { c.Variables[1].Derivative = "  " }, "variables[1].derivative"},
		{"missing equation", func(c *Config) { c.Parameters[0].Equation = "" }, "parameters[0].equation"},
		{"zero dt", func(c *Config) { c.Time.Dt = 0 }, "time.dt"},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk45" }, "integrator"},
		{"degenerate viewport", func(c *Config) { c.Plot.X2 = c.Plot.X1 }, "plot"},
		{"empty transform", func(c *Config) { c.Plot.YTransform = "" }, "plot.y_transform"},
		{"zero fps", func(c *Config) { c.Plot.MaxFPS = 0 }, "plot.max_fps"},
		{"negative skip", func(c *Config) { c.Plot.FrameSkip = -1 }, "plot.frame_skip"},
		{"no segments", func(c *Config) { c.Plot.MaxSegments = 0 }, "plot.max_segments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *dynamo.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %T", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNormalize_DetectsCanonicallyEqualNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variables = []Variable{
		{Name: "café", Derivative: "1"},
		{Name: " café ", Derivative: "1"},
	}
	cfg.Normalize()

	assert.Equal(t, "caf\u00e9", cfg.Variables[1].Name)
	var cfgErr *dynamo.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "variables[1].name", cfgErr.Field)
}

func TestNormalize_FormulaMatchesPrecomposedName(t *testing.T) {
	cfg, err := Parse([]byte("variables:\n  - name: \"é\"\n    derivative: \"é * 2\"\n    initial: 1\n"))
	require.NoError(t, err)

	m, err := cfg.Model()
	require.NoError(t, err)
	assert.Equal(t, 1, m.VarCount())
}

func TestModel_CompileErrorsSurfaceBeforeStepping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variables = []Variable{{Name: "x", Derivative: "y"}}
	require.NoError(t, cfg.Validate())

	_, err := cfg.Stepper()
	var cfgErr *dynamo.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "variables[0].derivative", cfgErr.Field)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.yaml")
	want := GetPreset("lorenz")
	require.NotNil(t, want)

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"lorenz", "oscillator", "pendulum", "vanderpol"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			require.NotNil(t, cfg)
			require.NoError(t, cfg.Validate())

			st, err := cfg.Stepper()
			require.NoError(t, err)
			proj, err := cfg.Projector()
			require.NoError(t, err)

			for i := 0; i < 20; i++ {
				p, err := st.CalculateStep()
				require.NoError(t, err)
				require.True(t, p.IsValid(), "invalid point %v", p)
				_, _, err = proj.Project(p)
				require.NoError(t, err)
			}
		})
	}
}

func TestGetPreset_ReturnsCopy(t *testing.T) {
	cfg := GetPreset("oscillator")
	cfg.Variables[0].Initial = 42
	cfg.Plot.LabelParameters[0] = "omega"

	fresh := GetPreset("oscillator")
	assert.Equal(t, 1.0, fresh.Variables[0].Initial)
	assert.Equal(t, "energy", fresh.Plot.LabelParameters[0])
	assert.Nil(t, GetPreset("nonexistent"))
}

func TestMethod(t *testing.T) {
	cfg := GetPreset("vanderpol")
	cfg.Integrator = "euler"
	m, err := cfg.Method()
	require.NoError(t, err)
	assert.IsType(t, &integrators.Euler{}, m)
}
