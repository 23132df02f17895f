// Package analysis characterises trajectories produced by a model.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectrum of one sampled column
//   - [Summarize]: range, mean and spread of a column
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(model, integrators.NewRK4(), 10000, 1e-8)
//	if err == nil && lambda > 0 {
//	    // trajectory is chaotic
//	}
package analysis
