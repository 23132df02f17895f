// Package dynamo provides the data model for rule-driven dynamical systems.
//
// A system is described by ordered rules rather than compiled code:
//
//   - [VariableRule]: a state variable and the formula for its time derivative
//   - [ParameterRule]: a derived quantity, an algebraic function of t, the state
//     variables and earlier parameters
//   - [Point]: one trajectory sample (t, vars, params)
//   - [Model]: the compiled rules plus the live cells they read
//
// # Example
//
//	m, err := dynamo.Configure(
//	    []dynamo.VariableRule{{Name: "x", Derivative: "-k*x"}},
//	    []dynamo.ParameterRule{{Name: "k", Expression: "0.5"}},
//	    dynamo.Point{T: 0, Vars: []float64{1}},
//	    0.01,
//	)
//
// # Thread Safety
//
// A Model's cells are rewritten at every integration stage. A Model must be owned by a
// single goroutine (the producer); consumers only ever see cloned Points.
package dynamo
