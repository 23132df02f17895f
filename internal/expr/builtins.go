package expr

import "math"

const variadic = -1

type builtin struct {
	arity int
	fn1   func(float64) float64
	fn2   func(float64, float64) float64
	fnN   func([]float64) float64
}

var constants = map[string]float64{
	"_pi": math.Pi,
	"_e":  math.E,
}

var builtins = map[string]builtin{
	"sin":   {arity: 1, fn1: math.Sin},
	"cos":   {arity: 1, fn1: math.Cos},
	"tan":   {arity: 1, fn1: math.Tan},
	"asin":  {arity: 1, fn1: math.Asin},
	"acos":  {arity: 1, fn1: math.Acos},
	"atan":  {arity: 1, fn1: math.Atan},
	"sinh":  {arity: 1, fn1: math.Sinh},
	"cosh":  {arity: 1, fn1: math.Cosh},
	"tanh":  {arity: 1, fn1: math.Tanh},
	"asinh": {arity: 1, fn1: math.Asinh},
	"acosh": {arity: 1, fn1: math.Acosh},
	"atanh": {arity: 1, fn1: math.Atanh},
	"log2":  {arity: 1, fn1: math.Log2},
	"log10": {arity: 1, fn1: math.Log10},
	"log":   {arity: 1, fn1: math.Log},
	"ln":    {arity: 1, fn1: math.Log},
	"exp":   {arity: 1, fn1: math.Exp},
	"sqrt":  {arity: 1, fn1: math.Sqrt},
	"sign":  {arity: 1, fn1: sign},
	"rint":  {arity: 1, fn1: math.RoundToEven},
	"abs":   {arity: 1, fn1: math.Abs},
	"atan2": {arity: 2, fn2: math.Atan2},
	"pow":   {arity: 2, fn2: math.Pow},
	"mod":   {arity: 2, fn2: math.Mod},
	"min":   {arity: variadic, fnN: minOf},
	"max":   {arity: variadic, fnN: maxOf},
	"sum":   {arity: variadic, fnN: sumOf},
	"avg":   {arity: variadic, fnN: func(xs []float64) float64 { return sumOf(xs) / float64(len(xs)) }},
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m
}

func sumOf(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
