// Package expr compiles and evaluates arithmetic formulas over named float64 cells.
//
// Every name a formula may reference lives in an [Arena]: an explicit list of cells with
// stable indices. [Compile] resolves names to indices once; the resulting [Expr] reads the
// arena's current values each time it is evaluated, so writing a cell and re-evaluating is
// immediately visible without recompiling. Many expressions may share one arena.
//
// # Grammar
//
//	expr    = cond
//	cond    = or [ "?" expr ":" expr ]
//	or      = and { "||" and }
//	and     = eq { "&&" eq }
//	eq      = cmp { ("==" | "!=") cmp }
//	cmp     = sum { ("<" | "<=" | ">" | ">=") sum }
//	sum     = prod { ("+" | "-") prod }
//	prod    = unary { ("*" | "/") unary }
//	unary   = { "+" | "-" } pow
//	pow     = call [ "^" unary ]
//	call    = number | name | name "(" [ expr { "," expr } ] ")" | "(" expr ")"
//
// Comparisons and logical operators yield 1 or 0. Built-in functions follow the usual
// calculator set (sin, cos, exp, sqrt, min, max, sum, avg, ...); _pi and _e are constants.
//
// # Numeric faults
//
// Arithmetic is IEEE-754: x/0 evaluates to ±Inf and is not an error. A NaN result
// (0/0, sqrt(-1), log(-1), Inf-Inf) is treated as an undefined operation and Eval
// returns an [Error] of kind [EvaluationError].
package expr
