package formula

import (
	"fmt"
	"math"
	"slices"
)

// function is an allow-listed scalar function callable from formulas. Arguments are coerced to
// float64 before apply is called.
type function struct {
	minArgs int
	// Negative for variadic functions.
	maxArgs int
	apply   func(args []float64) (float64, error)
}

var functions = map[string]function{
	"abs":   unary(math.Abs),
	"sqrt":  unary(math.Sqrt),
	"cbrt":  unary(math.Cbrt),
	"exp":   unary(math.Exp),
	"log":   {minArgs: 1, maxArgs: 2, apply: logarithm},
	"log10": unary(math.Log10),
	"log2":  unary(math.Log2),
	"pow":   binary(math.Pow),
	"mod":   binary(modulo),
	"sign":  unary(sign),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"trunc": unary(math.Trunc),
	"round": {minArgs: 1, maxArgs: 2, apply: round},
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"atan2": binary(math.Atan2),
	"hypot": binary(math.Hypot),
	"min":   {minArgs: 1, maxArgs: -1, apply: minimum},
	"max":   {minArgs: 1, maxArgs: -1, apply: maximum},
	"sum":   {minArgs: 1, maxArgs: -1, apply: sum},
	"avg":   {minArgs: 1, maxArgs: -1, apply: average},
	"clamp": {minArgs: 3, maxArgs: 3, apply: clamp},
	"gt":    comparison(func(a, b float64) bool { return a > b }),
	"gte":   comparison(func(a, b float64) bool { return a >= b }),
	"lt":    comparison(func(a, b float64) bool { return a < b }),
	"lte":   comparison(func(a, b float64) bool { return a <= b }),
	"eq":    comparison(func(a, b float64) bool { return a == b }),
	"ne":    comparison(func(a, b float64) bool { return a != b }),
	"if":    {minArgs: 3, maxArgs: 3, apply: choose},
	"iif":   {minArgs: 3, maxArgs: 3, apply: choose},
}

// FunctionNames returns the names of the functions formulas may call, sorted.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (fn function) call(name string) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		if len(params) < fn.minArgs || (fn.maxArgs >= 0 && len(params) > fn.maxArgs) {
			return nil, fmt.Errorf("wrong number of arguments to %s: %d", name, len(params))
		}

		args := make([]float64, len(params))
		for i, param := range params {
			arg, err := toFloat(param)
			if err != nil {
				return nil, fmt.Errorf("argument %d of %s: %w", i+1, name, err)
			}
			args[i] = arg
		}

		return fn.apply(args)
	}
}

func toFloat(value any) (float64, error) {
	switch value := value.(type) {
	case float64:
		return value, nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case bool:
		if value {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}

func unary(fn func(float64) float64) function {
	return function{minArgs: 1, maxArgs: 1, apply: func(args []float64) (float64, error) {
		return fn(args[0]), nil
	}}
}

func binary(fn func(float64, float64) float64) function {
	return function{minArgs: 2, maxArgs: 2, apply: func(args []float64) (float64, error) {
		return fn(args[0], args[1]), nil
	}}
}

func comparison(compare func(float64, float64) bool) function {
	return binary(func(a, b float64) float64 {
		if compare(a, b) {
			return 1
		}
		return 0
	})
}

func logarithm(args []float64) (float64, error) {
	if len(args) == 2 {
		return math.Log(args[0]) / math.Log(args[1]), nil
	}
	return math.Log(args[0]), nil
}

// modulo follows the sign of the dividend, like the % operator on integers.
func modulo(a, b float64) float64 {
	return math.Mod(a, b)
}

func sign(value float64) float64 {
	switch {
	case value > 0:
		return 1
	case value < 0:
		return -1
	default:
		return 0
	}
}

func round(args []float64) (float64, error) {
	if len(args) == 1 {
		return math.Round(args[0]), nil
	}

	digits := args[1]
	if digits < 0 || digits > 15 || digits != math.Trunc(digits) {
		return 0, fmt.Errorf("round: digits must be a whole number between 0 and 15, got %v", digits)
	}

	scale := math.Pow(10, digits)
	return math.Round(args[0]*scale) / scale, nil
}

func minimum(args []float64) (float64, error) {
	return slices.Min(args), nil
}

func maximum(args []float64) (float64, error) {
	return slices.Max(args), nil
}

func sum(args []float64) (float64, error) {
	total := 0.0
	for _, arg := range args {
		total += arg
	}
	return total, nil
}

func average(args []float64) (float64, error) {
	total, _ := sum(args)
	return total / float64(len(args)), nil
}

func clamp(args []float64) (float64, error) {
	value, low, high := args[0], args[1], args[2]
	if low > high {
		return 0, fmt.Errorf("clamp: lower bound %v is above upper bound %v", low, high)
	}
	return math.Min(math.Max(value, low), high), nil
}

func choose(args []float64) (float64, error) {
	if args[0] != 0 {
		return args[1], nil
	}
	return args[2], nil
}
