package formula

import (
	"fmt"
	"math"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/guregu/null/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"hermannm.dev/wrap"
)

const DefaultCacheSize = 512

// Scope maps formula variable names to their values. Values that are not finite numbers are
// evaluated as 0.
type Scope map[string]any

// Sandbox evaluates user-authored formulas against a numeric scope. Compiled programs are cached
// by formula text. Safe for concurrent use.
type Sandbox struct {
	programs *lru.Cache[string, *vm.Program]
}

func NewSandbox(cacheSize int) (*Sandbox, error) {
	programs, err := lru.New[string, *vm.Program](cacheSize)
	if err != nil {
		return nil, wrap.Error(err, "failed to create formula program cache")
	}
	return &Sandbox{programs: programs}, nil
}

var defaultSandbox = mustNewSandbox(DefaultCacheSize)

func mustNewSandbox(cacheSize int) *Sandbox {
	sandbox, err := NewSandbox(cacheSize)
	if err != nil {
		panic(err)
	}
	return sandbox
}

// Evaluate runs the formula in the default sandbox. See Sandbox.Evaluate.
func Evaluate(formula string, scope Scope) null.Float {
	return defaultSandbox.Evaluate(formula, scope)
}

// Evaluate runs the formula and returns its result, or null if the formula is invalid, refers to
// unbound variables, fails at runtime or produces a non-finite number. Never panics.
func (sandbox *Sandbox) Evaluate(formula string, scope Scope) (result null.Float) {
	defer func() {
		if recover() != nil {
			result = null.Float{}
		}
	}()

	value, err := sandbox.Run(formula, scope)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(value)
}

// Run validates and evaluates the formula, returning the reason for failure when there is no
// finite result.
func (sandbox *Sandbox) Run(formula string, scope Scope) (float64, error) {
	variables, err := inspect(formula)
	if err != nil {
		return 0, err
	}

	env := make(map[string]any, len(scope))
	for name, value := range scope {
		env[name] = scopeValue(value)
	}
	for _, variable := range variables.Slice() {
		if _, bound := env[variable]; !bound {
			return 0, fmt.Errorf("%w: '%s'", ErrUnknownVariable, variable)
		}
	}

	program, err := sandbox.program(formula)
	if err != nil {
		return 0, err
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return 0, wrap.Error(err, "failed to evaluate formula")
	}

	var result float64
	switch output := output.(type) {
	case float64:
		result = output
	case int:
		result = float64(output)
	default:
		return 0, fmt.Errorf("%w (got %T)", ErrNonNumericResult, output)
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, ErrNonFiniteResult
	}
	return result, nil
}

func (sandbox *Sandbox) program(formula string) (*vm.Program, error) {
	if program, ok := sandbox.programs.Get(formula); ok {
		return program, nil
	}

	program, err := expr.Compile(formula, sandboxOptions...)
	if err != nil {
		return nil, wrap.Error(err, "failed to compile formula")
	}

	sandbox.programs.Add(formula, program)
	return program, nil
}

func scopeValue(value any) float64 {
	if value, ok := value.(null.Float); ok {
		if value.Valid && !math.IsNaN(value.Float64) && !math.IsInf(value.Float64, 0) {
			return value.Float64
		}
		return 0
	}

	number, _ := dataset.Number(value)
	return number
}
