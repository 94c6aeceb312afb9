package formula

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/conf"
	"github.com/expr-lang/expr/parser"
	"github.com/hashicorp/go-set/v2"
	"hermannm.dev/wrap"
)

const MaxFormulaLength = 1000

var (
	ErrEmptyFormula       = errors.New("formula is empty")
	ErrFormulaTooLong     = fmt.Errorf("formula is longer than %d characters", MaxFormulaLength)
	ErrSyntax             = errors.New("formula has invalid syntax")
	ErrDisallowedFunction = errors.New("function is not available")
	ErrDisallowedSymbol   = errors.New("symbol is not allowed")
	ErrDisallowedNode     = errors.New("expression is not allowed")
	ErrUnknownVariable    = errors.New("variable is not bound")
	ErrNonNumericResult   = errors.New("formula did not produce a number")
	ErrNonFiniteResult    = errors.New("formula result is not a finite number")
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

// Identifiers containing any of these, case-insensitively, are rejected outright.
var deniedSymbolFragments = []string{
	"__proto__",
	"prototype",
	"constructor",
	"process",
	"global",
	"window",
	"document",
	"require",
	"import",
	"export",
	"eval",
	"module",
}

var deniedSymbols = map[string]struct{}{
	"$env": {},
	"this": {},
	"self": {},
}

var allowedUnaryOperators = map[string]struct{}{
	"-": {}, "+": {}, "!": {}, "not": {},
}

var allowedBinaryOperators = map[string]struct{}{
	"+": {}, "-": {}, "*": {}, "/": {}, "%": {}, "^": {}, "**": {},
	"<": {}, ">": {}, "<=": {}, ">=": {}, "==": {}, "!=": {},
	"&&": {}, "||": {}, "and": {}, "or": {},
}

var sandboxOptions = newSandboxOptions()

func newSandboxOptions() []expr.Option {
	options := []expr.Option{
		expr.DisableAllBuiltins(),
		expr.DisableIfOperator(),
		expr.Patch(moduloPatcher{}),
		expr.Patch(floatLiteralPatcher{}),
	}
	for name, fn := range functions {
		options = append(options, expr.Function(name, fn.call(name)))
	}
	return options
}

func parse(formula string) (*parser.Tree, error) {
	config := conf.CreateNew()
	for _, option := range sandboxOptions {
		option(config)
	}

	tree, err := parser.ParseWithConfig(formula, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return tree, nil
}

// Validate checks that the formula is safe to evaluate: non-empty, within the length limit,
// syntactically valid, and built only from numeric literals, arithmetic and comparison
// operators, conditionals, allowed identifiers and allow-listed function calls.
func Validate(formula string) error {
	_, err := inspect(formula)
	return err
}

func inspect(formula string) (variables *set.Set[string], err error) {
	if strings.TrimSpace(formula) == "" {
		return nil, ErrEmptyFormula
	}
	if utf8.RuneCountInString(formula) > MaxFormulaLength {
		return nil, ErrFormulaTooLong
	}

	tree, err := parse(formula)
	if err != nil {
		return nil, err
	}

	inspector := inspector{variables: set.New[string](4)}
	if err := inspector.inspect(tree.Node); err != nil {
		return nil, err
	}
	return inspector.variables, nil
}

type inspector struct {
	variables *set.Set[string]
}

func (inspector inspector) inspect(node ast.Node) error {
	switch node := node.(type) {
	case *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode:
		return nil
	case *ast.IdentifierNode:
		if err := checkSymbol(node.Value); err != nil {
			return err
		}
		if _, isFunction := functions[node.Value]; isFunction {
			return fmt.Errorf("%w: function '%s' used as a variable", ErrDisallowedSymbol, node.Value)
		}
		inspector.variables.Insert(node.Value)
		return nil
	case *ast.UnaryNode:
		if _, ok := allowedUnaryOperators[node.Operator]; !ok {
			return fmt.Errorf("%w: operator '%s'", ErrDisallowedNode, node.Operator)
		}
		return inspector.inspect(node.Node)
	case *ast.BinaryNode:
		if _, ok := allowedBinaryOperators[node.Operator]; !ok {
			return fmt.Errorf("%w: operator '%s'", ErrDisallowedNode, node.Operator)
		}
		if err := inspector.inspect(node.Left); err != nil {
			return err
		}
		return inspector.inspect(node.Right)
	case *ast.ConditionalNode:
		for _, branch := range []ast.Node{node.Cond, node.Exp1, node.Exp2} {
			if err := inspector.inspect(branch); err != nil {
				return err
			}
		}
		return nil
	case *ast.CallNode:
		callee, ok := node.Callee.(*ast.IdentifierNode)
		if !ok {
			return fmt.Errorf("%w: call of computed function", ErrDisallowedNode)
		}
		return inspector.inspectCall(callee.Value, node.Arguments)
	case *ast.BuiltinNode:
		return inspector.inspectCall(node.Name, node.Arguments)
	default:
		return fmt.Errorf("%w: '%s'", ErrDisallowedNode, node.String())
	}
}

func (inspector inspector) inspectCall(name string, arguments []ast.Node) error {
	fn, ok := functions[name]
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrDisallowedFunction, name)
	}
	if len(arguments) < fn.minArgs || (fn.maxArgs >= 0 && len(arguments) > fn.maxArgs) {
		return fmt.Errorf(
			"%w: wrong number of arguments to '%s' (got %d)",
			ErrDisallowedNode,
			name,
			len(arguments),
		)
	}

	for _, argument := range arguments {
		if err := inspector.inspect(argument); err != nil {
			return err
		}
	}
	return nil
}

func checkSymbol(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: '%s'", ErrDisallowedSymbol, name)
	}
	if _, denied := deniedSymbols[name]; denied {
		return fmt.Errorf("%w: '%s'", ErrDisallowedSymbol, name)
	}

	lowered := strings.ToLower(name)
	for _, fragment := range deniedSymbolFragments {
		if strings.Contains(lowered, fragment) {
			return fmt.Errorf("%w: '%s'", ErrDisallowedSymbol, name)
		}
	}
	return nil
}

// ExtractVariables returns the names of the free variables the formula references, excluding
// function names. It only requires the formula to parse, so it also works on formulas that
// Validate would reject.
func ExtractVariables(formula string) (*set.Set[string], error) {
	if strings.TrimSpace(formula) == "" {
		return set.New[string](0), nil
	}

	tree, err := parse(formula)
	if err != nil {
		return nil, wrap.Error(err, "failed to extract formula variables")
	}

	collector := variableCollector{callees: make(map[ast.Node]struct{})}
	ast.Walk(&tree.Node, &collector)

	variables := set.New[string](len(collector.identifiers))
	for _, identifier := range collector.identifiers {
		if _, isCallee := collector.callees[identifier]; !isCallee {
			variables.Insert(identifier.Value)
		}
	}
	return variables, nil
}

type variableCollector struct {
	identifiers []*ast.IdentifierNode
	callees     map[ast.Node]struct{}
}

func (collector *variableCollector) Visit(node *ast.Node) {
	switch node := (*node).(type) {
	case *ast.IdentifierNode:
		collector.identifiers = append(collector.identifiers, node)
	case *ast.CallNode:
		collector.callees[node.Callee] = struct{}{}
	}
}

// moduloPatcher rewrites a % b into mod(a, b), since the builtin operator only accepts integers.
type moduloPatcher struct{}

func (moduloPatcher) Visit(node *ast.Node) {
	binary, ok := (*node).(*ast.BinaryNode)
	if !ok || binary.Operator != "%" {
		return
	}

	ast.Patch(node, &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: "mod"},
		Arguments: []ast.Node{binary.Left, binary.Right},
	})
}

// floatLiteralPatcher turns integer literals into floats, so that arithmetic overflows to infinity
// instead of wrapping around.
type floatLiteralPatcher struct{}

func (floatLiteralPatcher) Visit(node *ast.Node) {
	integer, ok := (*node).(*ast.IntegerNode)
	if !ok {
		return
	}

	ast.Patch(node, &ast.FloatNode{Value: float64(integer.Value)})
}
