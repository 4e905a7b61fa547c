// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calculation

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	gotypes "go/types"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// Options understood by the expression method.
const (
	OptionExpression = "expression"
	OptionCallable   = "callable"
)

// DefaultPackages are the standard library packages expressions may use
// when no other set is configured.
var DefaultPackages = []string{"math", "strconv", "strings", "time"}

// ErrMissingScopeName is returned when a calculation refers to a name the
// scope does not hold.
var ErrMissingScopeName = errors.New("name not in scope")

// Callable is the signature of scope values the callable option invokes.
type Callable func(scope map[string]interface{}) (interface{}, error)

// scopePackage is the import path the scope is exposed under inside the
// interpreter.
const scopePackage = "calcscope"

// ExpressionMethod evaluates a single Go expression in a fresh yaegi
// interpreter per call. The expression sees exactly the scope names as
// local variables and the whitelisted standard library packages; nothing
// else is importable and no state survives between calls.
type ExpressionMethod struct {
	packages []string
	symbols  interp.Exports
}

// NewExpressionMethod whitelists packages, or DefaultPackages when none
// are given.
func NewExpressionMethod(packages ...string) (*ExpressionMethod, error) {
	if len(packages) == 0 {
		packages = DefaultPackages
	}
	allowed := make(map[string]bool, len(packages))
	for _, p := range packages {
		allowed[p] = true
	}
	symbols := interp.Exports{}
	for key, syms := range stdlib.Symbols {
		// Keys look like "math/math" or "encoding/json/json"; the table
		// also holds entries with no package path, which are never allowed.
		i := strings.LastIndex(key, "/")
		if i < 0 {
			continue
		}
		path := key[:i]
		if allowed[path] {
			symbols[key] = syms
			delete(allowed, path)
		}
	}
	if len(allowed) > 0 {
		missing := make([]string, 0, len(allowed))
		for p := range allowed {
			missing = append(missing, p)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("configuring expression method: unknown packages %s", strings.Join(missing, ", "))
	}
	sorted := append([]string(nil), packages...)
	sort.Strings(sorted)
	return &ExpressionMethod{packages: sorted, symbols: symbols}, nil
}

// CheckOptions requires exactly one of expression or callable, and an
// expression must parse as a single Go expression.
func (m *ExpressionMethod) CheckOptions(options map[string]interface{}) error {
	expr, hasExpr := options[OptionExpression].(string)
	callable, hasCallable := options[OptionCallable].(string)
	switch {
	case hasExpr && hasCallable:
		return fmt.Errorf("options %q and %q are mutually exclusive", OptionExpression, OptionCallable)
	case hasExpr:
		if _, err := parser.ParseExpr(expr); err != nil {
			return fmt.Errorf("parsing expression %q: %w", expr, err)
		}
	case hasCallable:
		if !token.IsIdentifier(callable) {
			return fmt.Errorf("callable %q is not a name", callable)
		}
	default:
		return fmt.Errorf("one of the string options %q or %q is required", OptionExpression, OptionCallable)
	}
	return nil
}

// Evaluate runs the calculation's expression, or invokes its callable with
// a copy of the scope.
func (m *ExpressionMethod) Evaluate(ctx context.Context, calc types.Calculation, scope map[string]interface{}) (interface{}, error) {
	if err := m.CheckOptions(calc.Options); err != nil {
		return nil, err
	}
	if name, ok := calc.Options[OptionCallable].(string); ok {
		return m.call(name, scope)
	}
	expr := calc.Options[OptionExpression].(string)
	if err := m.checkNames(expr, scope); err != nil {
		return nil, err
	}
	return m.eval(ctx, expr, scope)
}

// checkNames reports the first free name of expr that is neither in scope,
// a whitelisted package, nor predeclared. Expressions declaring their own
// names through function literals are left to the interpreter.
func (m *ExpressionMethod) checkNames(expr string, scope map[string]interface{}) error {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return fmt.Errorf("parsing expression %q: %w", expr, err)
	}
	packages := make(map[string]bool, len(m.packages))
	for _, p := range m.packages {
		packages[p[strings.LastIndex(p, "/")+1:]] = true
	}
	var missing string
	ast.Inspect(node, func(n ast.Node) bool {
		if missing != "" {
			return false
		}
		switch t := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.SelectorExpr:
			ast.Inspect(t.X, func(n ast.Node) bool {
				if id, ok := n.(*ast.Ident); ok && missing == "" && !known(id.Name, scope, packages) {
					missing = id.Name
				}
				return missing == ""
			})
			return false
		case *ast.KeyValueExpr:
			ast.Inspect(t.Value, func(n ast.Node) bool {
				if id, ok := n.(*ast.Ident); ok && missing == "" && !known(id.Name, scope, packages) {
					missing = id.Name
				}
				return missing == ""
			})
			return false
		case *ast.Ident:
			if !known(t.Name, scope, packages) {
				missing = t.Name
			}
		}
		return true
	})
	if missing != "" {
		return fmt.Errorf("evaluating %q: %w: %s", expr, ErrMissingScopeName, missing)
	}
	return nil
}

func known(name string, scope map[string]interface{}, packages map[string]bool) bool {
	if _, ok := scope[name]; ok {
		return true
	}
	return packages[name] || name == "_" || gotypes.Universe.Lookup(name) != nil
}

func (m *ExpressionMethod) call(name string, scope map[string]interface{}) (interface{}, error) {
	v, ok := scope[name]
	if !ok {
		return nil, fmt.Errorf("calling %q: %w", name, ErrMissingScopeName)
	}
	var fn Callable
	switch f := v.(type) {
	case Callable:
		fn = f
	case func(map[string]interface{}) (interface{}, error):
		fn = f
	default:
		return nil, fmt.Errorf("calling %q: %T is not callable", name, v)
	}
	arg := make(map[string]interface{}, len(scope))
	for k, val := range scope {
		arg[k] = val
	}
	return fn(arg)
}

func (m *ExpressionMethod) eval(ctx context.Context, expr string, scope map[string]interface{}) (result interface{}, err error) {
	names := make([]string, 0, len(scope))
	for name := range scope {
		if token.IsIdentifier(name) && name != "scope__" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	vars := make(map[string]reflect.Value, len(names))
	for i, name := range names {
		vars[fmt.Sprintf("V%d", i)] = variable(scope[name])
	}

	i := interp.New(interp.Options{})
	if err := i.Use(m.symbols); err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	if err := i.Use(interp.Exports{scopePackage + "/" + scopePackage: vars}); err != nil {
		return nil, fmt.Errorf("loading scope: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluating %q: panic: %v", expr, r)
		}
	}()
	if _, err := i.EvalWithContext(ctx, m.source(expr, names)); err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", expr, err)
	}
	v, err := i.EvalWithContext(ctx, "main.Calculate")
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", expr, err)
	}
	fn, ok := v.Interface().(func() interface{})
	if !ok {
		return nil, fmt.Errorf("evaluating %q: unexpected wrapper type %s", expr, v.Type())
	}
	return fn(), nil
}

// source wraps expr in a program whose only function binds every scope
// name to a local and returns the expression's value.
func (m *ExpressionMethod) source(expr string, names []string) string {
	var b strings.Builder
	b.WriteString("package main\n\nimport (\n")
	for _, p := range m.packages {
		fmt.Fprintf(&b, "\t%q\n", p)
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, "\tscope__ %q\n", scopePackage)
	}
	b.WriteString(")\n\n")
	for _, p := range m.packages {
		// Keep every import used whatever the expression references.
		if sym := anySymbol(m.symbols, p); sym != "" {
			fmt.Fprintf(&b, "var _ = %s.%s\n", p[strings.LastIndex(p, "/")+1:], sym)
		}
	}
	b.WriteString("\nfunc Calculate() interface{} {\n")
	for i, name := range names {
		fmt.Fprintf(&b, "\t%s := scope__.V%d\n\t_ = %s\n", name, i, name)
	}
	fmt.Fprintf(&b, "\treturn (%s)\n}\n", expr)
	return b.String()
}

// anySymbol picks a stable exported function of package path.
func anySymbol(symbols interp.Exports, path string) string {
	name := path[strings.LastIndex(path, "/")+1:]
	syms := symbols[path+"/"+name]
	keys := make([]string, 0, len(syms))
	for k, v := range syms {
		if v.Kind() == reflect.Func {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}

// variable exposes v to the interpreter as an addressable variable of v's
// own type, or of interface{} type for nil.
func variable(v interface{}) reflect.Value {
	if v == nil {
		var none interface{}
		return reflect.ValueOf(&none).Elem()
	}
	rv := reflect.New(reflect.TypeOf(v)).Elem()
	rv.Set(reflect.ValueOf(v))
	return rv
}
