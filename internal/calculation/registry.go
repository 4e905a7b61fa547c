// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calculation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// Built-in method names.
const (
	MethodExpression = "expression"
	MethodQuery      = "query"
)

// ErrUnknownMethod is returned for a calculation whose method is not
// registered.
var ErrUnknownMethod = errors.New("unknown calculation method")

// Method evaluates one calculation against a scope of named values and
// returns the raw result before coercion.
type Method interface {
	Evaluate(ctx context.Context, calc types.Calculation, scope map[string]interface{}) (interface{}, error)
}

// OptionChecker is implemented by methods that can vet a calculation's
// options before anything runs.
type OptionChecker interface {
	CheckOptions(options map[string]interface{}) error
}

// MatrixFlattener is implemented by methods whose target has no notion
// of nested values. Their scope names every matrix cell field_row_column
// instead of carrying the matrix as a nested mapping.
type MatrixFlattener interface {
	FlatMatrices() bool
}

// ScopeAddon contributes extra names to the scope of one method.
type ScopeAddon interface {
	Scope(ctx context.Context, a types.Assessment) (map[string]interface{}, error)
}

// ScopeAddonFunc adapts a function to ScopeAddon.
type ScopeAddonFunc func(ctx context.Context, a types.Assessment) (map[string]interface{}, error)

func (f ScopeAddonFunc) Scope(ctx context.Context, a types.Assessment) (map[string]interface{}, error) {
	return f(ctx, a)
}

// StaticScope is a ScopeAddon that always contributes the same names.
type StaticScope map[string]interface{}

func (s StaticScope) Scope(context.Context, types.Assessment) (map[string]interface{}, error) {
	return s, nil
}

type addonEntry struct {
	method   string
	priority int
	addon    ScopeAddon
}

// RegistryBuilder collects methods and scope addons. It is used once at
// startup; the Registry it builds is immutable.
type RegistryBuilder struct {
	methods map[string]Method
	addons  []addonEntry
	errs    []error
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{methods: map[string]Method{}}
}

// Method registers m under name.
func (b *RegistryBuilder) Method(name string, m Method) *RegistryBuilder {
	switch {
	case name == "":
		b.errs = append(b.errs, errors.New("registering method: empty name"))
	case m == nil:
		b.errs = append(b.errs, fmt.Errorf("registering method %q: nil implementation", name))
	case b.methods[name] != nil:
		b.errs = append(b.errs, fmt.Errorf("registering method %q: already registered", name))
	default:
		b.methods[name] = m
	}
	return b
}

// Addon registers a scope addon for the named method. Addons of one
// method are applied in ascending priority, so a higher priority addon
// overrides the names of a lower one.
func (b *RegistryBuilder) Addon(method string, priority int, a ScopeAddon) *RegistryBuilder {
	if a == nil {
		b.errs = append(b.errs, fmt.Errorf("registering addon for %q: nil addon", method))
		return b
	}
	b.addons = append(b.addons, addonEntry{method: method, priority: priority, addon: a})
	return b
}

// Build checks the registrations and returns the registry.
func (b *RegistryBuilder) Build() (*Registry, error) {
	errs := append([]error(nil), b.errs...)
	r := &Registry{
		methods: make(map[string]Method, len(b.methods)),
		addons:  map[string][]ScopeAddon{},
	}
	for name, m := range b.methods {
		r.methods[name] = m
	}

	entries := append([]addonEntry(nil), b.addons...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].priority < entries[j].priority })
	for _, e := range entries {
		if _, ok := r.methods[e.method]; !ok {
			errs = append(errs, fmt.Errorf("registering addon: %w %q", ErrUnknownMethod, e.method))
			continue
		}
		r.addons[e.method] = append(r.addons[e.method], e.addon)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("building calculation registry: %w", err)
	}
	return r, nil
}

// Registry maps method names to implementations and their scope addons.
type Registry struct {
	methods map[string]Method
	addons  map[string][]ScopeAddon
}

// Method looks up a method by name.
func (r *Registry) Method(name string) (Method, bool) {
	m, ok := r.methods[name]
	return m, ok
}

// Addons returns the scope addons of a method in application order.
func (r *Registry) Addons(method string) []ScopeAddon {
	return r.addons[method]
}

// Methods lists the registered method names in order.
func (r *Registry) Methods() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry registers the expression method, and the query method
// when q is not nil.
func DefaultRegistry(q Querier, cfg types.ExpressionConfig) (*Registry, error) {
	expr, err := NewExpressionMethod(cfg.Packages...)
	if err != nil {
		return nil, err
	}
	b := NewRegistryBuilder().Method(MethodExpression, expr)
	if q != nil {
		b.Method(MethodQuery, NewQueryMethod(q))
	}
	return b.Build()
}
