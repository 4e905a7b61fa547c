// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package calculation computes the derived values declared by a
// Calculation Set over a completed Assessment. Evaluation strategies are
// pluggable methods held in a Registry.
package calculation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// ErrNotComplete is returned when calculations are requested for an
// Assessment that is still in progress.
var ErrNotComplete = errors.New("assessment is not complete")

// Engine runs calculation sets. It holds no state between runs and is
// safe for concurrent use.
type Engine struct {
	registry *Registry
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an engine over registry.
func NewEngine(registry *Registry, opts ...Option) *Engine {
	e := &Engine{registry: registry, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every calculation of set in order against a and returns
// the coerced results by calculation id. Each calculation sees the
// flattened answers, then its method's scope addons, then the results of
// the calculations before it, later sources shadowing earlier ones. The
// first failure stops the run and is returned as a *types.CalculationError.
func (e *Engine) Execute(ctx context.Context, def *types.Definition, a types.Assessment, set *types.CalculationSet) (map[string]interface{}, error) {
	if a.Status != types.StatusComplete {
		return nil, fmt.Errorf("executing calculations for %s: %w", a.ID, ErrNotComplete)
	}
	cat, err := instrument.BuildCatalog(def)
	if err != nil {
		return nil, err
	}
	shapes, err := cat.Shapes(def.Record)
	if err != nil {
		return nil, err
	}

	var nested, flat map[string]interface{}
	results := make(map[string]interface{}, len(set.Calculations))
	for _, calc := range set.Calculations {
		m, ok := e.registry.Method(calc.Method)
		if !ok {
			return nil, &types.CalculationError{ID: calc.ID, Err: fmt.Errorf("%w %q", ErrUnknownMethod, calc.Method)}
		}

		var base map[string]interface{}
		if f, ok := m.(MatrixFlattener); ok && f.FlatMatrices() {
			if flat == nil {
				if flat, err = Flatten(shapes, a.Data.Values, true); err != nil {
					return nil, &types.CalculationError{ID: calc.ID, Err: err}
				}
			}
			base = flat
		} else {
			if nested == nil {
				if nested, err = Flatten(shapes, a.Data.Values, false); err != nil {
					return nil, &types.CalculationError{ID: calc.ID, Err: err}
				}
			}
			base = nested
		}

		scope := make(map[string]interface{}, len(base)+len(results))
		for k, v := range base {
			scope[k] = v
		}
		for _, addon := range e.registry.Addons(calc.Method) {
			extra, err := addon.Scope(ctx, a)
			if err != nil {
				return nil, &types.CalculationError{ID: calc.ID, Err: fmt.Errorf("building scope: %w", err)}
			}
			for k, v := range extra {
				scope[k] = v
			}
		}
		for k, v := range results {
			scope[k] = v
		}

		start := time.Now()
		raw, err := m.Evaluate(ctx, calc, scope)
		if err != nil {
			return nil, &types.CalculationError{ID: calc.ID, Err: err}
		}
		value, err := Coerce(raw, calc.Type)
		if err != nil {
			return nil, &types.CalculationError{ID: calc.ID, Err: err}
		}
		results[calc.ID] = value
		e.logger.Debug("calculation executed",
			zap.String("id", calc.ID),
			zap.String("method", calc.Method),
			zap.Any("value", value),
			zap.Duration("elapsed", time.Since(start)))
	}
	return results, nil
}

// Attach returns doc with results stored under meta.calculations. doc's
// own meta mapping is not modified.
func Attach(doc types.Document, results map[string]interface{}) types.Document {
	meta := make(map[string]interface{}, len(doc.Meta)+1)
	for k, v := range doc.Meta {
		meta[k] = v
	}
	calcs := make(map[string]interface{}, len(results))
	for k, v := range results {
		calcs[k] = v
	}
	meta[types.MetaCalculations] = calcs
	doc.Meta = meta
	return doc
}
