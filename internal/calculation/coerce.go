// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calculation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// ErrCoercion is returned when a raw result cannot be represented as the
// calculation's declared type.
var ErrCoercion = errors.New("cannot coerce result")

// Coerce converts a method's raw result to the declared output type:
// integer → int, float → float64, boolean → bool, text → string, and the
// temporal types → strings in their fixed layouts. nil stays nil.
func Coerce(v interface{}, typ string) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	base, ok := types.ParseBaseType(typ)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrCoercion, typ)
	}

	switch base {
	case types.BaseInteger:
		d, ok := toDecimal(v)
		if !ok {
			break
		}
		if _, isText := v.(string); isText && !d.IsInteger() {
			break
		}
		d = d.Truncate(0)
		if d.GreaterThan(maxInt) || d.LessThan(minInt) {
			break
		}
		return int(d.IntPart()), nil
	case types.BaseFloat:
		if f, ok := v.(float64); ok {
			return f, nil
		}
		if d, ok := toDecimal(v); ok {
			return d.InexactFloat64(), nil
		}
	case types.BaseBoolean:
		switch t := v.(type) {
		case bool:
			return t, nil
		}
		if n, ok := tree.Number(v); ok && (n == 0 || n == 1) {
			return n == 1, nil
		}
	case types.BaseText:
		switch t := v.(type) {
		case string:
			return t, nil
		case time.Time:
			return t.Format(time.RFC3339), nil
		case decimal.Decimal:
			return t.String(), nil
		}
		if tree.IsInteger(v) || isFloat(v) {
			d, _ := toDecimal(v)
			return d.String(), nil
		}
		if b, ok := v.(bool); ok {
			return fmt.Sprint(b), nil
		}
	case types.BaseDate, types.BaseTime, types.BaseDateTime:
		layout, pattern, _ := types.TemporalLayout(base)
		switch t := v.(type) {
		case string:
			if pattern.MatchString(t) {
				return t, nil
			}
		case time.Time:
			return t.Format(layout), nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not representable as %s", ErrCoercion, describe(v), typ)
}

// Bounds of the int results integer coercion produces.
var (
	maxInt = decimal.NewFromInt(math.MaxInt)
	minInt = decimal.NewFromInt(math.MinInt)
)

// toDecimal reads numbers and numeric text exactly.
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	case float32:
		return toDecimal(float64(t))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int8:
		return decimal.NewFromInt(int64(t)), true
	case int16:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	case uint, uint8, uint16, uint32, uint64:
		d, err := decimal.NewFromString(fmt.Sprint(t))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func isFloat(v interface{}) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func describe(v interface{}) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v (%T)", v, v)
}
