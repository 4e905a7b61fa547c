// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calculation

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

//go:embed schema/calculationset.json
var calculationSetSchemaSrc []byte

var calculationSetSchema = tree.MustCompileSchema("calculationset.json", calculationSetSchemaSrc)

var validate = validator.New()

// ParseCalculationSet decodes a Calculation Set from a tree or YAML/JSON
// text after checking its structure. Failures are *types.SchemaError.
func ParseCalculationSet(input interface{}) (*types.CalculationSet, error) {
	raw, err := tree.Decode(input)
	if err != nil {
		return nil, &types.SchemaError{Msg: err.Error()}
	}
	if err := calculationSetSchema.Check(raw); err != nil {
		var v *tree.Violation
		if errors.As(err, &v) {
			return nil, &types.SchemaError{Path: v.Path, Msg: v.Msg}
		}
		return nil, &types.SchemaError{Msg: err.Error()}
	}
	set := &types.CalculationSet{}
	if err := tree.Into(raw, set); err != nil {
		return nil, &types.SchemaError{Msg: err.Error()}
	}
	if err := validate.Struct(set); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, types.SchemaErrorf(fe.Namespace(), "failed the %q rule", fe.Tag())
		}
		return nil, &types.SchemaError{Msg: err.Error()}
	}
	return set, nil
}

// ValidateCalculationSet parses input and checks it against the
// definition it calculates over and the methods available in r.
func ValidateCalculationSet(input interface{}, def *types.Definition, r *Registry) (*types.CalculationSet, error) {
	set, err := ParseCalculationSet(input)
	if err != nil {
		return nil, err
	}
	if set.Instrument != def.Ref() {
		return nil, types.SchemaErrorf("instrument",
			"calculations are for %s version %s, definition is %s version %s",
			set.Instrument.ID, set.Instrument.Version, def.ID, def.Version)
	}

	fields := make(map[string]bool, len(def.Record))
	for _, f := range def.Record {
		fields[f.ID] = true
	}
	seen := map[string]bool{}
	for i, calc := range set.Calculations {
		path := fmt.Sprintf("calculations[%d]", i)
		switch {
		case !instrument.ValidIdentifier(calc.ID):
			return nil, types.SchemaErrorf(path, "invalid identifier %q", calc.ID)
		case seen[calc.ID]:
			return nil, types.SchemaErrorf(path, "calculation %q is declared twice", calc.ID)
		case fields[calc.ID]:
			return nil, types.SchemaErrorf(path, "calculation %q collides with a field of the same id", calc.ID)
		}
		seen[calc.ID] = true

		base, ok := types.ParseBaseType(calc.Type)
		if !ok || base.IsComplex() || base == types.BaseEnumeration || base == types.BaseEnumerationSet {
			return nil, types.SchemaErrorf(path, "unsupported result type %q", calc.Type)
		}

		m, ok := r.Method(calc.Method)
		if !ok {
			return nil, types.SchemaErrorf(path, "%v %q", ErrUnknownMethod, calc.Method)
		}
		if oc, ok := m.(OptionChecker); ok {
			if err := oc.CheckOptions(calc.Options); err != nil {
				return nil, types.SchemaErrorf(path+".options", "%v", err)
			}
		}
	}
	return set, nil
}
