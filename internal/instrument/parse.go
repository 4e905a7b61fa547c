// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package instrument builds type catalogs for Instrument Definitions and
// validates definitions against the fixed structural schema, identifier
// rules and per-type constraint table. It also owns the cursor that
// addresses individual answer leaves, shared by validation, discrepancy
// detection, resolution and calculation scope flattening.
package instrument

import (
	_ "embed"
	"errors"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

//go:embed schema/instrument.json
var instrumentSchemaSrc []byte

var instrumentSchema = tree.MustCompileSchema("instrument.json", instrumentSchemaSrc)

var typeRefType = reflect.TypeOf(types.TypeRef{})

// Parse decodes input (a decoded tree, a YAML/JSON string or bytes, or a
// *types.Definition), checks it against the structural schema and returns
// the typed definition. It does not check identifiers or constraints; use
// ValidateDefinition for that.
func Parse(input interface{}) (*types.Definition, error) {
	raw, err := tree.Decode(input)
	if err != nil {
		return nil, &types.SchemaError{Msg: err.Error()}
	}
	if err := instrumentSchema.Check(raw); err != nil {
		var v *tree.Violation
		if errors.As(err, &v) {
			return nil, &types.SchemaError{Path: v.Path, Msg: v.Msg}
		}
		return nil, &types.SchemaError{Msg: err.Error()}
	}

	var def types.Definition
	if err := tree.Into(raw, &def, typeRefHook()); err != nil {
		return nil, &types.SchemaError{Msg: err.Error()}
	}
	return &def, nil
}

// typeRefHook decodes a field's "type" which is either a type name or an
// inline type object.
func typeRefHook() mapstructure.DecodeHookFuncType {
	var hook mapstructure.DecodeHookFuncType
	hook = func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != typeRefType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return types.TypeRef{Name: v}, nil
		case map[string]interface{}:
			var td types.TypeDef
			if err := tree.Into(v, &td, hook); err != nil {
				return nil, err
			}
			return types.TypeRef{Def: &td}, nil
		}
		return data, nil
	}
	return hook
}
