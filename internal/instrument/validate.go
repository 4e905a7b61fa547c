// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package instrument

import (
	"errors"
	"fmt"
	"sort"

	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// ValidateDefinition parses input and checks it end to end: structural
// schema, identifier rules and uniqueness (including generated matrix
// row_column ids), type catalog, alias constraints, and every field's
// type and escape-hatch policies. It stops at the first failure and
// returns a *types.SchemaError.
func ValidateDefinition(input interface{}) (*types.Definition, error) {
	def, err := Parse(input)
	if err != nil {
		return nil, err
	}
	if err := checkIdentifiers(def); err != nil {
		return nil, err
	}
	cat, err := BuildCatalog(def)
	if err != nil {
		return nil, err
	}
	if err := checkAliases(def, cat); err != nil {
		return nil, err
	}
	for i, f := range def.Record {
		if err := checkField(cat, f, fmt.Sprintf("record[%d]", i), false); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// declared records the first location every identifier was declared at.
type declared map[string]string

func (d declared) add(id, path string) error {
	if !ValidIdentifier(id) {
		return types.SchemaErrorf(path, "invalid identifier %q", id)
	}
	return d.claim(id, path)
}

func (d declared) claim(id, path string) error {
	if first, ok := d[id]; ok {
		return types.SchemaErrorf(path, "identifier %q is already declared at %s", id, first)
	}
	d[id] = path
	return nil
}

func checkIdentifiers(def *types.Definition) error {
	for _, name := range sortedTypeNames(def.Types) {
		if !ValidIdentifier(name) {
			return types.SchemaErrorf("types."+name, "invalid type name %q", name)
		}
	}

	ids := declared{}
	if err := collectRecord(ids, def.Record, "record"); err != nil {
		return err
	}
	for _, name := range sortedTypeNames(def.Types) {
		td := def.Types[name]
		if err := collectType(ids, &td, "types."+name); err != nil {
			return err
		}
	}
	return nil
}

func collectRecord(ids declared, record []types.Field, path string) error {
	for i, f := range record {
		fp := fmt.Sprintf("%s[%d]", path, i)
		if err := ids.add(f.ID, fp); err != nil {
			return err
		}
		if f.Type.Def != nil {
			if err := collectType(ids, f.Type.Def, fp+".type"); err != nil {
				return err
			}
		}
	}
	return nil
}

func collectType(ids declared, td *types.TypeDef, path string) error {
	if err := collectRecord(ids, td.Record, path+".record"); err != nil {
		return err
	}
	if err := collectRecord(ids, td.Columns, path+".columns"); err != nil {
		return err
	}
	for i, row := range td.Rows {
		if err := ids.add(row.ID, fmt.Sprintf("%s.rows[%d]", path, i)); err != nil {
			return err
		}
	}
	for i, row := range td.Rows {
		for j, col := range td.Columns {
			composite := row.ID + "_" + col.ID
			where := fmt.Sprintf("%s.rows[%d]/columns[%d]", path, i, j)
			if err := ids.claim(composite, where); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkAliases(def *types.Definition, cat *Catalog) error {
	for _, name := range sortedTypeNames(def.Types) {
		path := "types." + name
		base, _ := cat.Base(name)
		if base.IsComplex() {
			return types.SchemaErrorf(path, "custom types may not be based on complex type %s", base)
		}
		resolved, err := cat.Resolve(types.TypeRef{Name: name})
		if err != nil {
			return atPath(err, path)
		}
		td := def.Types[name]
		if err := checkConstraints(path, &td, base, &resolved.Def); err != nil {
			return err
		}
	}
	return nil
}

// checkField validates one field's type, recursing into record-list
// records and matrix columns. Inside those, complex types are rejected.
func checkField(cat *Catalog, f types.Field, path string, nested bool) error {
	resolved, err := cat.Resolve(f.Type)
	if err != nil {
		return atPath(err, path+".type")
	}
	if nested && resolved.Base.IsComplex() {
		return types.SchemaErrorf(path+".type", "complex type %s may not be nested in another complex type", resolved.Base)
	}
	if f.Type.Def != nil {
		if err := checkConstraints(path+".type", f.Type.Def, resolved.Base, &resolved.Def); err != nil {
			return err
		}
	}

	switch resolved.Base {
	case types.BaseRecordList:
		for i, sub := range resolved.Def.Record {
			if err := checkField(cat, sub, fmt.Sprintf("%s.type.record[%d]", path, i), true); err != nil {
				return err
			}
		}
	case types.BaseMatrix:
		for i, col := range resolved.Def.Columns {
			if err := checkField(cat, col, fmt.Sprintf("%s.type.columns[%d]", path, i), true); err != nil {
				return err
			}
		}
	case types.BaseText, types.BaseInteger, types.BaseFloat, types.BaseBoolean,
		types.BaseDate, types.BaseTime, types.BaseDateTime,
		types.BaseEnumeration, types.BaseEnumerationSet:
	default:
		return types.SchemaErrorf(path+".type", "unsupported base type %s", resolved.Base)
	}

	if f.Required && f.Annotation.OrNone() != types.PolicyNone {
		return types.SchemaErrorf(path, "field %q cannot be required and allow an annotation", f.ID)
	}
	return nil
}

// atPath fills in the location of a SchemaError raised without one.
func atPath(err error, path string) error {
	var se *types.SchemaError
	if errors.As(err, &se) && se.Path == "" {
		return &types.SchemaError{Path: path, Msg: se.Msg}
	}
	return err
}

func sortedTypeNames(m map[string]types.TypeDef) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedEnumerationIDs(m map[string]*types.Enumeration) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
