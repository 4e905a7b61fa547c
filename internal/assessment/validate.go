// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assessment validates Assessment Documents against their
// Instrument Definition, generates empty documents, and manages the
// lifecycle of the Entries that capture them.
package assessment

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

//go:embed schema/assessment.json
var assessmentSchemaSrc []byte

var assessmentSchema = tree.MustCompileSchema("assessment.json", assessmentSchemaSrc)

// ValidateData checks a complete document. input may be a decoded tree,
// YAML/JSON text, or a types.Document. With a nil definition only the
// base document shape is checked. Failures are *types.ValidationError;
// a definition that cannot be resolved yields its *types.SchemaError.
func ValidateData(input interface{}, def *types.Definition) error {
	return validate(input, def, true)
}

// ValidateDraft checks an in-progress document the way ValidateData
// does, except that presence is not enforced: required values, required
// explanations and required annotations may still be missing.
func ValidateDraft(input interface{}, def *types.Definition) error {
	return validate(input, def, false)
}

// Parse decodes input into a Document after checking the base shape.
func Parse(input interface{}) (types.Document, error) {
	raw, err := tree.Decode(input)
	if err != nil {
		return types.Document{}, &types.ValidationError{Msg: err.Error()}
	}
	return parseTree(raw)
}

func parseTree(raw interface{}) (types.Document, error) {
	if err := assessmentSchema.Check(raw); err != nil {
		var v *tree.Violation
		if errors.As(err, &v) {
			return types.Document{}, &types.ValidationError{Path: v.Path, Msg: v.Msg}
		}
		return types.Document{}, &types.ValidationError{Msg: err.Error()}
	}
	var doc types.Document
	if err := tree.Into(raw, &doc); err != nil {
		return types.Document{}, &types.ValidationError{Msg: err.Error()}
	}
	return doc, nil
}

func validate(input interface{}, def *types.Definition, complete bool) error {
	doc, err := Parse(input)
	if err != nil {
		return err
	}
	if def == nil {
		return nil
	}
	if doc.Instrument != def.Ref() {
		return types.ValidationErrorf("instrument",
			"document is for %s version %s, definition is %s version %s",
			doc.Instrument.ID, doc.Instrument.Version, def.ID, def.Version)
	}
	cat, err := instrument.BuildCatalog(def)
	if err != nil {
		return err
	}
	shapes, err := cat.Shapes(def.Record)
	if err != nil {
		return err
	}
	v := &validator{complete: complete}
	return v.record(doc.Values, shapes, tree.Path{"values"})
}

type validator struct {
	complete bool
}

// record checks one record level: the top-level values, one record-list
// element, or one matrix row.
func (v *validator) record(values map[string]interface{}, shapes []Shape, path tree.Path) error {
	if err := checkKeys(values, shapes, path); err != nil {
		return err
	}
	for _, s := range shapes {
		fp := path.Append(s.Field.ID)
		leaf := tree.Mapping(values[s.Field.ID])
		if leaf == nil {
			return types.ValidationErrorf(fp.String(), "expected a mapping with a value")
		}
		if err := v.leaf(leaf, s, fp); err != nil {
			return err
		}
	}
	return nil
}

// Shape is re-exported for brevity inside this package.
type Shape = instrument.Shape

func checkKeys(values map[string]interface{}, shapes []Shape, path tree.Path) error {
	declared := make(map[string]bool, len(shapes))
	var missing []string
	for _, s := range shapes {
		declared[s.Field.ID] = true
		if _, ok := values[s.Field.ID]; !ok {
			missing = append(missing, s.Field.ID)
		}
	}
	var extra []string
	for k := range values {
		if !declared[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	switch {
	case len(missing) > 0:
		return types.ValidationErrorf(path.String(), "missing values for fields: %s", strings.Join(missing, ", "))
	case len(extra) > 0:
		return types.ValidationErrorf(path.String(), "unknown fields: %s", strings.Join(extra, ", "))
	}
	return nil
}

func (v *validator) leaf(leaf map[string]interface{}, s Shape, path tree.Path) error {
	value := leaf[types.KeyValue]
	hasValue := !tree.IsEmpty(value)
	f := s.Field

	if v.complete && f.Required && !hasValue {
		return types.ValidationErrorf(path.String(), "a value is required")
	}

	hasExplanation := !tree.IsEmpty(leaf[types.KeyExplanation])
	switch f.Explanation.OrNone() {
	case types.PolicyNone:
		if hasExplanation {
			return types.ValidationErrorf(path.String(), "explanations are not allowed")
		}
	case types.PolicyRequired:
		if v.complete && !hasExplanation {
			return types.ValidationErrorf(path.String(), "an explanation is required")
		}
	}

	hasAnnotation := !tree.IsEmpty(leaf[types.KeyAnnotation])
	switch f.Annotation.OrNone() {
	case types.PolicyNone:
		if hasAnnotation {
			return types.ValidationErrorf(path.String(), "annotations are not allowed")
		}
	case types.PolicyOptional:
		if hasAnnotation && hasValue {
			return types.ValidationErrorf(path.String(), "an annotation is only allowed when there is no value")
		}
	case types.PolicyRequired:
		if hasAnnotation && hasValue {
			return types.ValidationErrorf(path.String(), "an annotation is only allowed when there is no value")
		}
		if v.complete && !hasValue && !hasAnnotation {
			return types.ValidationErrorf(path.String(), "an annotation is required when there is no value")
		}
	}

	if value == nil {
		return nil
	}
	return v.value(value, s, path.Append(types.KeyValue))
}

// value checks an answer against the field's resolved base type and
// constraints.
func (v *validator) value(value interface{}, s Shape, path tree.Path) error {
	td := &s.Type.Def
	switch base := s.Base(); base {
	case types.BaseText:
		str, ok := value.(string)
		if !ok {
			return typeMismatch(path, base, value)
		}
		if err := checkLength(path, td.Length, utf8.RuneCountInString(str)); err != nil {
			return err
		}
		if re := s.Type.Pattern; re != nil {
			if !re.MatchString(str) {
				return types.ValidationErrorf(path.String(), "%q does not match pattern %q", str, td.Pattern)
			}
		}
	case types.BaseInteger:
		n, ok := tree.Number(value)
		if !ok || (!tree.IsInteger(value) && n != math.Trunc(n)) || math.IsInf(n, 0) {
			return typeMismatch(path, base, value)
		}
		return checkNumberRange(path, td.Range, n)
	case types.BaseFloat:
		n, ok := tree.Number(value)
		if !ok || math.IsNaN(n) {
			return typeMismatch(path, base, value)
		}
		return checkNumberRange(path, td.Range, n)
	case types.BaseBoolean:
		if _, ok := value.(bool); !ok {
			return typeMismatch(path, base, value)
		}
	case types.BaseDate, types.BaseTime, types.BaseDateTime:
		str, ok := value.(string)
		_, pattern, _ := types.TemporalLayout(base)
		if !ok || !pattern.MatchString(str) {
			return typeMismatch(path, base, value)
		}
		return checkTemporalRange(path, td.Range, str)
	case types.BaseEnumeration:
		str, ok := value.(string)
		if !ok {
			return typeMismatch(path, base, value)
		}
		if _, ok := td.Enumerations[str]; !ok {
			return types.ValidationErrorf(path.String(), "%q is not one of the enumerations", str)
		}
	case types.BaseEnumerationSet:
		items, ok := value.([]interface{})
		if !ok {
			return typeMismatch(path, base, value)
		}
		for i, item := range items {
			str, ok := item.(string)
			if !ok {
				return typeMismatch(path.Append(i), types.BaseEnumeration, item)
			}
			if _, ok := td.Enumerations[str]; !ok {
				return types.ValidationErrorf(path.Append(i).String(), "%q is not one of the enumerations", str)
			}
		}
		return checkLength(path, td.Length, len(items))
	case types.BaseRecordList:
		items, ok := value.([]interface{})
		if !ok {
			return typeMismatch(path, base, value)
		}
		for i, item := range items {
			rec := tree.Mapping(item)
			if rec == nil {
				return types.ValidationErrorf(path.Append(i).String(), "expected a record mapping")
			}
			if err := v.record(rec, s.Subs, path.Append(i)); err != nil {
				return err
			}
		}
		return checkLength(path, td.Length, len(items))
	case types.BaseMatrix:
		rows := tree.Mapping(value)
		if rows == nil {
			return typeMismatch(path, base, value)
		}
		return v.matrix(rows, s, path)
	default:
		return types.ValidationErrorf(path.String(), "unsupported base type %s", base)
	}
	return nil
}

func (v *validator) matrix(rows map[string]interface{}, s Shape, path tree.Path) error {
	declared := make(map[string]bool, len(s.Rows()))
	for _, row := range s.Rows() {
		declared[row.ID] = true
	}
	for _, k := range tree.SortedKeys(rows) {
		if !declared[k] {
			return types.ValidationErrorf(path.String(), "unknown matrix row %q", k)
		}
	}
	for _, row := range s.Rows() {
		rp := path.Append(row.ID)
		cells, present := rows[row.ID]
		if !present {
			return types.ValidationErrorf(path.String(), "missing matrix row %q", row.ID)
		}
		cellMap := tree.Mapping(cells)
		if cellMap == nil {
			return types.ValidationErrorf(rp.String(), "expected a mapping of columns")
		}
		filled := rowHasValue(cellMap)
		if v.complete && row.Required && !filled {
			return types.ValidationErrorf(rp.String(), "row %q requires at least one value", row.ID)
		}
		// Columns of an untouched optional row are not held to their
		// presence rules.
		rv := v
		if !filled {
			rv = &validator{complete: false}
		}
		if err := rv.record(cellMap, s.Subs, rp); err != nil {
			return err
		}
	}
	return nil
}

func rowHasValue(cells map[string]interface{}) bool {
	for _, cell := range cells {
		if !tree.IsEmpty(tree.Mapping(cell)[types.KeyValue]) {
			return true
		}
	}
	return false
}

func typeMismatch(path tree.Path, base types.BaseType, value interface{}) error {
	return types.ValidationErrorf(path.String(), "%s is not a valid %s", describe(value), base)
}

func describe(value interface{}) string {
	switch value.(type) {
	case string:
		return fmt.Sprintf("%q", value)
	case map[string]interface{}:
		return "a mapping"
	case []interface{}:
		return "a list"
	}
	return fmt.Sprint(value)
}

func checkLength(path tree.Path, b *types.LengthBound, n int) error {
	if b == nil {
		return nil
	}
	if b.Min != nil && n < *b.Min {
		return types.ValidationErrorf(path.String(), "length %d is below the minimum of %d", n, *b.Min)
	}
	if b.Max != nil && n > *b.Max {
		return types.ValidationErrorf(path.String(), "length %d is above the maximum of %d", n, *b.Max)
	}
	return nil
}

func checkNumberRange(path tree.Path, b *types.Bound, n float64) error {
	if b == nil {
		return nil
	}
	if min, ok := tree.Number(b.Min); ok && n < min {
		return types.ValidationErrorf(path.String(), "%v is below the minimum of %v", n, b.Min)
	}
	if max, ok := tree.Number(b.Max); ok && n > max {
		return types.ValidationErrorf(path.String(), "%v is above the maximum of %v", n, b.Max)
	}
	return nil
}

// checkTemporalRange compares formatted values as strings, which orders
// them correctly because every layout is fixed-width and most
// significant first.
func checkTemporalRange(path tree.Path, b *types.Bound, s string) error {
	if b == nil {
		return nil
	}
	if min, ok := b.Min.(string); ok && s < min {
		return types.ValidationErrorf(path.String(), "%s is before the minimum of %s", s, min)
	}
	if max, ok := b.Max.(string); ok && s > max {
		return types.ValidationErrorf(path.String(), "%s is after the maximum of %s", s, max)
	}
	return nil
}
