// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package instrument

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// --- fixtures ---

const fullDefinition = `
id: urn:test-instrument
version: "1.0"
title: Every type
types:
  short_text:
    base: text
    length:
      max: 20
  tiny_text:
    base: short_text
    pattern: "^[a-z]+$"
  yesno:
    base: enumeration
    enumerations:
      "yes": {description: Yes}
      "no": null
record:
  - id: name
    type: tiny_text
    required: true
  - id: age
    type:
      base: integer
      range: {min: 0, max: 130}
    explanation: optional
  - id: weight
    type: float
    annotation: optional
  - id: smoker
    type: yesno
  - id: colors
    type:
      base: enumerationSet
      enumerations:
        red: {}
        blue: {}
  - id: visit_date
    type:
      base: date
      range: {min: "2000-01-01"}
  - id: visit_time
    type: time
  - id: visit_at
    type: dateTime
  - id: consent
    type: boolean
  - id: meds
    type:
      base: recordList
      record:
        - id: drug
          type: text
        - id: dose
          type: float
  - id: symptoms
    type:
      base: matrix
      rows:
        - id: cough
        - id: fever
          required: true
      columns:
        - id: present
          type: boolean
        - id: days
          type: integer
`

func mustDefinition(t *testing.T, src string) *types.Definition {
	t.Helper()
	def, err := ValidateDefinition(src)
	require.NoError(t, err)
	return def
}

func requireSchemaError(t *testing.T, err error) *types.SchemaError {
	t.Helper()
	require.Error(t, err)
	var se *types.SchemaError
	require.True(t, errors.As(err, &se), "want *types.SchemaError, got %T: %v", err, err)
	return se
}

// --- Parse ---

func TestParseDecodesInlineAndNamedTypes(t *testing.T) {
	def, err := Parse(fullDefinition)
	require.NoError(t, err)

	assert.Equal(t, "urn:test-instrument", def.ID)
	require.Len(t, def.Record, 11)
	assert.Equal(t, "tiny_text", def.Record[0].Type.Name)
	assert.Nil(t, def.Record[0].Type.Def)
	require.NotNil(t, def.Record[1].Type.Def)
	assert.Equal(t, "integer", def.Record[1].Type.Def.Base)
	assert.Equal(t, types.PolicyOptional, def.Record[1].Explanation)

	meds := def.Record[9].Type.Def
	require.NotNil(t, meds)
	require.Len(t, meds.Record, 2)
	assert.Equal(t, "float", meds.Record[1].Type.Name)

	yesno := def.Types["yesno"]
	assert.Contains(t, yesno.Enumerations, "no")
	assert.Nil(t, yesno.Enumerations["no"])
}

func TestParseAcceptsTypedDefinition(t *testing.T) {
	def := mustDefinition(t, fullDefinition)
	again, err := Parse(def)
	require.NoError(t, err)
	if diff := cmp.Diff(def, again); diff != "" {
		t.Errorf("re-parsed definition differs (-want +got):\n%s", diff)
	}
}

func TestParseRejectsStructuralProblems(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing record", `{id: x, version: "1"}`},
		{"empty record", `{id: x, version: "1", record: []}`},
		{"unknown top-level key", `{id: x, version: "1", record: [{id: aa, type: text}], extra: 1}`},
		{"field without type", `{id: x, version: "1", record: [{id: aa}]}`},
		{"bad policy", `{id: x, version: "1", record: [{id: aa, type: text, annotation: sometimes}]}`},
		{"type object without base", `{id: x, version: "1", record: [{id: aa, type: {length: {max: 2}}}]}`},
		{"unparsable text", `{id: x, version: "1", record: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			requireSchemaError(t, err)
		})
	}
}

// --- Catalog ---

func TestBuildCatalogResolvesAliasChains(t *testing.T) {
	def := mustDefinition(t, fullDefinition)
	cat, err := BuildCatalog(def)
	require.NoError(t, err)

	b, ok := cat.Base("tiny_text")
	require.True(t, ok)
	assert.Equal(t, types.BaseText, b)

	for _, base := range types.BaseTypes() {
		got, ok := cat.Base(base.String())
		assert.True(t, ok)
		assert.Equal(t, base, got)
	}
}

func TestBuildCatalogIsIdempotent(t *testing.T) {
	def := mustDefinition(t, fullDefinition)
	first, err := BuildCatalog(def)
	require.NoError(t, err)
	second, err := BuildCatalog(def)
	require.NoError(t, err)

	assert.Equal(t, first.Bases(), second.Bases())
	for name, base := range first.Bases() {
		_, builtin := types.ParseBaseType(base.String())
		assert.True(t, builtin, "type %s resolved to non built-in %v", name, base)
	}
}

func TestBuildCatalogFailures(t *testing.T) {
	tests := []struct {
		name  string
		types map[string]types.TypeDef
	}{
		{"dangling alias", map[string]types.TypeDef{"aa": {Base: "nowhere"}}},
		{"cycle", map[string]types.TypeDef{"aa": {Base: "bb"}, "bb": {Base: "aa"}}},
		{"self reference", map[string]types.TypeDef{"aa": {Base: "aa"}}},
		{"redefines base", map[string]types.TypeDef{"text": {Base: "integer"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCatalog(&types.Definition{Types: tt.types})
			requireSchemaError(t, err)
		})
	}
}

func TestResolveMergesConstraintsNearestFirst(t *testing.T) {
	def := mustDefinition(t, fullDefinition)
	cat, err := BuildCatalog(def)
	require.NoError(t, err)

	r, err := cat.Resolve(types.TypeRef{Name: "tiny_text"})
	require.NoError(t, err)
	assert.Equal(t, types.BaseText, r.Base)
	assert.Equal(t, "^[a-z]+$", r.Def.Pattern)
	require.NotNil(t, r.Def.Length)
	assert.Equal(t, 20, *r.Def.Length.Max)

	five := 5
	r, err = cat.Resolve(types.TypeRef{Def: &types.TypeDef{Base: "short_text", Length: &types.LengthBound{Max: &five}}})
	require.NoError(t, err)
	assert.Equal(t, 5, *r.Def.Length.Max)

	_, err = cat.Resolve(types.TypeRef{Name: "missing"})
	requireSchemaError(t, err)
}

func TestResolveCompilesInheritedPattern(t *testing.T) {
	def := mustDefinition(t, fullDefinition)
	cat, err := BuildCatalog(def)
	require.NoError(t, err)

	r, err := cat.Resolve(types.TypeRef{Def: &types.TypeDef{Base: "tiny_text"}})
	require.NoError(t, err)
	require.NotNil(t, r.Pattern)
	assert.True(t, r.Pattern.MatchString("abc"))
	assert.False(t, r.Pattern.MatchString("Abc"))

	r, err = cat.Resolve(types.TypeRef{Name: "short_text"})
	require.NoError(t, err)
	assert.Nil(t, r.Pattern)

	_, err = cat.Resolve(types.TypeRef{Def: &types.TypeDef{Base: "text", Pattern: "("}})
	requireSchemaError(t, err)
}

// --- ValidateDefinition ---

func TestValidateDefinitionAcceptsFullDefinition(t *testing.T) {
	_, err := ValidateDefinition(fullDefinition)
	assert.NoError(t, err)
}

func TestValidateDefinitionRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"duplicate field id", `
id: x
version: "1"
record:
  - {id: age, type: integer}
  - {id: age, type: text}`},
		{"duplicate nested id", `
id: x
version: "1"
record:
  - {id: drug, type: text}
  - id: meds
    type:
      base: recordList
      record: [{id: drug, type: text}]`},
		{"matrix composite collides with field", `
id: x
version: "1"
record:
  - {id: cough_present, type: boolean}
  - id: symptoms
    type:
      base: matrix
      rows: [{id: cough}]
      columns: [{id: present, type: boolean}]`},
		{"invalid identifier", `
id: x
version: "1"
record:
  - {id: Bad_Id, type: text}`},
		{"double underscore", `
id: x
version: "1"
record:
  - {id: bad__id, type: text}`},
		{"unknown named type", `
id: x
version: "1"
record:
  - {id: aa, type: nothing}`},
		{"enumeration without enumerations", `
id: x
version: "1"
record:
  - {id: aa, type: {base: enumeration}}`},
		{"range on text", `
id: x
version: "1"
record:
  - {id: aa, type: {base: text, range: {min: 1}}}`},
		{"pattern on integer alias", `
id: x
version: "1"
types:
  code: {base: integer, pattern: "^1$"}
record:
  - {id: aa, type: code}`},
		{"matrix without rows", `
id: x
version: "1"
record:
  - id: mm
    type:
      base: matrix
      columns: [{id: cc, type: text}]`},
		{"complex alias", `
id: x
version: "1"
types:
  meds: {base: recordList, record: [{id: drug, type: text}]}
record:
  - {id: aa, type: meds}`},
		{"nested record list", `
id: x
version: "1"
record:
  - id: outer
    type:
      base: recordList
      record:
        - id: inner
          type:
            base: recordList
            record: [{id: leaf, type: text}]`},
		{"matrix column is matrix", `
id: x
version: "1"
record:
  - id: outer
    type:
      base: matrix
      rows: [{id: r1}]
      columns:
        - id: inner
          type:
            base: matrix
            rows: [{id: r2}]
            columns: [{id: c2, type: text}]`},
		{"required with annotation", `
id: x
version: "1"
record:
  - {id: aa, type: text, required: true, annotation: optional}`},
		{"inverted range", `
id: x
version: "1"
record:
  - {id: aa, type: {base: integer, range: {min: 10, max: 1}}}`},
		{"bad temporal bound", `
id: x
version: "1"
record:
  - {id: aa, type: {base: date, range: {min: "01/01/2000"}}}`},
		{"bad pattern", `
id: x
version: "1"
record:
  - {id: aa, type: {base: text, pattern: "("}}`},
		{"bad enumeration id", `
id: x
version: "1"
record:
  - {id: aa, type: {base: enumeration, enumerations: {"Yes": null}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateDefinition(tt.src)
			requireSchemaError(t, err)
		})
	}
}

func TestValidateDefinitionReportsLocation(t *testing.T) {
	_, err := ValidateDefinition(`
id: x
version: "1"
record:
  - {id: aa, type: text}
  - {id: bb, type: {base: enumeration}}`)
	se := requireSchemaError(t, err)
	assert.Equal(t, "record[1].type", se.Path)
}

// --- Cursor ---

func TestCursorPaths(t *testing.T) {
	tests := []struct {
		name      string
		cursor    Cursor
		valuePath tree.Path
		keyPath   tree.Path
		flat      string
	}{
		{"field", FieldCursor("age"), tree.Path{"age"}, tree.Path{"age"}, "age"},
		{"record", RecordCursor("meds", 2, "dose"), tree.Path{"meds", "value", 2, "dose"}, tree.Path{"meds", "2", "dose"}, "meds_2_dose"},
		{"matrix", MatrixCursor("symptoms", "cough", "days"), tree.Path{"symptoms", "value", "cough", "days"}, tree.Path{"symptoms", "cough", "days"}, "symptoms_cough_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valuePath, tt.cursor.ValuePath())
			assert.Equal(t, tt.keyPath, tt.cursor.KeyPath())
			assert.Equal(t, tt.flat, tt.cursor.FlatName())
		})
	}
}

func TestCursorValue(t *testing.T) {
	values := map[string]interface{}{
		"meds": map[string]interface{}{
			"value": []interface{}{
				map[string]interface{}{"dose": map[string]interface{}{"value": 2.5}},
			},
		},
	}
	assert.Equal(t, 2.5, RecordCursor("meds", 0, "dose").Value(values))
	assert.Nil(t, RecordCursor("meds", 1, "dose").Value(values))
	assert.Nil(t, FieldCursor("missing").Value(values))
	assert.Equal(t, 1, RecordCount(values, "meds"))
	assert.Equal(t, 0, RecordCount(values, "missing"))
}

func TestShapes(t *testing.T) {
	def := mustDefinition(t, fullDefinition)
	cat, err := BuildCatalog(def)
	require.NoError(t, err)
	shapes, err := cat.Shapes(def.Record)
	require.NoError(t, err)
	require.Len(t, shapes, len(def.Record))

	meds := shapes[9]
	assert.Equal(t, types.BaseRecordList, meds.Base())
	require.Len(t, meds.Subs, 2)
	assert.Equal(t, types.BaseFloat, meds.Subs[1].Base())

	symptoms := shapes[10]
	assert.Equal(t, types.BaseMatrix, symptoms.Base())
	assert.Len(t, symptoms.Rows(), 2)
	assert.Len(t, symptoms.Subs, 2)
}

// --- Walk ---

func TestWalkVisitsEveryLeafInOrder(t *testing.T) {
	def := mustDefinition(t, fullDefinition)
	cat, err := BuildCatalog(def)
	require.NoError(t, err)

	med := map[string]interface{}{"drug": map[string]interface{}{"value": "aspirin"}}
	docs := []map[string]interface{}{
		{"meds": map[string]interface{}{"value": []interface{}{med}}},
		{"meds": map[string]interface{}{"value": []interface{}{med, med}}},
	}

	var got []string
	containers := map[string]string{}
	err = cat.Walk(def.Record, docs, func(leaf Leaf) error {
		got = append(got, leaf.Cursor.String())
		if leaf.Container != nil {
			containers[leaf.Cursor.String()] = leaf.Container.Field.ID
		}
		return nil
	})
	require.NoError(t, err)

	want := []string{
		"name", "age", "weight", "smoker", "colors",
		"visit_date", "visit_time", "visit_at", "consent",
		"meds.0.drug", "meds.0.dose", "meds.1.drug", "meds.1.dose",
		"symptoms.cough.present", "symptoms.cough.days",
		"symptoms.fever.present", "symptoms.fever.days",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("leaves mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "meds", containers["meds.1.dose"])
	assert.Equal(t, "symptoms", containers["symptoms.fever.days"])
	assert.NotContains(t, containers, "age")
}

func TestWalkWithoutRecordsSkipsRecordLists(t *testing.T) {
	def := mustDefinition(t, fullDefinition)
	cat, err := BuildCatalog(def)
	require.NoError(t, err)

	n := 0
	require.NoError(t, cat.Walk(def.Record, nil, func(leaf Leaf) error {
		assert.NotEqual(t, "meds", leaf.Cursor.Field)
		n++
		return nil
	}))
	assert.Equal(t, 13, n)
}

func TestWalkStopsOnVisitError(t *testing.T) {
	def := mustDefinition(t, fullDefinition)
	cat, err := BuildCatalog(def)
	require.NoError(t, err)

	stop := errors.New("stop")
	n := 0
	err = cat.Walk(def.Record, nil, func(Leaf) error {
		n++
		if n == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, n)
}
