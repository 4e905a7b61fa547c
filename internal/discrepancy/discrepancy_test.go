// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discrepancy

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/assessment"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// --- fixtures ---

const visitDefinition = `
id: urn:visit
version: "1"
record:
  - id: age
    type: integer
  - id: colors
    type:
      base: enumerationSet
      enumerations: {red: {}, blue: {}}
  - id: note
    type: text
    explanation: optional
    annotation: optional
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
      rows: [{id: cough}, {id: fever}]
      columns:
        - id: present
          type: boolean
        - id: days
          type: integer
`

const baseValues = `
age: {value: 30}
colors: {value: [red, blue]}
note: {value: fine}
meds:
  value:
    - drug: {value: aspirin}
      dose: {value: 1.5}
symptoms:
  value:
    cough: {present: {value: true}, days: {value: 3}}
    fever: {present: {value: false}, days: {value: 0}}
`

var day = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func mustDefinition(t *testing.T, src string) *types.Definition {
	t.Helper()
	def, err := instrument.ValidateDefinition(src)
	require.NoError(t, err)
	return def
}

func mustTree(t *testing.T, src string) map[string]interface{} {
	t.Helper()
	raw, err := tree.Decode(src)
	require.NoError(t, err)
	return tree.Mapping(raw)
}

func entry(id, by string, at time.Time, def *types.Definition, values map[string]interface{}) *assessment.Entry {
	return &assessment.Entry{
		ID:           id,
		Type:         types.EntryPreliminary,
		Status:       types.StatusComplete,
		Data:         types.Document{Instrument: def.Ref(), Values: values},
		ModifiedBy:   by,
		DateModified: at,
	}
}

func set(t *testing.T, values map[string]interface{}, path tree.Path, v interface{}) {
	t.Helper()
	require.NoError(t, tree.Set(values, path, v))
}

func views(entries ...*assessment.Entry) []types.EntryView {
	out := make([]types.EntryView, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out
}

// --- Find ---

func TestFindNeedsTwoEntries(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	for _, entries := range [][]types.EntryView{nil, views(entry("a", "alice", day, def, mustTree(t, baseValues)))} {
		report, err := Find(def, entries)
		require.NoError(t, err)
		assert.Empty(t, report)
	}
}

func TestFindIdenticalEntries(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	report, err := Find(def, views(
		entry("a", "alice", day, def, mustTree(t, baseValues)),
		entry("b", "bob", day, def, mustTree(t, baseValues)),
		entry("c", "carol", day, def, mustTree(t, baseValues)),
	))
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestFindAgeExample(t *testing.T) {
	def := mustDefinition(t, `
id: urn:age
version: "1"
record:
  - id: age
    type: integer
`)
	report, err := Find(def, views(
		entry("entry1", "alice", day, def, mustTree(t, `age: {value: 30}`)),
		entry("entry2", "bob", day, def, mustTree(t, `age: {value: 31}`)),
	))
	require.NoError(t, err)
	want := Report{"age": map[string]interface{}{"entry1": 30, "entry2": 31}}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestFindReportsOnlyTheChangedLeaf(t *testing.T) {
	def := mustDefinition(t, visitDefinition)

	tests := []struct {
		name   string
		mutate func(t *testing.T, values map[string]interface{})
		want   Report
	}{
		{
			name: "simple field",
			mutate: func(t *testing.T, v map[string]interface{}) {
				set(t, v, tree.Path{"age", "value"}, 31)
			},
			want: Report{"age": map[string]interface{}{"a": 30, "b": 31}},
		},
		{
			name: "enumeration set order is ignored",
			mutate: func(t *testing.T, v map[string]interface{}) {
				set(t, v, tree.Path{"colors", "value"}, []interface{}{"blue", "red"})
			},
			want: Report{},
		},
		{
			name: "whole float equals integer",
			mutate: func(t *testing.T, v map[string]interface{}) {
				set(t, v, tree.Path{"age", "value"}, 30.0)
			},
			want: Report{},
		},
		{
			name: "record subfield",
			mutate: func(t *testing.T, v map[string]interface{}) {
				set(t, v, tree.Path{"meds", "value", 0, "dose", "value"}, 2)
			},
			want: Report{"meds": map[string]interface{}{
				"0": map[string]interface{}{"dose": map[string]interface{}{"a": 1.5, "b": 2}},
			}},
		},
		{
			name: "longer record list",
			mutate: func(t *testing.T, v map[string]interface{}) {
				set(t, v, tree.Path{"meds", "value", 1}, map[string]interface{}{
					"drug": map[string]interface{}{"value": "ibuprofen"},
					"dose": map[string]interface{}{"value": 1},
				})
			},
			want: Report{"meds": map[string]interface{}{
				"1": map[string]interface{}{
					"drug": map[string]interface{}{"a": nil, "b": "ibuprofen"},
					"dose": map[string]interface{}{"a": nil, "b": 1},
				},
			}},
		},
		{
			name: "matrix cell",
			mutate: func(t *testing.T, v map[string]interface{}) {
				set(t, v, tree.Path{"symptoms", "value", "fever", "days", "value"}, 1)
			},
			want: Report{"symptoms": map[string]interface{}{
				"fever": map[string]interface{}{"days": map[string]interface{}{"a": 0, "b": 1}},
			}},
		},
		{
			name: "absent matrix row",
			mutate: func(t *testing.T, v map[string]interface{}) {
				delete(tree.Mapping(tree.Mapping(v["symptoms"])["value"]), "cough")
			},
			want: Report{"symptoms": map[string]interface{}{
				"cough": map[string]interface{}{
					"present": map[string]interface{}{"a": true, "b": nil},
					"days":    map[string]interface{}{"a": 3, "b": nil},
				},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := mustTree(t, baseValues)
			tt.mutate(t, changed)
			report, err := Find(def, views(
				entry("a", "alice", day, def, mustTree(t, baseValues)),
				entry("b", "bob", day, def, changed),
			))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, report); diff != "" {
				t.Errorf("report mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindFlagsAgreedAbsenceInRecord(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	values := func() map[string]interface{} {
		v := mustTree(t, baseValues)
		set(t, v, tree.Path{"meds", "value", 0, "dose", "value"}, nil)
		return v
	}
	report, err := Find(def, views(
		entry("a", "alice", day, def, values()),
		entry("b", "bob", day, def, values()),
	))
	require.NoError(t, err)
	want := Report{"meds": map[string]interface{}{
		"0": map[string]interface{}{NeedsValue: true},
	}}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

// --- Solve ---

func TestSolveNeedsEntries(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	_, err := Solve(def, nil, nil)
	assert.ErrorIs(t, err, ErrNoEntries)
}

func TestSolveSingleEntryIsIdentity(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	e := entry("a", "alice", day, def, mustTree(t, baseValues))
	e.Data.Meta = map[string]interface{}{"calculations": map[string]interface{}{"x": 1}}

	doc, err := Solve(def, views(e), map[string]interface{}{"age": 99})
	require.NoError(t, err)
	if diff := cmp.Diff(e.Document(), doc); diff != "" {
		t.Errorf("resolved document differs (-want +got):\n%s", diff)
	}
}

func TestSolveAgeExample(t *testing.T) {
	def := mustDefinition(t, `
id: urn:age
version: "1"
record:
  - id: age
    type: integer
`)
	entries := views(
		entry("entry1", "alice", day, def, mustTree(t, `age: {value: 30}`)),
		entry("entry2", "bob", day, def, mustTree(t, `age: {value: 31}`)),
	)
	doc, err := Solve(def, entries, map[string]interface{}{"age": 31})
	require.NoError(t, err)
	assert.Equal(t, 31, doc.Values["age"].(map[string]interface{})["value"])

	doc, err = Solve(def, entries, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, doc.Values["age"].(map[string]interface{})["value"])
}

func TestSolveMergeOrder(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	a := mustTree(t, baseValues)
	set(t, a, tree.Path{"age", "value"}, nil)
	b := mustTree(t, baseValues)
	set(t, b, tree.Path{"age", "value"}, 40)
	entries := views(entry("a", "alice", day, def, a), entry("b", "bob", day, def, b))

	doc, err := Solve(def, entries, nil)
	require.NoError(t, err)
	assert.Equal(t, 40, instrument.FieldCursor("age").Value(doc.Values))

	doc, err = Solve(def, entries, map[string]interface{}{"age": 12})
	require.NoError(t, err)
	assert.Equal(t, 12, instrument.FieldCursor("age").Value(doc.Values))
}

func TestSolveEmptyOverrideClearsValue(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	entries := views(
		entry("a", "alice", day, def, mustTree(t, baseValues)),
		entry("b", "bob", day, def, mustTree(t, baseValues)),
	)
	doc, err := Solve(def, entries, map[string]interface{}{"colors": []interface{}{}})
	require.NoError(t, err)
	leaf := instrument.FieldCursor("colors").Leaf(doc.Values)
	require.Contains(t, leaf, "value")
	assert.Nil(t, leaf["value"])
}

func TestSolveRecordLists(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	a := mustTree(t, baseValues)
	b := mustTree(t, baseValues)
	set(t, b, tree.Path{"meds", "value", 1}, map[string]interface{}{
		"drug": map[string]interface{}{"value": nil},
		"dose": map[string]interface{}{"value": nil},
	})
	entries := views(entry("a", "alice", day, def, a), entry("b", "bob", day, def, b))

	doc, err := Solve(def, entries, map[string]interface{}{
		"meds": map[string]interface{}{"0": map[string]interface{}{"dose": 2}},
	})
	require.NoError(t, err)

	want := []interface{}{
		map[string]interface{}{
			"drug": map[string]interface{}{"value": "aspirin"},
			"dose": map[string]interface{}{"value": 2},
		},
	}
	if diff := cmp.Diff(want, instrument.FieldCursor("meds").Value(doc.Values)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestSolveKeepsEveryMatrixRow(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	values := func() map[string]interface{} {
		v := mustTree(t, baseValues)
		delete(tree.Mapping(tree.Mapping(v["symptoms"])["value"]), "fever")
		return v
	}
	doc, err := Solve(def, views(
		entry("a", "alice", day, def, values()),
		entry("b", "bob", day, def, values()),
	), nil)
	require.NoError(t, err)

	assert.Nil(t, instrument.MatrixCursor("symptoms", "fever", "days").Leaf(doc.Values)["value"])
	assert.Contains(t, instrument.MatrixCursor("symptoms", "fever", "days").Leaf(doc.Values), "value")
	assert.Equal(t, true, instrument.MatrixCursor("symptoms", "cough", "present").Value(doc.Values))
}

func TestSolveMatrixCellOverride(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	b := mustTree(t, baseValues)
	set(t, b, tree.Path{"symptoms", "value", "cough", "days", "value"}, 4)
	set(t, b, tree.Path{"symptoms", "value", "fever", "present", "value"}, true)
	entries := views(
		entry("a", "alice", day, def, mustTree(t, baseValues)),
		entry("b", "bob", day, def, b),
	)

	report, err := Find(def, entries)
	require.NoError(t, err)
	wantReport := Report{"symptoms": map[string]interface{}{
		"cough": map[string]interface{}{"days": map[string]interface{}{"a": 3, "b": 4}},
		"fever": map[string]interface{}{"present": map[string]interface{}{"a": false, "b": true}},
	}}
	if diff := cmp.Diff(wantReport, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	doc, err := Solve(def, entries, map[string]interface{}{
		"symptoms": map[string]interface{}{"cough": map[string]interface{}{"days": 5}},
	})
	require.NoError(t, err)
	want := map[string]interface{}{
		"cough": map[string]interface{}{
			"present": map[string]interface{}{"value": true},
			"days":    map[string]interface{}{"value": 5},
		},
		"fever": map[string]interface{}{
			"present": map[string]interface{}{"value": false},
			"days":    map[string]interface{}{"value": 0},
		},
	}
	if diff := cmp.Diff(want, instrument.FieldCursor("symptoms").Value(doc.Values)); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, assessment.ValidateData(doc, def))
}

func TestSolveMergesNotes(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	a := mustTree(t, baseValues)
	set(t, a, tree.Path{"note"}, map[string]interface{}{"value": nil, "annotation": "refused", "explanation": "asked twice"})
	b := mustTree(t, baseValues)
	set(t, b, tree.Path{"note"}, map[string]interface{}{"value": nil, "annotation": "not asked"})
	later := time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC)
	entries := views(entry("a", "alice", day, def, a), entry("b", "bob", later, def, b))

	doc, err := Solve(def, entries, nil)
	require.NoError(t, err)
	leaf := instrument.FieldCursor("note").Leaf(doc.Values)
	assert.Equal(t, "2024-03-01 10:00:00 / alice: refused\n\n2024-03-02 11:30:00 / bob: not asked", leaf["annotation"])
	assert.Equal(t, "asked twice", leaf["explanation"])
	assert.NoError(t, assessment.ValidateData(doc, def))

	// A chosen value makes the annotations moot.
	doc, err = Solve(def, entries, map[string]interface{}{"note": "fine"})
	require.NoError(t, err)
	leaf = instrument.FieldCursor("note").Leaf(doc.Values)
	assert.Equal(t, "fine", leaf["value"])
	assert.NotContains(t, leaf, "annotation")
}

func TestSolveMergesMeta(t *testing.T) {
	def := mustDefinition(t, visitDefinition)
	a := entry("a", "alice", day, def, mustTree(t, baseValues))
	a.Data.Meta = map[string]interface{}{
		"application":   "forms/1.2 web",
		"dateCompleted": "2024-03-01T10:00:00Z",
		"calculations":  map[string]interface{}{"bmi": 22.5},
		"language":      "en",
	}
	b := entry("b", "bob", day, def, mustTree(t, baseValues))
	b.Data.Meta = map[string]interface{}{
		"application":   "web mobile/3",
		"dateCompleted": "2024-03-05T08:00:00Z",
		"language":      "fr",
		"timezone":      "UTC",
	}
	c := entry("c", "carol", day, def, mustTree(t, baseValues))
	c.Data.Meta = map[string]interface{}{"dateCompleted": "next tuesday"}

	doc, err := Solve(def, views(a, b, c), nil)
	require.NoError(t, err)
	want := map[string]interface{}{
		"application":   "forms/1.2 web mobile/3",
		"dateCompleted": "2024-03-05T08:00:00Z",
		"language":      "en",
		"timezone":      "UTC",
	}
	if diff := cmp.Diff(want, doc.Meta); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, def.Ref(), doc.Instrument)
	assert.NoError(t, assessment.ValidateData(doc, def))
}
