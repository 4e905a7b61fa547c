// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"sort"
)

// BaseType is one of the fixed built-in field kinds every type alias
// resolves to.
type BaseType int

const (
	BaseUnknown BaseType = iota
	BaseText
	BaseInteger
	BaseFloat
	BaseBoolean
	BaseDate
	BaseTime
	BaseDateTime
	BaseEnumeration
	BaseEnumerationSet
	BaseRecordList
	BaseMatrix
)

var baseTypeNames = map[BaseType]string{
	BaseText:           "text",
	BaseInteger:        "integer",
	BaseFloat:          "float",
	BaseBoolean:        "boolean",
	BaseDate:           "date",
	BaseTime:           "time",
	BaseDateTime:       "dateTime",
	BaseEnumeration:    "enumeration",
	BaseEnumerationSet: "enumerationSet",
	BaseRecordList:     "recordList",
	BaseMatrix:         "matrix",
}

// BaseTypes lists every built-in base type in declaration order.
func BaseTypes() []BaseType {
	out := make([]BaseType, 0, len(baseTypeNames))
	for b := range baseTypeNames {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseBaseType maps a wire name such as "dateTime" to its BaseType.
// It returns BaseUnknown and false for names that are not built in.
func ParseBaseType(name string) (BaseType, bool) {
	for b, n := range baseTypeNames {
		if n == name {
			return b, true
		}
	}
	return BaseUnknown, false
}

// String returns the wire name of the base type.
func (b BaseType) String() string {
	if n, ok := baseTypeNames[b]; ok {
		return n
	}
	return "unknown"
}

// IsComplex reports whether the base type nests other fields.
func (b BaseType) IsComplex() bool {
	return b == BaseRecordList || b == BaseMatrix
}

// IsTemporal reports whether values of the base type are formatted dates or times.
func (b BaseType) IsTemporal() bool {
	return b == BaseDate || b == BaseTime || b == BaseDateTime
}

// Policy controls whether a field accepts an explanation or annotation.
type Policy string

const (
	PolicyNone     Policy = "none"
	PolicyOptional Policy = "optional"
	PolicyRequired Policy = "required"
)

// OrNone returns p, or PolicyNone when p is unset.
func (p Policy) OrNone() Policy {
	if p == "" {
		return PolicyNone
	}
	return p
}

// InstrumentRef stamps a document with the definition it answers.
type InstrumentRef struct {
	ID      string `json:"id" yaml:"id"`
	Version string `json:"version" yaml:"version"`
}

// Definition is a versioned Instrument Definition: the ordered top-level
// fields and the user-defined type aliases they may reference.
type Definition struct {
	ID          string             `json:"id" yaml:"id"`
	Version     string             `json:"version" yaml:"version"`
	Title       string             `json:"title,omitempty" yaml:"title,omitempty"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Types       map[string]TypeDef `json:"types,omitempty" yaml:"types,omitempty"`
	Record      []Field            `json:"record" yaml:"record"`
}

// Ref returns the stamp documents answering this definition carry.
func (d *Definition) Ref() InstrumentRef {
	return InstrumentRef{ID: d.ID, Version: d.Version}
}

// Field is one question of a record.
type Field struct {
	ID           string  `json:"id" yaml:"id"`
	Description  string  `json:"description,omitempty" yaml:"description,omitempty"`
	Type         TypeRef `json:"type" yaml:"type"`
	Required     bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Identifiable bool    `json:"identifiable,omitempty" yaml:"identifiable,omitempty"`
	Annotation   Policy  `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Explanation  Policy  `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// TypeRef is either a bare type name or an inline type definition.
type TypeRef struct {
	Name string
	Def  *TypeDef
}

// MarshalJSON writes a named reference as a plain string.
func (r TypeRef) MarshalJSON() ([]byte, error) {
	if r.Def != nil {
		return json.Marshal(r.Def)
	}
	return json.Marshal(r.Name)
}

// MarshalYAML writes a named reference as a plain scalar.
func (r TypeRef) MarshalYAML() (interface{}, error) {
	if r.Def != nil {
		return r.Def, nil
	}
	return r.Name, nil
}

// Row is one row of a matrix.
type Row struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Bound is an inclusive min/max pair. Numeric bounds hold numbers,
// temporal bounds hold formatted strings.
type Bound struct {
	Min interface{} `json:"min,omitempty" yaml:"min,omitempty"`
	Max interface{} `json:"max,omitempty" yaml:"max,omitempty"`
}

// LengthBound limits the size of text, sets and record lists.
type LengthBound struct {
	Min *int `json:"min,omitempty" yaml:"min,omitempty"`
	Max *int `json:"max,omitempty" yaml:"max,omitempty"`
}

// Enumeration describes one choice of an enumeration type.
type Enumeration struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// TypeDef is an inline type object: a base plus the constraints that
// apply to it.
type TypeDef struct {
	Base         string                  `json:"base" yaml:"base"`
	Range        *Bound                  `json:"range,omitempty" yaml:"range,omitempty"`
	Length       *LengthBound            `json:"length,omitempty" yaml:"length,omitempty"`
	Pattern      string                  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Enumerations map[string]*Enumeration `json:"enumerations,omitempty" yaml:"enumerations,omitempty"`
	Record       []Field                 `json:"record,omitempty" yaml:"record,omitempty"`
	Columns      []Field                 `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows         []Row                   `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Constraint key names as they appear in type objects.
const (
	ConstraintRange        = "range"
	ConstraintLength       = "length"
	ConstraintPattern      = "pattern"
	ConstraintEnumerations = "enumerations"
	ConstraintRecord       = "record"
	ConstraintColumns      = "columns"
	ConstraintRows         = "rows"
)

// ConstraintKeys lists the constraint keys set on t, sorted.
func (t *TypeDef) ConstraintKeys() []string {
	var keys []string
	if t.Columns != nil {
		keys = append(keys, ConstraintColumns)
	}
	if t.Enumerations != nil {
		keys = append(keys, ConstraintEnumerations)
	}
	if t.Length != nil {
		keys = append(keys, ConstraintLength)
	}
	if t.Pattern != "" {
		keys = append(keys, ConstraintPattern)
	}
	if t.Range != nil {
		keys = append(keys, ConstraintRange)
	}
	if t.Record != nil {
		keys = append(keys, ConstraintRecord)
	}
	if t.Rows != nil {
		keys = append(keys, ConstraintRows)
	}
	return keys
}

// Inherit fills every constraint unset on t from parent.
func (t *TypeDef) Inherit(parent *TypeDef) {
	if t.Range == nil {
		t.Range = parent.Range
	}
	if t.Length == nil {
		t.Length = parent.Length
	}
	if t.Pattern == "" {
		t.Pattern = parent.Pattern
	}
	if t.Enumerations == nil {
		t.Enumerations = parent.Enumerations
	}
	if t.Record == nil {
		t.Record = parent.Record
	}
	if t.Columns == nil {
		t.Columns = parent.Columns
	}
	if t.Rows == nil {
		t.Rows = parent.Rows
	}
}
