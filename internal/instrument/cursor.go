// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package instrument

import (
	"fmt"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// Cursor addresses one answer leaf of a document: a top-level simple
// field, one subfield of one record-list index, or one matrix cell.
type Cursor struct {
	Field string
	// Index is the record-list position, or -1 outside record lists.
	Index int
	// Row is the matrix row, empty outside matrices.
	Row string
	// Sub is the record subfield or matrix column, empty for top-level leaves.
	Sub string
}

// FieldCursor addresses a top-level simple field.
func FieldCursor(field string) Cursor {
	return Cursor{Field: field, Index: -1}
}

// RecordCursor addresses subfield sub of record index i of a record list.
func RecordCursor(field string, i int, sub string) Cursor {
	return Cursor{Field: field, Index: i, Sub: sub}
}

// MatrixCursor addresses one matrix cell.
func MatrixCursor(field, row, column string) Cursor {
	return Cursor{Field: field, Index: -1, Row: row, Sub: column}
}

// ValuePath locates the {value, explanation?, annotation?} leaf inside a
// document's values mapping.
func (c Cursor) ValuePath() tree.Path {
	switch {
	case c.Index >= 0:
		return tree.Path{c.Field, types.KeyValue, c.Index, c.Sub}
	case c.Row != "":
		return tree.Path{c.Field, types.KeyValue, c.Row, c.Sub}
	}
	return tree.Path{c.Field}
}

// KeyPath locates the leaf inside discrepancy reports and override maps,
// where record indexes are stringified and the "value" level is elided.
func (c Cursor) KeyPath() tree.Path {
	switch {
	case c.Index >= 0:
		return tree.Path{c.Field, tree.IndexKey(c.Index), c.Sub}
	case c.Row != "":
		return tree.Path{c.Field, c.Row, c.Sub}
	}
	return tree.Path{c.Field}
}

// FlatName is the single identifier the leaf is known by in stores with
// no nested values: field, field_row_column, or field_index_sub.
func (c Cursor) FlatName() string {
	switch {
	case c.Index >= 0:
		return fmt.Sprintf("%s_%d_%s", c.Field, c.Index, c.Sub)
	case c.Row != "":
		return c.Field + "_" + c.Row + "_" + c.Sub
	}
	return c.Field
}

func (c Cursor) String() string {
	return c.KeyPath().String()
}

// Leaf returns the leaf mapping at c in values, or nil when it is absent.
func (c Cursor) Leaf(values map[string]interface{}) map[string]interface{} {
	node, ok := tree.Get(values, c.ValuePath())
	if !ok {
		return nil
	}
	return tree.Mapping(node)
}

// Value returns the answer at c in values, or nil when absent.
func (c Cursor) Value(values map[string]interface{}) interface{} {
	return c.Leaf(values)[types.KeyValue]
}

// Shape is a field with its type resolved. Record lists and matrices
// carry their subfields or columns as nested shapes.
type Shape struct {
	Field types.Field
	Type  *Resolved
	Subs  []Shape
}

// Base is the resolved base type of the field.
func (s Shape) Base() types.BaseType {
	return s.Type.Base
}

// Rows returns the declared matrix rows; nil for other bases.
func (s Shape) Rows() []types.Row {
	return s.Type.Def.Rows
}

// Shapes resolves every field of record against the catalog.
func (c *Catalog) Shapes(record []types.Field) ([]Shape, error) {
	shapes := make([]Shape, 0, len(record))
	for _, f := range record {
		resolved, err := c.Resolve(f.Type)
		if err != nil {
			return nil, atPath(err, f.ID)
		}
		s := Shape{Field: f, Type: resolved}
		switch resolved.Base {
		case types.BaseRecordList:
			if s.Subs, err = c.Shapes(resolved.Def.Record); err != nil {
				return nil, err
			}
		case types.BaseMatrix:
			if s.Subs, err = c.Shapes(resolved.Def.Columns); err != nil {
				return nil, err
			}
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

// RecordCount returns the length of a record-list answer in values.
func RecordCount(values map[string]interface{}, field string) int {
	return len(tree.Sequence(FieldCursor(field).Value(values)))
}

// MaxRecordCount returns the longest record-list answer across documents.
func MaxRecordCount(docs []map[string]interface{}, field string) int {
	n := 0
	for _, values := range docs {
		if c := RecordCount(values, field); c > n {
			n = c
		}
	}
	return n
}
