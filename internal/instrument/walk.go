// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package instrument

import "github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"

// Leaf is one simple answer position visited by Walk.
type Leaf struct {
	Cursor Cursor
	// Shape is the simple field answered at the leaf.
	Shape Shape
	// Container is the record-list or matrix field holding the leaf, nil
	// for top-level fields.
	Container *Shape
}

// Walk resolves record and visits every leaf in definition order: each
// simple top-level field, then for record lists every index × subfield
// and for matrices every declared row × column. Record-list indexes run
// to the longest list found in docs; no document is required to have
// them. visit errors stop the walk and are returned as is.
func (c *Catalog) Walk(record []types.Field, docs []map[string]interface{}, visit func(Leaf) error) error {
	shapes, err := c.Shapes(record)
	if err != nil {
		return err
	}
	return WalkShapes(shapes, docs, visit)
}

// WalkShapes is Walk over already resolved shapes.
func WalkShapes(shapes []Shape, docs []map[string]interface{}, visit func(Leaf) error) error {
	for i := range shapes {
		s := &shapes[i]
		switch s.Base() {
		case types.BaseRecordList:
			n := MaxRecordCount(docs, s.Field.ID)
			for idx := 0; idx < n; idx++ {
				for _, sub := range s.Subs {
					leaf := Leaf{Cursor: RecordCursor(s.Field.ID, idx, sub.Field.ID), Shape: sub, Container: s}
					if err := visit(leaf); err != nil {
						return err
					}
				}
			}
		case types.BaseMatrix:
			for _, row := range s.Rows() {
				for _, col := range s.Subs {
					leaf := Leaf{Cursor: MatrixCursor(s.Field.ID, row.ID, col.Field.ID), Shape: col, Container: s}
					if err := visit(leaf); err != nil {
						return err
					}
				}
			}
		case types.BaseText, types.BaseInteger, types.BaseFloat, types.BaseBoolean,
			types.BaseDate, types.BaseTime, types.BaseDateTime,
			types.BaseEnumeration, types.BaseEnumerationSet:
			if err := visit(Leaf{Cursor: FieldCursor(s.Field.ID), Shape: *s}); err != nil {
				return err
			}
		default:
			return types.SchemaErrorf(s.Field.ID, "unsupported base type %s", s.Base())
		}
	}
	return nil
}
