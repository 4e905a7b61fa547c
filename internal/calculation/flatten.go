// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calculation

import (
	"fmt"
	"time"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// Flatten turns a document's values into a scope of plain Go values keyed
// by field id. Integers become int, floats float64, dates and times
// time.Time, enumeration sets []string, record lists
// []map[string]interface{} and matrices row → column → value mappings.
// With flatMatrices every matrix cell is instead its own
// field_row_column name. Unanswered fields are nil.
func Flatten(shapes []instrument.Shape, values map[string]interface{}, flatMatrices bool) (map[string]interface{}, error) {
	scope := make(map[string]interface{}, len(shapes))
	for _, s := range shapes {
		c := instrument.FieldCursor(s.Field.ID)
		raw := c.Value(values)
		switch s.Base() {
		case types.BaseRecordList:
			items := tree.Sequence(raw)
			if items == nil {
				scope[s.Field.ID] = nil
				continue
			}
			records := make([]map[string]interface{}, len(items))
			for i := range items {
				rec := make(map[string]interface{}, len(s.Subs))
				for _, sub := range s.Subs {
					v, err := scalar(sub, instrument.RecordCursor(s.Field.ID, i, sub.Field.ID).Value(values))
					if err != nil {
						return nil, err
					}
					rec[sub.Field.ID] = v
				}
				records[i] = rec
			}
			scope[s.Field.ID] = records
		case types.BaseMatrix:
			rows := make(map[string]map[string]interface{}, len(s.Rows()))
			for _, row := range s.Rows() {
				cells := make(map[string]interface{}, len(s.Subs))
				for _, col := range s.Subs {
					cell := instrument.MatrixCursor(s.Field.ID, row.ID, col.Field.ID)
					v, err := scalar(col, cell.Value(values))
					if err != nil {
						return nil, err
					}
					if flatMatrices {
						scope[cell.FlatName()] = v
					} else {
						cells[col.Field.ID] = v
					}
				}
				rows[row.ID] = cells
			}
			if !flatMatrices {
				scope[s.Field.ID] = rows
			}
		case types.BaseText, types.BaseInteger, types.BaseFloat, types.BaseBoolean,
			types.BaseDate, types.BaseTime, types.BaseDateTime,
			types.BaseEnumeration, types.BaseEnumerationSet:
			v, err := scalar(s, raw)
			if err != nil {
				return nil, err
			}
			scope[s.Field.ID] = v
		default:
			return nil, fmt.Errorf("flattening %s: unsupported base type %s", s.Field.ID, s.Base())
		}
	}
	return scope, nil
}

// scalar converts one simple answer to its Go value.
func scalar(s instrument.Shape, v interface{}) (interface{}, error) {
	if tree.IsEmpty(v) {
		return nil, nil
	}
	switch base := s.Base(); base {
	case types.BaseInteger:
		n, ok := tree.Number(v)
		if !ok {
			return nil, fmt.Errorf("flattening %s: %v is not an integer", s.Field.ID, v)
		}
		return int(n), nil
	case types.BaseFloat:
		n, ok := tree.Number(v)
		if !ok {
			return nil, fmt.Errorf("flattening %s: %v is not a number", s.Field.ID, v)
		}
		return n, nil
	case types.BaseDate, types.BaseTime, types.BaseDateTime:
		str, _ := v.(string)
		layout, _, _ := types.TemporalLayout(base)
		t, err := time.Parse(layout, str)
		if err != nil {
			return nil, fmt.Errorf("flattening %s: %w", s.Field.ID, err)
		}
		return t, nil
	case types.BaseEnumerationSet:
		items := tree.Sequence(v)
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	}
	return v, nil
}
