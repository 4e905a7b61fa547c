// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assessment

import (
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// GenerateEmptyData builds the unanswered document for def: every simple
// and record-list field holds {value: nil}, and every matrix holds a
// {value: nil} cell for each declared row and column.
func GenerateEmptyData(def *types.Definition) (types.Document, error) {
	cat, err := instrument.BuildCatalog(def)
	if err != nil {
		return types.Document{}, err
	}
	shapes, err := cat.Shapes(def.Record)
	if err != nil {
		return types.Document{}, err
	}
	return types.Document{
		Instrument: def.Ref(),
		Values:     emptyValues(shapes),
	}, nil
}

func emptyValues(shapes []Shape) map[string]interface{} {
	values := make(map[string]interface{}, len(shapes))
	for _, s := range shapes {
		values[s.Field.ID] = emptyLeaf(s)
	}
	return values
}

func emptyLeaf(s Shape) map[string]interface{} {
	if s.Base() != types.BaseMatrix {
		return map[string]interface{}{types.KeyValue: nil}
	}
	rows := make(map[string]interface{}, len(s.Rows()))
	for _, row := range s.Rows() {
		rows[row.ID] = emptyValues(s.Subs)
	}
	return map[string]interface{}{types.KeyValue: rows}
}

// EmptyValues returns the values tree of GenerateEmptyData for already
// resolved shapes.
func EmptyValues(shapes []instrument.Shape) map[string]interface{} {
	return emptyValues(shapes)
}
