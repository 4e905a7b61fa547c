// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discrepancy compares parallel Entries of one Assessment and
// merges them into a single resolved document.
package discrepancy

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// NeedsValue marks a record-list index whose entries agree everywhere
// but leave at least one subfield unanswered.
const NeedsValue = "_NEEDS_VALUE_"

// Report is a discrepancy tree: shaped like a document's values with the
// "value" levels elided and record indexes as strings. Only leaves where
// entries disagree are present; each maps entry id to that entry's value.
type Report map[string]interface{}

// recordState tracks one record-list index across its subfields.
type recordState struct {
	disagree bool
	absent   bool
}

// Find reports every leaf where entries disagree. Fewer than two entries
// yield an empty report.
func Find(def *types.Definition, entries []types.EntryView) (Report, error) {
	report := Report{}
	if len(entries) < 2 {
		return report, nil
	}
	cat, err := instrument.BuildCatalog(def)
	if err != nil {
		return nil, err
	}
	shapes, err := cat.Shapes(def.Record)
	if err != nil {
		return nil, err
	}
	docs := valuesOf(entries)

	records := map[string]map[int]*recordState{}
	err = instrument.WalkShapes(shapes, docs, func(leaf instrument.Leaf) error {
		diff, absent, err := compare(leaf.Cursor, entries, docs)
		if err != nil {
			return err
		}
		if c := leaf.Cursor; c.Index >= 0 {
			if records[c.Field] == nil {
				records[c.Field] = map[int]*recordState{}
			}
			st := records[c.Field][c.Index]
			if st == nil {
				st = &recordState{}
				records[c.Field][c.Index] = st
			}
			st.disagree = st.disagree || diff != nil
			st.absent = st.absent || absent
		}
		if diff == nil {
			return nil
		}
		return tree.Set(report, leaf.Cursor.KeyPath(), diff)
	})
	if err != nil {
		return nil, fmt.Errorf("finding discrepancies: %w", err)
	}

	for field, indexes := range records {
		for idx, st := range indexes {
			if st.disagree || !st.absent {
				continue
			}
			path := tree.Path{field, tree.IndexKey(idx), NeedsValue}
			if err := tree.Set(report, path, true); err != nil {
				return nil, fmt.Errorf("finding discrepancies: %w", err)
			}
		}
	}
	return report, nil
}

// compare returns the entry id → value map when entries disagree at c,
// nil otherwise. absent reports that every entry left c unanswered.
func compare(c instrument.Cursor, entries []types.EntryView, docs []map[string]interface{}) (map[string]interface{}, bool, error) {
	values := make(map[string]interface{}, len(entries))
	distinct := map[string]bool{}
	for i, e := range entries {
		v := c.Value(docs[i])
		key, err := canonical(v)
		if err != nil {
			return nil, false, fmt.Errorf("comparing %s: %w", c, err)
		}
		distinct[key] = true
		values[e.EntryID()] = v
	}
	if len(distinct) > 1 {
		return values, false, nil
	}
	for _, v := range values {
		return nil, tree.IsEmpty(v), nil
	}
	return nil, false, nil
}

// canonical renders v so that equal answers compare equal: every kind of
// empty answer is the same, sequences are order-insensitive, and numbers
// compare by value.
func canonical(v interface{}) (string, error) {
	if tree.IsEmpty(v) {
		return "null", nil
	}
	if l, ok := v.([]interface{}); ok {
		items := make([]string, len(l))
		for i, item := range l {
			s, err := canonical(item)
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		sort.Strings(items)
		v = items
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func valuesOf(entries []types.EntryView) []map[string]interface{} {
	docs := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e.Document().Values
	}
	return docs
}
