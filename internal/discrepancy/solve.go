// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discrepancy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/assessment"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// ErrNoEntries is returned by Solve when there is nothing to merge.
var ErrNoEntries = errors.New("no entries to reconcile")

// noteLayout stamps each merged explanation or annotation.
const noteLayout = "2006-01-02 15:04:05"

// Solve merges entries into one resolved document. overrides is a sparse
// tree shaped like a Report holding the values a person chose; every
// other leaf takes the first entry, in the given order, that answered it.
// Explanations from every entry are merged onto the leaf. Annotations are
// merged only when the resolved leaf has no value, since an annotation
// explains a missing answer. A single entry is returned unchanged.
func Solve(def *types.Definition, entries []types.EntryView, overrides map[string]interface{}) (types.Document, error) {
	switch len(entries) {
	case 0:
		return types.Document{}, ErrNoEntries
	case 1:
		doc := entries[0].Document()
		doc.Meta = tree.CloneMapping(doc.Meta)
		doc.Values = tree.CloneMapping(doc.Values)
		return doc, nil
	}

	cat, err := instrument.BuildCatalog(def)
	if err != nil {
		return types.Document{}, err
	}
	shapes, err := cat.Shapes(def.Record)
	if err != nil {
		return types.Document{}, err
	}
	docs := valuesOf(entries)
	values := assessment.EmptyValues(shapes)
	records := map[string][]map[string]interface{}{}

	err = instrument.WalkShapes(shapes, docs, func(leaf instrument.Leaf) error {
		merged := mergeLeaf(leaf.Cursor, entries, docs, overrides)
		c := leaf.Cursor
		if c.Index < 0 {
			return tree.Set(values, c.ValuePath(), merged)
		}
		for len(records[c.Field]) <= c.Index {
			records[c.Field] = append(records[c.Field], map[string]interface{}{})
		}
		records[c.Field][c.Index][c.Sub] = merged
		return nil
	})
	if err != nil {
		return types.Document{}, fmt.Errorf("resolving discrepancies: %w", err)
	}

	for field, recs := range records {
		var kept []interface{}
		for _, rec := range recs {
			if populated(rec) {
				kept = append(kept, rec)
			}
		}
		if len(kept) > 0 {
			values[field] = map[string]interface{}{types.KeyValue: kept}
		}
	}

	return types.Document{
		Instrument: def.Ref(),
		Meta:       mergeMeta(entries),
		Values:     values,
	}, nil
}

// mergeLeaf resolves one simple leaf.
func mergeLeaf(c instrument.Cursor, entries []types.EntryView, docs []map[string]interface{}, overrides map[string]interface{}) map[string]interface{} {
	var value interface{}
	if o, ok := tree.Get(overrides, c.KeyPath()); ok {
		if !tree.IsEmpty(o) {
			value = tree.Clone(o)
		}
	} else {
		for _, values := range docs {
			if v := c.Value(values); !tree.IsEmpty(v) {
				value = tree.Clone(v)
				break
			}
		}
	}

	leaf := map[string]interface{}{types.KeyValue: value}
	if text := mergeNotes(c, types.KeyExplanation, entries, docs); text != "" {
		leaf[types.KeyExplanation] = text
	}
	// An annotation explains a missing value; once a value is chosen the
	// annotations no longer apply.
	if value == nil {
		if text := mergeNotes(c, types.KeyAnnotation, entries, docs); text != "" {
			leaf[types.KeyAnnotation] = text
		}
	}
	return leaf
}

// mergeNotes joins the free text stored under key by every entry. A
// single contribution is kept verbatim; several are each stamped with
// the entry's last modification.
func mergeNotes(c instrument.Cursor, key string, entries []types.EntryView, docs []map[string]interface{}) string {
	type note struct {
		entry types.EntryView
		text  string
	}
	var notes []note
	for i, e := range entries {
		if text, _ := c.Leaf(docs[i])[key].(string); text != "" {
			notes = append(notes, note{entry: e, text: text})
		}
	}
	switch len(notes) {
	case 0:
		return ""
	case 1:
		return notes[0].text
	}
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = fmt.Sprintf("%s / %s: %s", n.entry.Modified().Format(noteLayout), n.entry.Modifier(), n.text)
	}
	return strings.Join(parts, "\n\n")
}

func populated(rec map[string]interface{}) bool {
	for _, leaf := range rec {
		if !tree.IsEmpty(tree.Mapping(leaf)[types.KeyValue]) {
			return true
		}
	}
	return false
}
