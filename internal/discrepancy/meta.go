// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discrepancy

import (
	"strings"
	"time"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// mergeMeta combines entry metadata. Application tokens are collected in
// order without repeats, the latest completion time wins, calculation
// results are dropped, and any other key keeps its first present value.
func mergeMeta(entries []types.EntryView) map[string]interface{} {
	merged := map[string]interface{}{}
	var apps []string
	seen := map[string]bool{}
	var latest time.Time
	var latestRaw string

	for _, e := range entries {
		meta := e.Document().Meta
		for _, key := range tree.SortedKeys(meta) {
			v := meta[key]
			switch key {
			case types.MetaCalculations:
			case types.MetaApplication:
				s, _ := v.(string)
				for _, tok := range strings.Fields(s) {
					if !seen[tok] {
						seen[tok] = true
						apps = append(apps, tok)
					}
				}
			case types.MetaDateCompleted:
				s, _ := v.(string)
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					continue
				}
				if latestRaw == "" || t.After(latest) {
					latest, latestRaw = t, s
				}
			default:
				if _, ok := merged[key]; !ok && !tree.IsEmpty(v) {
					merged[key] = tree.Clone(v)
				}
			}
		}
	}

	if len(apps) > 0 {
		merged[types.MetaApplication] = strings.Join(apps, " ")
	}
	if latestRaw != "" {
		merged[types.MetaDateCompleted] = latestRaw
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}
