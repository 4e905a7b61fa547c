// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package instrument

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// identifierPattern is the id rule for fields, rows, enumerations and
// type names: at least two characters of lower case letters, digits and
// single underscores, starting with a letter and not ending in an
// underscore. RE2 has no look-ahead, so "__" is rejected separately.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$`)

// enumerationPattern is looser: enumeration ids may be short codes such
// as "1" or "na" and may contain hyphens.
var enumerationPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9_-]*[a-z0-9])?$`)

// ValidIdentifier reports whether id follows the identifier rule.
func ValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id) && !strings.Contains(id, "__")
}

type constraintRule struct {
	required []string
	allowed  []string
}

var constraintTable = map[types.BaseType]constraintRule{
	types.BaseText:           {allowed: []string{types.ConstraintLength, types.ConstraintPattern}},
	types.BaseInteger:        {allowed: []string{types.ConstraintRange}},
	types.BaseFloat:          {allowed: []string{types.ConstraintRange}},
	types.BaseBoolean:        {},
	types.BaseDate:           {allowed: []string{types.ConstraintRange}},
	types.BaseTime:           {allowed: []string{types.ConstraintRange}},
	types.BaseDateTime:       {allowed: []string{types.ConstraintRange}},
	types.BaseEnumeration:    {required: []string{types.ConstraintEnumerations}},
	types.BaseEnumerationSet: {required: []string{types.ConstraintEnumerations}, allowed: []string{types.ConstraintLength}},
	types.BaseRecordList:     {required: []string{types.ConstraintRecord}, allowed: []string{types.ConstraintLength}},
	types.BaseMatrix:         {required: []string{types.ConstraintRows, types.ConstraintColumns}},
}

func (r constraintRule) permits(key string) bool {
	for _, k := range r.required {
		if k == key {
			return true
		}
	}
	for _, k := range r.allowed {
		if k == key {
			return true
		}
	}
	return false
}

// checkConstraints verifies that the keys declared on td are allowed for
// base, that merged (td plus everything inherited) carries every required
// key, and that the declared values are coherent.
func checkConstraints(path string, td *types.TypeDef, base types.BaseType, merged *types.TypeDef) error {
	rule, ok := constraintTable[base]
	if !ok {
		return types.SchemaErrorf(path, "unsupported base type %s", base)
	}
	for _, key := range td.ConstraintKeys() {
		if !rule.permits(key) {
			return types.SchemaErrorf(path, "%q is not allowed for base type %s", key, base)
		}
	}
	present := make(map[string]bool)
	for _, key := range merged.ConstraintKeys() {
		present[key] = true
	}
	for _, key := range rule.required {
		if !present[key] {
			return types.SchemaErrorf(path, "base type %s requires %q", base, key)
		}
	}

	if td.Range != nil {
		if err := checkRange(path+".range", td.Range, base); err != nil {
			return err
		}
	}
	if td.Length != nil && td.Length.Min != nil && td.Length.Max != nil && *td.Length.Min > *td.Length.Max {
		return types.SchemaErrorf(path+".length", "min %d is greater than max %d", *td.Length.Min, *td.Length.Max)
	}
	if td.Pattern != "" {
		if _, err := regexp.Compile(td.Pattern); err != nil {
			return types.SchemaErrorf(path+".pattern", "invalid pattern: %v", err)
		}
	}
	for _, id := range sortedEnumerationIDs(td.Enumerations) {
		if !enumerationPattern.MatchString(id) || strings.Contains(id, "__") || strings.Contains(id, "--") {
			return types.SchemaErrorf(path+".enumerations", "invalid enumeration id %q", id)
		}
	}
	return nil
}

func checkRange(path string, r *types.Bound, base types.BaseType) error {
	if layout, pattern, temporal := types.TemporalLayout(base); temporal {
		var bounds []string
		for _, b := range []interface{}{r.Min, r.Max} {
			if b == nil {
				continue
			}
			s, ok := b.(string)
			if !ok || !pattern.MatchString(s) {
				return types.SchemaErrorf(path, "bound %v does not match %s", b, layout)
			}
			bounds = append(bounds, s)
		}
		if len(bounds) == 2 && bounds[0] > bounds[1] {
			return types.SchemaErrorf(path, "min %s is after max %s", bounds[0], bounds[1])
		}
		return nil
	}

	var bounds []float64
	for _, b := range []interface{}{r.Min, r.Max} {
		if b == nil {
			continue
		}
		n, ok := tree.Number(b)
		if !ok {
			return types.SchemaErrorf(path, "bound %v is not a number", b)
		}
		bounds = append(bounds, n)
	}
	if len(bounds) == 2 && bounds[0] > bounds[1] {
		return types.SchemaErrorf(path, "min %s is greater than max %s", fmt.Sprint(r.Min), fmt.Sprint(r.Max))
	}
	return nil
}
