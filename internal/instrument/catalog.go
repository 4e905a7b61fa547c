// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package instrument

import (
	"regexp"
	"sort"
	"strings"

	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// Catalog maps every type name known to a definition, built-in and
// user-defined, to the base type it resolves to.
type Catalog struct {
	bases   map[string]types.BaseType
	aliases map[string]types.TypeDef
}

// Resolved is a type with its alias chain flattened: the base type plus
// every constraint collected along the chain, nearest declaration first.
type Resolved struct {
	Base types.BaseType
	Def  types.TypeDef
	// Pattern is Def.Pattern compiled, nil when no pattern applies.
	Pattern *regexp.Regexp
}

// BuildCatalog seeds the catalog with the built-in base types, adds the
// definition's aliases, and follows alias chains until every name maps
// to a built-in base. Dangling names and cycles fail with a SchemaError.
func BuildCatalog(def *types.Definition) (*Catalog, error) {
	targets := make(map[string]string, len(types.BaseTypes())+len(def.Types))
	for _, b := range types.BaseTypes() {
		targets[b.String()] = b.String()
	}
	aliases := make(map[string]types.TypeDef, len(def.Types))
	for name, td := range def.Types {
		if _, builtin := types.ParseBaseType(name); builtin {
			return nil, types.SchemaErrorf("types."+name, "custom type may not redefine a base type")
		}
		targets[name] = td.Base
		aliases[name] = td
	}

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	for pass := 0; ; pass++ {
		pending := false
		for _, name := range names {
			target := targets[name]
			if _, ok := types.ParseBaseType(target); ok {
				continue
			}
			next, ok := targets[target]
			if !ok {
				return nil, types.SchemaErrorf("types."+name, "unknown base type %q", target)
			}
			targets[name] = next
			pending = true
		}
		if !pending {
			break
		}
		if pass > len(names) {
			var cyclic []string
			for _, name := range names {
				if _, ok := types.ParseBaseType(targets[name]); !ok {
					cyclic = append(cyclic, name)
				}
			}
			return nil, types.SchemaErrorf("types", "circular type definitions: %s", strings.Join(cyclic, ", "))
		}
	}

	bases := make(map[string]types.BaseType, len(targets))
	for name, target := range targets {
		b, _ := types.ParseBaseType(target)
		bases[name] = b
	}
	return &Catalog{bases: bases, aliases: aliases}, nil
}

// Bases returns a copy of the name to base type mapping.
func (c *Catalog) Bases() map[string]types.BaseType {
	out := make(map[string]types.BaseType, len(c.bases))
	for k, v := range c.bases {
		out[k] = v
	}
	return out
}

// Base returns the base type a name resolves to.
func (c *Catalog) Base(name string) (types.BaseType, bool) {
	b, ok := c.bases[name]
	return b, ok
}

// Resolve flattens a field type reference into its base type and the
// constraints inherited along the alias chain.
func (c *Catalog) Resolve(ref types.TypeRef) (*Resolved, error) {
	var td types.TypeDef
	switch {
	case ref.Def != nil:
		td = *ref.Def
	case ref.Name != "":
		td = types.TypeDef{Base: ref.Name}
	default:
		return nil, types.SchemaErrorf("", "empty type reference")
	}

	for hops := 0; ; hops++ {
		if _, ok := types.ParseBaseType(td.Base); ok {
			break
		}
		parent, ok := c.aliases[td.Base]
		if !ok || hops > len(c.aliases) {
			return nil, types.SchemaErrorf("", "unknown type %q", td.Base)
		}
		td.Inherit(&parent)
		td.Base = parent.Base
	}
	base, _ := types.ParseBaseType(td.Base)
	r := &Resolved{Base: base, Def: td}
	if td.Pattern != "" {
		re, err := regexp.Compile(td.Pattern)
		if err != nil {
			return nil, types.SchemaErrorf("", "invalid pattern %q: %v", td.Pattern, err)
		}
		r.Pattern = re
	}
	return r, nil
}
