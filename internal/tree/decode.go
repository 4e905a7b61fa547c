// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
)

// Decode turns input into a plain tree. Strings and byte slices are
// parsed as YAML, which also accepts JSON; anything else is assumed to be
// an already-decoded tree and is copied, never modified. Typed values such
// as a types.Document are re-encoded through their json tags.
func Decode(input interface{}) (interface{}, error) {
	switch in := input.(type) {
	case string:
		return parse([]byte(in))
	case []byte:
		return parse(in)
	case json.RawMessage:
		return parse(in)
	case nil, bool, map[string]interface{}, map[interface{}]interface{}, []interface{}:
		return normalize(input)
	}
	if k := reflect.ValueOf(input).Kind(); k == reflect.Struct || k == reflect.Ptr {
		data, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("encoding %T: %w", input, err)
		}
		return parse(data)
	}
	return normalize(input)
}

func parse(data []byte) (interface{}, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return fromNode(&node)
}

// fromNode converts a YAML node into a plain tree. Timestamps stay as
// the text they were written as, so an unquoted 2024-03-01 is the same
// answer as a quoted one.
func fromNode(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := fromNode(n.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]interface{}, len(n.Content))
		for i, child := range n.Content {
			v, err := fromNode(child)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!timestamp" {
			return n.Value, nil
		}
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("parsing document: line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("parsing document: line %d: unsupported node kind %d", n.Line, n.Kind)
}

// normalize copies a decoded tree, rewriting mappings with non-string
// keys (which YAML allows) into string-keyed mappings so the rest of the
// engine only sees one shape. The input is never modified.
func normalize(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, child := range t {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, child := range t {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, child := range t {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, child := range t {
			out[i] = child
		}
		return normalize(out)
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	}
	return v, nil
}

// Into decodes a plain tree into a typed value using mapstructure and the
// json struct tags. hooks run before the default conversions.
func Into(input interface{}, out interface{}, hooks ...mapstructure.DecodeHookFunc) error {
	cfg := &mapstructure.DecoderConfig{
		Result:  out,
		TagName: "json",
	}
	if len(hooks) > 0 {
		cfg.DecodeHook = mapstructure.ComposeDecodeHookFunc(hooks...)
	}
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("decoding %s: %w", reflect.TypeOf(out).Elem().Name(), err)
	}
	return nil
}

// Encode renders v as indented JSON, or as YAML when yamlOut is set.
func Encode(v interface{}, yamlOut bool) ([]byte, error) {
	if yamlOut {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return append(data, '\n'), nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
