// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled, fixed structural schema.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// Violation is the first structural problem a Schema found.
type Violation struct {
	Path string
	Msg  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Msg)
}

// MustCompileSchema compiles an embedded JSON Schema document. It panics
// on error since the schemas ship with the binary.
func MustCompileSchema(name string, src []byte) *Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(name, bytes.NewReader(src)); err != nil {
		panic(fmt.Sprintf("adding schema %s: %v", name, err))
	}
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compiling schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

// Check validates a plain tree against the schema. It returns nil or a
// *Violation locating the most specific failure.
func (s *Schema) Check(v interface{}) error {
	// Round-trip through JSON so every number reaches the validator as
	// json.Number regardless of how the tree was built.
	data, err := json.Marshal(v)
	if err != nil {
		return &Violation{Path: "/", Msg: fmt.Sprintf("not a plain tree: %v", err)}
	}
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return &Violation{Path: "/", Msg: fmt.Sprintf("not a plain tree: %v", err)}
	}
	err = s.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &Violation{Path: "/", Msg: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return &Violation{Path: loc, Msg: ve.Message}
}
