// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Calculation is one named derived value computed from a completed
// Assessment by a pluggable evaluation method.
type Calculation struct {
	// ID names the result. Later calculations reference it by this name.
	ID string `json:"id" yaml:"id" validate:"required"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Type is the declared output type the raw result is coerced to.
	Type string `json:"type" yaml:"type" validate:"required,oneof=text integer float boolean date time dateTime"`

	// Method is the registry name of the evaluation method.
	Method string `json:"method" yaml:"method" validate:"required"`

	// Options are method specific, e.g. {"expression": "..."} or {"query": "..."}.
	Options map[string]interface{} `json:"options" yaml:"options" validate:"required"`
}

// CalculationSet is the ordered list of calculations declared for one
// Instrument Definition.
type CalculationSet struct {
	Instrument   InstrumentRef `json:"instrument" yaml:"instrument"`
	Calculations []Calculation `json:"calculations" yaml:"calculations" validate:"required,min=1,dive"`
}
