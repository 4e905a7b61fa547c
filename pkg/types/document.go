// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Keys of an answer leaf inside a document's values tree.
const (
	KeyValue       = "value"
	KeyExplanation = "explanation"
	KeyAnnotation  = "annotation"
)

// Well-known keys of a document's meta mapping.
const (
	MetaApplication   = "application"
	MetaDateCompleted = "dateCompleted"
	MetaCalculations  = "calculations"
)

// Document is an Assessment Document: the answers to one Instrument
// Definition. Values is a plain tree keyed by field id whose leaves are
// {value, explanation?, annotation?} mappings.
type Document struct {
	Instrument InstrumentRef          `json:"instrument" yaml:"instrument"`
	Meta       map[string]interface{} `json:"meta,omitempty" yaml:"meta,omitempty"`
	Values     map[string]interface{} `json:"values" yaml:"values"`
}

// EntryType tags why an Entry was captured.
type EntryType string

const (
	EntryPreliminary EntryType = "preliminary"
	EntryReconciled  EntryType = "reconciled"
	EntryRevision    EntryType = "revision"
)

// Status is the lifecycle state of an Entry or Assessment.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusComplete   Status = "complete"
)

// EntryView is the read-only surface of an Entry that discrepancy
// detection and resolution consume.
type EntryView interface {
	// EntryID uniquely identifies the entry.
	EntryID() string
	// Document returns the answers captured by the entry.
	Document() Document
	// Modifier identifies who last changed the entry.
	Modifier() string
	// Modified is when the entry was last changed.
	Modified() time.Time
}

// Assessment is the canonical record produced by reconciliation.
type Assessment struct {
	ID     string   `json:"id" yaml:"id"`
	Status Status   `json:"status" yaml:"status"`
	Data   Document `json:"data" yaml:"data"`
}
