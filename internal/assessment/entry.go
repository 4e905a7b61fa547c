// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assessment

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// Entry lifecycle errors.
var (
	ErrEntryComplete = errors.New("entry is already complete")
	ErrEntryType     = errors.New("unknown entry type")
)

// Entry is one captured attempt at an Assessment Document. It starts
// in progress, may be edited while in progress, and is completed once.
type Entry struct {
	ID     string          `json:"id" yaml:"id"`
	Type   types.EntryType `json:"type" yaml:"type"`
	Status types.Status    `json:"status" yaml:"status"`
	Data   types.Document  `json:"data" yaml:"data"`

	CreatedBy     string     `json:"createdBy" yaml:"createdBy"`
	DateCreated   time.Time  `json:"dateCreated" yaml:"dateCreated"`
	ModifiedBy    string     `json:"modifiedBy" yaml:"modifiedBy"`
	DateModified  time.Time  `json:"dateModified" yaml:"dateModified"`
	DateCompleted *time.Time `json:"dateCompleted,omitempty" yaml:"dateCompleted,omitempty"`
}

var _ types.EntryView = (*Entry)(nil)

// NewEntry creates an in-progress entry holding data.
func NewEntry(id string, typ types.EntryType, data types.Document, by string, at time.Time) (*Entry, error) {
	switch typ {
	case types.EntryPreliminary, types.EntryReconciled, types.EntryRevision:
	default:
		return nil, fmt.Errorf("creating entry %s: %w: %q", id, ErrEntryType, typ)
	}
	return &Entry{
		ID:           id,
		Type:         typ,
		Status:       types.StatusInProgress,
		Data:         data,
		CreatedBy:    by,
		DateCreated:  at,
		ModifiedBy:   by,
		DateModified: at,
	}, nil
}

// SetData replaces the entry's answers. Completed entries are frozen.
func (e *Entry) SetData(data types.Document, by string, at time.Time) error {
	if e.Status == types.StatusComplete {
		return fmt.Errorf("updating entry %s: %w", e.ID, ErrEntryComplete)
	}
	e.Data = data
	e.touch(by, at)
	return nil
}

// Complete validates the entry's answers against def and freezes it.
// On a validation failure the entry stays in progress.
func (e *Entry) Complete(def *types.Definition, by string, at time.Time) error {
	if e.Status == types.StatusComplete {
		return fmt.Errorf("completing entry %s: %w", e.ID, ErrEntryComplete)
	}
	if err := ValidateData(e.Data, def); err != nil {
		return fmt.Errorf("completing entry %s: %w", e.ID, err)
	}
	e.Status = types.StatusComplete
	completed := at
	e.DateCompleted = &completed
	e.touch(by, at)
	return nil
}

func (e *Entry) touch(by string, at time.Time) {
	e.ModifiedBy = by
	e.DateModified = at
}

func (e *Entry) EntryID() string           { return e.ID }
func (e *Entry) Document() types.Document { return e.Data }
func (e *Entry) Modifier() string          { return e.ModifiedBy }
func (e *Entry) Modified() time.Time       { return e.DateModified }

// ParseEntry decodes an entry from a tree or YAML/JSON text. Missing
// type and status default to a preliminary entry in progress. The
// answers are checked against the base document shape only.
func ParseEntry(input interface{}) (*Entry, error) {
	raw, err := tree.Decode(input)
	if err != nil {
		return nil, fmt.Errorf("parsing entry: %w", err)
	}
	m := tree.Mapping(raw)
	if m == nil {
		return nil, fmt.Errorf("parsing entry: expected a mapping, got %T", raw)
	}
	data, err := parseTree(m["data"])
	if err != nil {
		return nil, fmt.Errorf("parsing entry data: %w", err)
	}
	fields := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k != "data" {
			fields[k] = v
		}
	}
	e := &Entry{}
	if err := tree.Into(fields, e, mapstructure.StringToTimeHookFunc(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("parsing entry: %w", err)
	}
	e.Data = data
	if e.Type == "" {
		e.Type = types.EntryPreliminary
	}
	if e.Status == "" {
		e.Status = types.StatusInProgress
	}
	return e, nil
}
