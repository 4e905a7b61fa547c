// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prometheusresearch/baseline-codebase-sub000/internal/assessment"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/instrument"
	"github.com/prometheusresearch/baseline-codebase-sub000/internal/tree"
	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// readFile reads path, or stdin for "-".
func readFile(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// loadDefinition reads and fully validates a definition file.
func loadDefinition(path string) (*types.Definition, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	def, err := instrument.ValidateDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// loadEntries reads entry files in order. Entries without an id get a
// random one so reports can tell them apart.
func loadEntries(paths []string) ([]types.EntryView, error) {
	entries := make([]types.EntryView, 0, len(paths))
	for _, path := range paths {
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		e, err := assessment.ParseEntry(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
			logger.Debug("assigned entry id", zap.String("file", path), zap.String("id", e.ID))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// loadTree reads an optional YAML or JSON mapping; an empty path yields nil.
func loadTree(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := tree.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if raw == nil {
		return nil, nil
	}
	m := tree.Mapping(raw)
	if m == nil {
		return nil, fmt.Errorf("%s: expected a mapping", path)
	}
	return m, nil
}

// writeResult encodes v to stdout in the configured format.
func writeResult(v interface{}) error {
	data, err := tree.Encode(v, cfg.Format == types.OutputYAML)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
