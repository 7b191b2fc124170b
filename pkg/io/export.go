package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stepflow/pkg/dag"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
	"github.com/matzehuels/stepflow/pkg/simulate"
)

// WriteJSON encodes doc as indented JSON. The output can be re-imported with
// [ReadJSON].
func WriteJSON(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fromDocument(doc)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes doc as YAML.
func WriteYAML(doc *Document, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fromDocument(doc)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// ExportFile writes doc to path, choosing the codec by extension.
func ExportFile(doc *Document, path string) error {
	if err := apperr.ValidatePath(path); err != nil {
		return err
	}

	var write func(*Document, io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		write = WriteJSON
	case ".yaml", ".yml":
		write = WriteYAML
	default:
		return apperr.New(apperr.ErrCodeUnsupported, "unsupported graph format %q", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return write(doc, f)
}

// GraphDocument wraps a bare graph for export.
func GraphDocument(g *dag.DAG) *Document { return &Document{Graph: g} }

// WriteResultJSON encodes a simulation result as indented JSON.
func WriteResultJSON(res *simulate.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteResultYAML encodes a simulation result as YAML.
func WriteResultYAML(res *simulate.Result, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}
