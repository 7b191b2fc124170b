package io

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperr "github.com/matzehuels/stepflow/pkg/errors"
	"github.com/matzehuels/stepflow/pkg/parse"
)

// ReadJSON decodes a JSON graph from r. It does not close r.
func ReadJSON(r io.Reader) (*Document, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode json")
	}
	return data.toDocument()
}

// ReadYAML decodes a YAML graph from r. An empty document yields an empty
// graph.
func ReadYAML(r io.Reader) (*Document, error) {
	var data graph
	if err := yaml.NewDecoder(r).Decode(&data); err != nil && err != io.EOF {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode yaml")
	}
	return data.toDocument()
}

// ImportFile reads the graph at path, choosing the codec by extension:
// ".json", ".yaml"/".yml", or ".txt" for line-based constraints.
func ImportFile(path string, opts parse.Options) (*Document, error) {
	if err := apperr.ValidatePath(path); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" || ext == "" {
		res, err := parse.ParseFile(path, opts)
		if err != nil {
			return nil, err
		}
		return &Document{Graph: res.Graph}, nil
	}

	read, ok := readers[ext]
	if !ok {
		return nil, apperr.New(apperr.ErrCodeUnsupported, "unsupported graph format %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return read(f)
}

var readers = map[string]func(io.Reader) (*Document, error){
	".json": ReadJSON,
	".yaml": ReadYAML,
	".yml":  ReadYAML,
}
