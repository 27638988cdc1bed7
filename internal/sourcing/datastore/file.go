package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset encodings.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatForPath picks the encoding from a file extension. Anything that is
// not .json is read as YAML.
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// DecodeDataset parses a dataset document.
func DecodeDataset(data []byte, format string) (*Dataset, error) {
	var ds Dataset
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&ds); err != nil {
			return nil, fmt.Errorf("parsing JSON dataset: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return nil, fmt.Errorf("parsing YAML dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown dataset format %q", format)
	}
	return &ds, nil
}

// FileSource reads a dataset from a local YAML or JSON file.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a source for path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Fetch(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SourceError{Source: s.Name(), Op: "read " + s.path, Err: err}
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Op: "read " + s.path, Err: err}
	}
	ds, err := DecodeDataset(data, FormatForPath(s.path))
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Op: "decode " + s.path, Err: err}
	}
	if n := ds.clean(); n > 0 {
		s.logger.Warn("dropped records without identifiers", "path", s.path, "count", n)
	}
	s.logger.Info("fetched dataset", "source", s.Name(), "path", s.path, "vendors", len(ds.Vendors), "parts", len(ds.Parts))
	return ds, nil
}
