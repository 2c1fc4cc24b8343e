// Package docio reads annotated documents from JSON or YAML and writes
// resolution output as JSON. The CLI, the HTTP server and the directory
// watcher all go through it, so every surface accepts the same input.
package docio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/coref/pkg/types"
)

// Format is a document serialisation.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// OutputSuffix is appended to a document's base name for its output file.
const OutputSuffix = ".coref.json"

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("docio: unsupported document format")

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// IsDocumentFile reports whether path names an input document: a JSON or
// YAML file that is not itself resolution output.
func IsDocumentFile(path string) bool {
	if strings.HasSuffix(strings.ToLower(path), OutputSuffix) {
		return false
	}
	_, err := FormatFromPath(path)
	return err == nil
}

// OutputPath returns the output file written next to a document. The input
// extension is kept so a.json and a.yaml never share an output.
func OutputPath(path string) string {
	return path + OutputSuffix
}

// Decode reads one document from r and validates it.
func Decode(r io.Reader, format Format) (*types.Document, error) {
	var doc types.Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("docio: failed to decode JSON document: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("docio: failed to decode YAML document: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DecodeBytes is Decode on a byte slice.
func DecodeBytes(data []byte, format Format) (*types.Document, error) {
	return Decode(bytes.NewReader(data), format)
}

// LoadFile reads and validates the document at path. A document without an
// ID is named after the file.
func LoadFile(path string) (*types.Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("docio: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// Resolved is the output for one document: the chains and the document
// with its reference fields filled in.
type Resolved struct {
	Result   *types.Result   `json:"result"`
	Document *types.Document `json:"document,omitempty"`
	Debug    any             `json:"debug,omitempty"`
}

// Encode writes v as indented JSON followed by a newline.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("docio: failed to encode output: %w", err)
	}
	return nil
}

// WriteFile writes v as JSON to path through a temporary file so readers
// never observe a partial output.
func WriteFile(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".coref-*.tmp")
	if err != nil {
		return fmt.Errorf("docio: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("docio: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("docio: %w", err)
	}
	return nil
}
