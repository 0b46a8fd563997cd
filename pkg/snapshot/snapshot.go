// Package snapshot reads and writes atlas snapshot files. Files are JSON by
// default; .yaml and .yml files are YAML with the same schema, which is easier
// to annotate by hand.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ritzau/lumen-atlas/pkg/atlas"
	"github.com/ritzau/lumen-atlas/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Format is a snapshot file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode parses a snapshot document without interpreting it.
func Decode(r io.Reader, format Format) (map[string]any, error) {
	var data map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&data); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decoding YAML snapshot: %w", err)
		}
	default:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, fmt.Errorf("decoding JSON snapshot: %w", err)
		}
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// Encode writes a snapshot document.
func Encode(w io.Writer, data map[string]any, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encoding YAML snapshot: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encoding JSON snapshot: %w", err)
		}
		return nil
	}
}

// Load reads the snapshot at path and builds a graph from it.
func Load(path string) (*atlas.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	data, err := Decode(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	g, err := atlas.FromSerializable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logging.Debug("loaded snapshot", "path", path, "nodes", g.Len(), "edgeSets", len(g.EdgeSetNames()))
	return g, nil
}

// Save writes g to path, replacing the file only once the new content is
// complete.
func Save(path string, g *atlas.Graph, opts atlas.ExportOptions) error {
	var buf bytes.Buffer
	if err := Encode(&buf, g.ToSerializableWith(opts), FormatFor(path)); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("creating temp snapshot: %w", err)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	logging.Debug("saved snapshot", "path", path, "nodes", g.Len(), "source", string(opts.Source))
	return nil
}
