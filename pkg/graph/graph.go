package graph

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// Marshal encodes a graph as a document in format f.
func Marshal(g *portgraph.Graph, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, FromPortGraph(g), f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a graph document without building the graph.
func Unmarshal(data []byte, f Format) (Graph, error) {
	var doc Graph
	if err := decode(bytes.NewReader(data), &doc, f); err != nil {
		return Graph{}, err
	}
	return doc, nil
}

// Write encodes a graph as a document in format f to w.
func Write(w io.Writer, g *portgraph.Graph, f Format) error {
	return encode(w, FromPortGraph(g), f)
}

// WriteFile writes a graph to path. The format follows the file extension.
func WriteFile(g *portgraph.Graph, path string) error {
	data, err := Marshal(g, FormatFor(path))
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// Read decodes a graph document from r and builds the graph.
func Read(r io.Reader, f Format) (*portgraph.Graph, error) {
	var doc Graph
	if err := decode(r, &doc, f); err != nil {
		return nil, err
	}
	return ToPortGraph(doc)
}

// ReadFile reads a graph from path. The format follows the file extension.
func ReadFile(path string) (*portgraph.Graph, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, FormatFor(path))
}

// =============================================================================
// Drawing Serialization API
// =============================================================================

// MarshalDrawing encodes a drawing in format f.
func MarshalDrawing(d Drawing, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, d, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalDrawing decodes a drawing.
func UnmarshalDrawing(data []byte, f Format) (Drawing, error) {
	var d Drawing
	if err := decode(bytes.NewReader(data), &d, f); err != nil {
		return Drawing{}, err
	}
	return d, nil
}

// WriteDrawingFile writes a drawing to path. The format follows the file
// extension.
func WriteDrawingFile(d Drawing, path string) error {
	data, err := MarshalDrawing(d, FormatFor(path))
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// ReadDrawingFile reads a drawing from path.
func ReadDrawingFile(path string) (Drawing, error) {
	f, err := openFile(path)
	if err != nil {
		return Drawing{}, err
	}
	defer f.Close()
	var d Drawing
	if err := decode(f, &d, FormatFor(path)); err != nil {
		return Drawing{}, err
	}
	return d, nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func encode(w io.Writer, v any, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode json")
		}
		return nil
	}
	return errors.New(errors.ErrCodeUnsupported, "unknown format %q", f)
}

func decode(r io.Reader, v any, f Format) error {
	switch f {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
		return nil
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
		return nil
	}
	return errors.New(errors.ErrCodeUnsupported, "unknown format %q", f)
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	return f, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
