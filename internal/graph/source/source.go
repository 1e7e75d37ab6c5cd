// Package source loads extracted graph documents from files or a graph database.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"podcast-insights-go/internal/graph"
)

// Loader yields the extraction results to render, in extraction order.
type Loader interface {
	Load(ctx context.Context) ([]graph.Document, error)
}

// Format names a document source.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
	FormatNeo4j Format = "neo4j"
)

// ErrUnknownFormat is returned when a format cannot be resolved.
var ErrUnknownFormat = errors.New("unknown graph source format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJSON, FormatXLSX, FormatNeo4j:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Detect picks a file format from the path extension.
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: cannot infer from %q", ErrUnknownFormat, path)
	}
}

// FileLoader returns the loader for a file-backed format. Auto detects from the extension.
func FileLoader(format Format, path string) (Loader, error) {
	if format == FormatAuto || format == "" {
		f, err := Detect(path)
		if err != nil {
			return nil, err
		}
		format = f
	}
	switch format {
	case FormatJSON:
		return JSONFile{Path: path}, nil
	case FormatXLSX:
		return Workbook{Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not file backed", ErrUnknownFormat, format)
	}
}

// JSONFile reads either a single document object or an array of documents.
type JSONFile struct {
	Path string
}

func (j JSONFile) Load(ctx context.Context) ([]graph.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(j.Path)
	if err != nil {
		return nil, fmt.Errorf("read graph documents: %w", err)
	}
	docs, err := DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", j.Path, err)
	}
	return docs, nil
}

func DecodeJSON(raw []byte) ([]graph.Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, graph.ErrNoDocuments
	}
	if raw[0] == '[' {
		var docs []graph.Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}
	var doc graph.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return []graph.Document{doc}, nil
}
