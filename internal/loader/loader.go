// Package loader reads and writes food web datasets as YAML or JSON files.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Benny93/foodweb-go/internal/foodweb"
)

// Format identifies a dataset encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for file extensions or format names that
// have no codec.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ParseFormat validates a format name given on the command line.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// Load reads a dataset file. When the file has no name, the file name without
// extension is used.
func Load(path string) (foodweb.Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return foodweb.Dataset{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return foodweb.Dataset{}, fmt.Errorf("opening dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := Decode(f, format)
	if err != nil {
		return foodweb.Dataset{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ds, nil
}

// Decode parses a dataset in the given format. It does not validate it.
func Decode(r io.Reader, format Format) (foodweb.Dataset, error) {
	var ds foodweb.Dataset

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&ds); err != nil {
			if errors.Is(err, io.EOF) {
				return ds, nil
			}
			return ds, fmt.Errorf("parsing YAML: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ds); err != nil {
			return ds, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		return ds, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return ds, nil
}

// Encode writes the dataset in the given format.
func Encode(w io.Writer, ds foodweb.Dataset, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Save writes the dataset to path, choosing the format from the extension.
func Save(path string, ds foodweb.Dataset) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return SaveAs(path, ds, format)
}

// SaveAs writes the dataset to path in the given format, whatever the
// extension.
func SaveAs(path string, ds foodweb.Dataset, format Format) error {
	switch format {
	case FormatYAML, FormatJSON:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dataset file: %w", err)
	}

	if err := Encode(f, ds, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
