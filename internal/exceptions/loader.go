package exceptions

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed syn.yaml
var synTables []byte

// Default returns the built-in tables for syn-shaped schemas.
func Default() *Tables {
	t, err := Parse(synTables)
	if err != nil {
		panic(fmt.Sprintf("built-in exception tables: %v", err))
	}

	return t
}

// LoadFile loads and parses a YAML exceptions file from the given path.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exceptions file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into Tables.
func Parse(data []byte) (*Tables, error) {
	var t Tables

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&t)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse exceptions YAML: %w", err)
	}

	applyDefaults(&t)

	return &t, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(t *Tables) {
	if t.Version == "" {
		t.Version = "1"
	}

	for name, b := range t.Foreign {
		if b.Orig == "" {
			b.Orig = name
			t.Foreign[name] = b
		}
	}

	for name, b := range t.Primitives {
		if b.Orig == "" {
			b.Orig = name
			t.Primitives[name] = b
		}
	}
}

// Marshal serializes Tables to YAML.
func Marshal(t *Tables) ([]byte, error) {
	return yaml.Marshal(t)
}
