package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile loads a schema from path. Files ending in .yaml or .yml are read
// as YAML, everything else as JSON.
func LoadFile(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON parses a JSON schema document.
func ParseJSON(data []byte) (*Definitions, error) {
	root, err := readJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
	}

	return decodeDefinitions(root)
}

// ParseYAML parses a YAML schema document.
func ParseYAML(data []byte) (*Definitions, error) {
	root, err := readYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema YAML: %w", err)
	}

	return decodeDefinitions(root)
}
