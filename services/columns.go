package services

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed columns.yaml
var columnsYAML []byte

// ColumnSet maps source headers onto canonical column names
type ColumnSet struct {
	Aliases map[string]string `yaml:"aliases"`
	Ignored []string          `yaml:"ignored"`
}

// ColumnMapping holds the header tables of every tabular import
type ColumnMapping struct {
	Measurement ColumnSet `yaml:"measurement"`
	Files       ColumnSet `yaml:"files"`
}

// LoadColumnMapping parses a YAML header table
func LoadColumnMapping(data []byte) (ColumnMapping, error) {
	var m ColumnMapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse column mapping: %w", err)
	}
	return m, nil
}

// DefaultColumns is the built-in header table
var DefaultColumns = mustLoadColumns()

func mustLoadColumns() ColumnMapping {
	m, err := LoadColumnMapping(columnsYAML)
	if err != nil {
		panic(err)
	}
	return m
}

// Canonical returns the column name for header; ok is false for ignored or blank headers
func (c ColumnSet) Canonical(header string) (string, bool) {
	h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	if h == "" {
		return "", false
	}
	for _, ignored := range c.Ignored {
		if h == ignored {
			return "", false
		}
	}
	if alias, ok := c.Aliases[h]; ok {
		return alias, true
	}
	return strings.ToLower(h), true
}
