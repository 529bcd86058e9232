// Package catalog holds the fixed list of question categories, embedded into
// the binary as YAML.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultIcon is used for entries that do not declare one.
const DefaultIcon = "📁"

//go:embed categories.yaml
var defaultYAML []byte

// Category is one entry of the catalog.
type Category struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
}

type document struct {
	Categories []Category `yaml:"categories"`
}

// Parse decodes a catalog document. IDs and names must be present and unique.
func Parse(data []byte) ([]Category, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parsing yaml: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, errors.New("catalog: no categories defined")
	}

	ids := make(map[string]bool, len(doc.Categories))
	names := make(map[string]bool, len(doc.Categories))
	for i := range doc.Categories {
		c := &doc.Categories[i]
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("catalog: entry %d needs both id and name", i)
		}
		if ids[c.ID] || names[c.Name] {
			return nil, fmt.Errorf("catalog: duplicate category %q", c.ID)
		}
		ids[c.ID], names[c.Name] = true, true
		if c.Icon == "" {
			c.Icon = DefaultIcon
		}
	}
	return doc.Categories, nil
}

// Default returns the embedded catalog. The embedded file is validated by the
// package tests, so a failure here is a build defect.
func Default() []Category {
	cats, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return cats
}
