// Package catalog loads the list of AI initiatives shown on the agents page.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FollowUpEmailsID is the initiative that drafts follow-up emails.
const FollowUpEmailsID = 1

//go:embed initiatives.yaml
var initiativesYAML []byte

// Initiative is one entry of the catalog.
type Initiative struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
	Runnable    bool   `yaml:"runnable"`
}

type catalogFile struct {
	Initiatives []Initiative `yaml:"initiatives"`
}

// Catalog is an ordered, read-only set of initiatives.
type Catalog struct {
	items []Initiative
	byID  map[int]Initiative
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(initiativesYAML)
}

// Parse builds a catalog from YAML. IDs must be positive and unique.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse initiatives catalog: %w", err)
	}

	c := &Catalog{byID: make(map[int]Initiative, len(file.Initiatives))}
	for _, item := range file.Initiatives {
		if item.ID <= 0 {
			return nil, fmt.Errorf("initiative %q has invalid id %d", item.Name, item.ID)
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate initiative id %d", item.ID)
		}
		c.byID[item.ID] = item
		c.items = append(c.items, item)
	}
	return c, nil
}

// All returns the initiatives in catalog order.
func (c *Catalog) All() []Initiative {
	out := make([]Initiative, len(c.items))
	copy(out, c.items)
	return out
}

// Get looks up an initiative by ID.
func (c *Catalog) Get(id int) (Initiative, bool) {
	item, ok := c.byID[id]
	return item, ok
}
