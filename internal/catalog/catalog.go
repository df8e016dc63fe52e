// Package catalog defines the disclosure requirements tracked per ESG
// pillar. The built-in catalog is embedded at build time; deployments can
// point config at an override file with the same schema.
package catalog

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sustainboard/esg-cli/internal/model"
)

//go:embed catalog.yaml
var builtin []byte

// Requirement is one tracked disclosure item within a pillar.
type Requirement struct {
	Key      string  `yaml:"key" json:"key"`
	Label    string  `yaml:"label" json:"label"`
	Critical bool    `yaml:"critical" json:"critical"`
	Weight   float64 `yaml:"weight" json:"weight"`
	Link     string  `yaml:"link" json:"link,omitempty"`
}

// PillarSet holds the requirements and regulatory mapping for one pillar.
type PillarSet struct {
	Area         string        `yaml:"area" json:"area"`
	Principle    string        `yaml:"principle" json:"principle"`
	Requirements []Requirement `yaml:"requirements" json:"requirements"`
}

// Catalog is the full requirement definition across pillars.
type Catalog struct {
	Pillars map[model.Pillar]PillarSet `yaml:"pillars"`
}

// Default returns the embedded built-in catalog.
func Default() *Catalog {
	c, err := parse(builtin)
	if err != nil {
		// The embedded catalog is validated by tests; a parse failure here
		// is a build defect, not a runtime condition.
		panic(err)
	}
	return c
}

// LoadFile reads a catalog override from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "catalog: unmarshal")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	for _, p := range model.Pillars {
		set, ok := c.Pillars[p]
		if !ok || len(set.Requirements) == 0 {
			return eris.Errorf("catalog: pillar %s has no requirements", p)
		}
		seen := make(map[string]bool, len(set.Requirements))
		for _, r := range set.Requirements {
			if r.Key == "" || r.Label == "" {
				return eris.Errorf("catalog: pillar %s has requirement without key or label", p)
			}
			if seen[r.Key] {
				return eris.Errorf("catalog: pillar %s duplicates requirement %s", p, r.Key)
			}
			seen[r.Key] = true
			if r.Weight <= 0 {
				return eris.Errorf("catalog: requirement %s/%s needs a positive weight", p, r.Key)
			}
		}
	}
	return nil
}

// Requirements returns the defined requirements for a pillar.
func (c *Catalog) Requirements(p model.Pillar) []Requirement {
	return c.Pillars[p].Requirements
}

// Area returns the display area name for a pillar.
func (c *Catalog) Area(p model.Pillar) string {
	return c.Pillars[p].Area
}

// Principle returns the BRSR principle a pillar maps to.
func (c *Catalog) Principle(p model.Pillar) string {
	return c.Pillars[p].Principle
}

// Get looks up a single requirement by pillar and key.
func (c *Catalog) Get(p model.Pillar, key string) (Requirement, bool) {
	for _, r := range c.Pillars[p].Requirements {
		if r.Key == key {
			return r, true
		}
	}
	return Requirement{}, false
}
