// Package scenarios loads named fund configurations from YAML catalogs.
package scenarios

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/simulation"
	"github.com/j-alcock/ss-extension-act-sub000/pkg/embedded"
)

// ErrScenarioNotFound is returned by Get for an unknown name
var ErrScenarioNotFound = errors.New("scenario not found")

// Scenario is a named overlay on a FundConfig. Only keys present under
// overrides replace the base values.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Overrides   yaml.Node `yaml:"overrides"`
}

// Apply overlays the scenario onto base
func (s *Scenario) Apply(base simulation.FundConfig) (simulation.FundConfig, error) {
	if s.Overrides.Kind == 0 {
		return base, nil
	}

	raw, err := yaml.Marshal(&s.Overrides)
	if err != nil {
		return base, fmt.Errorf("failed to encode overrides for %s: %w", s.Name, err)
	}

	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return base, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return cfg, nil
}

// Config applies the scenario onto the default fund configuration
func (s *Scenario) Config() (simulation.FundConfig, error) {
	return s.Apply(simulation.DefaultFundConfig())
}

type catalogFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Catalog is an ordered set of scenarios
type Catalog struct {
	scenarios []Scenario
	index     map[string]int
}

// Parse decodes a catalog and checks every scenario resolves to a valid config
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse scenario catalog: %w", err)
	}

	c := &Catalog{index: make(map[string]int, len(file.Scenarios))}
	for _, s := range file.Scenarios {
		if s.Name == "" {
			return nil, errors.New("scenario without a name")
		}
		if _, dup := c.index[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", s.Name)
		}

		cfg, err := s.Config()
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}

		c.index[s.Name] = len(c.scenarios)
		c.scenarios = append(c.scenarios, s)
	}
	return c, nil
}

// Load reads a catalog file from disk
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in catalog
func Default() (*Catalog, error) {
	data, err := embedded.Files.ReadFile(embedded.DefaultScenarioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded scenario catalog: %w", err)
	}
	return Parse(data)
}

// Names returns scenario names sorted alphabetically
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.scenarios))
	for _, s := range c.scenarios {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of scenarios
func (c *Catalog) Len() int {
	return len(c.scenarios)
}

// All returns the scenarios in file order
func (c *Catalog) All() []Scenario {
	out := make([]Scenario, len(c.scenarios))
	copy(out, c.scenarios)
	return out
}

// Get looks a scenario up by name
func (c *Catalog) Get(name string) (*Scenario, error) {
	i, ok := c.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
	}
	s := c.scenarios[i]
	return &s, nil
}

// Resolve applies the named scenario onto base. An empty name returns base.
func (c *Catalog) Resolve(name string, base simulation.FundConfig) (simulation.FundConfig, error) {
	if name == "" {
		return base, nil
	}
	s, err := c.Get(name)
	if err != nil {
		return base, err
	}
	return s.Apply(base)
}
