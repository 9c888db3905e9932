// Package tuning loads the grid's balance settings and structure catalog.
package tuning

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gridpower/pkg/game/entities"
)

//go:embed default.yaml
var defaultYAML []byte

type Tuning struct {
	MaxDegree             int     `yaml:"max_degree"`
	ConsumptionMultiplier float64 `yaml:"consumption_multiplier"`
	UnlinkThreshold       float64 `yaml:"unlink_threshold"`
	SelectRadius          float64 `yaml:"select_radius"`
	MessageLogSize        int     `yaml:"message_log_size"`

	Structures map[string]StructureDef `yaml:"structures"`
}

type StructureDef struct {
	Generates float64 `yaml:"generates"`
	Consumes  float64 `yaml:"consumes"`
}

// Default returns the embedded tuning
func Default() Tuning {
	t, err := decode(Tuning{}, defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default.yaml: %v", err))
	}
	return t
}

// Parse overlays raw YAML on the defaults. Scalars missing from raw keep
// their default; a structures section replaces the default catalog.
func Parse(raw []byte) (Tuning, error) {
	base := Default()
	catalog := base.Structures
	base.Structures = nil

	t, err := decode(base, raw)
	if err != nil {
		return t, err
	}
	if t.Structures == nil {
		t.Structures = catalog
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Load reads a tuning file from disk
func Load(path string) (Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}
	t, err := Parse(raw)
	if err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func decode(base Tuning, raw []byte) (Tuning, error) {
	if err := yaml.Unmarshal(raw, &base); err != nil {
		return base, fmt.Errorf("tuning.yaml: %w", err)
	}
	return base, nil
}

// Validate rejects settings the resolver cannot work with
func (t Tuning) Validate() error {
	var errs []error
	if t.MaxDegree < 1 {
		errs = append(errs, fmt.Errorf("max_degree must be at least 1, got %d", t.MaxDegree))
	}
	if t.ConsumptionMultiplier < 0 {
		errs = append(errs, fmt.Errorf("consumption_multiplier must not be negative, got %g", t.ConsumptionMultiplier))
	}
	if t.UnlinkThreshold < 0 {
		errs = append(errs, fmt.Errorf("unlink_threshold must not be negative, got %g", t.UnlinkThreshold))
	}
	if t.SelectRadius < 0 {
		errs = append(errs, fmt.Errorf("select_radius must not be negative, got %g", t.SelectRadius))
	}
	if t.MessageLogSize < 1 {
		errs = append(errs, fmt.Errorf("message_log_size must be at least 1, got %d", t.MessageLogSize))
	}
	for name, def := range t.Structures {
		if def.Generates < 0 || def.Consumes < 0 {
			errs = append(errs, fmt.Errorf("structures.%s: amounts must not be negative", name))
		}
	}
	return errors.Join(errs...)
}

// Catalog converts the structure definitions into a capability lookup
func (t Tuning) Catalog() entities.Catalog {
	cat := make(entities.Catalog, len(t.Structures))
	for name, def := range t.Structures {
		cat[name] = entities.Capability{Generates: def.Generates, Consumes: def.Consumes}
	}
	return cat
}
