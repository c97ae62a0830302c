package engine

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"auditdna/internal/domain"
)

//go:embed playbook.yaml
var playbookYAML []byte

// Descriptor is the immutable configuration of one engine: its registry key,
// display name, capability and data-type tags, default unit, and the default
// compliance rule set applied when a validation request carries no rules.
type Descriptor struct {
	Key          string
	DisplayName  string
	Unit         string
	Capabilities []string
	DataTypes    []string
	Status       string
	DefaultRules []domain.ComplianceRule
}

// playbook mirrors the embedded YAML operational playbook.
type playbook struct {
	Engines map[string]playbookEngine `yaml:"engines"`
}

type playbookEngine struct {
	Name         string         `yaml:"name"`
	Unit         string         `yaml:"unit"`
	Capabilities []string       `yaml:"capabilities"`
	DataTypes    []string       `yaml:"data_types"`
	DefaultRules []playbookRule `yaml:"default_rules"`
}

type playbookRule struct {
	Name        string   `yaml:"name"`
	Required    []string `yaml:"required"`
	Min         *float64 `yaml:"min"`
	Max         *float64 `yaml:"max"`
	MaxAgeDays  int      `yaml:"max_age_days"`
	ValueField  string   `yaml:"value_field"`
	DateField   string   `yaml:"date_field"`
	MemberField string   `yaml:"member_field"`
	ValidValues []string `yaml:"valid_values"`
}

// LoadPlaybook parses the embedded operational playbook into descriptors,
// ordered by engine key.
func LoadPlaybook() ([]Descriptor, error) {
	return parsePlaybook(playbookYAML)
}

func parsePlaybook(raw []byte) ([]Descriptor, error) {
	var pb playbook
	if err := yaml.Unmarshal(raw, &pb); err != nil {
		return nil, fmt.Errorf("parse playbook: %w", err)
	}
	if len(pb.Engines) == 0 {
		return nil, fmt.Errorf("playbook defines no engines")
	}

	keys := make([]string, 0, len(pb.Engines))
	for k := range pb.Engines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Descriptor, 0, len(keys))
	for _, key := range keys {
		e := pb.Engines[key]
		d := Descriptor{
			Key:          key,
			DisplayName:  e.Name,
			Unit:         e.Unit,
			Capabilities: e.Capabilities,
			DataTypes:    e.DataTypes,
			Status:       "active",
		}
		for _, r := range e.DefaultRules {
			d.DefaultRules = append(d.DefaultRules, domain.ComplianceRule{
				Name:        r.Name,
				Required:    r.Required,
				Min:         r.Min,
				Max:         r.Max,
				MaxAgeDays:  r.MaxAgeDays,
				ValueField:  r.ValueField,
				DateField:   r.DateField,
				MemberField: r.MemberField,
				ValidValues: r.ValidValues,
			})
		}
		if len(d.DefaultRules) == 0 {
			d.DefaultRules = genericDefaultRules()
		}
		out = append(out, d)
	}
	return out, nil
}

// genericDefaultRules is the shared rule set for engines whose playbook entry
// declares none: completeness over name/value/location, value in [0,1000],
// and records no older than a year.
func genericDefaultRules() []domain.ComplianceRule {
	min, max := 0.0, 1000.0
	return []domain.ComplianceRule{
		{Name: "data_completeness", Required: []string{"name", "value", "location"}},
		{Name: "value_range", ValueField: "value", Min: &min, Max: &max},
		{Name: "date_validity", DateField: "testDate", MaxAgeDays: 365},
	}
}
