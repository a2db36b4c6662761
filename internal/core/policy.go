package core

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"whatdose/pkg/domain"
)

//go:embed data/policy.yaml
var defaultPolicyYAML []byte

// Policy bundles the data tables the post-blend rules consult.
type Policy struct {
	Classification Classification `yaml:"classification"`
	Synergy        SynergyTable   `yaml:"synergy"`
}

// Classification lists the name markers that identify stimulants and sleep aids.
type Classification struct {
	Stimulants           []string            `yaml:"stimulants"`
	Sedatives            []string            `yaml:"sedatives"`
	ConditionalSedatives []ConditionalMarker `yaml:"conditional_sedatives"`
}

// ConditionalMarker classifies a name as sedative only while its item sits in one of the listed blocks.
type ConditionalMarker struct {
	Marker string                 `yaml:"marker"`
	When   []domain.ScheduleBlock `yaml:"when"`
}

// SynergyTable lists known overlapping-ingredient pairs.
type SynergyTable struct {
	Pairs []SynergyPair `yaml:"pairs"`
}

// SynergyPair flags two distinct items sharing an active compound.
type SynergyPair struct {
	Compound string   `yaml:"compound"`
	First    []string `yaml:"first"`
	Second   []string `yaml:"second"`
	Message  string   `yaml:"message"`
}

// DefaultPolicy returns the embedded policy tables.
func DefaultPolicy() Policy {
	p, err := LoadPolicy(bytes.NewReader(defaultPolicyYAML))
	if err != nil {
		panic(fmt.Errorf("embedded policy: %w", err))
	}
	return p
}

// LoadPolicy decodes a policy document.
func LoadPolicy(r io.Reader) (Policy, error) {
	var p Policy
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := p.validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// LoadPolicyFile reads a policy document from disk.
func LoadPolicyFile(path string) (Policy, error) {
	f, err := os.Open(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return Policy{}, fmt.Errorf("open policy: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadPolicy(f)
}

func (p Policy) validate() error {
	for _, c := range p.Classification.ConditionalSedatives {
		if strings.TrimSpace(c.Marker) == "" {
			return fmt.Errorf("conditional sedative without marker")
		}
		for _, b := range c.When {
			if !b.Valid() {
				return fmt.Errorf("conditional sedative %q: unknown schedule block %q", c.Marker, b)
			}
		}
	}
	for _, pair := range p.Synergy.Pairs {
		if len(pair.First) == 0 || len(pair.Second) == 0 {
			return fmt.Errorf("synergy pair %q needs markers on both sides", pair.Compound)
		}
	}
	return nil
}

func matchesAny(name string, markers []string) bool {
	folded := domain.Fold(name)
	for _, m := range markers {
		m = domain.Fold(m)
		if m != "" && strings.Contains(folded, m) {
			return true
		}
	}
	return false
}
