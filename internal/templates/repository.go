// Package templates holds the goal-template repository: the Basic-Health
// candidate list and the per-goal subcategory templates.
package templates

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"whatdose/pkg/domain"
)

// BasicHealthTag is the source tag recorded for Basic-Health contributions.
const BasicHealthTag = "Basic Health"

//go:embed data/templates.yaml
var defaultTemplatesYAML []byte

// Supplement is one template entry as written in the data file.
type Supplement struct {
	Name                string                             `yaml:"name"`
	Alternatives        []string                           `yaml:"alternatives,omitempty"`
	Block               domain.ScheduleBlock               `yaml:"block"`
	Dose                *float64                           `yaml:"dose,omitempty"`
	DosePerKg           *float64                           `yaml:"dose_per_kg,omitempty"`
	ExperienceDoses     map[domain.ExperienceLevel]float64 `yaml:"experience_doses,omitempty"`
	ActivityMultipliers map[domain.ActivityLevel]float64   `yaml:"activity_multipliers,omitempty"`
	MinAge              *int                               `yaml:"min_age,omitempty"`
	MaxAge              *int                               `yaml:"max_age,omitempty"`
	Gender              domain.GenderGate                  `yaml:"gender,omitempty"`
}

// Candidate converts the entry into an engine candidate tagged with goalTag.
func (s Supplement) Candidate(goalTag string) domain.CandidateSupplement {
	c := domain.CandidateSupplement{
		Name:          s.Name,
		Alternatives:  append([]string(nil), s.Alternatives...),
		ScheduleBlock: s.Block,
		BaseDose:      copyFloat(s.Dose),
		DosePerKg:     copyFloat(s.DosePerKg),
		MinAge:        copyInt(s.MinAge),
		MaxAge:        copyInt(s.MaxAge),
		GoalTag:       goalTag,
	}
	c.Gender, _ = domain.ParseGenderGate(string(s.Gender))
	if len(s.ExperienceDoses) > 0 {
		c.ExperienceDoses = make(map[domain.ExperienceLevel]float64, len(s.ExperienceDoses))
		for k, v := range s.ExperienceDoses {
			c.ExperienceDoses[k] = v
		}
	}
	if len(s.ActivityMultipliers) > 0 {
		c.ActivityMultipliers = make(map[domain.ActivityLevel]float64, len(s.ActivityMultipliers))
		for k, v := range s.ActivityMultipliers {
			c.ActivityMultipliers[k] = v
		}
	}
	return c
}

// Template is a candidate list with optional per-experience replacements.
type Template struct {
	Supplements          []Supplement                            `yaml:"supplements"`
	ExperienceVariations map[domain.ExperienceLevel][]Supplement `yaml:"experience_variations,omitempty"`
}

// For returns the supplement list that applies to an experience level.
func (t Template) For(level domain.ExperienceLevel) []Supplement {
	if v, ok := t.ExperienceVariations[level]; ok && len(v) > 0 {
		return v
	}
	return t.Supplements
}

// Goal groups a goal's subcategory templates.
type Goal struct {
	Default       string              `yaml:"default"`
	Subcategories map[string]Template `yaml:"subcategories"`
}

// Document is the on-disk shape of a template file.
type Document struct {
	BasicHealth Template        `yaml:"basic_health"`
	Goals       map[string]Goal `yaml:"goals"`
}

// Selection is one selected goal and the subcategories chosen under it.
// No subcategories means the goal's default.
type Selection struct {
	Goal          string
	Subcategories []string
}

// ParseSelection reads "goal" or "goal=sub,sub" (also "goal/sub").
func ParseSelection(s string) Selection {
	s = strings.TrimSpace(s)
	goal, subs, found := strings.Cut(s, "=")
	if !found {
		goal, subs, _ = strings.Cut(s, "/")
	}
	sel := Selection{Goal: strings.TrimSpace(goal)}
	for _, sub := range strings.Split(subs, ",") {
		if sub = strings.TrimSpace(sub); sub != "" {
			sel.Subcategories = append(sel.Subcategories, sub)
		}
	}
	return sel
}

// ParseSelections parses each entry and drops blank ones.
func ParseSelections(values []string) []Selection {
	out := make([]Selection, 0, len(values))
	for _, v := range values {
		if sel := ParseSelection(v); sel.Goal != "" {
			out = append(out, sel)
		}
	}
	return out
}

// Group is one candidate list produced for a generation request.
type Group struct {
	Tag         string
	Goal        string
	Subcategory string
	Basic       bool
	Candidates  []domain.CandidateSupplement
}

// GoalInfo summarises a goal for listing.
type GoalInfo struct {
	Goal          string   `json:"goal"`
	Default       string   `json:"default"`
	Subcategories []string `json:"subcategories"`
}

// Repository serves goal templates.
type Repository struct {
	doc Document
}

// Default returns the repository built from the embedded data set.
func Default() *Repository {
	repo, err := Load(bytes.NewReader(defaultTemplatesYAML))
	if err != nil {
		panic(fmt.Errorf("embedded templates: %w", err))
	}
	return repo
}

// Load decodes and validates a template document.
func Load(r io.Reader) (*Repository, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &Repository{doc: doc}, nil
}

// LoadFile reads a template document from disk.
func LoadFile(path string) (*Repository, error) {
	f, err := os.Open(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("open templates: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

func (d Document) validate() error {
	if err := validateTemplate("basic_health", d.BasicHealth); err != nil {
		return err
	}
	for name, goal := range d.Goals {
		if goal.Default == "" {
			return fmt.Errorf("goal %s: default subcategory required", name)
		}
		if _, ok := goal.Subcategories[goal.Default]; !ok {
			return fmt.Errorf("goal %s: default subcategory %s not defined", name, goal.Default)
		}
		for sub, tpl := range goal.Subcategories {
			if err := validateTemplate(name+"/"+sub, tpl); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateTemplate(id string, t Template) error {
	check := func(list []Supplement) error {
		for _, s := range list {
			if strings.TrimSpace(s.Name) == "" {
				return fmt.Errorf("template %s: supplement without name", id)
			}
			if s.Block != "" && !s.Block.Valid() {
				return fmt.Errorf("template %s: %s has unknown schedule block %q", id, s.Name, s.Block)
			}
			if _, ok := domain.ParseGenderGate(string(s.Gender)); !ok {
				return fmt.Errorf("template %s: %s has unknown gender gate %q", id, s.Name, s.Gender)
			}
		}
		return nil
	}
	if err := check(t.Supplements); err != nil {
		return err
	}
	for level, list := range t.ExperienceVariations {
		if !level.Valid() {
			return fmt.Errorf("template %s: unknown experience level %q", id, level)
		}
		if err := check(list); err != nil {
			return err
		}
	}
	return nil
}

// Goals lists the known goals in name order.
func (r *Repository) Goals() []GoalInfo {
	out := make([]GoalInfo, 0, len(r.doc.Goals))
	for name, goal := range r.doc.Goals {
		subs := make([]string, 0, len(goal.Subcategories))
		for sub := range goal.Subcategories {
			subs = append(subs, sub)
		}
		sort.Strings(subs)
		out = append(out, GoalInfo{Goal: name, Default: goal.Default, Subcategories: subs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Goal < out[j].Goal })
	return out
}

// Groups returns the Basic-Health group (when includeBasic) followed by one
// group per selected goal subcategory, in selection order. Unknown goals are
// skipped with a warning; unknown subcategories fall back to the goal default.
func (r *Repository) Groups(profile domain.UserProfile, selections []Selection, includeBasic bool) ([]Group, domain.Result) {
	var res domain.Result
	var groups []Group
	if includeBasic {
		groups = append(groups, Group{
			Tag:        BasicHealthTag,
			Basic:      true,
			Candidates: candidates(r.doc.BasicHealth.For(profile.ExperienceLevel), BasicHealthTag),
		})
	}
	for _, sel := range selections {
		goalName, goal, ok := r.lookupGoal(sel.Goal)
		if !ok {
			res.Add(domain.WarnTemplateMissing, domain.SeverityWarn, sel.Goal,
				fmt.Sprintf("No template for goal: %s", sel.Goal))
			continue
		}
		for _, sub := range r.subcategories(goalName, goal, sel.Subcategories, &res) {
			tpl := goal.Subcategories[sub]
			groups = append(groups, Group{
				Tag:         goalName,
				Goal:        goalName,
				Subcategory: sub,
				Candidates:  candidates(tpl.For(profile.ExperienceLevel), goalName),
			})
		}
	}
	return groups, res
}

func (r *Repository) lookupGoal(name string) (string, Goal, bool) {
	if g, ok := r.doc.Goals[name]; ok {
		return name, g, true
	}
	folded := domain.Fold(name)
	for key, g := range r.doc.Goals {
		if domain.Fold(key) == folded {
			return key, g, true
		}
	}
	return "", Goal{}, false
}

func (r *Repository) subcategories(goalName string, goal Goal, requested []string, res *domain.Result) []string {
	if len(requested) == 0 {
		return []string{goal.Default}
	}
	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))
	for _, sub := range requested {
		key, ok := matchSubcategory(goal, sub)
		if !ok {
			res.Add(domain.WarnTemplateMissing, domain.SeverityInfo, goalName,
				fmt.Sprintf("Unknown subcategory %s for goal %s, using %s", sub, goalName, goal.Default))
			key = goal.Default
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func matchSubcategory(goal Goal, sub string) (string, bool) {
	if _, ok := goal.Subcategories[sub]; ok {
		return sub, true
	}
	folded := domain.Fold(sub)
	for key := range goal.Subcategories {
		if domain.Fold(key) == folded {
			return key, true
		}
	}
	return "", false
}

func candidates(list []Supplement, tag string) []domain.CandidateSupplement {
	out := make([]domain.CandidateSupplement, 0, len(list))
	for _, s := range list {
		out = append(out, s.Candidate(tag))
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
