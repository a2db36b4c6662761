package core

import (
	"whatdose/internal/templates"
	"whatdose/pkg/domain"
)

// Baseline priorities assigned when a supplement first enters the stack.
const (
	PriorityBasicHealth = 10
	PriorityGoalBasic   = 8
	PriorityGoal        = 5
)

// BasicHealthTag is the source tag recorded for Basic-Health contributions.
const BasicHealthTag = templates.BasicHealthTag

// ResolvedCandidate is a candidate that passed the demographic gate, resolved
// to a catalog record and had its dose computed. A nil Dose means no numeric
// guidance is available.
type ResolvedCandidate struct {
	Candidate domain.CandidateSupplement
	Record    domain.CatalogRecord
	Dose      *float64
	Unit      string
}

// SourceGroup is one candidate list feeding the blender: the Basic-Health
// group or a single goal/subcategory template.
type SourceGroup struct {
	Tag     string
	Basic   bool
	Entries []ResolvedCandidate
}

func (g SourceGroup) baseline(rec domain.CatalogRecord) int {
	switch {
	case g.Basic:
		return PriorityBasicHealth
	case rec.BasicHealth:
		return PriorityGoalBasic
	default:
		return PriorityGoal
	}
}

func (g SourceGroup) sourceTag(c domain.CandidateSupplement) string {
	if g.Tag != "" {
		return g.Tag
	}
	if g.Basic {
		return BasicHealthTag
	}
	if c.GoalTag != "" {
		return c.GoalTag
	}
	return "Goal"
}

// Blended is the deduplicated merge of all source groups keyed by catalog id.
// Iteration order is first-seen order, which keeps output deterministic.
type Blended struct {
	order []string
	items map[string]domain.StackItem
}

// Blend merges groups in order. Repeated catalog ids keep the larger dose
// clamped to the record's safe range, accumulate source tags and adopt the
// more specific schedule block.
func Blend(groups []SourceGroup) *Blended {
	b := &Blended{items: make(map[string]domain.StackItem)}
	for _, g := range groups {
		for _, entry := range g.Entries {
			b.add(g, entry)
		}
	}
	return b
}

func (b *Blended) add(g SourceGroup, entry ResolvedCandidate) {
	rec := entry.Record
	lo, hi := rec.Bounds()
	tag := g.sourceTag(entry.Candidate)
	priority := g.baseline(rec)

	existing, seen := b.items[rec.ID]
	if !seen {
		block := entry.Candidate.ScheduleBlock
		if !block.Valid() {
			block = domain.BlockMorning
		}
		b.order = append(b.order, rec.ID)
		b.items[rec.ID] = domain.StackItem{
			CatalogID:     rec.ID,
			Name:          rec.Name,
			ScheduleBlock: block,
			Dose:          clampDose(entry.Dose, lo, hi),
			Unit:          unitOrDefault(firstUnit(entry.Unit, rec.Unit)),
			Active:        true,
			Sources:       []string{tag},
			Evidence:      rec.Evidence,
			Priority:      priority,
		}
		return
	}

	existing.Dose = MergeDose(existing.Dose, entry.Dose, lo, hi)
	if !containsString(existing.Sources, tag) {
		existing.Sources = append(existing.Sources, tag)
	}
	if entry.Candidate.ScheduleBlock.Valid() && entry.Candidate.ScheduleBlock.Specificity() > existing.ScheduleBlock.Specificity() {
		existing.ScheduleBlock = entry.Candidate.ScheduleBlock
	}
	if priority > existing.Priority {
		existing.Priority = priority
	}
	b.items[rec.ID] = existing
}

// MergeDose returns clamp(max(a, b), lo, hi). A missing dose never wins over a
// present one; two missing doses stay missing.
func MergeDose(a, b *float64, lo, hi *float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return clampDose(b, lo, hi)
	case b == nil:
		return clampDose(a, lo, hi)
	}
	v := *a
	if *b > v {
		v = *b
	}
	return clampDose(&v, lo, hi)
}

// Items returns the merged items in first-seen order.
func (b *Blended) Items() []domain.StackItem {
	out := make([]domain.StackItem, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.items[id].Clone())
	}
	return out
}

// Get returns the merged item for a catalog id.
func (b *Blended) Get(id string) (domain.StackItem, bool) {
	item, ok := b.items[id]
	if !ok {
		return domain.StackItem{}, false
	}
	return item.Clone(), true
}

// Len returns the number of distinct catalog ids.
func (b *Blended) Len() int { return len(b.order) }

func clampDose(d *float64, lo, hi *float64) *float64 {
	if d == nil {
		return nil
	}
	v, _ := Clamp(*d, lo, hi)
	return &v
}

func firstUnit(units ...string) string {
	for _, u := range units {
		if u != "" {
			return u
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
