package core

import (
	"context"
	"fmt"

	"whatdose/pkg/domain"
)

// IngredientClass is the timing class derived from a supplement name.
type IngredientClass int

// Ingredient classes.
const (
	ClassNeutral IngredientClass = iota
	ClassStimulant
	ClassSedative
)

func (c IngredientClass) String() string {
	switch c {
	case ClassStimulant:
		return "stimulant"
	case ClassSedative:
		return "sedative"
	default:
		return "neutral"
	}
}

// Classify returns the timing class for a name in its current block. A name
// matching both marker sets is a stimulant.
func (c Classification) Classify(name string, block domain.ScheduleBlock) IngredientClass {
	if matchesAny(name, c.Stimulants) {
		return ClassStimulant
	}
	if matchesAny(name, c.Sedatives) {
		return ClassSedative
	}
	for _, cond := range c.ConditionalSedatives {
		if !matchesAny(name, []string{cond.Marker}) {
			continue
		}
		for _, b := range cond.When {
			if b == block {
				return ClassSedative
			}
		}
	}
	return ClassNeutral
}

// NewTimingConflictRule returns the rule that keeps stimulants out of the
// evening and sleep aids out of the morning.
func NewTimingConflictRule(c Classification) domain.Rule {
	return timingConflictRule{classification: c}
}

type timingConflictRule struct {
	classification Classification
}

func (timingConflictRule) Name() string { return "timing_conflict" }

func (r timingConflictRule) Evaluate(_ context.Context, _ domain.UserProfile, items []domain.StackItem) ([]domain.StackItem, domain.Result, error) {
	res := domain.Result{}
	out := domain.CloneItems(items)
	for i := range out {
		item := &out[i]
		switch r.classification.Classify(item.Name, item.ScheduleBlock) {
		case ClassStimulant:
			if item.ScheduleBlock == domain.BlockBedtime || item.ScheduleBlock == domain.BlockDinner {
				item.ScheduleBlock = domain.BlockMorning
				res.Add(domain.WarnTimingAdjusted, domain.SeverityInfo, item.Name,
					fmt.Sprintf("%s moved to Morning to avoid sleep interference", item.Name))
			}
		case ClassSedative:
			if item.ScheduleBlock == domain.BlockMorning || item.ScheduleBlock == domain.BlockPreWorkout {
				item.ScheduleBlock = domain.BlockBedtime
				res.Add(domain.WarnTimingAdjusted, domain.SeverityInfo, item.Name,
					fmt.Sprintf("%s moved to Bedtime for optimal sleep support", item.Name))
			}
		}
	}
	return out, res, nil
}
