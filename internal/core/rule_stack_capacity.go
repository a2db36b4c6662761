package core

import (
	"context"
	"fmt"
	"sort"

	"whatdose/pkg/domain"
)

var stackCaps = map[domain.ExperienceLevel]int{
	domain.LevelBeginner:     5,
	domain.LevelIntermediate: 8,
	domain.LevelAdvanced:     12,
	domain.LevelBiohacker:    15,
}

// CapFor returns the maximum stack size for an experience level. Unknown
// levels get the intermediate cap.
func CapFor(level domain.ExperienceLevel) int {
	if n, ok := stackCaps[level]; ok {
		return n
	}
	return stackCaps[domain.LevelIntermediate]
}

// NewStackCapacityRule returns the rule that ranks the stack by priority and
// evidence and truncates it to the experience-level cap.
func NewStackCapacityRule() domain.Rule {
	return stackCapacityRule{}
}

type stackCapacityRule struct{}

func (stackCapacityRule) Name() string { return "stack_capacity" }

func (stackCapacityRule) Evaluate(_ context.Context, profile domain.UserProfile, items []domain.StackItem) ([]domain.StackItem, domain.Result, error) {
	sorted := domain.CloneItems(items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].Evidence.Rank() > sorted[j].Evidence.Rank()
	})

	res := domain.Result{}
	limit := CapFor(profile.ExperienceLevel)
	if len(sorted) <= limit {
		return sorted, res, nil
	}
	removed := len(sorted) - limit
	res.Add(domain.WarnCapacityOverflow, domain.SeverityWarn, string(profile.ExperienceLevel),
		fmt.Sprintf("Stack capped at %d supplements (%d were available). Removed %d lower-priority supplements.", limit, len(sorted), removed))
	return sorted[:limit], res, nil
}
