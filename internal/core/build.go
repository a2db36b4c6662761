package core

import (
	"context"
	"fmt"

	"whatdose/pkg/domain"
)

// Stack is the engine output split into its two presentation lists.
type Stack struct {
	Items       []domain.StackItem `json:"items"`
	BasicHealth []domain.StackItem `json:"basic_health"`
	Goal        []domain.StackItem `json:"goal"`
}

// Build blends the source groups and runs them through the rules engine. Build
// performs no I/O; identical inputs produce identical output.
func Build(ctx context.Context, engine *RulesEngine, profile domain.UserProfile, groups []SourceGroup) (Stack, domain.Result, error) {
	if engine == nil {
		engine = NewDefaultRulesEngine(DefaultPolicy())
	}
	blended := Blend(groups)
	items, res, err := engine.Evaluate(ctx, profile, blended.Items())
	if err != nil {
		return Stack{}, domain.Result{}, fmt.Errorf("evaluate rules: %w", err)
	}
	if items == nil {
		items = []domain.StackItem{}
	}
	return splitStack(items, basicIDs(groups)), res, nil
}

func basicIDs(groups []SourceGroup) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, g := range groups {
		if !g.Basic {
			continue
		}
		for _, e := range g.Entries {
			ids[e.Record.ID] = struct{}{}
		}
	}
	return ids
}

func splitStack(items []domain.StackItem, basic map[string]struct{}) Stack {
	out := Stack{
		Items:       items,
		BasicHealth: []domain.StackItem{},
		Goal:        []domain.StackItem{},
	}
	for _, item := range items {
		if _, ok := basic[item.CatalogID]; ok {
			out.BasicHealth = append(out.BasicHealth, item.Clone())
			continue
		}
		out.Goal = append(out.Goal, item.Clone())
	}
	return out
}
