package core

import (
	"context"
	"fmt"

	"whatdose/pkg/domain"
)

// NewSynergyRule returns the rule that flags items sharing an active compound.
// It never changes the stack.
func NewSynergyRule(table SynergyTable) domain.Rule {
	return synergyRule{table: table}
}

type synergyRule struct {
	table SynergyTable
}

func (synergyRule) Name() string { return "ingredient_synergy" }

func (r synergyRule) Evaluate(_ context.Context, _ domain.UserProfile, items []domain.StackItem) ([]domain.StackItem, domain.Result, error) {
	res := domain.Result{}
	for _, pair := range r.table.Pairs {
		if first, second, ok := findPair(items, pair); ok {
			msg := pair.Message
			if msg == "" {
				msg = fmt.Sprintf("%s and %s both contain %s.", first, second, pair.Compound)
			}
			res.Add(domain.WarnSynergy, domain.SeverityInfo, pair.Compound, msg)
		}
	}
	return domain.CloneItems(items), res, nil
}

// findPair returns the names of two distinct items matching either side of the pair.
func findPair(items []domain.StackItem, pair SynergyPair) (string, string, bool) {
	for i, a := range items {
		if !matchesAny(a.Name, pair.First) {
			continue
		}
		for j, b := range items {
			if i != j && a.CatalogID != b.CatalogID && matchesAny(b.Name, pair.Second) {
				return a.Name, b.Name, true
			}
		}
	}
	return "", "", false
}
