package domain

import "context"

// Rule is a policy applied to the merged stack. A rule returns the stack it
// leaves behind together with any warnings it raised; it must not mutate the
// slice it was given.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, profile UserProfile, items []StackItem) ([]StackItem, Result, error)
}

// RulesEngine orchestrates rule evaluation in registration order.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Names returns the registered rule names in evaluation order.
func (e *RulesEngine) Names() []string {
	out := make([]string, 0, len(e.rules))
	for _, rule := range e.rules {
		out = append(out, rule.Name())
	}
	return out
}

// Evaluate threads the stack through every registered rule and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, profile UserProfile, items []StackItem) ([]StackItem, Result, error) {
	var combined Result
	current := CloneItems(items)
	for _, rule := range e.rules {
		next, res, err := rule.Evaluate(ctx, profile, current)
		if err != nil {
			return nil, Result{}, err
		}
		combined.Merge(res)
		current = next
	}
	return current, combined, nil
}
