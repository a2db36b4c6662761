package core

import "whatdose/pkg/domain"

type (
	Rule        = domain.Rule
	RulesEngine = domain.RulesEngine
	Result      = domain.Result
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds the post-blend pipeline: timing conflicts are
// resolved before the stack is capped, and synergy is checked on what remains.
func NewDefaultRulesEngine(policy Policy) *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewTimingConflictRule(policy.Classification))
	engine.Register(NewStackCapacityRule())
	engine.Register(NewSynergyRule(policy.Synergy))
	return engine
}
