package core

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"whatdose/pkg/domain"
)

func item(id, name string, block domain.ScheduleBlock, priority int, evidence domain.EvidenceTier) domain.StackItem {
	return domain.StackItem{CatalogID: id, Name: name, ScheduleBlock: block, Priority: priority, Evidence: evidence, Active: true}
}

func TestTimingConflictMovesCaffeineToMorning(t *testing.T) {
	rule := NewTimingConflictRule(DefaultPolicy().Classification)
	input := []domain.StackItem{item("caf", "Caffeine", domain.BlockBedtime, PriorityGoal, domain.EvidenceGreen)}
	out, res, err := rule.Evaluate(context.Background(), domain.UserProfile{}, input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out[0].ScheduleBlock != domain.BlockMorning {
		t.Fatalf("expected Morning, got %s", out[0].ScheduleBlock)
	}
	if diff := cmp.Diff([]string{"Caffeine moved to Morning to avoid sleep interference"}, res.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if input[0].ScheduleBlock != domain.BlockBedtime {
		t.Fatalf("input mutated")
	}
}

func TestTimingConflictCases(t *testing.T) {
	rule := NewTimingConflictRule(DefaultPolicy().Classification)
	cases := []struct {
		name      string
		item      domain.StackItem
		wantBlock domain.ScheduleBlock
		wantWarn  bool
	}{
		{"stimulant at dinner", item("tyr", "L-Tyrosine", domain.BlockDinner, 5, ""), domain.BlockMorning, true},
		{"stimulant pre-workout untouched", item("caf", "Caffeine", domain.BlockPreWorkout, 5, ""), domain.BlockPreWorkout, false},
		{"sedative in morning", item("mel", "Melatonin", domain.BlockMorning, 5, ""), domain.BlockBedtime, true},
		{"sedative pre-workout", item("gaba", "GABA", domain.BlockPreWorkout, 5, ""), domain.BlockBedtime, true},
		{"sedative at lunch untouched", item("gly", "Glycine", domain.BlockLunch, 5, ""), domain.BlockLunch, false},
		{"magnesium in morning is neutral", item("mg", "Magnesium", domain.BlockMorning, 5, ""), domain.BlockMorning, false},
		{"both markers favour stimulant", item("x", "Caffeine + Melatonin", domain.BlockBedtime, 5, ""), domain.BlockMorning, true},
		{"neutral untouched", item("cr", "Creatine", domain.BlockBedtime, 5, ""), domain.BlockBedtime, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, res, err := rule.Evaluate(context.Background(), domain.UserProfile{}, []domain.StackItem{tc.item})
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if out[0].ScheduleBlock != tc.wantBlock {
				t.Fatalf("block = %s, want %s", out[0].ScheduleBlock, tc.wantBlock)
			}
			if res.Has(domain.WarnTimingAdjusted) != tc.wantWarn {
				t.Fatalf("warning = %v, want %v", res.Warnings, tc.wantWarn)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	c := DefaultPolicy().Classification
	if got := c.Classify("Magnesium Glycinate", domain.BlockBedtime); got != ClassSedative {
		t.Fatalf("bedtime magnesium = %s", got)
	}
	if got := c.Classify("Magnesium Glycinate", domain.BlockLunch); got != ClassNeutral {
		t.Fatalf("lunch magnesium = %s", got)
	}
	if got := c.Classify("CAFFEINE", domain.BlockMorning); got.String() != "stimulant" {
		t.Fatalf("caffeine = %s", got)
	}
}

func nineItems() []domain.StackItem {
	return []domain.StackItem{
		item("a", "A", domain.BlockMorning, PriorityGoal, domain.EvidenceRed),
		item("b", "B", domain.BlockMorning, PriorityGoal, domain.EvidenceGreen),
		item("c", "C", domain.BlockMorning, PriorityBasicHealth, domain.EvidenceBlue),
		item("d", "D", domain.BlockMorning, PriorityGoal, domain.EvidenceBlue),
		item("e", "E", domain.BlockMorning, PriorityGoalBasic, domain.EvidenceRed),
		item("f", "F", domain.BlockMorning, PriorityGoal, domain.EvidenceGreen),
		item("g", "G", domain.BlockMorning, PriorityGoal, domain.EvidenceRed),
		item("h", "H", domain.BlockMorning, PriorityBasicHealth, domain.EvidenceGreen),
		item("i", "I", domain.BlockMorning, PriorityGoal, domain.EvidenceBlue),
	}
}

func ids(items []domain.StackItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.CatalogID)
	}
	return out
}

func TestStackCapacityBeginner(t *testing.T) {
	profile := domain.UserProfile{ExperienceLevel: domain.LevelBeginner}
	out, res, err := NewStackCapacityRule().Evaluate(context.Background(), profile, nineItems())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if diff := cmp.Diff([]string{"h", "c", "e", "b", "f"}, ids(out)); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}
	msgs := res.Messages()
	if len(msgs) != 1 || !strings.HasSuffix(msgs[0], "Removed 4 lower-priority supplements.") {
		t.Fatalf("unexpected messages %v", msgs)
	}
	if msgs[0] != "Stack capped at 5 supplements (9 were available). Removed 4 lower-priority supplements." {
		t.Fatalf("unexpected message %q", msgs[0])
	}
}

func TestStackCapacityUnderCapSortsOnly(t *testing.T) {
	profile := domain.UserProfile{ExperienceLevel: domain.LevelBiohacker}
	out, res, err := NewStackCapacityRule().Evaluate(context.Background(), profile, nineItems())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(out) != 9 || len(res.Warnings) != 0 {
		t.Fatalf("expected all items and no warnings, got %d items %v", len(out), res.Warnings)
	}
	if diff := cmp.Diff([]string{"h", "c", "e", "b", "f", "d", "i", "a", "g"}, ids(out)); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestCapFor(t *testing.T) {
	cases := map[domain.ExperienceLevel]int{
		domain.LevelBeginner:     5,
		domain.LevelIntermediate: 8,
		domain.LevelAdvanced:     12,
		domain.LevelBiohacker:    15,
		"":                       8,
		"guru":                   8,
	}
	for level, want := range cases {
		if got := CapFor(level); got != want {
			t.Errorf("CapFor(%q) = %d, want %d", level, got, want)
		}
	}
}

func TestSynergyFlagsZMAWithMultivitamin(t *testing.T) {
	rule := NewSynergyRule(DefaultPolicy().Synergy)
	items := []domain.StackItem{
		item("zma", "ZMA", domain.BlockBedtime, 5, ""),
		item("mv", "Daily Multivitamin", domain.BlockMorning, 5, ""),
	}
	out, res, err := rule.Evaluate(context.Background(), domain.UserProfile{}, items)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if diff := cmp.Diff(items, out); diff != "" {
		t.Fatalf("synergy must not change the stack (-want +got):\n%s", diff)
	}
	if res.Count(domain.WarnSynergy) != 1 || res.Warnings[0].Severity != domain.SeverityInfo {
		t.Fatalf("unexpected warnings %+v", res.Warnings)
	}
}

func TestSynergyNoPair(t *testing.T) {
	rule := NewSynergyRule(DefaultPolicy().Synergy)
	_, res, _ := rule.Evaluate(context.Background(), domain.UserProfile{}, []domain.StackItem{item("zma", "ZMA", domain.BlockBedtime, 5, "")})
	if len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", res.Warnings)
	}
}

func TestSynergyDefaultMessage(t *testing.T) {
	table := SynergyTable{Pairs: []SynergyPair{{Compound: "caffeine", First: []string{"coffee"}, Second: []string{"pre-workout"}}}}
	items := []domain.StackItem{item("c", "Coffee Extract", domain.BlockMorning, 5, ""), item("p", "Pre-Workout Blend", domain.BlockPreWorkout, 5, "")}
	_, res, _ := NewSynergyRule(table).Evaluate(context.Background(), domain.UserProfile{}, items)
	if diff := cmp.Diff([]string{"Coffee Extract and Pre-Workout Blend both contain caffeine."}, res.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultRulesEngineOrder(t *testing.T) {
	engine := NewDefaultRulesEngine(DefaultPolicy())
	if diff := cmp.Diff([]string{"timing_conflict", "stack_capacity", "ingredient_synergy"}, engine.Names()); diff != "" {
		t.Fatalf("rule order mismatch (-want +got):\n%s", diff)
	}
}

// Stimulants moved by the resolver must still be subject to the cap and every
// surviving item must satisfy the timing and cap invariants.
func TestDefaultRulesEngineInvariants(t *testing.T) {
	policy := DefaultPolicy()
	engine := NewDefaultRulesEngine(policy)
	blocks := domain.ScheduleBlocks
	names := []string{"Caffeine", "Melatonin", "Creatine", "5-HTP", "L-Tyrosine", "Glycine", "Magnesium", "Omega-3", "GABA", "Teacrine", "Zinc", "Rhodiola"}
	for _, level := range domain.ExperienceLevels {
		var items []domain.StackItem
		for i, n := range names {
			items = append(items, item(fmt.Sprintf("id%d", i), n, blocks[i%len(blocks)], PriorityGoal, domain.EvidenceBlue))
		}
		out, _, err := engine.Evaluate(context.Background(), domain.UserProfile{ExperienceLevel: level}, items)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if len(out) > CapFor(level) {
			t.Fatalf("%s: %d items exceeds cap %d", level, len(out), CapFor(level))
		}
		for _, it := range out {
			switch policy.Classification.Classify(it.Name, it.ScheduleBlock) {
			case ClassStimulant:
				if it.ScheduleBlock == domain.BlockBedtime || it.ScheduleBlock == domain.BlockDinner {
					t.Fatalf("%s: stimulant %s left at %s", level, it.Name, it.ScheduleBlock)
				}
			case ClassSedative:
				if it.ScheduleBlock == domain.BlockMorning || it.ScheduleBlock == domain.BlockPreWorkout {
					t.Fatalf("%s: sedative %s left at %s", level, it.Name, it.ScheduleBlock)
				}
			}
		}
	}
}
