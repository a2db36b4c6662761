// Package domain defines the core entities, value types, and rule evaluation
// primitives used by the whatdose stack engine.
package domain

import (
	"strings"
	"time"
)

// EntityType identifies the type of record held by a persistent store.
type EntityType string

// Supported entity type identifiers used in errors and persistence buckets.
const (
	// EntityCatalogRecord identifies a supplement catalog record.
	EntityCatalogRecord EntityType = "catalog_record"
	// EntityProfile identifies a user profile.
	EntityProfile EntityType = "profile"
	// EntityStack identifies a persisted user stack.
	EntityStack EntityType = "stack"
)

// Gender is the user's self-reported gender. GenderUnknown is used whenever the
// profile does not carry one.
type Gender string

// Canonical gender values.
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// ParseGender normalises free text into a Gender. Anything unrecognised is unknown.
func ParseGender(s string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	case GenderOther:
		return GenderOther
	default:
		return GenderUnknown
	}
}

// Known reports whether the gender carries usable information.
func (g Gender) Known() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// GenderGate restricts a candidate to one gender. The zero value and GateAll admit everyone.
type GenderGate string

// Gender gate values accepted by templates.
const (
	GateAll    GenderGate = "all"
	GateMale   GenderGate = "male"
	GateFemale GenderGate = "female"
	GateOther  GenderGate = "other"
)

// ParseGenderGate normalises a template gate. Blank means no gate; ok is false
// for values that are not a gate.
func ParseGenderGate(s string) (GenderGate, bool) {
	g := GenderGate(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case "", GateAll, GateMale, GateFemale, GateOther:
		return g, true
	}
	return g, false
}

// ExperienceLevel captures how seasoned the user is with supplementation.
type ExperienceLevel string

// Experience levels in ascending order.
const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
	LevelBiohacker    ExperienceLevel = "biohacker"
)

// ExperienceLevels lists every known level.
var ExperienceLevels = []ExperienceLevel{LevelBeginner, LevelIntermediate, LevelAdvanced, LevelBiohacker}

// Valid reports whether the level is one of the known levels.
func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelBiohacker:
		return true
	}
	return false
}

// ParseExperienceLevel lowercases and trims s. Blank stays blank and is
// treated as intermediate by the capacity rule; ok is false for any other
// unrecognised value.
func ParseExperienceLevel(s string) (ExperienceLevel, bool) {
	l := ExperienceLevel(strings.ToLower(strings.TrimSpace(s)))
	if l == "" || l.Valid() {
		return l, true
	}
	return l, false
}

// ActivityLevel scales activity-sensitive doses.
type ActivityLevel string

// Activity levels understood by template multipliers.
const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "veryActive"
)

// ScheduleBlock is one of the six fixed day-part slots.
type ScheduleBlock string

// Schedule blocks.
const (
	BlockMorning     ScheduleBlock = "Morning"
	BlockLunch       ScheduleBlock = "Lunch"
	BlockPreWorkout  ScheduleBlock = "Pre-Workout"
	BlockPostWorkout ScheduleBlock = "Post-Workout"
	BlockDinner      ScheduleBlock = "Dinner"
	BlockBedtime     ScheduleBlock = "Bedtime"
)

// ScheduleBlocks lists every block in day order.
var ScheduleBlocks = []ScheduleBlock{BlockMorning, BlockLunch, BlockPreWorkout, BlockPostWorkout, BlockDinner, BlockBedtime}

// Valid reports whether b is one of the six blocks.
func (b ScheduleBlock) Valid() bool {
	switch b {
	case BlockMorning, BlockLunch, BlockPreWorkout, BlockPostWorkout, BlockDinner, BlockBedtime:
		return true
	}
	return false
}

// Specificity ranks how specific a timing is. Higher wins when two sources
// disagree about the block for the same supplement.
func (b ScheduleBlock) Specificity() int {
	switch b {
	case BlockPreWorkout:
		return 5
	case BlockPostWorkout:
		return 4
	case BlockBedtime:
		return 3
	case BlockDinner:
		return 2
	case BlockLunch:
		return 1
	default:
		return 0
	}
}

// EvidenceTier is the categorical research-strength rating.
type EvidenceTier string

// Evidence tiers.
const (
	EvidenceGreen EvidenceTier = "Green"
	EvidenceBlue  EvidenceTier = "Blue"
	EvidenceRed   EvidenceTier = "Red"
)

// Rank orders tiers for sorting: Green=3 > Blue=2 > Red=1. Unrated records rank as Blue.
func (e EvidenceTier) Rank() int {
	switch e {
	case EvidenceGreen:
		return 3
	case EvidenceRed:
		return 1
	default:
		return 2
	}
}

// ScalingAlgorithm selects how a catalog record's base dose is scaled.
type ScalingAlgorithm string

// Scaling algorithms. The empty algorithm means the record carries no scaling
// guidance and the template dose is used instead.
const (
	ScalingNone         ScalingAlgorithm = ""
	ScalingFixed        ScalingAlgorithm = "fixed"
	ScalingLinearWeight ScalingAlgorithm = "linear_weight"
	ScalingGenderSplit  ScalingAlgorithm = "gender_split"
)

// UserProfile is the subset of the user account the engine consumes.
type UserProfile struct {
	ID               string          `json:"id"`
	Age              *int            `json:"age,omitempty"`
	WeightKg         *float64        `json:"weight_kg,omitempty"`
	Gender           Gender          `json:"gender"`
	ExperienceLevel  ExperienceLevel `json:"experience_level"`
	ActivityLevel    ActivityLevel   `json:"activity_level,omitempty"`
	HealthConditions []string        `json:"health_conditions,omitempty"`
	SelectedGoals    []string        `json:"selected_goals,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CandidateSupplement is one entry of a goal template before catalog resolution.
type CandidateSupplement struct {
	Name                string                      `json:"name"`
	Alternatives        []string                    `json:"alternatives,omitempty"`
	ScheduleBlock       ScheduleBlock               `json:"schedule_block"`
	BaseDose            *float64                    `json:"base_dose,omitempty"`
	DosePerKg           *float64                    `json:"dose_per_kg,omitempty"`
	ExperienceDoses     map[ExperienceLevel]float64 `json:"experience_doses,omitempty"`
	ActivityMultipliers map[ActivityLevel]float64   `json:"activity_multipliers,omitempty"`
	MinAge              *int                        `json:"min_age,omitempty"`
	MaxAge              *int                        `json:"max_age,omitempty"`
	Gender              GenderGate                  `json:"gender,omitempty"`
	GoalTag             string                      `json:"goal_tag"`
}

// CatalogRecord is the authoritative catalog entry a candidate resolves to.
type CatalogRecord struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	NameSecondary     string           `json:"name_secondary,omitempty"`
	Canonical         bool             `json:"canonical"`
	Algorithm         ScalingAlgorithm `json:"scaling_algorithm,omitempty"`
	BaseDose          *float64         `json:"base_dose,omitempty"`
	Unit              string           `json:"unit,omitempty"`
	SafeMin           *float64         `json:"safe_min,omitempty"`
	SafeMax           *float64         `json:"safe_max,omitempty"`
	MaxDose           *float64         `json:"max_dose,omitempty"`
	GenderMale        *float64         `json:"gender_male,omitempty"`
	GenderFemale      *float64         `json:"gender_female,omitempty"`
	Evidence          EvidenceTier     `json:"evidence"`
	Contraindications []string         `json:"contraindications,omitempty"`
	BasicHealth       bool             `json:"basic_health"`
}

// Bounds returns the inclusive safe dose range. The upper bound falls back to
// the plain dosing maximum when no scaling maximum is recorded.
func (r CatalogRecord) Bounds() (lo, hi *float64) {
	hi = r.SafeMax
	if hi == nil {
		hi = r.MaxDose
	}
	return r.SafeMin, hi
}

// ContraindicatedFor reports the first health condition that matches one of the
// record's contraindication tags, compared case-insensitively.
func (r CatalogRecord) ContraindicatedFor(conditions []string) (string, bool) {
	for _, tag := range r.Contraindications {
		for _, cond := range conditions {
			if strings.EqualFold(strings.TrimSpace(tag), strings.TrimSpace(cond)) {
				return cond, true
			}
		}
	}
	return "", false
}

// StackItem is one entry of the engine's output stack.
type StackItem struct {
	CatalogID     string        `json:"catalog_id"`
	Name          string        `json:"name"`
	ScheduleBlock ScheduleBlock `json:"schedule_block"`
	Dose          *float64      `json:"dose"`
	Unit          string        `json:"unit,omitempty"`
	Active        bool          `json:"active"`
	Sources       []string      `json:"sources"`
	Evidence      EvidenceTier  `json:"evidence"`
	Priority      int           `json:"priority"`
}

// Clone returns a deep copy of the item.
func (i StackItem) Clone() StackItem {
	out := i
	if i.Dose != nil {
		d := *i.Dose
		out.Dose = &d
	}
	if i.Sources != nil {
		out.Sources = append([]string(nil), i.Sources...)
	}
	return out
}

// CloneItems deep-copies a slice of stack items.
func CloneItems(items []StackItem) []StackItem {
	if items == nil {
		return nil
	}
	out := make([]StackItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// StoredStack is a persisted stack together with its provenance.
type StoredStack struct {
	UserID       string      `json:"user_id"`
	GenerationID string      `json:"generation_id"`
	Items        []StackItem `json:"items"`
	SavedAt      time.Time   `json:"saved_at"`
}

// Float returns a pointer to v. Handy for optional dose fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
