package core

import (
	"math"
	"strings"

	"whatdose/pkg/domain"
)

// ReferenceWeightKg is the body weight base doses are normalised to.
const ReferenceWeightKg = 75.0

// DefaultUnit is reported when neither the catalog nor the template names one.
const DefaultUnit = "mg"

// DoseParams carries everything the calculator needs for one supplement.
type DoseParams struct {
	Algorithm    domain.ScalingAlgorithm
	BaseDose     float64
	Unit         string
	WeightKg     *float64
	Gender       domain.Gender
	SafeMin      *float64
	SafeMax      *float64
	GenderMale   *float64
	GenderFemale *float64
}

// DoseResult is a computed dose.
type DoseResult struct {
	Dose       float64                 `json:"dose"`
	Unit       string                  `json:"unit"`
	Algorithm  domain.ScalingAlgorithm `json:"algorithm"`
	WasClamped bool                    `json:"was_clamped"`
}

// CalculateDose applies the scaling algorithm, safe clamping and unit rounding.
// A clamped dose stays inside the safe range after rounding.
// ok is false when there is no usable base dose; callers keep the item with no
// numeric guidance rather than treating it as a failure.
func CalculateDose(p DoseParams) (res DoseResult, ok bool) {
	if p.BaseDose <= 0 {
		return DoseResult{}, false
	}
	dose := p.BaseDose
	clamped := false
	algorithm := p.Algorithm
	switch algorithm {
	case domain.ScalingLinearWeight:
		if p.WeightKg != nil && *p.WeightKg > 0 {
			dose = p.BaseDose * (*p.WeightKg / ReferenceWeightKg)
		}
		dose, clamped = Clamp(dose, p.SafeMin, p.SafeMax)
		return DoseResult{
			Dose:       roundWithin(dose, p.Unit, p.SafeMin, p.SafeMax),
			Unit:       unitOrDefault(p.Unit),
			Algorithm:  algorithm,
			WasClamped: clamped,
		}, true
	case domain.ScalingGenderSplit:
		switch {
		case p.Gender == domain.GenderMale && p.GenderMale != nil:
			dose = *p.GenderMale
		case p.Gender == domain.GenderFemale && p.GenderFemale != nil:
			dose = *p.GenderFemale
		}
	default:
		algorithm = domain.ScalingFixed
	}
	return DoseResult{
		Dose:       RoundDose(dose, p.Unit),
		Unit:       unitOrDefault(p.Unit),
		Algorithm:  algorithm,
		WasClamped: clamped,
	}, true
}

// DoseForCandidate computes the dose for a resolved candidate. Records with a
// scaling algorithm use the calculator; records without one fall back to the
// template's own dose guidance.
func DoseForCandidate(profile domain.UserProfile, c domain.CandidateSupplement, rec domain.CatalogRecord) (DoseResult, bool) {
	lo, hi := rec.Bounds()
	unit := rec.Unit
	if rec.Algorithm != domain.ScalingNone {
		base := firstDose(rec.BaseDose, c.BaseDose)
		return CalculateDose(DoseParams{
			Algorithm:    rec.Algorithm,
			BaseDose:     base,
			Unit:         unit,
			WeightKg:     profile.WeightKg,
			Gender:       profile.Gender,
			SafeMin:      lo,
			SafeMax:      hi,
			GenderMale:   rec.GenderMale,
			GenderFemale: rec.GenderFemale,
		})
	}

	dose := firstDose(c.BaseDose, rec.BaseDose)
	if v, ok := c.ExperienceDoses[profile.ExperienceLevel]; ok {
		dose = v
	}
	if dose <= 0 {
		return DoseResult{}, false
	}
	if c.DosePerKg != nil && profile.WeightKg != nil && *profile.WeightKg > 0 {
		dose = dose * (*profile.WeightKg / ReferenceWeightKg)
	}
	if m, ok := c.ActivityMultipliers[profile.ActivityLevel]; ok && m > 0 {
		dose *= m
	}
	dose, clamped := Clamp(dose, lo, hi)
	return DoseResult{
		Dose:       roundWithin(dose, unit, lo, hi),
		Unit:       unitOrDefault(unit),
		Algorithm:  domain.ScalingNone,
		WasClamped: clamped,
	}, true
}

// Clamp bounds dose to [lo, hi] where defined.
func Clamp(dose float64, lo, hi *float64) (float64, bool) {
	clamped := false
	if lo != nil && dose < *lo {
		dose = *lo
		clamped = true
	}
	if hi != nil && dose > *hi {
		dose = *hi
		clamped = true
	}
	return dose, clamped
}

// roundWithin rounds a clamped dose and keeps the rounded value inside [lo, hi].
func roundWithin(dose float64, unit string, lo, hi *float64) float64 {
	rounded, _ := Clamp(RoundDose(dose, unit), lo, hi)
	return rounded
}

// RoundDose rounds to the precision customary for the unit.
func RoundDose(dose float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "":
		if dose >= 1000 {
			return math.Round(dose)
		}
		return math.Round(dose*10) / 10
	case "iu":
		return math.Round(dose/100) * 100
	case "mg":
		if dose >= 500 {
			return math.Round(dose/50) * 50
		}
		return math.Round(dose/10) * 10
	case "mcg":
		return math.Round(dose)
	default:
		// g and the count-like units (ml, caps, tabs) keep one decimal.
		return math.Round(dose*10) / 10
	}
}

func unitOrDefault(unit string) string {
	if strings.TrimSpace(unit) == "" {
		return DefaultUnit
	}
	return unit
}

func firstDose(values ...*float64) float64 {
	for _, v := range values {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return 0
}
