package core

import "whatdose/pkg/domain"

// FilterDemographics drops candidates that explicitly fail a defined age or
// gender bound. Unknown age or unknown gender never excludes a candidate.
func FilterDemographics(candidates []domain.CandidateSupplement, age *int, gender domain.Gender) []domain.CandidateSupplement {
	out := make([]domain.CandidateSupplement, 0, len(candidates))
	for _, c := range candidates {
		if Eligible(c, age, gender) {
			out = append(out, c)
		}
	}
	return out
}

// Eligible applies the demographic gate to a single candidate.
func Eligible(c domain.CandidateSupplement, age *int, gender domain.Gender) bool {
	if age != nil {
		if c.MinAge != nil && *age < *c.MinAge {
			return false
		}
		if c.MaxAge != nil && *age > *c.MaxAge {
			return false
		}
	}
	if c.Gender != "" && c.Gender != domain.GateAll && gender.Known() {
		if string(c.Gender) != string(gender) {
			return false
		}
	}
	return true
}
