package core

import (
	"testing"

	"whatdose/pkg/domain"
)

func TestCalculateDoseLinearWeight(t *testing.T) {
	res, ok := CalculateDose(DoseParams{
		Algorithm: domain.ScalingLinearWeight,
		BaseDose:  2500,
		Unit:      "IU",
		WeightKg:  domain.Float(90),
		SafeMax:   domain.Float(4000),
	})
	if !ok {
		t.Fatalf("expected a dose")
	}
	if res.Dose != 3000 || res.Unit != "IU" || res.WasClamped || res.Algorithm != domain.ScalingLinearWeight {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCalculateDoseGenderSplitUnknownFallsBack(t *testing.T) {
	res, ok := CalculateDose(DoseParams{
		Algorithm:    domain.ScalingGenderSplit,
		BaseDose:     400,
		Unit:         "mg",
		Gender:       domain.GenderUnknown,
		GenderMale:   domain.Float(420),
		GenderFemale: domain.Float(320),
	})
	if !ok || res.Dose != 400 || res.WasClamped {
		t.Fatalf("unexpected result %+v ok=%v", res, ok)
	}
}

func TestCalculateDoseCases(t *testing.T) {
	cases := []struct {
		name        string
		params      DoseParams
		wantDose    float64
		wantClamped bool
		wantOK      bool
	}{
		{
			name:     "gender split male",
			params:   DoseParams{Algorithm: domain.ScalingGenderSplit, BaseDose: 400, Unit: "mg", Gender: domain.GenderMale, GenderMale: domain.Float(420), GenderFemale: domain.Float(320)},
			wantDose: 420, wantOK: true,
		},
		{
			name:     "gender split female",
			params:   DoseParams{Algorithm: domain.ScalingGenderSplit, BaseDose: 400, Unit: "mg", Gender: domain.GenderFemale, GenderMale: domain.Float(420), GenderFemale: domain.Float(320)},
			wantDose: 320, wantOK: true,
		},
		{
			name:     "linear weight without weight keeps base",
			params:   DoseParams{Algorithm: domain.ScalingLinearWeight, BaseDose: 2500, Unit: "IU"},
			wantDose: 2500, wantOK: true,
		},
		{
			name:     "linear weight clamps high",
			params:   DoseParams{Algorithm: domain.ScalingLinearWeight, BaseDose: 2500, Unit: "IU", WeightKg: domain.Float(150), SafeMax: domain.Float(4000)},
			wantDose: 4000, wantClamped: true, wantOK: true,
		},
		{
			name:     "linear weight clamps low",
			params:   DoseParams{Algorithm: domain.ScalingLinearWeight, BaseDose: 300, Unit: "mg", WeightKg: domain.Float(30), SafeMin: domain.Float(200)},
			wantDose: 200, wantClamped: true, wantOK: true,
		},
		{
			name:     "rounding stays inside safe max",
			params:   DoseParams{Algorithm: domain.ScalingLinearWeight, BaseDose: 4000, Unit: "IU", WeightKg: domain.Float(120), SafeMax: domain.Float(4050)},
			wantDose: 4050, wantClamped: true, wantOK: true,
		},
		{
			name:     "fixed ignores weight",
			params:   DoseParams{Algorithm: domain.ScalingFixed, BaseDose: 5000, Unit: "mg", WeightKg: domain.Float(120)},
			wantDose: 5000, wantOK: true,
		},
		{
			name:   "no base dose",
			params: DoseParams{Algorithm: domain.ScalingFixed, Unit: "mg"},
			wantOK: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, ok := CalculateDose(tc.params)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if res.Dose != tc.wantDose || res.WasClamped != tc.wantClamped {
				t.Fatalf("got %+v, want dose=%v clamped=%v", res, tc.wantDose, tc.wantClamped)
			}
		})
	}
}

func TestRoundDose(t *testing.T) {
	cases := []struct {
		dose float64
		unit string
		want float64
	}{
		{2449, "IU", 2400},
		{2450, "iu", 2500},
		{512, "mg", 500},
		{538, "mg", 550},
		{333, "mg", 330},
		{12.6, "mcg", 13},
		{2.56, "g", 2.6},
		{1.04, "caps", 1},
		{1234.5, "", 1235},
		{3.14, "", 3.1},
	}
	for _, tc := range cases {
		if got := RoundDose(tc.dose, tc.unit); got != tc.want {
			t.Errorf("RoundDose(%v, %q) = %v, want %v", tc.dose, tc.unit, got, tc.want)
		}
	}
}

func TestDoseForCandidateTemplatePath(t *testing.T) {
	profile := domain.UserProfile{
		WeightKg:        domain.Float(90),
		ExperienceLevel: domain.LevelBeginner,
		ActivityLevel:   domain.ActivityActive,
	}
	cases := []struct {
		name      string
		candidate domain.CandidateSupplement
		record    domain.CatalogRecord
		want      float64
		wantUnit  string
		wantOK    bool
	}{
		{
			name:      "per kg scaling",
			candidate: domain.CandidateSupplement{Name: "Vitamin D", BaseDose: domain.Float(2000), DosePerKg: domain.Float(33)},
			record:    domain.CatalogRecord{ID: "vitd", Unit: "IU", SafeMax: domain.Float(4000)},
			want:      2400, wantUnit: "IU", wantOK: true,
		},
		{
			name:      "activity multiplier",
			candidate: domain.CandidateSupplement{Name: "Omega-3", BaseDose: domain.Float(1000), ActivityMultipliers: map[domain.ActivityLevel]float64{domain.ActivityActive: 1.2}},
			record:    domain.CatalogRecord{ID: "o3", Unit: "mg"},
			want:      1200, wantUnit: "mg", wantOK: true,
		},
		{
			name:      "experience override",
			candidate: domain.CandidateSupplement{Name: "Creatine", BaseDose: domain.Float(5000), ExperienceDoses: map[domain.ExperienceLevel]float64{domain.LevelBeginner: 3000}},
			record:    domain.CatalogRecord{ID: "cr"},
			want:      3000, wantUnit: "mg", wantOK: true,
		},
		{
			name:      "catalog base dose when template has none",
			candidate: domain.CandidateSupplement{Name: "Zinc"},
			record:    domain.CatalogRecord{ID: "zn", BaseDose: domain.Float(15), Unit: "mg"},
			want:      20, wantUnit: "mg", wantOK: true,
		},
		{
			name:      "max dose bounds template dose",
			candidate: domain.CandidateSupplement{Name: "Caffeine", BaseDose: domain.Float(600)},
			record:    domain.CatalogRecord{ID: "caf", Unit: "mg", MaxDose: domain.Float(400)},
			want:      400, wantUnit: "mg", wantOK: true,
		},
		{
			name:      "rounding stays inside max dose",
			candidate: domain.CandidateSupplement{Name: "Caffeine", BaseDose: domain.Float(600)},
			record:    domain.CatalogRecord{ID: "caf", Unit: "mg", MaxDose: domain.Float(475)},
			want:      475, wantUnit: "mg", wantOK: true,
		},
		{
			name:      "scaling record uses calculator",
			candidate: domain.CandidateSupplement{Name: "Vitamin D", BaseDose: domain.Float(1000)},
			record:    domain.CatalogRecord{ID: "vitd", Algorithm: domain.ScalingLinearWeight, BaseDose: domain.Float(2500), Unit: "IU"},
			want:      3000, wantUnit: "IU", wantOK: true,
		},
		{
			name:      "no dose anywhere",
			candidate: domain.CandidateSupplement{Name: "Mystery"},
			record:    domain.CatalogRecord{ID: "m"},
			wantOK:    false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, ok := DoseForCandidate(profile, tc.candidate, tc.record)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if res.Dose != tc.want || res.Unit != tc.wantUnit {
				t.Fatalf("got %+v, want %v %s", res, tc.want, tc.wantUnit)
			}
		})
	}
}
