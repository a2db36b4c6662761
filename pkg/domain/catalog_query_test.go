package domain

import "testing"

func TestCatalogQueryMatches(t *testing.T) {
	record := CatalogRecord{ID: "mg", Name: "Magnesium Glycinate", NameSecondary: "Glycinate de Magnésium"}
	cases := []struct {
		name  string
		query CatalogQuery
		rec   CatalogRecord
		want  bool
	}{
		{"exact primary folds case", CatalogQuery{Field: FieldPrimary, Mode: MatchExact, Term: "  magnesium GLYCINATE "}, record, true},
		{"exact primary rejects substring", CatalogQuery{Field: FieldPrimary, Mode: MatchExact, Term: "magnesium"}, record, false},
		{"partial primary", CatalogQuery{Field: FieldPrimary, Mode: MatchPartial, Term: "magnesium"}, record, true},
		{"exact secondary with diacritics", CatalogQuery{Field: FieldSecondary, Mode: MatchExact, Term: "glycinate de magnésium"}, record, true},
		{"partial secondary", CatalogQuery{Field: FieldSecondary, Mode: MatchPartial, Term: "MAGNÉSIUM"}, record, true},
		{"canonical only excludes", CatalogQuery{Field: FieldPrimary, Mode: MatchPartial, Term: "magnesium", CanonicalOnly: true}, record, false},
		{"blank term never matches", CatalogQuery{Field: FieldPrimary, Mode: MatchPartial, Term: "  "}, record, false},
		{"missing secondary name", CatalogQuery{Field: FieldSecondary, Mode: MatchPartial, Term: "x"}, CatalogRecord{Name: "x"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.query.Matches(tc.rec); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}
