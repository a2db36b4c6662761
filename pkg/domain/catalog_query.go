package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// NameField selects which catalog name a query inspects.
type NameField string

// Catalog name fields.
const (
	FieldPrimary   NameField = "primary"
	FieldSecondary NameField = "secondary"
)

// MatchMode selects exact or substring comparison.
type MatchMode string

// Match modes.
const (
	MatchExact   MatchMode = "exact"
	MatchPartial MatchMode = "partial"
)

// CatalogQuery describes a single case-insensitive name lookup.
type CatalogQuery struct {
	Field         NameField
	Mode          MatchMode
	Term          string
	CanonicalOnly bool
	Limit         int
}

// Fold returns the case-folded, trimmed form of s used for name comparison.
func Fold(s string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

// Matches reports whether the record satisfies the query.
func (q CatalogQuery) Matches(r CatalogRecord) bool {
	if q.CanonicalOnly && !r.Canonical {
		return false
	}
	term := Fold(q.Term)
	if term == "" {
		return false
	}
	name := r.Name
	if q.Field == FieldSecondary {
		name = r.NameSecondary
	}
	folded := Fold(name)
	if folded == "" {
		return false
	}
	if q.Mode == MatchPartial {
		return strings.Contains(folded, term)
	}
	return folded == term
}
