// Package catalog resolves free-text supplement names to catalog records.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"whatdose/pkg/domain"
)

// Strategy is one step of the lookup cascade.
type Strategy struct {
	Name  string
	Field domain.NameField
	Mode  domain.MatchMode
}

// Strategies is the fixed cascade order applied to every term.
var Strategies = []Strategy{
	{Name: "exact_primary", Field: domain.FieldPrimary, Mode: domain.MatchExact},
	{Name: "exact_secondary", Field: domain.FieldSecondary, Mode: domain.MatchExact},
	{Name: "partial_primary", Field: domain.FieldPrimary, Mode: domain.MatchPartial},
	{Name: "partial_secondary", Field: domain.FieldSecondary, Mode: domain.MatchPartial},
}

// Resolver maps a candidate name and its alternatives onto a catalog record.
type Resolver struct {
	searcher domain.CatalogSearcher
}

// NewResolver constructs a resolver over the supplied searcher.
func NewResolver(searcher domain.CatalogSearcher) *Resolver {
	return &Resolver{searcher: searcher}
}

// Match runs a single strategy for one term.
func (r *Resolver) Match(ctx context.Context, s Strategy, term string, canonicalOnly bool) (domain.CatalogRecord, bool, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return domain.CatalogRecord{}, false, nil
	}
	records, err := r.searcher.SearchRecords(ctx, domain.CatalogQuery{
		Field:         s.Field,
		Mode:          s.Mode,
		Term:          term,
		CanonicalOnly: canonicalOnly,
		Limit:         1,
	})
	if err != nil {
		return domain.CatalogRecord{}, false, fmt.Errorf("%s %q: %w", s.Name, term, err)
	}
	if len(records) == 0 {
		return domain.CatalogRecord{}, false, nil
	}
	return records[0], true, nil
}

// Resolve walks the cascade over the name, then over each alternative, and
// finally repeats the whole walk without the canonical constraint. The first
// hit wins. A miss is reported as found=false with a nil error; err is set only
// when the walk missed and at least one lookup failed. When every lookup failed
// the error wraps domain.ErrCatalogUnavailable.
func (r *Resolver) Resolve(ctx context.Context, name string, alternatives []string) (domain.CatalogRecord, bool, error) {
	terms := append([]string{name}, alternatives...)
	var errs []error
	attempts := 0
	for _, canonicalOnly := range []bool{true, false} {
		for _, term := range terms {
			for _, s := range Strategies {
				if err := ctx.Err(); err != nil {
					return domain.CatalogRecord{}, false, err
				}
				attempts++
				rec, ok, err := r.Match(ctx, s, term, canonicalOnly)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if ok {
					return rec, true, nil
				}
			}
		}
	}
	switch {
	case len(errs) == 0:
	case len(errs) == attempts:
		return domain.CatalogRecord{}, false, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, errors.Join(errs...))
	default:
		return domain.CatalogRecord{}, false, errors.Join(errs...)
	}
	return domain.CatalogRecord{}, false, nil
}
