package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"whatdose/pkg/domain"
)

func fixtureRecords() []CatalogRecord {
	return []CatalogRecord{
		{ID: "vit-d", Name: "Vitamin D3", NameSecondary: "D-vitamin", Canonical: true, Unit: "iu", SafeMax: domain.Float(4000)},
		{ID: "mag", Name: "Magnesium Glycinate", Canonical: true, Unit: "mg", Contraindications: []string{"kidney disease"}},
		{ID: "mag-cit", Name: "Magnesium Citrate", Canonical: false, Unit: "mg"},
	}
}

func TestImportAndFindRecords(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	n, err := s.ImportRecords(ctx, fixtureRecords())
	if err != nil || n != 3 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	rec, err := s.FindRecord(ctx, "vit-d")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.Name != "Vitamin D3" || *rec.SafeMax != 4000 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if _, err := s.FindRecord(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	all, _ := s.ListRecords(ctx)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"mag", "mag-cit", "vit-d"}, ids); diff != "" {
		t.Fatalf("list order (-want +got):\n%s", diff)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, _ = s.ImportRecords(ctx, fixtureRecords())
	rec, _ := s.FindRecord(ctx, "mag")
	rec.Contraindications[0] = "changed"
	again, _ := s.FindRecord(ctx, "mag")
	if again.Contraindications[0] != "kidney disease" {
		t.Fatalf("store state leaked through returned record")
	}
}

func TestSearchRecordsHonoursCanonicalAndLimit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, _ = s.ImportRecords(ctx, fixtureRecords())
	got, err := s.SearchRecords(ctx, domain.CatalogQuery{Field: domain.FieldPrimary, Mode: domain.MatchPartial, Term: "magnesium", CanonicalOnly: true})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "mag" {
		t.Fatalf("expected only canonical record, got %+v", got)
	}
	got, _ = s.SearchRecords(ctx, domain.CatalogQuery{Field: domain.FieldPrimary, Mode: domain.MatchPartial, Term: "magnesium", Limit: 1})
	if len(got) != 1 {
		t.Fatalf("limit not applied: %d", len(got))
	}
	got, _ = s.SearchRecords(ctx, domain.CatalogQuery{Field: domain.FieldSecondary, Mode: domain.MatchExact, Term: "d-VITAMIN", CanonicalOnly: true})
	if len(got) != 1 || got[0].ID != "vit-d" {
		t.Fatalf("secondary exact search failed: %+v", got)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx Transaction) error {
		if err := tx.PutRecord(CatalogRecord{ID: "x", Name: "X"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.FindRecord(ctx, "x"); err == nil {
		t.Fatalf("record committed despite error")
	}
}

func TestImportRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	cases := map[string]CatalogRecord{
		"missing id":      {Name: "X"},
		"missing name":    {ID: "x"},
		"inverted bounds": {ID: "x", Name: "X", SafeMin: domain.Float(10), SafeMax: domain.Float(5)},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewStore()
			if _, err := s.ImportRecords(ctx, []CatalogRecord{{ID: "ok", Name: "OK"}, rec}); err == nil {
				t.Fatalf("expected error")
			}
			if all, _ := s.ListRecords(ctx); len(all) != 0 {
				t.Fatalf("partial import committed: %v", all)
			}
		})
	}
}

func TestCommitHookFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	var seen Snapshot
	fail := true
	s := NewStore(WithCommitHook(func(_ context.Context, snap Snapshot) error {
		seen = snap
		if fail {
			return errors.New("disk full")
		}
		return nil
	}))
	if err := s.PutProfile(ctx, UserProfile{ID: "u1"}); err == nil {
		t.Fatalf("expected hook error")
	}
	if _, ok := seen.Profiles["u1"]; !ok {
		t.Fatalf("hook did not receive pending state")
	}
	if _, err := s.GetProfile(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("profile committed despite hook failure")
	}
	fail = false
	if err := s.PutProfile(ctx, UserProfile{ID: "u1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
}

func TestProfilesAndStacks(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return fixed }))
	if err := s.PutProfile(ctx, UserProfile{ID: "u1", Age: domain.Int(34)}); err != nil {
		t.Fatalf("put profile: %v", err)
	}
	p, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Gender != domain.GenderUnknown || !p.UpdatedAt.Equal(fixed) {
		t.Fatalf("profile not normalised: %+v", p)
	}

	if _, err := s.GetStack(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected missing stack, got %v", err)
	}
	items := []domain.StackItem{{CatalogID: "mag", Name: "Magnesium", Dose: domain.Float(400)}}
	if err := s.PersistStack(ctx, StoredStack{UserID: "u1", GenerationID: "g1", Items: items}); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := s.PersistStack(ctx, StoredStack{UserID: "u1", GenerationID: "g2", Items: items[:0]}); err != nil {
		t.Fatalf("persist replace: %v", err)
	}
	st, err := s.GetStack(ctx, "u1")
	if err != nil {
		t.Fatalf("get stack: %v", err)
	}
	if st.GenerationID != "g2" || len(st.Items) != 0 || !st.SavedAt.Equal(fixed) {
		t.Fatalf("stack not replaced: %+v", st)
	}
}

func TestExportImportStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, _ = s.ImportRecords(ctx, fixtureRecords())
	_ = s.PutProfile(ctx, UserProfile{ID: "u1"})

	other := NewStore()
	other.ImportState(s.ExportState())
	if diff := cmp.Diff(s.ExportState(), other.ExportState()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore()
	if err := s.PutProfile(ctx, UserProfile{ID: "u1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if _, err := s.SearchRecords(ctx, domain.CatalogQuery{Term: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
