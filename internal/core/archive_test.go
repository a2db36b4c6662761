package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"whatdose/internal/blob"
	blobmemory "whatdose/internal/infra/blob/memory"
	"whatdose/pkg/domain"
)

func TestStackArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	archive := NewStackArchive(blobmemory.New())
	report := ArchiveReport{
		GenerationID: "gen-1",
		UserID:       "u1",
		GeneratedAt:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Stack: Stack{
			Items:       []domain.StackItem{{CatalogID: "vitd", Name: "Vitamin D3", Dose: domain.Float(3000), Unit: "IU", Sources: []string{BasicHealthTag}}},
			BasicHealth: []domain.StackItem{{CatalogID: "vitd", Name: "Vitamin D3", Dose: domain.Float(3000), Unit: "IU", Sources: []string{BasicHealthTag}}},
			Goal:        []domain.StackItem{},
		},
		Warnings: []domain.Warning{{Kind: domain.WarnSynergy, Severity: domain.SeverityInfo, Message: "overlap"}},
	}
	info, err := archive.Write(ctx, report)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if info.Key != "stacks/u1/gen-1.json" || info.ContentType != "application/json" || info.Metadata["items"] != "1" {
		t.Fatalf("unexpected info %+v", info)
	}
	got, err := archive.Read(ctx, "u1", "gen-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(report, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	if _, err := archive.Write(ctx, report); !errors.Is(err, blob.ErrExists) {
		t.Fatalf("expected ErrExists on rewrite, got %v", err)
	}
	list, err := archive.List(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
	if _, err := archive.Read(ctx, "u1", "missing"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if NewStackArchive(nil) != nil {
		t.Fatalf("nil store should disable the archive")
	}
}
