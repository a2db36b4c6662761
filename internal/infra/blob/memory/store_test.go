package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"whatdose/internal/blob/core"
)

func TestPutGetListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	meta := map[string]string{"user": "u1"}
	info, err := s.Put(ctx, "stacks/u1/g1.json", strings.NewReader(`{"items":[]}`), core.PutOptions{ContentType: "application/json", Metadata: meta})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["user"] = "mutated"
	if info.Size != 12 || info.Metadata["user"] != "u1" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "stacks/u1/g1.json", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := s.Get(ctx, "stacks/u1/g1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"items":[]}` {
		t.Fatalf("unexpected body %s", body)
	}
	_, _ = s.Put(ctx, "stacks/u2/g9.json", strings.NewReader("{}"), core.PutOptions{})
	list, _ := s.List(ctx, "stacks/u1/")
	if len(list) != 1 || list[0].Key != "stacks/u1/g1.json" {
		t.Fatalf("unexpected list %+v", list)
	}
	if ok, _ := s.Delete(ctx, "stacks/u1/g1.json"); !ok {
		t.Fatalf("expected delete to report existing blob")
	}
	if _, err := s.Head(ctx, "stacks/u1/g1.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, _ := s.Delete(ctx, "stacks/u1/g1.json"); ok {
		t.Fatalf("second delete should report missing blob")
	}
}

func TestPutRejectsEmptyKey(t *testing.T) {
	if _, err := New().Put(context.Background(), " ", strings.NewReader("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
