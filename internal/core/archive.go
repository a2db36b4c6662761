package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"whatdose/internal/blob"
	"whatdose/pkg/domain"
)

// ArchiveReport is the JSON document written for each persisted generation.
type ArchiveReport struct {
	GenerationID string           `json:"generation_id"`
	UserID       string           `json:"user_id"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Stack        Stack            `json:"stack"`
	Warnings     []domain.Warning `json:"warnings"`
}

// ArchiveKey returns the object key for a generation report.
func ArchiveKey(userID, generationID string) string {
	return path.Join("stacks", userID, generationID+".json")
}

// StackArchive writes generation reports to a blob store.
type StackArchive struct {
	store blob.Store
}

// NewStackArchive wraps store. A nil store yields a nil archive.
func NewStackArchive(store blob.Store) *StackArchive {
	if store == nil {
		return nil
	}
	return &StackArchive{store: store}
}

// Write stores the report under ArchiveKey.
func (a *StackArchive) Write(ctx context.Context, report ArchiveReport) (blob.Info, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode report: %w", err)
	}
	return a.store.Put(ctx, ArchiveKey(report.UserID, report.GenerationID), bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"generation": report.GenerationID,
			"items":      fmt.Sprint(len(report.Stack.Items)),
		},
	})
}

// Read loads a stored report.
func (a *StackArchive) Read(ctx context.Context, userID, generationID string) (ArchiveReport, error) {
	_, rc, err := a.store.Get(ctx, ArchiveKey(userID, generationID))
	if err != nil {
		return ArchiveReport{}, err
	}
	defer func() { _ = rc.Close() }()
	var report ArchiveReport
	if err := json.NewDecoder(rc).Decode(&report); err != nil {
		return ArchiveReport{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}

// List returns the reports stored for a user, ordered by key.
func (a *StackArchive) List(ctx context.Context, userID string) ([]blob.Info, error) {
	return a.store.List(ctx, path.Join("stacks", userID)+"/")
}
