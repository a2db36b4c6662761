package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared by stores and the service layer.
var (
	// ErrNotFound is wrapped by NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrCatalogUnavailable reports that no catalog lookup could be completed.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrProfileUnavailable reports that the profile collaborator could not be reached.
	ErrProfileUnavailable = errors.New("profile unavailable")
)

// NotFoundError is returned when a lookup by identifier misses.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Unwrap lets callers match with errors.Is(err, ErrNotFound).
func (e NotFoundError) Unwrap() error { return ErrNotFound }

// CatalogSearcher runs name queries against the supplement catalog.
type CatalogSearcher interface {
	SearchRecords(ctx context.Context, q CatalogQuery) ([]CatalogRecord, error)
}

// CatalogSource is the read side of the catalog collaborator.
type CatalogSource interface {
	CatalogSearcher
	FindRecord(ctx context.Context, id string) (CatalogRecord, error)
	ListRecords(ctx context.Context) ([]CatalogRecord, error)
}

// ProfileSource resolves user profiles.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (UserProfile, error)
}

// StackSink is the write-only destination for generated stacks.
type StackSink interface {
	PersistStack(ctx context.Context, stack StoredStack) error
}

// Transaction exposes the mutations a persistence implementation must support
// within an atomic scope.
type Transaction interface {
	PutRecord(CatalogRecord) error
	DeleteRecord(id string) error
	PutProfile(UserProfile) error
	ReplaceStack(StoredStack) error
	FindRecord(id string) (CatalogRecord, bool)
	FindProfile(id string) (UserProfile, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	CatalogSource
	ProfileSource
	StackSink
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error
	ImportRecords(ctx context.Context, records []CatalogRecord) (int, error)
	PutProfile(ctx context.Context, profile UserProfile) error
	GetStack(ctx context.Context, userID string) (StoredStack, error)
	ListProfiles(ctx context.Context) ([]UserProfile, error)
}
