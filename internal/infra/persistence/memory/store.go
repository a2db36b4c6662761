// Package memory provides an in-memory implementation of the persistence
// store used for tests, dry runs and as the working set of the snapshotting
// backends.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"whatdose/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// CatalogRecord aliases domain.CatalogRecord.
	CatalogRecord = domain.CatalogRecord
	// UserProfile aliases domain.UserProfile.
	UserProfile = domain.UserProfile
	// StoredStack aliases domain.StoredStack.
	StoredStack = domain.StoredStack
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
)

type memoryState struct {
	records  map[string]CatalogRecord
	profiles map[string]UserProfile
	stacks   map[string]StoredStack
}

// Snapshot captures a point-in-time clone of the store state. Each field is
// persisted as its own bucket by the durable backends.
type Snapshot struct {
	Records  map[string]CatalogRecord `json:"records"`
	Profiles map[string]UserProfile   `json:"profiles"`
	Stacks   map[string]StoredStack   `json:"stacks"`
}

func newMemoryState() memoryState {
	return memoryState{
		records:  make(map[string]CatalogRecord),
		profiles: make(map[string]UserProfile),
		stacks:   make(map[string]StoredStack),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Records:  make(map[string]CatalogRecord, len(state.records)),
		Profiles: make(map[string]UserProfile, len(state.profiles)),
		Stacks:   make(map[string]StoredStack, len(state.stacks)),
	}
	for k, v := range state.records {
		s.Records[k] = cloneRecord(v)
	}
	for k, v := range state.profiles {
		s.Profiles[k] = cloneProfile(v)
	}
	for k, v := range state.stacks {
		s.Stacks[k] = cloneStack(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Records {
		if v.ID == "" {
			v.ID = k
		}
		state.records[k] = cloneRecord(v)
	}
	for k, v := range s.Profiles {
		if v.ID == "" {
			v.ID = k
		}
		state.profiles[k] = cloneProfile(v)
	}
	for k, v := range s.Stacks {
		if v.UserID == "" {
			v.UserID = k
		}
		state.stacks[k] = cloneStack(v)
	}
	return state
}

func (s memoryState) clone() memoryState {
	return memoryStateFromSnapshot(snapshotFromMemoryState(s))
}

func cloneRecord(r CatalogRecord) CatalogRecord {
	out := r
	out.BaseDose = cloneFloat(r.BaseDose)
	out.SafeMin = cloneFloat(r.SafeMin)
	out.SafeMax = cloneFloat(r.SafeMax)
	out.MaxDose = cloneFloat(r.MaxDose)
	out.GenderMale = cloneFloat(r.GenderMale)
	out.GenderFemale = cloneFloat(r.GenderFemale)
	if r.Contraindications != nil {
		out.Contraindications = append([]string(nil), r.Contraindications...)
	}
	return out
}

func cloneProfile(p UserProfile) UserProfile {
	out := p
	if p.Age != nil {
		age := *p.Age
		out.Age = &age
	}
	out.WeightKg = cloneFloat(p.WeightKg)
	if p.HealthConditions != nil {
		out.HealthConditions = append([]string(nil), p.HealthConditions...)
	}
	if p.SelectedGoals != nil {
		out.SelectedGoals = append([]string(nil), p.SelectedGoals...)
	}
	return out
}

func cloneStack(s StoredStack) StoredStack {
	out := s
	out.Items = domain.CloneItems(s.Items)
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// CommitHook runs with the state a transaction is about to commit. Returning
// an error aborts the commit and leaves the store unchanged.
type CommitHook func(ctx context.Context, snapshot Snapshot) error

// Option configures a Store.
type Option func(*Store)

// WithCommitHook registers a hook invoked before every commit.
func WithCommitHook(hook CommitHook) Option {
	return func(s *Store) { s.hook = hook }
}

// WithClock overrides the time source used to stamp profiles and stacks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// Store provides an in-memory transactional store.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	hook  CommitHook
	nowFn func() time.Time
}

// NewStore constructs an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: newMemoryState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// Close is a no-op; it lets the memory store stand in for the durable backends.
func (s *Store) Close() error { return nil }

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

type transaction struct {
	state *memoryState
	now   time.Time
}

// RunInTransaction applies fn to a private copy of the state and commits the
// copy only when fn and the commit hook both succeed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state.clone()
	tx := &transaction{state: &state, now: s.nowFn()}
	if err := fn(tx); err != nil {
		return err
	}
	if s.hook != nil {
		if err := s.hook(ctx, snapshotFromMemoryState(state)); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}
	s.state = state
	return nil
}

func (tx *transaction) PutRecord(r CatalogRecord) error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return errors.New("catalog record id required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("catalog record %q: name required", r.ID)
	}
	lo, hi := r.Bounds()
	if lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("catalog record %q: safe min %v exceeds max %v", r.ID, *lo, *hi)
	}
	tx.state.records[r.ID] = cloneRecord(r)
	return nil
}

func (tx *transaction) DeleteRecord(id string) error {
	if _, ok := tx.state.records[id]; !ok {
		return domain.NotFoundError{Entity: domain.EntityCatalogRecord, ID: id}
	}
	delete(tx.state.records, id)
	return nil
}

func (tx *transaction) PutProfile(p UserProfile) error {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return errors.New("profile id required")
	}
	p.Gender = domain.ParseGender(string(p.Gender))
	level, ok := domain.ParseExperienceLevel(string(p.ExperienceLevel))
	if !ok {
		return fmt.Errorf("profile %q: unknown experience level %q", p.ID, p.ExperienceLevel)
	}
	p.ExperienceLevel = level
	p.UpdatedAt = tx.now
	tx.state.profiles[p.ID] = cloneProfile(p)
	return nil
}

func (tx *transaction) ReplaceStack(st StoredStack) error {
	if strings.TrimSpace(st.UserID) == "" {
		return errors.New("stack user id required")
	}
	if st.SavedAt.IsZero() {
		st.SavedAt = tx.now
	}
	tx.state.stacks[st.UserID] = cloneStack(st)
	return nil
}

func (tx *transaction) FindRecord(id string) (CatalogRecord, bool) {
	r, ok := tx.state.records[id]
	if !ok {
		return CatalogRecord{}, false
	}
	return cloneRecord(r), true
}

func (tx *transaction) FindProfile(id string) (UserProfile, bool) {
	p, ok := tx.state.profiles[id]
	if !ok {
		return UserProfile{}, false
	}
	return cloneProfile(p), true
}

// ImportRecords upserts a batch of catalog records atomically.
func (s *Store) ImportRecords(ctx context.Context, records []CatalogRecord) (int, error) {
	err := s.RunInTransaction(ctx, func(tx Transaction) error {
		for _, r := range records {
			if err := tx.PutRecord(r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// PutProfile creates or replaces a profile.
func (s *Store) PutProfile(ctx context.Context, p UserProfile) error {
	return s.RunInTransaction(ctx, func(tx Transaction) error { return tx.PutProfile(p) })
}

// PersistStack replaces the user's stored stack.
func (s *Store) PersistStack(ctx context.Context, st StoredStack) error {
	return s.RunInTransaction(ctx, func(tx Transaction) error { return tx.ReplaceStack(st) })
}

// FindRecord returns a catalog record by id.
func (s *Store) FindRecord(ctx context.Context, id string) (CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return CatalogRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.records[id]
	if !ok {
		return CatalogRecord{}, domain.NotFoundError{Entity: domain.EntityCatalogRecord, ID: id}
	}
	return cloneRecord(r), nil
}

// ListRecords returns every catalog record ordered by id.
func (s *Store) ListRecords(ctx context.Context) ([]CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CatalogRecord, 0, len(s.state.records))
	for _, r := range s.state.records {
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SearchRecords returns records matching the query ordered by id, truncated to
// q.Limit when positive.
func (s *Store) SearchRecords(ctx context.Context, q domain.CatalogQuery) ([]CatalogRecord, error) {
	all, err := s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CatalogRecord, 0)
	for _, r := range all {
		if !q.Matches(r) {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// GetProfile returns a profile by user id.
func (s *Store) GetProfile(ctx context.Context, userID string) (UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return UserProfile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.profiles[userID]
	if !ok {
		return UserProfile{}, domain.NotFoundError{Entity: domain.EntityProfile, ID: userID}
	}
	return cloneProfile(p), nil
}

// ListProfiles returns every profile ordered by id.
func (s *Store) ListProfiles(ctx context.Context) ([]UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UserProfile, 0, len(s.state.profiles))
	for _, p := range s.state.profiles {
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetStack returns the user's stored stack.
func (s *Store) GetStack(ctx context.Context, userID string) (StoredStack, error) {
	if err := ctx.Err(); err != nil {
		return StoredStack{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.state.stacks[userID]
	if !ok {
		return StoredStack{}, domain.NotFoundError{Entity: domain.EntityStack, ID: userID}
	}
	return cloneStack(st), nil
}
