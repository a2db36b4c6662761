package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"whatdose/internal/blob"
	"whatdose/internal/catalog"
	"whatdose/internal/platform/logger"
	"whatdose/internal/templates"
	"whatdose/pkg/domain"
)

const (
	operationGenerateStack = "generate_stack"
	defaultConcurrency     = 4
)

// ServiceStore is the set of collaborators a generation reads from and writes to.
type ServiceStore interface {
	domain.CatalogSearcher
	domain.ProfileSource
	domain.StackSink
}

// Service orchestrates stack generation: templates, demographic gating,
// catalog resolution, dosing, the pure build and persistence.
type Service struct {
	store       ServiceStore
	resolver    *catalog.Resolver
	templates   *templates.Repository
	engine      *RulesEngine
	logger      *logger.Logger
	metrics     MetricsRecorder
	tracer      Tracer
	now         func() time.Time
	newID       func() string
	archive     *StackArchive
	concurrency int
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *logger.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides generation id allocation.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithMetricsRecorder installs a metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithArchive writes a JSON report per persisted generation to store.
func WithArchive(store blob.Store) ServiceOption {
	return func(s *Service) { s.archive = NewStackArchive(store) }
}

// WithConcurrency bounds parallel catalog lookups.
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRulesEngine replaces the post-blend rule pipeline.
func WithRulesEngine(engine *RulesEngine) ServiceOption {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithPolicy builds the default pipeline from custom policy tables.
func WithPolicy(p Policy) ServiceOption {
	return func(s *Service) { s.engine = NewDefaultRulesEngine(p) }
}

// WithTemplates replaces the goal-template repository.
func WithTemplates(repo *templates.Repository) ServiceOption {
	return func(s *Service) {
		if repo != nil {
			s.templates = repo
		}
	}
}

// NewService constructs a service over store.
func NewService(store ServiceStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:       store,
		resolver:    catalog.NewResolver(store),
		logger:      logger.Nop(),
		metrics:     noopMetrics{},
		tracer:      noopTracer{},
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.templates == nil {
		s.templates = templates.Default()
	}
	if s.engine == nil {
		s.engine = NewDefaultRulesEngine(DefaultPolicy())
	}
	return s
}

// Templates returns the goal-template repository in use.
func (s *Service) Templates() *templates.Repository { return s.templates }

// GenerateRequest describes one stack generation.
type GenerateRequest struct {
	UserID string
	// Goals overrides the profile's selected goals when non-empty.
	Goals           []templates.Selection
	SkipBasicHealth bool
	// DryRun computes the stack without persisting or archiving it.
	DryRun bool
}

// Generation is the outcome of GenerateStack.
type Generation struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Stack       Stack         `json:"stack"`
	Result      domain.Result `json:"result"`
}

type resolution struct {
	record domain.CatalogRecord
	found  bool
	err    error
}

// GenerateStack builds, persists and archives a stack for the request's user.
// Per-candidate problems become warnings; only collaborator outages,
// cancellation and persistence failures return an error.
func (s *Service) GenerateStack(ctx context.Context, req GenerateRequest) (gen Generation, err error) {
	ctx, span := s.tracer.Start(ctx, operationGenerateStack)
	started := s.now()
	defer func() {
		elapsed := s.now().Sub(started)
		s.metrics.Observe(ctx, operationGenerateStack, err == nil, elapsed)
		span.End(err)
		if err != nil {
			s.logger.Warn("stack generation failed", "user_id", req.UserID, "error", err)
			return
		}
		if wo, ok := s.metrics.(WarningObserver); ok {
			wo.ObserveWarnings(ctx, gen.Result.Warnings)
		}
		s.logger.Info("stack generated",
			"user_id", gen.UserID,
			"generation", gen.ID,
			"items", len(gen.Stack.Items),
			"warnings", len(gen.Result.Warnings),
			"dry_run", req.DryRun,
			"duration", elapsed)
	}()

	if req.UserID == "" {
		return Generation{}, fmt.Errorf("user id required")
	}
	profile, err := s.store.GetProfile(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Generation{}, fmt.Errorf("load profile: %w", err)
		}
		return Generation{}, fmt.Errorf("%w: %w", domain.ErrProfileUnavailable, err)
	}

	selections := req.Goals
	if len(selections) == 0 {
		selections = templates.ParseSelections(profile.SelectedGoals)
	}
	tplGroups, result := s.templates.Groups(profile, selections, !req.SkipBasicHealth)

	groups, res, err := s.resolveGroups(ctx, profile, tplGroups)
	if err != nil {
		return Generation{}, err
	}
	result.Merge(res)

	stack, res, err := Build(ctx, s.engine, profile, groups)
	if err != nil {
		return Generation{}, err
	}
	result.Merge(res)
	if result.Warnings == nil {
		result.Warnings = []domain.Warning{}
	}

	gen = Generation{
		ID:          s.newID(),
		UserID:      req.UserID,
		GeneratedAt: s.now(),
		Stack:       stack,
		Result:      result,
	}
	if req.DryRun {
		return gen, nil
	}
	if err := s.store.PersistStack(ctx, domain.StoredStack{
		UserID:       gen.UserID,
		GenerationID: gen.ID,
		Items:        domain.CloneItems(stack.Items),
		SavedAt:      gen.GeneratedAt,
	}); err != nil {
		return Generation{}, fmt.Errorf("persist stack: %w", err)
	}
	if s.archive != nil {
		report := ArchiveReport{
			GenerationID: gen.ID,
			UserID:       gen.UserID,
			GeneratedAt:  gen.GeneratedAt,
			Stack:        stack,
			Warnings:     result.Warnings,
		}
		if _, err := s.archive.Write(ctx, report); err != nil {
			s.logger.Warn("archive stack failed", "user_id", gen.UserID, "generation", gen.ID, "error", err)
		}
	}
	return gen, nil
}

// resolveGroups gates, resolves and doses every template candidate. Lookups
// run in parallel; results are consumed in template order.
func (s *Service) resolveGroups(ctx context.Context, profile domain.UserProfile, tplGroups []templates.Group) ([]SourceGroup, domain.Result, error) {
	eligible := make([][]domain.CandidateSupplement, len(tplGroups))
	resolved := make([][]resolution, len(tplGroups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for gi, tg := range tplGroups {
		eligible[gi] = FilterDemographics(tg.Candidates, profile.Age, profile.Gender)
		resolved[gi] = make([]resolution, len(eligible[gi]))
		for ci, c := range eligible[gi] {
			g.Go(func() error {
				rec, found, err := s.resolver.Resolve(gctx, c.Name, c.Alternatives)
				resolved[gi][ci] = resolution{record: rec, found: found, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, domain.Result{}, err
	}

	var res domain.Result
	attempted, unavailable := 0, 0
	var lastErr error
	groups := make([]SourceGroup, 0, len(tplGroups))
	for gi, tg := range tplGroups {
		group := SourceGroup{Tag: tg.Tag, Basic: tg.Basic}
		for ci, c := range eligible[gi] {
			r := resolved[gi][ci]
			attempted++
			if !r.found {
				if r.err != nil {
					lastErr = r.err
					if errors.Is(r.err, domain.ErrCatalogUnavailable) {
						unavailable++
					}
					res.Add(domain.WarnCatalogFetchFailure, domain.SeverityWarn, c.Name,
						fmt.Sprintf("Catalog lookup failed for %s: %v", c.Name, r.err))
				}
				res.Add(domain.WarnCandidateNotFound, domain.SeverityWarn, c.Name,
					fmt.Sprintf("Could not find supplement: %s", c.Name))
				s.logger.Debug("candidate dropped", "candidate", c.Name, "group", tg.Tag)
				continue
			}
			if _, hit := r.record.ContraindicatedFor(profile.HealthConditions); hit {
				res.Add(domain.WarnContraindication, domain.SeverityWarn, r.record.Name,
					fmt.Sprintf("Skipped %s: contraindicated with user's health conditions", r.record.Name))
				continue
			}
			entry := ResolvedCandidate{Candidate: c, Record: r.record}
			if dose, ok := DoseForCandidate(profile, c, r.record); ok {
				entry.Dose = domain.Float(dose.Dose)
				entry.Unit = dose.Unit
			} else {
				res.Add(domain.WarnMissingDose, domain.SeverityInfo, r.record.Name,
					fmt.Sprintf("No dosing information for %s", r.record.Name))
			}
			group.Entries = append(group.Entries, entry)
		}
		groups = append(groups, group)
	}
	if attempted > 0 && unavailable == attempted {
		return nil, domain.Result{}, fmt.Errorf("resolve candidates: %w", lastErr)
	}
	return groups, res, nil
}
