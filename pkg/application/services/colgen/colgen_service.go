package colgen

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/application/services/master"
	"github.com/vsinha/replenish/pkg/application/services/pricing"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
	"github.com/vsinha/replenish/pkg/domain/solver"
	"github.com/vsinha/replenish/pkg/infrastructure/events"
	"github.com/vsinha/replenish/pkg/infrastructure/logging"
	"github.com/vsinha/replenish/pkg/infrastructure/metrics"
)

const tracerName = "github.com/vsinha/replenish/colgen"

// Config holds the loop limits
type Config struct {
	// MaxIterations bounds the number of master solves
	MaxIterations int
	// Workers bounds concurrent pricing tasks (0 = GOMAXPROCS)
	Workers int
	// Epsilon is the reduced-cost acceptance threshold
	Epsilon float64
}

// DefaultConfig returns the stock limits
func DefaultConfig() Config {
	return Config{
		MaxIterations: 100,
		Workers:       runtime.GOMAXPROCS(0),
		Epsilon:       pricing.DefaultEpsilon,
	}
}

// state is a step of the column generation loop
type state int

const (
	stateInit state = iota
	stateSolveMaster
	statePrice
	stateTerminate
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateSolveMaster:
		return "SOLVE_RMP"
	case statePrice:
		return "PRICE"
	case stateTerminate:
		return "TERMINATE"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ColumnGenerationService drives the master/pricing loop to an optimal
// LP-relaxed replenishment schedule
type ColumnGenerationService struct {
	config     Config
	master     *master.RMPService
	pricing    *pricing.PricingService
	eventStore events.EventStore
	logger     *logging.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option customises a ColumnGenerationService
type Option func(*ColumnGenerationService)

// WithEventStore journals the run into store
func WithEventStore(store events.EventStore) Option {
	return func(s *ColumnGenerationService) { s.eventStore = store }
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *ColumnGenerationService) { s.logger = logger }
}

// WithMetrics records run metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ColumnGenerationService) { s.metrics = m }
}

// WithTracer overrides the global tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(s *ColumnGenerationService) { s.tracer = tracer }
}

// NewColumnGenerationService wires the master and pricing solvers over an LP backend
func NewColumnGenerationService(backend solver.LPSolver, config Config, opts ...Option) *ColumnGenerationService {
	defaults := DefaultConfig()
	if config.MaxIterations <= 0 {
		config.MaxIterations = defaults.MaxIterations
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.Epsilon <= 0 {
		config.Epsilon = defaults.Epsilon
	}

	s := &ColumnGenerationService{
		config:  config,
		master:  master.NewRMPService(backend),
		pricing: pricing.NewPricingService(config.Epsilon),
		logger:  logging.Nop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run is the mutable state of one Plan call
type run struct {
	id        string
	instance  *entities.Instance
	pool      repositories.ColumnRepository
	profiles  []entities.PairProfile
	iteration int
	solution  *master.Solution
	solvedOn  int // pool size the latest master solve saw
	converged bool
	history   []dto.IterationStats
}

// Plan solves the LP relaxation of the replenishment problem by column
// generation. The pool must have every instance pair registered; columns it
// already holds are kept as a warm start.
func (s *ColumnGenerationService) Plan(
	ctx context.Context,
	instance *entities.Instance,
	pool repositories.ColumnRepository,
) (result *dto.PlanResult, err error) {
	start := time.Now()
	r := &run{id: uuid.NewString(), instance: instance, pool: pool}

	ctx, span := s.tracer.Start(ctx, "colgen.Plan", trace.WithAttributes(attribute.String("run.id", r.id)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.metrics.ObserveRun("failed")
		}
		span.End()
	}()

	logger := s.logger.With("run_id", r.id)

	for st := stateInit; st != stateTerminate; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch st {
		case stateInit:
			if err := s.initialize(ctx, r); err != nil {
				return nil, err
			}
			logger.DebugContext(ctx, "pool seeded", "pairs", len(r.profiles), "pool_size", pool.Len())
			st = stateSolveMaster

		case stateSolveMaster:
			if err := s.solveMaster(ctx, r); err != nil {
				return nil, err
			}
			st = statePrice

		case statePrice:
			stats, err := s.price(ctx, r)
			if err != nil {
				return nil, err
			}
			r.history = append(r.history, stats)
			s.publish(r, events.IterationCompletedEvent, events.IterationCompleted{
				Iteration:    stats.Iteration,
				Objective:    stats.Objective,
				ColumnsAdded: stats.ColumnsAdded,
				PoolSize:     stats.PoolSize,
			})
			logger.DebugContext(ctx, "iteration finished",
				"iteration", stats.Iteration,
				"objective", stats.Objective,
				"columns_added", stats.ColumnsAdded,
				"pool_size", stats.PoolSize,
				"min_reduced_cost", stats.MinReducedCost,
			)

			switch {
			case stats.ColumnsAdded == 0:
				r.converged = true
				st = stateTerminate
			case r.iteration >= s.config.MaxIterations:
				st = stateTerminate
			default:
				st = stateSolveMaster
			}
		}
	}

	result = s.assemble(r)
	result.Duration = time.Since(start)

	if r.converged {
		s.publish(r, events.ConvergedEvent, events.Converged{
			Iterations: r.iteration,
			Objective:  result.Objective,
			PoolSize:   result.PoolSize,
		})
		s.metrics.ObserveRun("converged")
		logger.InfoContext(ctx, "column generation converged",
			"iterations", r.iteration, "objective", result.Objective, "pool_size", result.PoolSize)
	} else {
		result.Warning = fmt.Errorf("%w: iteration limit %d reached with improving columns still available",
			entities.ErrNumericalNonConvergence, s.config.MaxIterations)
		s.publish(r, events.IterationLimitEvent, events.IterationLimitReached{
			MaxIterations: s.config.MaxIterations,
			Objective:     result.Objective,
			PoolSize:      result.PoolSize,
		})
		s.metrics.ObserveRun("iteration_limit")
		logger.WarnContext(ctx, "column generation stopped at the iteration limit",
			"iterations", r.iteration, "objective", result.Objective)
	}

	span.SetAttributes(
		attribute.Int("colgen.iterations", r.iteration),
		attribute.Bool("colgen.converged", r.converged),
		attribute.Float64("colgen.objective", result.Objective),
	)
	return result, nil
}

// initialize validates the instance, builds per-pair profiles and seeds the pool
func (s *ColumnGenerationService) initialize(ctx context.Context, r *run) error {
	if r.instance == nil {
		return fmt.Errorf("%w: instance is nil", entities.ErrMalformedInstance)
	}
	if err := r.instance.Validate(); err != nil {
		return err
	}
	if r.pool == nil {
		return fmt.Errorf("column pool is nil")
	}

	pairs := r.instance.Pairs()
	r.profiles = make([]entities.PairProfile, len(pairs))
	for i, pair := range pairs {
		profile, err := r.instance.Profile(pair)
		if err != nil {
			return err
		}
		r.profiles[i] = profile
	}

	registered := make(map[entities.PairKey]bool)
	for _, pair := range r.pool.Pairs() {
		registered[pair] = true
	}
	unseeded := make(map[entities.PairKey]bool)
	for _, pair := range r.pool.Unseeded() {
		unseeded[pair] = true
	}

	var todo []entities.PairProfile
	for _, profile := range r.profiles {
		if !registered[profile.Pair] {
			return fmt.Errorf("column pool has no partition for %s", profile.Pair)
		}
		if unseeded[profile.Pair] {
			todo = append(todo, profile)
		}
	}

	_, span := s.tracer.Start(ctx, "colgen.Seed", trace.WithAttributes(attribute.Int("colgen.unseeded", len(todo))))
	defer span.End()

	mapper := iter.Mapper[entities.PairProfile, *entities.Column]{MaxGoroutines: s.config.Workers}
	seeds, err := mapper.MapErr(todo, func(p *entities.PairProfile) (*entities.Column, error) {
		return s.pricing.Seed(*p)
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("seeding column pool: %w", err)
	}

	added := 0
	for _, column := range seeds {
		ok, err := r.pool.Add(column)
		if err != nil {
			return fmt.Errorf("seeding column pool: %w", err)
		}
		if ok {
			added++
		}
	}
	s.metrics.AddColumns("seed", added)
	s.publish(r, events.PoolSeededEvent, events.PoolSeeded{Pairs: len(r.profiles), PoolSize: r.pool.Len()})
	return nil
}

// solveMaster runs one restricted master solve
func (s *ColumnGenerationService) solveMaster(ctx context.Context, r *run) error {
	r.iteration++
	ctx, span := s.tracer.Start(ctx, "colgen.SolveMaster", trace.WithAttributes(
		attribute.Int("colgen.iteration", r.iteration),
		attribute.Int("colgen.pool_size", r.pool.Len()),
	))
	defer span.End()

	started := time.Now()
	solution, err := s.master.Solve(ctx, r.profiles, r.pool)
	s.metrics.ObservePhase("master", time.Since(started))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("iteration %d: %w", r.iteration, err)
	}

	span.SetAttributes(attribute.Float64("colgen.objective", solution.Objective))
	s.metrics.ObserveIteration(solution.Objective, r.pool.Len())
	r.solution = solution
	r.solvedOn = r.pool.Len()
	return nil
}

// price fans pricing out over every pair and adds improving columns in pair order
func (s *ColumnGenerationService) price(ctx context.Context, r *run) (dto.IterationStats, error) {
	_, span := s.tracer.Start(ctx, "colgen.Price", trace.WithAttributes(
		attribute.Int("colgen.iteration", r.iteration),
		attribute.Int("colgen.workers", s.config.Workers),
	))
	defer span.End()

	duals := r.solution.Duals
	started := time.Now()
	mapper := iter.Mapper[entities.PairProfile, *pricing.Result]{MaxGoroutines: s.config.Workers}
	results, err := mapper.MapErr(r.profiles, func(p *entities.PairProfile) (*pricing.Result, error) {
		return s.pricing.Price(*p, duals[p.Pair])
	})
	s.metrics.ObservePhase("pricing", time.Since(started))
	if err != nil {
		span.RecordError(err)
		return dto.IterationStats{}, fmt.Errorf("iteration %d pricing: %w", r.iteration, err)
	}

	stats := dto.IterationStats{
		Iteration:      r.iteration,
		Objective:      r.solution.Objective,
		MinReducedCost: math.Inf(1),
	}
	for _, res := range results {
		stats.MinReducedCost = min(stats.MinReducedCost, res.ReducedCost)
		if res.Column == nil {
			continue
		}
		ok, err := r.pool.Add(res.Column)
		if err != nil {
			return dto.IterationStats{}, fmt.Errorf("iteration %d: %w", r.iteration, err)
		}
		// A pattern already in the pool cannot price out; round-off only.
		if !ok {
			continue
		}
		stats.ColumnsAdded++
		s.publish(r, events.ColumnAcceptedEvent, events.ColumnAccepted{
			Iteration:   r.iteration,
			Pair:        res.Pair,
			Orders:      res.Column.Orders,
			Cost:        res.Column.Cost,
			ReducedCost: res.ReducedCost,
		})
	}
	if len(results) == 0 {
		stats.MinReducedCost = 0
	}
	stats.PoolSize = r.pool.Len()
	s.metrics.AddColumns("pricing", stats.ColumnsAdded)

	span.SetAttributes(attribute.Int("colgen.columns_added", stats.ColumnsAdded))
	return stats, nil
}

// assemble turns the latest master solution into the run's result
func (s *ColumnGenerationService) assemble(r *run) *dto.PlanResult {
	schedule := r.solution.Schedule()
	profiles := make(map[entities.PairKey]entities.PairProfile, len(r.profiles))
	for _, p := range r.profiles {
		profiles[p.Pair] = p
	}
	result := &dto.PlanResult{
		RunID:      r.id,
		Schedule:   schedule,
		Lines:      schedule.Lines(profiles),
		Objective:  r.solution.Objective,
		Iterations: r.iteration,
		Converged:  r.converged,
		History:    r.history,
		PoolSize:   r.solvedOn,
	}

	columns, weights := r.solution.ActiveColumns()
	for k, c := range columns {
		result.Columns = append(result.Columns, dto.WeightedColumn{
			Pair:   c.Pair,
			Orders: c.Orders,
			Cost:   c.Cost,
			Weight: weights[k],
		})
	}
	return result
}

// publish appends to the run's stream; journaling failures never stop a run
func (s *ColumnGenerationService) publish(r *run, eventType string, data any) {
	if s.eventStore == nil {
		return
	}
	if err := s.eventStore.AppendEvent(r.id, events.NewEvent(eventType, r.id, data)); err != nil {
		s.logger.Warn("failed to journal event", "type", eventType, "error", err)
	}
}
