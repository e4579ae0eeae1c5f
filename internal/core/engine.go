// Package core runs the question-answering pipeline.
//
// A query moves through two pure stages. Think routes the query, validates the
// snapshot and produces the thinking trace. Respond aggregates and composes the
// report. Answer runs both back to back; interactive surfaces call them
// separately to pace the output.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procintel/internal/aggregate"
	"procintel/internal/articulation"
	"procintel/internal/config"
	"procintel/internal/health"
	"procintel/internal/logging"
	"procintel/internal/perception"
	"procintel/internal/retrieval"
	"procintel/internal/types"
)

// Stage is a pipeline step.
type Stage int

const (
	StageIdle Stage = iota
	StageRouting
	StageAggregating
	StageComposing
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageRouting:
		return "routing"
	case StageAggregating:
		return "aggregating"
	case StageComposing:
		return "composing"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Thought is the output of Think and the input of Respond.
type Thought struct {
	Decision perception.Decision
	Thinking []string
	Clean    Sanitized
}

// Result is a fully answered query.
type Result struct {
	Decision perception.Decision
	Thinking []string
	Report   articulation.Report
	Excluded []types.DataQualityError
	Stages   []Stage
	Duration time.Duration
}

type settings struct {
	clock        func() time.Time
	thresholds   health.Thresholds
	names        []string
	recentWindow int
	parallel     bool
}

// Option configures an Engine.
type Option func(*settings)

// WithClock injects the reference clock.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) { s.clock = clock }
}

// WithThresholds overrides the health thresholds.
func WithThresholds(t health.Thresholds) Option {
	return func(s *settings) { s.thresholds = t }
}

// WithResponsibleNames sets the party names the router recognizes.
func WithResponsibleNames(names []string) Option {
	return func(s *settings) { s.names = append([]string(nil), names...) }
}

// WithRecentWindow sets the "recent" window in days.
func WithRecentWindow(days int) Option {
	return func(s *settings) { s.recentWindow = days }
}

// WithParallelViews builds aggregate views concurrently.
func WithParallelViews(on bool) Option {
	return func(s *settings) { s.parallel = on }
}

// Engine answers questions over record snapshots. It holds no per-query state
// and is safe for concurrent use.
type Engine struct {
	classifier *health.Classifier
	router     *perception.Router
	resolver   *retrieval.Resolver
	synth      *articulation.Synthesizer
	parallel   bool
}

// NewEngine creates an engine with default thresholds and names.
func NewEngine(opts ...Option) *Engine {
	s := settings{
		clock:        time.Now,
		thresholds:   health.DefaultThresholds(),
		names:        perception.DefaultResponsibleNames,
		recentWindow: 30,
	}
	for _, opt := range opts {
		opt(&s)
	}
	classifier := health.New(health.WithClock(s.clock), health.WithThresholds(s.thresholds))
	return &Engine{
		classifier: classifier,
		router:     perception.NewRouter(s.names),
		resolver:   retrieval.NewResolver(),
		synth:      articulation.NewSynthesizer(classifier, articulation.WithRecentWindow(s.recentWindow)),
		parallel:   s.parallel,
	}
}

// NewEngineFromConfig creates an engine from configuration. opts apply after
// the configured values.
func NewEngineFromConfig(cfg config.EngineConfig, opts ...Option) *Engine {
	base := []Option{
		WithThresholds(health.Thresholds{Fast: cfg.FastDays, Delayed: cfg.DelayedDays, Critical: cfg.CriticalDays}),
		WithRecentWindow(cfg.RecentWindowDays),
		WithParallelViews(cfg.ParallelViews),
	}
	if len(cfg.ResponsibleNames) > 0 {
		base = append(base, WithResponsibleNames(cfg.ResponsibleNames))
	}
	return NewEngine(append(base, opts...)...)
}

// Classifier returns the engine's classifier.
func (e *Engine) Classifier() *health.Classifier {
	return e.classifier
}

// Router returns the engine's router.
func (e *Engine) Router() *perception.Router {
	return e.router
}

// Think routes query and prepares the thinking trace.
func (e *Engine) Think(query string, snap types.Snapshot) Thought {
	d := e.router.Route(query)
	clean := Sanitize(snap)
	for _, dq := range clean.Excluded {
		logging.CoreWarn("excluding record: %v", &dq)
	}

	bounds := e.classifier.Thresholds()
	facts := perception.Facts{
		Active:       len(clean.Active),
		Completed:    len(clean.Completed),
		Biddings:     len(clean.Biddings),
		DelayedDays:  bounds.Delayed,
		CriticalDays: bounds.Critical,
	}
	kinds := make(map[types.ProcessType]struct{})
	people := make(map[string]struct{})
	for _, r := range clean.Active {
		switch e.classifier.State(r) {
		case health.Critical:
			facts.Critical++
		case health.Delayed:
			facts.Delayed++
		}
		kinds[r.Type] = struct{}{}
		people[r.Responsible] = struct{}{}
	}
	for _, r := range clean.Completed {
		kinds[r.Type] = struct{}{}
		people[r.Responsible] = struct{}{}
	}
	facts.Types = len(kinds)
	facts.Responsibles = len(people)

	return Thought{Decision: d, Thinking: perception.Think(d, facts), Clean: clean}
}

// Respond composes the report for a thought. The only error is context
// cancellation.
func (e *Engine) Respond(ctx context.Context, t Thought) (articulation.Report, error) {
	if err := ctx.Err(); err != nil {
		return articulation.Report{}, err
	}
	c := t.Clean
	in := articulation.Input{
		Active:    c.Active,
		Completed: c.Completed,
		Biddings:  c.Biddings,
		Excluded:  len(c.Excluded),
	}

	if t.Decision.Intent == perception.SpecificRecordLookup {
		m, err := e.resolver.ResolveCode(t.Decision.Subject, c.Active, c.Completed, c.Biddings)
		if err != nil && !errors.Is(err, retrieval.ErrNoMatch) {
			return articulation.Report{}, fmt.Errorf("resolve %q: %w", t.Decision.Subject, err)
		}
		in.LookupErr = err
		if err == nil {
			in.Match = &m
		}
	}

	if e.parallel {
		views, err := aggregate.BuildViews(ctx, c.Active, c.Completed, e.classifier)
		if err != nil {
			return articulation.Report{}, fmt.Errorf("build views: %w", err)
		}
		in.Views = views
	} else {
		in.Views = aggregate.BuildViewsSequential(c.Active, c.Completed, e.classifier)
	}

	return e.synth.Compose(t.Decision, in), nil
}

// Answer runs Think then Respond.
func (e *Engine) Answer(ctx context.Context, query string, snap types.Snapshot) (Result, error) {
	start := time.Now()
	res := Result{Stages: []Stage{StageIdle, StageRouting}}

	t := e.Think(query, snap)
	res.Decision = t.Decision
	res.Thinking = t.Thinking
	res.Excluded = t.Clean.Excluded

	res.Stages = append(res.Stages, StageAggregating)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	report, err := e.Respond(ctx, t)
	if err != nil {
		return res, err
	}
	res.Stages = append(res.Stages, StageComposing)
	res.Report = report
	res.Stages = append(res.Stages, StageDone)
	res.Duration = time.Since(start)

	logging.Core("answered %q as %s in %v (%d excluded)", query, t.Decision.Intent, res.Duration, len(res.Excluded))
	return res, nil
}
