package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/models"
	"job-pipeline-go/internal/scraper/extract"
	"job-pipeline-go/internal/scraper/sources"
	"job-pipeline-go/pkg/httpclient"
)

var tracer = otel.Tracer("jobpipeline/scraper")

// Mode decides whether the cascade stops at the first strategy with records.
type Mode string

const (
	ModeFirstSuccess Mode = "first-success"
	ModeCollectAll   Mode = "collect-all"
)

// DefaultMethod runs the configured cascade.
const DefaultMethod = "default"

// methodAliases maps the historical method names onto cascades. "proxy" is
// the relay with retries followed by the simple fetch as a last resort.
var methodAliases = map[string][]models.StrategyName{
	"proxy":     {models.StrategyRelay, models.StrategySimple},
	"rss":       {models.StrategyFeed},
	"api":       {models.StrategyFragment},
	"puppeteer": {models.StrategyHeadless},
}

// Extractor turns raw content into job records.
type Extractor interface {
	Extract(ctx context.Context, raw models.RawContent) (extract.Extraction, error)
}

// Options configures a Pipeline.
type Options struct {
	Deadline       time.Duration
	DefaultCascade []models.StrategyName
	Mode           Mode
	Logger         *slog.Logger
}

// OptionsFromConfig reads the orchestrator settings out of cfg.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Deadline:       cfg.Pipeline.Deadline,
		DefaultCascade: cfg.Pipeline.DefaultCascade,
		Mode:           Mode(cfg.Pipeline.Mode),
		Logger:         logger,
	}
}

// Pipeline is the fallback orchestrator. Strategies run one at a time, in
// cascade order, under a single deadline covering the whole cascade.
type Pipeline struct {
	strategies *sources.StrategySet
	extractor  Extractor
	normalizer *Normalizer
	opts       Options
	logger     *slog.Logger
}

func NewPipeline(strategies *sources.StrategySet, extractor Extractor, normalizer *Normalizer, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = ModeFirstSuccess
	}
	if normalizer == nil {
		normalizer = NewNormalizer("")
	}
	return &Pipeline{
		strategies: strategies,
		extractor:  extractor,
		normalizer: normalizer,
		opts:       opts,
		logger:     opts.Logger,
	}
}

// Methods lists every method name Run accepts.
func (p *Pipeline) Methods() []string {
	methods := []string{DefaultMethod}
	for alias := range methodAliases {
		methods = append(methods, alias)
	}
	for _, name := range p.strategies.Names() {
		methods = append(methods, string(name))
	}
	sort.Strings(methods[1:])
	return methods
}

// Run executes the cascade selected by method for q. The returned error is
// reserved for requests that cannot start (bad query, unknown method); a
// run in which every strategy failed still returns a Result with Failure set.
func (p *Pipeline) Run(ctx context.Context, q models.Query, method string) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	names, explicit, err := p.resolveMethod(method)
	if err != nil {
		return nil, err
	}

	cascade, missing := p.strategies.Cascade(names)
	if len(missing) > 0 {
		p.logger.WarnContext(ctx, "strategies not available, skipping", "method", method, "missing", missing)
	}
	if len(cascade) == 0 {
		if explicit {
			return nil, fmt.Errorf("%w: %q has no available strategy", ErrUnknownMethod, method)
		}
		return nil, fmt.Errorf("default cascade has no available strategy")
	}

	result := &Result{
		RunID:  uuid.New(),
		Query:  q,
		Method: method,
	}

	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", result.RunID.String()),
		attribute.String("method", method),
		attribute.Int("cascade_length", len(cascade)),
	)

	if p.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Deadline)
		defer cancel()
	}

	logger := p.logger.With("run_id", result.RunID.String())
	logger.InfoContext(ctx, "pipeline run started",
		"keywords", q.Keywords,
		"location", q.Location,
		"method", method,
		"cascade", strategyNames(cascade),
	)

	start := time.Now()
	st := p.execute(ctx, logger, cascade, q)
	outcome, failure := settle(st)

	result.Outcome = outcome
	result.Failure = failure
	result.Diagnostic = Diagnostic{
		StrategyUsed:   st.used,
		DiscardedCount: st.discarded,
		ElapsedMs:      time.Since(start).Milliseconds(),
		Attempts:       st.attempts,
	}

	if len(st.records) > 0 {
		records := p.normalizer.Normalize(st.records, q, time.Now())
		dedup := NewDeduplicator()
		result.Records = dedup.RemoveDuplicates(records)
		result.Diagnostic.Duplicates = len(records) - len(result.Records)
	}

	span.SetAttributes(
		attribute.String("outcome", string(outcome)),
		attribute.Int("records", len(result.Records)),
	)
	if failure != nil {
		span.SetStatus(codes.Error, string(failure.Reason))
		logger.WarnContext(ctx, "pipeline run failed", "reason", failure.Reason, "attempts", len(st.attempts))
	} else {
		logger.InfoContext(ctx, "pipeline run finished",
			"outcome", outcome,
			"strategy", st.used,
			"records", len(result.Records),
			"discarded", st.discarded,
			"elapsed_ms", result.Diagnostic.ElapsedMs,
		)
	}

	return result, nil
}

func (p *Pipeline) resolveMethod(method string) (names []models.StrategyName, explicit bool, err error) {
	m := strings.ToLower(strings.TrimSpace(method))
	if m == "" || m == DefaultMethod {
		return p.opts.DefaultCascade, false, nil
	}
	if cascade, ok := methodAliases[m]; ok {
		return cascade, true, nil
	}
	if _, ok := p.strategies.Get(models.StrategyName(m)); ok {
		return []models.StrategyName{models.StrategyName(m)}, true, nil
	}
	return nil, true, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}

type state int

const (
	stateTrying state = iota
	stateSuccess
	stateExhausted
	stateInterrupted
)

// cascadeState is everything the cascade accumulated by the time it stopped.
type cascadeState struct {
	final     state
	attempts  []Attempt
	records   []models.Job
	discarded int
	used      models.StrategyName
	// interrupted holds the context error that stopped the cascade early.
	interrupted error
}

func (p *Pipeline) execute(ctx context.Context, logger *slog.Logger, cascade []sources.Strategy, q models.Query) cascadeState {
	var st cascadeState
	current := stateTrying

	for i := 0; current == stateTrying; {
		switch {
		case ctx.Err() != nil:
			st.interrupted = ctx.Err()
			current = stateInterrupted
			continue
		case i == len(cascade):
			current = stateExhausted
			continue
		}

		strategy := cascade[i]
		attempt, ex := p.attempt(ctx, logger, strategy, q)
		st.attempts = append(st.attempts, attempt)
		st.discarded += attempt.Discarded

		if attempt.succeeded() {
			st.records = append(st.records, ex.Records...)
			if st.used == "" {
				st.used = attempt.Strategy
			}
			if p.opts.Mode == ModeFirstSuccess {
				current = stateSuccess
				continue
			}
		} else if i+1 < len(cascade) {
			logger.InfoContext(ctx, "strategy failed, escalating",
				"strategy", attempt.Strategy,
				"kind", attempt.Kind,
				"err", attempt.Err,
				"next", cascade[i+1].Name(),
			)
		}
		i++
	}

	st.final = current
	return st
}

// settle maps the state the cascade stopped in to the caller-facing outcome.
// Records always win over the reason the cascade stopped: anything gathered
// before an interruption or alongside failed strategies is a partial success.
func settle(st cascadeState) (Outcome, *Failure) {
	if len(st.records) == 0 {
		reason := ReasonExhausted
		if errors.Is(st.interrupted, context.DeadlineExceeded) {
			reason = ReasonDeadlineExceeded
		}
		return OutcomeFailed, &Failure{Reason: reason, Attempts: st.attempts}
	}

	if st.final == stateSuccess {
		return OutcomeSuccess, nil
	}
	if st.final == stateInterrupted {
		return OutcomePartialSuccess, nil
	}
	for _, a := range st.attempts {
		if !a.succeeded() {
			return OutcomePartialSuccess, nil
		}
	}
	return OutcomeSuccess, nil
}

// attempt runs one strategy, applying its retry policy, and extracts the result.
func (p *Pipeline) attempt(ctx context.Context, logger *slog.Logger, strategy sources.Strategy, q models.Query) (Attempt, extract.Extraction) {
	ctx, span := tracer.Start(ctx, "pipeline.attempt",
		trace.WithAttributes(attribute.String("strategy", string(strategy.Name()))))
	defer span.End()

	start := time.Now()
	a := Attempt{Strategy: strategy.Name()}

	policy := sources.RetryPolicy{Attempts: 1}
	if r, ok := strategy.(sources.Retrier); ok {
		policy = r.RetryPolicy()
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	var raw *models.RawContent
	var err error
	for a.Tries < policy.Attempts {
		a.Tries++
		raw, err = strategy.Acquire(ctx, q)
		if err == nil || !retryable(ctx, err) || a.Tries == policy.Attempts {
			break
		}

		logger.InfoContext(ctx, "retrying strategy",
			"strategy", a.Strategy,
			"attempt", a.Tries+1,
			"max_attempts", policy.Attempts,
			"delay", policy.Delay,
			"err", err,
		)
		select {
		case <-ctx.Done():
		case <-time.After(policy.Delay):
		}
	}

	var ex extract.Extraction
	if err == nil {
		ex, err = p.extractor.Extract(ctx, *raw)
		if err != nil {
			a.Kind = httpclient.KindEmptyResult
			err = fmt.Errorf("extract: %w", err)
		}
	}

	a.Elapsed = time.Since(start)
	a.Records = len(ex.Records)
	a.Discarded = ex.Discarded

	switch {
	case err != nil:
		if a.Kind == "" {
			a.Kind = httpclient.Classify(err)
		}
		a.Err = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(a.Kind))
	case a.Records == 0:
		a.Kind = httpclient.KindEmptyResult
		span.SetStatus(codes.Error, string(a.Kind))
	}

	span.SetAttributes(
		attribute.Int("tries", a.Tries),
		attribute.Int("records", a.Records),
		attribute.Int("discarded", a.Discarded),
	)
	return a, ex
}

// retryable reports whether a failure is worth another try of the same
// strategy. Empty results and invalid queries will not change on retry.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch httpclient.Classify(err) {
	case httpclient.KindNetwork, httpclient.KindBlocked, httpclient.KindTimeout:
		return true
	default:
		return false
	}
}

func strategyNames(cascade []sources.Strategy) []models.StrategyName {
	names := make([]models.StrategyName, len(cascade))
	for i, s := range cascade {
		names[i] = s.Name()
	}
	return names
}
