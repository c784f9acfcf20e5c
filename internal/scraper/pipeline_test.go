package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"job-pipeline-go/internal/models"
	"job-pipeline-go/internal/scraper/extract"
	"job-pipeline-go/internal/scraper/sources"
	"job-pipeline-go/pkg/httpclient"
)

type fakeStrategy struct {
	name    models.StrategyName
	calls   atomic.Int32
	acquire func(ctx context.Context, call int) (*models.RawContent, error)
}

func (f *fakeStrategy) Name() models.StrategyName { return f.name }

func (f *fakeStrategy) Acquire(ctx context.Context, _ models.Query) (*models.RawContent, error) {
	call := int(f.calls.Add(1))
	return f.acquire(ctx, call)
}

type retryingStrategy struct {
	*fakeStrategy
	policy sources.RetryPolicy
}

func (r retryingStrategy) RetryPolicy() sources.RetryPolicy { return r.policy }

// fakeExtractor returns the records registered for a body.
type fakeExtractor map[string][]models.Job

func (f fakeExtractor) Extract(_ context.Context, raw models.RawContent) (extract.Extraction, error) {
	if raw.Body == "unparseable" {
		return extract.Extraction{}, extract.ErrUnparseable
	}
	return extract.Extraction{Records: f[raw.Body], Discarded: 1}, nil
}

func returns(body string) func(context.Context, int) (*models.RawContent, error) {
	return func(context.Context, int) (*models.RawContent, error) {
		return &models.RawContent{ContentType: models.ContentSearchPage, Body: body}, nil
	}
}

func fails(kind httpclient.Kind) func(context.Context, int) (*models.RawContent, error) {
	return func(context.Context, int) (*models.RawContent, error) {
		return nil, httpclient.NewError(kind, "https://site.example", errors.New(string(kind)))
	}
}

func blocksUntilDone(ctx context.Context, _ int) (*models.RawContent, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func jobs(prefix string, ids ...int) []models.Job {
	out := make([]models.Job, len(ids))
	for i, id := range ids {
		out[i] = models.Job{
			Title:   fmt.Sprintf("%s %d", prefix, id),
			Company: "Acme",
			URL:     fmt.Sprintf("https://site.example/jobs/view/%d/", id),
		}
	}
	return out
}

var records = fakeExtractor{
	"empty": nil,
	"one":   jobs("One", 1),
	"two":   jobs("Two", 2, 3),
	"dupe":  jobs("Dupe", 3, 4),
}

var query = models.Query{Keywords: "Developer", Location: "Denver, CO", RegionCode: "103644278"}

func newPipeline(opts Options, strategies ...sources.Strategy) *Pipeline {
	set := sources.NewStrategySet()
	var cascade []models.StrategyName
	for _, s := range strategies {
		set.Register(s)
		cascade = append(cascade, s.Name())
	}
	if opts.DefaultCascade == nil {
		opts.DefaultCascade = cascade
	}
	if opts.Deadline == 0 {
		opts.Deadline = 5 * time.Second
	}
	return NewPipeline(set, records, NewNormalizer("linkedin"), opts)
}

func TestEscalatesOnEmptyResult(t *testing.T) {
	first := &fakeStrategy{name: models.StrategyRelay, acquire: returns("empty")}
	second := &fakeStrategy{name: models.StrategyFeed, acquire: returns("two")}
	third := &fakeStrategy{name: models.StrategyDirect, acquire: returns("one")}

	result, err := newPipeline(Options{}, first, second, third).Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)
	require.NoError(t, result.Err())

	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Equal(t, models.StrategyFeed, result.Diagnostic.StrategyUsed)
	require.Len(t, result.Records, 2)
	require.Equal(t, "Two 2", result.Records[0].Title)
	require.Equal(t, 2, result.Diagnostic.DiscardedCount)

	require.Len(t, result.Diagnostic.Attempts, 2)
	require.Equal(t, httpclient.KindEmptyResult, result.Diagnostic.Attempts[0].Kind)
	require.Empty(t, result.Diagnostic.Attempts[1].Kind)
	require.EqualValues(t, 0, third.calls.Load())
}

func TestRecordsAreNormalized(t *testing.T) {
	only := &fakeStrategy{name: models.StrategyRelay, acquire: returns("one")}

	result, err := newPipeline(Options{}, only).Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	job := result.Records[0]
	require.Equal(t, "linkedin (Denver, CO)", job.Source)
	require.NotNil(t, job.IsRemote)
	require.False(t, job.ScrapedAt.IsZero())
	require.NotEqual(t, uuid.Nil, result.RunID)
}

func TestExtractionErrorEscalates(t *testing.T) {
	broken := &fakeStrategy{name: models.StrategyFeed, acquire: returns("unparseable")}
	working := &fakeStrategy{name: models.StrategyDirect, acquire: returns("one")}

	result, err := newPipeline(Options{}, broken, working).Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Equal(t, models.StrategyDirect, result.Diagnostic.StrategyUsed)
	require.Equal(t, httpclient.KindEmptyResult, result.Diagnostic.Attempts[0].Kind)
	require.Contains(t, result.Diagnostic.Attempts[0].Err, "could not be parsed")
}

func TestAllStrategiesExhausted(t *testing.T) {
	first := &fakeStrategy{name: models.StrategyRelay, acquire: fails(httpclient.KindNetwork)}
	second := &fakeStrategy{name: models.StrategyFeed, acquire: fails(httpclient.KindBlocked)}
	third := &fakeStrategy{name: models.StrategyDirect, acquire: returns("empty")}

	result, err := newPipeline(Options{}, first, second, third).Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)

	require.Equal(t, OutcomeFailed, result.Outcome)
	require.Empty(t, result.Records)
	require.NotNil(t, result.Failure)
	require.Equal(t, ReasonExhausted, result.Failure.Reason)
	require.True(t, errors.Is(result.Err(), ErrAllStrategiesExhausted))

	kinds := make([]httpclient.Kind, 0, len(result.Failure.Attempts))
	for _, a := range result.Failure.Attempts {
		kinds = append(kinds, a.Kind)
	}
	require.Equal(t, []httpclient.Kind{httpclient.KindNetwork, httpclient.KindBlocked, httpclient.KindEmptyResult}, kinds)
}

func TestDeadlineWithPartialResult(t *testing.T) {
	fast := &fakeStrategy{name: models.StrategyRelay, acquire: returns("two")}
	slow := &fakeStrategy{name: models.StrategyHeadless, acquire: blocksUntilDone}

	p := newPipeline(Options{Mode: ModeCollectAll, Deadline: 100 * time.Millisecond}, fast, slow)
	result, err := p.Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)

	require.Equal(t, OutcomePartialSuccess, result.Outcome)
	require.Nil(t, result.Failure)
	require.NoError(t, result.Err())
	require.Len(t, result.Records, 2)
	require.Equal(t, models.StrategyRelay, result.Diagnostic.StrategyUsed)
	require.Equal(t, httpclient.KindTimeout, result.Diagnostic.Attempts[1].Kind)
}

func TestDeadlineWithoutRecords(t *testing.T) {
	slow := &fakeStrategy{name: models.StrategyHeadless, acquire: blocksUntilDone}
	never := &fakeStrategy{name: models.StrategyDirect, acquire: returns("one")}

	p := newPipeline(Options{Deadline: 50 * time.Millisecond}, slow, never)
	result, err := p.Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)

	require.Equal(t, OutcomeFailed, result.Outcome)
	require.Equal(t, ReasonDeadlineExceeded, result.Failure.Reason)
	require.True(t, errors.Is(result.Err(), ErrDeadlineExceeded))
	require.EqualValues(t, 0, never.calls.Load())
}

func TestCollectAllMergesAndDeduplicates(t *testing.T) {
	first := &fakeStrategy{name: models.StrategyRelay, acquire: returns("two")}
	second := &fakeStrategy{name: models.StrategyFeed, acquire: returns("dupe")}

	p := newPipeline(Options{Mode: ModeCollectAll}, first, second)
	result, err := p.Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)

	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Len(t, result.Records, 3)
	require.Equal(t, 1, result.Diagnostic.Duplicates)
	// The earlier strategy's copy of the shared posting is kept.
	require.Equal(t, "Two 3", result.Records[1].Title)
	require.Equal(t, "Dupe 4", result.Records[2].Title)
}

func TestCollectAllWithFailuresIsPartial(t *testing.T) {
	failing := &fakeStrategy{name: models.StrategyRelay, acquire: fails(httpclient.KindBlocked)}
	working := &fakeStrategy{name: models.StrategyFeed, acquire: returns("one")}

	p := newPipeline(Options{Mode: ModeCollectAll}, failing, working)
	result, err := p.Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)
	require.Equal(t, OutcomePartialSuccess, result.Outcome)
	require.Len(t, result.Records, 1)
}

func TestRetriesTransientFailures(t *testing.T) {
	flaky := retryingStrategy{
		fakeStrategy: &fakeStrategy{name: models.StrategyRelay, acquire: func(ctx context.Context, call int) (*models.RawContent, error) {
			if call < 3 {
				return fails(httpclient.KindNetwork)(ctx, call)
			}
			return returns("one")(ctx, call)
		}},
		policy: sources.RetryPolicy{Attempts: 3, Delay: time.Millisecond},
	}

	result, err := newPipeline(Options{}, flaky).Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.EqualValues(t, 3, flaky.calls.Load())
	require.Equal(t, 3, result.Diagnostic.Attempts[0].Tries)
}

func TestEmptyResultIsNotRetried(t *testing.T) {
	empty := retryingStrategy{
		fakeStrategy: &fakeStrategy{name: models.StrategyRelay, acquire: fails(httpclient.KindEmptyResult)},
		policy:       sources.RetryPolicy{Attempts: 3, Delay: time.Millisecond},
	}

	result, err := newPipeline(Options{}, empty).Run(context.Background(), query, DefaultMethod)
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.EqualValues(t, 1, empty.calls.Load())
}

func TestProxyMethodFallsBackToSimpleAfterRetries(t *testing.T) {
	relay := retryingStrategy{
		fakeStrategy: &fakeStrategy{name: models.StrategyRelay, acquire: fails(httpclient.KindBlocked)},
		policy:       sources.RetryPolicy{Attempts: 3, Delay: time.Millisecond},
	}
	feed := &fakeStrategy{name: models.StrategyFeed, acquire: returns("two")}
	simple := &fakeStrategy{name: models.StrategySimple, acquire: returns("one")}

	result, err := newPipeline(Options{}, relay, feed, simple).Run(context.Background(), query, "proxy")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Equal(t, models.StrategySimple, result.Diagnostic.StrategyUsed)
	require.EqualValues(t, 3, relay.calls.Load())
	require.EqualValues(t, 0, feed.calls.Load())
}

func TestSingleStrategyMethod(t *testing.T) {
	relay := &fakeStrategy{name: models.StrategyRelay, acquire: returns("two")}
	feed := &fakeStrategy{name: models.StrategyFeed, acquire: returns("one")}

	result, err := newPipeline(Options{}, relay, feed).Run(context.Background(), query, "rss")
	require.NoError(t, err)
	require.Equal(t, models.StrategyFeed, result.Diagnostic.StrategyUsed)
	require.EqualValues(t, 0, relay.calls.Load())

	result, err = newPipeline(Options{}, relay, feed).Run(context.Background(), query, "feed")
	require.NoError(t, err)
	require.Equal(t, models.StrategyFeed, result.Diagnostic.StrategyUsed)
}

func TestRunRejectsBadRequests(t *testing.T) {
	p := newPipeline(Options{}, &fakeStrategy{name: models.StrategyRelay, acquire: returns("one")})

	_, err := p.Run(context.Background(), query, "carrier-pigeon")
	require.True(t, errors.Is(err, ErrUnknownMethod))

	// Registered alias whose strategy is not available.
	_, err = p.Run(context.Background(), query, "puppeteer")
	require.True(t, errors.Is(err, ErrUnknownMethod))

	_, err = p.Run(context.Background(), models.Query{}, DefaultMethod)
	require.Error(t, err)
}

func TestSettle(t *testing.T) {
	ok := Attempt{Strategy: models.StrategyRelay, Records: 2}
	failed := Attempt{Strategy: models.StrategyFeed, Kind: httpclient.KindTimeout}
	some := jobs("x", 1)

	testCases := []struct {
		name     string
		state    cascadeState
		outcome  Outcome
		reason   FailureReason
		hasError bool
	}{
		{name: "first success", state: cascadeState{final: stateSuccess, records: some, attempts: []Attempt{failed, ok}}, outcome: OutcomeSuccess},
		{name: "all succeeded", state: cascadeState{final: stateExhausted, records: some, attempts: []Attempt{ok, ok}}, outcome: OutcomeSuccess},
		{name: "some failed", state: cascadeState{final: stateExhausted, records: some, attempts: []Attempt{ok, failed}}, outcome: OutcomePartialSuccess},
		{name: "interrupted with records", state: cascadeState{final: stateInterrupted, records: some, interrupted: context.DeadlineExceeded, attempts: []Attempt{ok}}, outcome: OutcomePartialSuccess},
		{name: "interrupted empty", state: cascadeState{final: stateInterrupted, interrupted: context.DeadlineExceeded, attempts: []Attempt{failed}}, outcome: OutcomeFailed, reason: ReasonDeadlineExceeded, hasError: true},
		{name: "exhausted", state: cascadeState{final: stateExhausted, attempts: []Attempt{failed}}, outcome: OutcomeFailed, reason: ReasonExhausted, hasError: true},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			outcome, failure := settle(test.state)
			require.Equal(t, test.outcome, outcome)
			if !test.hasError {
				require.Nil(t, failure)
				return
			}
			require.NotNil(t, failure)
			require.Equal(t, test.reason, failure.Reason)
		})
	}
}
