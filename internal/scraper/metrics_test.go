package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"job-pipeline-go/internal/models"
	"job-pipeline-go/pkg/httpclient"
)

func TestMetricsRecordRun(t *testing.T) {
	m := NewMetrics()
	m.RecordRun(&Result{
		Records: jobs("Denver", 1, 2),
		Diagnostic: Diagnostic{
			DiscardedCount: 2,
			Duplicates:     1,
			ElapsedMs:      1500,
			Attempts: []Attempt{
				{Strategy: models.StrategyRelay, Kind: httpclient.KindBlocked, Tries: 3},
				{Strategy: models.StrategySimple, Records: 2, Elapsed: time.Second},
			},
		},
	})
	m.RecordRun(&Result{
		Failure: &Failure{Reason: ReasonExhausted},
		Diagnostic: Diagnostic{
			Attempts: []Attempt{{Strategy: models.StrategyRelay, Kind: httpclient.KindTimeout}},
		},
	})
	m.RecordRun(nil)
	m.RecordStored(1, 1)

	snap := m.Snapshot()
	require.EqualValues(t, 2, snap.TotalRuns)
	require.EqualValues(t, 1, snap.TotalFailedRuns)
	require.EqualValues(t, 2, snap.TotalJobsScraped)
	require.EqualValues(t, 1, snap.TotalJobsSaved)
	require.EqualValues(t, 2, snap.TotalDuplicates)
	require.EqualValues(t, 2, snap.TotalDiscarded)

	relay := snap.StrategyPerformance[models.StrategyRelay]
	require.EqualValues(t, 2, relay.Attempts)
	require.EqualValues(t, 2, relay.Failures)
	require.Equal(t, string(httpclient.KindTimeout), relay.LastKind)

	simple := snap.StrategyPerformance[models.StrategySimple]
	require.EqualValues(t, 1, simple.Successes)
	require.EqualValues(t, 2, simple.Records)
	require.Equal(t, time.Second, simple.ResponseTime)

	snap.StrategyPerformance[models.StrategyFeed] = StrategyMetrics{}
	require.NotContains(t, m.Snapshot().StrategyPerformance, models.StrategyFeed)
}
