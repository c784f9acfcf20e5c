package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"job-pipeline-go/internal/models"
	"job-pipeline-go/internal/storage"
)

// Runner runs one pipeline query.
type Runner interface {
	Run(ctx context.Context, q models.Query, method string) (*Result, error)
}

// JobSink receives the records of each location.
type JobSink interface {
	UpsertJobs(ctx context.Context, jobs []models.Job) (storage.UpsertResult, error)
}

// LocationReport is the outcome for one location of a batch.
type LocationReport struct {
	Location   string        `json:"location"`
	RunID      string        `json:"run_id,omitempty"`
	Outcome    Outcome       `json:"outcome,omitempty"`
	Strategy   string        `json:"strategy,omitempty"`
	Records    int           `json:"records"`
	Inserted   int           `json:"inserted"`
	Duplicates int           `json:"duplicates"`
	Skipped    bool          `json:"skipped,omitempty"`
	Companies  []string      `json:"companies,omitempty"`
	Err        string        `json:"error,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

// BatchReport summarizes a RunLocations call.
type BatchReport struct {
	Locations       []LocationReport `json:"locations"`
	TotalRecords    int              `json:"total_records"`
	TotalInserted   int              `json:"total_inserted"`
	TotalDuplicates int              `json:"total_duplicates"`
	Failed          int              `json:"failed"`
	Elapsed         time.Duration    `json:"elapsed"`
}

// BatchOptions configures a BatchDriver.
type BatchOptions struct {
	Method string
	// PauseBetween is waited after a location that produced records.
	PauseBetween time.Duration
	// Metrics, when set, receives every run and store result.
	Metrics *Metrics
	Logger  *slog.Logger
}

// BatchDriver sweeps a list of locations through the pipeline and hands
// each location's records to the sink. It remembers which locations it
// has processed so a later sweep picks up where the last one stopped.
type BatchDriver struct {
	runner    Runner
	sink      JobSink
	opts      BatchOptions
	logger    *slog.Logger
	processed map[string]bool
	mu        sync.Mutex
}

func NewBatchDriver(runner Runner, sink JobSink, opts BatchOptions) *BatchDriver {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Method == "" {
		opts.Method = DefaultMethod
	}
	return &BatchDriver{
		runner:    runner,
		sink:      sink,
		opts:      opts,
		logger:    opts.Logger,
		processed: make(map[string]bool),
	}
}

// RunLocations runs keywords against every location not yet processed. A
// failing location is reported and the sweep moves on. The returned error
// is only set when ctx ends the sweep early.
func (b *BatchDriver) RunLocations(ctx context.Context, locations []models.Location, keywords string) (BatchReport, error) {
	start := time.Now()
	var report BatchReport

	for i, loc := range locations {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		if b.IsProcessed(loc.Name) {
			report.Locations = append(report.Locations, LocationReport{Location: loc.Name, Skipped: true})
			continue
		}

		lr := b.runLocation(ctx, loc, keywords)
		report.Locations = append(report.Locations, lr)
		report.TotalRecords += lr.Records
		report.TotalInserted += lr.Inserted
		report.TotalDuplicates += lr.Duplicates
		if lr.Err != "" {
			report.Failed++
		}
		if ctx.Err() != nil {
			continue
		}
		b.markProcessed(loc.Name)

		if lr.Records > 0 && i < len(locations)-1 && b.opts.PauseBetween > 0 {
			b.logger.InfoContext(ctx, "pausing before next location", "pause", b.opts.PauseBetween)
			select {
			case <-ctx.Done():
			case <-time.After(b.opts.PauseBetween):
			}
		}
	}

	report.Elapsed = time.Since(start)
	b.logger.InfoContext(ctx, "location batch finished",
		"locations", len(locations),
		"records", report.TotalRecords,
		"inserted", report.TotalInserted,
		"duplicates", report.TotalDuplicates,
		"failed", report.Failed,
	)
	return report, ctx.Err()
}

func (b *BatchDriver) runLocation(ctx context.Context, loc models.Location, keywords string) LocationReport {
	lr := LocationReport{Location: loc.Name}
	started := time.Now()

	q := models.Query{Keywords: keywords, Location: loc.Name, RegionCode: loc.GeoID}
	result, err := b.runner.Run(ctx, q, b.opts.Method)
	if err != nil {
		lr.Err = err.Error()
		b.logger.ErrorContext(ctx, "pipeline rejected location", "location", loc.Name, "err", err)
		lr.Elapsed = time.Since(started)
		return lr
	}

	if b.opts.Metrics != nil {
		b.opts.Metrics.RecordRun(result)
	}

	lr.RunID = result.RunID.String()
	lr.Outcome = result.Outcome
	lr.Strategy = string(result.Diagnostic.StrategyUsed)
	lr.Records = len(result.Records)
	lr.Companies = companiesOf(result.Records)
	if err := result.Err(); err != nil {
		lr.Err = err.Error()
		b.logger.WarnContext(ctx, "no jobs for location", "location", loc.Name, "err", err)
		lr.Elapsed = time.Since(started)
		return lr
	}

	if b.sink != nil && len(result.Records) > 0 {
		res, err := b.sink.UpsertJobs(ctx, result.Records)
		if err != nil {
			lr.Err = err.Error()
			b.logger.ErrorContext(ctx, "failed to store jobs", "location", loc.Name, "records", len(result.Records), "err", err)
		}
		lr.Inserted = res.Inserted
		lr.Duplicates = res.Duplicates
		if b.opts.Metrics != nil {
			b.opts.Metrics.RecordStored(res.Inserted, res.Duplicates)
		}
	}

	b.logger.InfoContext(ctx, "location processed",
		"location", loc.Name,
		"outcome", lr.Outcome,
		"strategy", lr.Strategy,
		"records", lr.Records,
		"inserted", lr.Inserted,
		"duplicates", lr.Duplicates,
	)
	lr.Elapsed = time.Since(started)
	return lr
}

// Companies returns the distinct companies seen across the batch, in
// first-seen order.
func (r BatchReport) Companies() []string {
	var all []string
	for _, lr := range r.Locations {
		all = append(all, lr.Companies...)
	}
	return uniqueStrings(all)
}

func companiesOf(jobs []models.Job) []string {
	names := make([]string, 0, len(jobs))
	for _, job := range jobs {
		names = append(names, job.Company)
	}
	return uniqueStrings(names)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// IsProcessed reports whether name was handled by an earlier sweep.
func (b *BatchDriver) IsProcessed(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processed[name]
}

// Processed returns the number of locations handled so far.
func (b *BatchDriver) Processed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.processed)
}

// ResetProcessed forgets every processed location so the next sweep starts over.
func (b *BatchDriver) ResetProcessed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processed = make(map[string]bool)
}

func (b *BatchDriver) markProcessed(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processed[name] = true
}
