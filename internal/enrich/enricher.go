// Package enrich looks up contacts for the companies behind stored jobs.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/models"
)

const lookupSource = "contacts"

// Lookup is the contact-lookup collaborator.
type Lookup interface {
	FindDomain(ctx context.Context, company string) (string, error)
	FindContacts(ctx context.Context, domain string) ([]models.Contact, error)
}

// ContactStore supplies company names and receives contacts.
type ContactStore interface {
	Companies(ctx context.Context) ([]string, error)
	SaveContacts(ctx context.Context, contacts []models.Contact) error
}

// Report summarizes a ProcessCompanies call. Errors holds one message per
// company that yielded no saved contacts.
type Report struct {
	Processed     int           `json:"processed"`
	ContactsFound int           `json:"contacts_found"`
	Errors        []string      `json:"errors"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Options configures an Enricher.
type Options struct {
	Concurrency    int
	RequestsPerMin int
	Logger         *slog.Logger
}

// OptionsFromConfig reads the enrichment settings out of cfg.
func OptionsFromConfig(cfg config.ContactsConfig, logger *slog.Logger) Options {
	return Options{
		Concurrency:    cfg.Concurrency,
		RequestsPerMin: cfg.RequestsPerMin,
		Logger:         logger,
	}
}

type Enricher struct {
	lookup  Lookup
	store   ContactStore
	limiter *RateLimiter
	opts    Options
	logger  *slog.Logger
}

func NewEnricher(lookup Lookup, store ContactStore, opts Options) *Enricher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	return &Enricher{
		lookup:  lookup,
		store:   store,
		limiter: NewRateLimiter(),
		opts:    opts,
		logger:  opts.Logger,
	}
}

// ProcessCompanies finds and saves contacts for every distinct company. With
// no companies given it enriches every company the store knows. A failing
// company is reported and the batch moves on; the returned error is only set
// when the company list cannot be read or ctx ends the batch.
func (e *Enricher) ProcessCompanies(ctx context.Context, companies []string) (Report, error) {
	start := time.Now()
	var report Report

	if len(companies) == 0 {
		stored, err := e.store.Companies(ctx)
		if err != nil {
			return report, fmt.Errorf("list companies: %w", err)
		}
		companies = stored
	}
	companies = distinct(companies)
	e.logger.InfoContext(ctx, "enriching companies", "companies", len(companies), "concurrency", e.opts.Concurrency)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for _, company := range companies {
		if gctx.Err() != nil {
			break
		}
		company := company
		g.Go(func() error {
			found, err := e.processCompany(gctx, company)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors = append(report.Errors, err.Error())
				return nil
			}
			report.Processed++
			report.ContactsFound += found
			return nil
		})
	}
	_ = g.Wait()

	report.Elapsed = time.Since(start)
	e.logger.InfoContext(ctx, "enrichment finished",
		"processed", report.Processed,
		"contacts", report.ContactsFound,
		"errors", len(report.Errors),
		"elapsed", report.Elapsed,
	)
	return report, ctx.Err()
}

func (e *Enricher) processCompany(ctx context.Context, company string) (int, error) {
	if err := e.limiter.Wait(ctx, lookupSource, e.opts.RequestsPerMin); err != nil {
		return 0, fmt.Errorf("company %q: %w", company, err)
	}
	domain, err := e.lookup.FindDomain(ctx, company)
	if err != nil {
		return 0, fmt.Errorf("company %q: %w", company, err)
	}
	if domain == "" {
		return 0, fmt.Errorf("no domain found for company %q", company)
	}

	if err := e.limiter.Wait(ctx, lookupSource, e.opts.RequestsPerMin); err != nil {
		return 0, fmt.Errorf("company %q: %w", company, err)
	}
	contacts, err := e.lookup.FindContacts(ctx, domain)
	if err != nil {
		return 0, fmt.Errorf("company %q: %w", company, err)
	}
	if len(contacts) == 0 {
		return 0, fmt.Errorf("no contacts found for domain %q", domain)
	}

	if err := e.store.SaveContacts(ctx, contacts); err != nil {
		return 0, fmt.Errorf("save contacts for %q: %w", domain, err)
	}

	e.logger.DebugContext(ctx, "company enriched", "company", company, "domain", domain, "contacts", len(contacts))
	return len(contacts), nil
}

// distinct drops blank names and repeats, keeping first-seen order.
func distinct(companies []string) []string {
	seen := make(map[string]bool, len(companies))
	out := make([]string, 0, len(companies))
	for _, c := range companies {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
