package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"job-pipeline-go/internal/models"
)

// ErrUnparseable is returned when content cannot be parsed in its declared shape.
var ErrUnparseable = errors.New("content could not be parsed")

// diagnosticSample bounds how much of an unrecognized body is logged.
const diagnosticSample = 2000

// Extraction is the outcome of one Extract call.
type Extraction struct {
	Records []models.Job
	// Discarded counts candidates dropped for missing title or company.
	Discarded int
	// Container is the container selector that matched, if any.
	Container string
}

// Options configures an Engine.
type Options struct {
	// BaseURL resolves relative posting links.
	BaseURL   string
	Selectors map[models.ContentType]SelectorSet
	Now       func() time.Time
	Logger    *slog.Logger
}

// Engine turns raw content into job records using selector cascades.
type Engine struct {
	baseURL   string
	selectors map[models.ContentType]SelectorSet
	now       func() time.Time
	logger    *slog.Logger
}

func NewEngine(opts Options) *Engine {
	if opts.Selectors == nil {
		opts.Selectors = DefaultSelectors()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		baseURL:   opts.BaseURL,
		selectors: opts.Selectors,
		now:       opts.Now,
		logger:    opts.Logger,
	}
}

// Extract parses raw according to its content type. An empty result is not
// an error; errors mean the body could not be read in the declared shape.
func (e *Engine) Extract(ctx context.Context, raw models.RawContent) (Extraction, error) {
	switch raw.ContentType {
	case models.ContentFeed:
		return e.extractFeed(ctx, raw.Body)
	case models.ContentJSON:
		return e.extractJSON(ctx, raw.Body)
	}

	set, ok := e.selectors[raw.ContentType]
	if !ok {
		return Extraction{}, fmt.Errorf("no selector set for content type %q", raw.ContentType)
	}
	return e.extractCards(ctx, raw.Body, set)
}

func (e *Engine) extractCards(ctx context.Context, body string, set SelectorSet) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	var cards *goquery.Selection
	var used string
	for _, selector := range set.Containers {
		found := doc.Find(selector)
		e.logger.DebugContext(ctx, "probed container selector", "selector", selector, "matches", found.Length())
		if found.Length() > 0 {
			cards = found
			used = selector
			break
		}
	}

	if cards == nil {
		e.logger.WarnContext(ctx, "no result cards matched any container selector",
			"body_length", len(body),
			"sample", sample(body),
		)
		return Extraction{}, nil
	}

	ex := Extraction{Container: used}
	capturedAt := e.now()
	cards.Each(func(_ int, card *goquery.Selection) {
		job := e.cardToJob(card, set, capturedAt)
		if !job.Valid() {
			ex.Discarded++
			return
		}
		ex.Records = append(ex.Records, job)
	})

	e.logger.DebugContext(ctx, "extracted result cards",
		"container", used,
		"cards", cards.Length(),
		"records", len(ex.Records),
		"discarded", ex.Discarded,
	)
	return ex, nil
}

func (e *Engine) cardToJob(card *goquery.Selection, set SelectorSet, capturedAt time.Time) models.Job {
	return models.Job{
		Title:           set.Title.First(card),
		Company:         set.Company.First(card),
		Location:        set.Location.First(card),
		URL:             CanonicalizeURL(ResolveURL(e.baseURL, set.URL.First(card))),
		PostedAt:        parsePostedAt(set.PostedAt.First(card), capturedAt),
		Description:     set.Description.First(card),
		EmploymentType:  set.EmploymentType.First(card),
		Salary:          set.Salary.First(card),
		Benefits:        set.Benefits.First(card),
		CompanySize:     set.CompanySize.First(card),
		CompanyIndustry: set.CompanyIndustry.First(card),
		CompanyDomain:   set.CompanyDomain.First(card),
	}
}

var postedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// parsePostedAt falls back to the capture time so PostedAt is never zero.
func parsePostedAt(value string, capturedAt time.Time) time.Time {
	if value == "" {
		return capturedAt
	}
	for _, layout := range postedAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return capturedAt
}

func sample(body string) string {
	if len(body) <= diagnosticSample {
		return body
	}
	return body[:diagnosticSample]
}
