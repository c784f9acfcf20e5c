package sources

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/models"
	"job-pipeline-go/pkg/httpclient"
)

// ErrAuthFailed is returned by the authenticated headless strategy when the
// login flow ends back on the login page.
var ErrAuthFailed = errors.New("authentication failed")

// Strategy acquires raw page content for a query. Implementations return a
// *httpclient.FetchError (or an error httpclient.Classify understands) on failure.
type Strategy interface {
	Name() models.StrategyName
	Acquire(ctx context.Context, q models.Query) (*models.RawContent, error)
}

// RetryPolicy bounds in-strategy retries of transient failures.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Retrier is implemented by strategies that tolerate transient retries.
type Retrier interface {
	RetryPolicy() RetryPolicy
}

// Fetcher is the HTTP Fetch Adapter as seen by strategies.
type Fetcher interface {
	Fetch(ctx context.Context, url string, profile httpclient.HeaderProfile, timeout time.Duration) (*httpclient.Response, error)
}

// StrategySet manages the registered acquisition strategies
type StrategySet struct {
	strategies map[models.StrategyName]Strategy
	order      []models.StrategyName
}

// NewStrategySet creates an empty strategy set
func NewStrategySet() *StrategySet {
	return &StrategySet{
		strategies: make(map[models.StrategyName]Strategy),
	}
}

// Register adds a strategy, replacing any earlier one with the same name
func (s *StrategySet) Register(strategy Strategy) {
	name := strategy.Name()
	if _, exists := s.strategies[name]; !exists {
		s.order = append(s.order, name)
	}
	s.strategies[name] = strategy
}

// Get returns a registered strategy
func (s *StrategySet) Get(name models.StrategyName) (Strategy, bool) {
	strategy, exists := s.strategies[name]
	return strategy, exists
}

// Names returns registered strategy names in registration order
func (s *StrategySet) Names() []models.StrategyName {
	names := make([]models.StrategyName, len(s.order))
	copy(names, s.order)
	return names
}

// Cascade resolves names to strategies, preserving order. Names with no
// registered strategy are returned separately.
func (s *StrategySet) Cascade(names []models.StrategyName) (cascade []Strategy, missing []models.StrategyName) {
	for _, name := range names {
		if strategy, ok := s.strategies[name]; ok {
			cascade = append(cascade, strategy)
		} else {
			missing = append(missing, name)
		}
	}
	return cascade, missing
}

// NewDefaultSet registers every strategy the configuration enables.
func NewDefaultSet(cfg *config.Config, fetcher Fetcher, logger *slog.Logger) *StrategySet {
	if logger == nil {
		logger = slog.Default()
	}
	site := SiteFromConfig(cfg.Scraper)

	set := NewStrategySet()
	set.Register(NewRelayStrategy(site, cfg.Relay, fetcher, logger))
	set.Register(NewFeedStrategy(site, fetcher))
	set.Register(NewFragmentStrategy(site, fetcher))
	set.Register(NewDirectStrategy(site, fetcher))
	set.Register(NewSimpleStrategy(site, fetcher))

	if cfg.Headless.Enabled {
		set.Register(NewHeadlessStrategy(site, cfg.Headless, logger))
		if cfg.Headless.Username != "" && cfg.Headless.Password != "" {
			set.Register(NewAuthHeadlessStrategy(site, cfg.Headless, logger))
		}
	}
	return set
}

// content wraps a fetched body, turning a blank body into an empty-result failure.
func content(name models.StrategyName, ct models.ContentType, url, body string) (*models.RawContent, error) {
	if strings.TrimSpace(body) == "" {
		return nil, httpclient.NewError(httpclient.KindEmptyResult, url, errors.New("empty body"))
	}
	return &models.RawContent{
		Strategy:    name,
		ContentType: ct,
		Body:        body,
		FetchedAt:   time.Now(),
	}, nil
}
