package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/models"
	"job-pipeline-go/pkg/httpclient"
)

// envelopeFields are the payload keys used by the relays we know about.
var envelopeFields = []string{"contents", "content", "body", "data", "html"}

// RelayStrategy fetches the search page through public relay endpoints,
// trying each in order until one answers with a non-empty body.
type RelayStrategy struct {
	site      Site
	endpoints []string
	policy    RetryPolicy
	timeout   time.Duration
	fetcher   Fetcher
	logger    *slog.Logger
}

func NewRelayStrategy(site Site, cfg config.RelayConfig, fetcher Fetcher, logger *slog.Logger) *RelayStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelayStrategy{
		site:      site,
		endpoints: cfg.Endpoints,
		policy:    RetryPolicy{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
		timeout:   cfg.Timeout,
		fetcher:   fetcher,
		logger:    logger,
	}
}

func (r *RelayStrategy) Name() models.StrategyName {
	return models.StrategyRelay
}

func (r *RelayStrategy) RetryPolicy() RetryPolicy {
	return r.policy
}

func (r *RelayStrategy) Acquire(ctx context.Context, q models.Query) (*models.RawContent, error) {
	target := r.site.SearchURL(q)
	if len(r.endpoints) == 0 {
		return nil, httpclient.NewError(httpclient.KindNetwork, target, errors.New("no relay endpoints configured"))
	}

	var lastErr error
	for _, endpoint := range r.endpoints {
		relayURL := RelayURL(endpoint, target)

		res, err := r.fetcher.Fetch(ctx, relayURL, httpclient.MinimalProfile(r.site.UserAgent), r.timeout)
		if err != nil {
			r.logger.InfoContext(ctx, "relay failed", "relay", endpoint, "kind", httpclient.Classify(err), "err", err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		body := UnwrapEnvelope(res.Body)
		if strings.TrimSpace(body) == "" {
			r.logger.InfoContext(ctx, "relay returned no content", "relay", endpoint, "bytes", len(res.Body))
			lastErr = httpclient.NewError(httpclient.KindEmptyResult, relayURL, errors.New("relay envelope carried no payload"))
			continue
		}

		r.logger.InfoContext(ctx, "relay succeeded", "relay", endpoint, "bytes", len(body))
		return content(r.Name(), models.ContentSearchPage, target, body)
	}

	return nil, fmt.Errorf("all %d relays failed: %w", len(r.endpoints), lastErr)
}

// RelayURL expands an endpoint template. {encoded_url} is replaced by the
// query-escaped target and {url} by the raw target.
func RelayURL(template, target string) string {
	out := strings.ReplaceAll(template, "{encoded_url}", url.QueryEscape(target))
	return strings.ReplaceAll(out, "{url}", target)
}

// UnwrapEnvelope recovers the page from a relay response. JSON envelopes
// carry it under one of several field names; anything else is the page itself.
func UnwrapEnvelope(body string) string {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return body
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return body
	}
	for _, field := range envelopeFields {
		if s, ok := envelope[field].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
