package sources

import (
	"context"

	"job-pipeline-go/internal/models"
	"job-pipeline-go/pkg/httpclient"
)

// DirectStrategy fetches the search page itself with the browser profile.
type DirectStrategy struct {
	site    Site
	fetcher Fetcher
}

func NewDirectStrategy(site Site, fetcher Fetcher) *DirectStrategy {
	return &DirectStrategy{site: site, fetcher: fetcher}
}

func (d *DirectStrategy) Name() models.StrategyName {
	return models.StrategyDirect
}

func (d *DirectStrategy) Acquire(ctx context.Context, q models.Query) (*models.RawContent, error) {
	target := d.site.SearchURL(q)
	profile := httpclient.PrimaryProfile(d.site.UserAgent, d.site.Referer, d.site.AcceptLanguage)
	res, err := d.fetcher.Fetch(ctx, target, profile, d.site.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return content(d.Name(), models.ContentSearchPage, target, res.Body)
}

// SimpleStrategy is the last-resort direct fetch. It presents itself as a
// same-origin request from the site's own search page.
type SimpleStrategy struct {
	site    Site
	fetcher Fetcher
}

func NewSimpleStrategy(site Site, fetcher Fetcher) *SimpleStrategy {
	return &SimpleStrategy{site: site, fetcher: fetcher}
}

func (s *SimpleStrategy) Name() models.StrategyName {
	return models.StrategySimple
}

func (s *SimpleStrategy) Acquire(ctx context.Context, q models.Query) (*models.RawContent, error) {
	target := s.site.SearchURL(q)
	profile := httpclient.SameOriginProfile(s.site.UserAgent, s.site.BaseURL, s.site.AcceptLanguage)
	res, err := s.fetcher.Fetch(ctx, target, profile, s.site.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return content(s.Name(), models.ContentSearchPage, target, res.Body)
}
