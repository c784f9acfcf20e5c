package sources

import (
	"context"

	"job-pipeline-go/internal/models"
	"job-pipeline-go/pkg/httpclient"
)

// FeedStrategy requests the search results as a syndication feed.
type FeedStrategy struct {
	site    Site
	fetcher Fetcher
}

func NewFeedStrategy(site Site, fetcher Fetcher) *FeedStrategy {
	return &FeedStrategy{site: site, fetcher: fetcher}
}

func (f *FeedStrategy) Name() models.StrategyName {
	return models.StrategyFeed
}

func (f *FeedStrategy) Acquire(ctx context.Context, q models.Query) (*models.RawContent, error) {
	target := f.site.SearchURL(q)
	res, err := f.fetcher.Fetch(ctx, target, httpclient.FeedProfile(f.site.UserAgent), f.site.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return content(f.Name(), models.ContentFeed, target, res.Body)
}
