package sources

import (
	"context"
	"errors"
	"strings"

	"job-pipeline-go/internal/models"
	"job-pipeline-go/pkg/httpclient"
)

// FragmentStrategy reads the paginated endpoint behind the results list's
// infinite scroll. It returns bare result cards or JSON, never a full page.
type FragmentStrategy struct {
	site    Site
	fetcher Fetcher
}

func NewFragmentStrategy(site Site, fetcher Fetcher) *FragmentStrategy {
	return &FragmentStrategy{site: site, fetcher: fetcher}
}

func (f *FragmentStrategy) Name() models.StrategyName {
	return models.StrategyFragment
}

func (f *FragmentStrategy) Acquire(ctx context.Context, q models.Query) (*models.RawContent, error) {
	target := f.site.FragmentURL(q)
	if q.RegionCode == "" {
		return nil, httpclient.NewError(httpclient.KindInvalidQuery, target, errors.New("region code is required"))
	}

	profile := httpclient.SameOriginProfile(f.site.UserAgent, f.site.BaseURL, f.site.AcceptLanguage)
	res, err := f.fetcher.Fetch(ctx, target, profile, f.site.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return content(f.Name(), sniffFragment(res.Body), target, res.Body)
}

func sniffFragment(body string) models.ContentType {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return models.ContentJSON
	}
	return models.ContentFragment
}
