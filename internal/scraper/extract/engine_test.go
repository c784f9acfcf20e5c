package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"job-pipeline-go/internal/models"
)

var capturedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(Options{
		BaseURL: "https://site.example",
		Now:     func() time.Time { return capturedAt },
	})
}

func searchPage(body string) models.RawContent {
	return models.RawContent{
		Strategy:    models.StrategyRelay,
		ContentType: models.ContentSearchPage,
		Body:        body,
		FetchedAt:   capturedAt,
	}
}

const resultsPage = `<html><body>
<ul class="jobs-search__results-list">
  <li>
    <div class="base-card">
      <a class="base-card__full-link" href="https://site.example/jobs/view/backend-engineer-acme-1001?refId=abc">
        <span class="sr-only">Backend Engineer</span>
      </a>
      <h3 class="base-search-card__title">
        Backend   Engineer
      </h3>
      <h4 class="base-search-card__subtitle"><a>Acme Corp</a></h4>
      <span class="job-search-card__location">Denver, CO</span>
      <span class="job-search-card__salary-info">$150,000 - $180,000</span>
      <time class="job-search-card__listdate" datetime="2024-02-27">3 days ago</time>
    </div>
  </li>
  <li>
    <div class="base-card">
      <a class="base-card__full-link" href="/jobs/view/data-engineer-globex-1002?trk=x"></a>
      <h3 class="base-search-card__title">Data Engineer</h3>
      <h4 class="base-search-card__subtitle">Globex</h4>
    </div>
  </li>
  <li>
    <div class="base-card">
      <h3 class="base-search-card__title">Orphan Title</h3>
    </div>
  </li>
</ul>
</body></html>`

func TestExtractSearchPage(t *testing.T) {
	ex, err := newTestEngine().Extract(context.Background(), searchPage(resultsPage))
	require.NoError(t, err)
	require.Equal(t, ".jobs-search__results-list li", ex.Container)
	require.Len(t, ex.Records, 2)
	require.Equal(t, 1, ex.Discarded)

	first := ex.Records[0]
	require.Equal(t, "Backend Engineer", first.Title)
	require.Equal(t, "Acme Corp", first.Company)
	require.Equal(t, "Denver, CO", first.Location)
	require.Equal(t, "https://site.example/jobs/view/1001/", first.URL)
	require.Equal(t, "$150,000 - $180,000", first.Salary)
	require.Equal(t, time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC), first.PostedAt)

	second := ex.Records[1]
	require.Equal(t, "https://site.example/jobs/view/1002/", second.URL)
	require.Equal(t, capturedAt, second.PostedAt)
	require.Empty(t, second.Location)
}

func TestExtractFallsBackToLaterContainerSelector(t *testing.T) {
	// Only the third candidate container ([data-job-id]) is present, and the
	// fields use older markup further down each field cascade.
	page := `<div>
	  <div data-job-id="1">
	    <span class="job-title">Platform Engineer</span>
	    <span class="company-name">Initech</span>
	    <span class="location">Austin, TX</span>
	    <a href="https://site.example/jobs/view/platform-engineer-555?trk=1">view</a>
	  </div>
	</div>`

	ex, err := newTestEngine().Extract(context.Background(), searchPage(page))
	require.NoError(t, err)
	require.Equal(t, "[data-job-id]", ex.Container)
	require.Len(t, ex.Records, 1)
	require.Equal(t, "Platform Engineer", ex.Records[0].Title)
	require.Equal(t, "Initech", ex.Records[0].Company)
	require.Equal(t, "Austin, TX", ex.Records[0].Location)
	require.Equal(t, "https://site.example/jobs/view/555/", ex.Records[0].URL)
}

func TestExtractDropsRecordsMissingRequiredFields(t *testing.T) {
	page := `<ul class="jobs-search__results-list">
	  <li><h3 class="base-search-card__title">Title Only</h3></li>
	  <li><h4 class="base-search-card__subtitle">Company Only</h4></li>
	  <li><h3 class="base-search-card__title">   </h3><h4 class="base-search-card__subtitle">Blank Title Inc</h4></li>
	  <li><h3 class="base-search-card__title">Complete</h3><h4 class="base-search-card__subtitle">Hooli</h4></li>
	</ul>`

	ex, err := newTestEngine().Extract(context.Background(), searchPage(page))
	require.NoError(t, err)
	require.Equal(t, 3, ex.Discarded)
	require.Len(t, ex.Records, 1)
	for _, job := range ex.Records {
		require.NotEmpty(t, job.Title)
		require.NotEmpty(t, job.Company)
	}
}

func TestExtractNoContainerIsEmptyNotError(t *testing.T) {
	ex, err := newTestEngine().Extract(context.Background(), searchPage(`<html><body><p>Sign in to continue</p></body></html>`))
	require.NoError(t, err)
	require.Empty(t, ex.Records)
	require.Empty(t, ex.Container)
	require.Zero(t, ex.Discarded)
}

func TestExtractFragment(t *testing.T) {
	fragment := `<li><div class="base-card" data-entity-urn="urn:li:jobPosting:9">
	  <a class="base-card__full-link" href="https://site.example/jobs/view/sre-hooli-9?trk=guest"></a>
	  <h3 class="base-search-card__title">SRE</h3>
	  <h4 class="base-search-card__subtitle">Hooli</h4>
	</div></li>`

	ex, err := newTestEngine().Extract(context.Background(), models.RawContent{
		ContentType: models.ContentFragment,
		Body:        fragment,
	})
	require.NoError(t, err)
	require.Equal(t, ".base-card", ex.Container)
	require.Len(t, ex.Records, 1)
	require.Equal(t, "https://site.example/jobs/view/9/", ex.Records[0].URL)
}

func TestExtractFeed(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Jobs</title>
    <item>
      <title>Senior Engineer at Acme Corp</title>
      <link>https://site.example/jobs/view/senior-engineer-3891204?trk=rss</link>
      <pubDate>Tue, 27 Feb 2024 10:00:00 GMT</pubDate>
      <description>&lt;p&gt;Build things&lt;/p&gt;</description>
    </item>
    <item>
      <title>Senior Engineer</title>
      <link>https://site.example/jobs/view/senior-engineer-3891205?trk=rss</link>
    </item>
  </channel>
</rss>`

	ex, err := newTestEngine().Extract(context.Background(), models.RawContent{
		ContentType: models.ContentFeed,
		Body:        feed,
	})
	require.NoError(t, err)
	require.Len(t, ex.Records, 1)
	require.Equal(t, 1, ex.Discarded)

	job := ex.Records[0]
	require.Equal(t, "Senior Engineer", job.Title)
	require.Equal(t, "Acme Corp", job.Company)
	require.Equal(t, "https://site.example/jobs/view/3891204/", job.URL)
	require.Equal(t, "Build things", job.Description)
	require.Equal(t, 2024, job.PostedAt.Year())
}

func TestExtractFeedRejectsNonFeed(t *testing.T) {
	_, err := newTestEngine().Extract(context.Background(), models.RawContent{
		ContentType: models.ContentFeed,
		Body:        "this is not a feed",
	})
	require.True(t, errors.Is(err, ErrUnparseable))
}

func TestSplitFeedTitle(t *testing.T) {
	title, company, ok := SplitFeedTitle("Senior Engineer at Acme Corp")
	require.True(t, ok)
	require.Equal(t, "Senior Engineer", title)
	require.Equal(t, "Acme Corp", company)

	_, _, ok = SplitFeedTitle("Senior Engineer")
	require.False(t, ok)

	_, _, ok = SplitFeedTitle(" at Acme Corp")
	require.False(t, ok)
}

func TestExtractJSON(t *testing.T) {
	body := `{"elements": [
	  {"title": "QA Lead", "company": {"name": "Umbrella"}, "formattedLocation": "Remote", "url": "/jobs/view/qa-lead-77?x=1", "listedAt": 1709251200000},
	  {"title": "No Company"},
	  "garbage"
	]}`

	ex, err := newTestEngine().Extract(context.Background(), models.RawContent{
		ContentType: models.ContentJSON,
		Body:        body,
	})
	require.NoError(t, err)
	require.Len(t, ex.Records, 1)
	require.Equal(t, 2, ex.Discarded)

	job := ex.Records[0]
	require.Equal(t, "QA Lead", job.Title)
	require.Equal(t, "Umbrella", job.Company)
	require.Equal(t, "Remote", job.Location)
	require.Equal(t, "https://site.example/jobs/view/77/", job.URL)
	require.Equal(t, time.UnixMilli(1709251200000).UTC(), job.PostedAt)
}

func TestExtractJSONEnvelopeWithFragment(t *testing.T) {
	body := `{"html": "<div class=\"base-card\"><h3 class=\"base-search-card__title\">Dev</h3><h4 class=\"base-search-card__subtitle\">Acme</h4></div>"}`

	ex, err := newTestEngine().Extract(context.Background(), models.RawContent{
		ContentType: models.ContentJSON,
		Body:        body,
	})
	require.NoError(t, err)
	require.Len(t, ex.Records, 1)
	require.Equal(t, "Dev", ex.Records[0].Title)
}
