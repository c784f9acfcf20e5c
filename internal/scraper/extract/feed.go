package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"job-pipeline-go/internal/models"
)

// feedTitleSeparator splits "<job title> at <company>" feed item titles.
const feedTitleSeparator = " at "

func (e *Engine) extractFeed(ctx context.Context, body string) (Extraction, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	var ex Extraction
	capturedAt := e.now()
	for _, item := range feed.Items {
		title, company, ok := SplitFeedTitle(item.Title)
		if !ok {
			ex.Discarded++
			continue
		}

		job := models.Job{
			Title:       title,
			Company:     company,
			Location:    strings.TrimSpace(item.Custom["location"]),
			URL:         CanonicalizeURL(ResolveURL(e.baseURL, item.Link)),
			PostedAt:    capturedAt,
			Description: stripTags(item.Description),
		}
		if item.PublishedParsed != nil {
			job.PostedAt = *item.PublishedParsed
		}
		ex.Records = append(ex.Records, job)
	}

	e.logger.DebugContext(ctx, "extracted feed items",
		"items", len(feed.Items),
		"records", len(ex.Records),
		"discarded", ex.Discarded,
	)
	return ex, nil
}

// SplitFeedTitle splits a feed item title on the first " at ". Titles
// without the separator, or with an empty side, cannot name a company.
func SplitFeedTitle(itemTitle string) (title, company string, ok bool) {
	left, right, found := strings.Cut(itemTitle, feedTitleSeparator)
	if !found {
		return "", "", false
	}
	title = strings.TrimSpace(left)
	company = strings.TrimSpace(right)
	return title, company, title != "" && company != ""
}

func stripTags(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return collapse(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	return collapse(nodeText(doc.Selection.Nodes[0]))
}
