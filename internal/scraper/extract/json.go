package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"job-pipeline-go/internal/models"
)

// keyCascade is the JSON counterpart of a selector cascade: the first key
// present with a non-empty value wins.
type keyCascade []string

var (
	jsonHTMLKeys     = keyCascade{"html", "content", "contents", "body"}
	jsonListKeys     = keyCascade{"elements", "jobs", "results", "data", "items"}
	jsonTitleKeys    = keyCascade{"title", "jobTitle", "job_title", "position"}
	jsonCompanyKeys  = keyCascade{"company", "companyName", "company_name"}
	jsonLocationKeys = keyCascade{"location", "formattedLocation", "location_name"}
	jsonURLKeys      = keyCascade{"url", "jobPostingUrl", "link", "href"}
	jsonDescKeys     = keyCascade{"description", "snippet"}
	jsonTypeKeys     = keyCascade{"employmentType", "employment_type", "jobType"}
	jsonSalaryKeys   = keyCascade{"salary", "formattedSalary"}
	jsonPostedKeys   = keyCascade{"postedAt", "listedAt", "posted_at", "publishedAt"}
)

func (e *Engine) extractJSON(ctx context.Context, body string) (Extraction, error) {
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		// Some endpoints wrap an HTML fragment in a JSON envelope.
		if fragment := jsonHTMLKeys.stringFrom(v); fragment != "" {
			return e.Extract(ctx, models.RawContent{ContentType: models.ContentFragment, Body: fragment})
		}
		for _, key := range jsonListKeys {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
	}

	var ex Extraction
	capturedAt := e.now()
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			ex.Discarded++
			continue
		}
		job := models.Job{
			Title:          jsonTitleKeys.stringFrom(obj),
			Company:        jsonCompanyKeys.stringFrom(obj),
			Location:       jsonLocationKeys.stringFrom(obj),
			URL:            CanonicalizeURL(ResolveURL(e.baseURL, jsonURLKeys.stringFrom(obj))),
			Description:    jsonDescKeys.stringFrom(obj),
			EmploymentType: jsonTypeKeys.stringFrom(obj),
			Salary:         jsonSalaryKeys.stringFrom(obj),
			PostedAt:       jsonPostedAt(obj, capturedAt),
		}
		if !job.Valid() {
			ex.Discarded++
			continue
		}
		ex.Records = append(ex.Records, job)
	}

	e.logger.DebugContext(ctx, "extracted json items",
		"items", len(items),
		"records", len(ex.Records),
		"discarded", ex.Discarded,
	)
	return ex, nil
}

// stringFrom reads the first non-empty string among keys. Nested objects
// contribute their "name" field, which is how company objects are shaped.
func (keys keyCascade) stringFrom(obj map[string]any) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			if name, ok := v["name"].(string); ok && strings.TrimSpace(name) != "" {
				return strings.TrimSpace(name)
			}
		}
	}
	return ""
}

// jsonPostedAt accepts epoch milliseconds or a formatted timestamp.
func jsonPostedAt(obj map[string]any, capturedAt time.Time) time.Time {
	for _, key := range jsonPostedKeys {
		switch v := obj[key].(type) {
		case float64:
			if v > 0 {
				return time.UnixMilli(int64(v)).UTC()
			}
		case string:
			if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
				return time.UnixMilli(ms).UTC()
			}
			if t := parsePostedAt(v, time.Time{}); !t.IsZero() {
				return t
			}
		}
	}
	return capturedAt
}
