package sources

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/models"
)

const (
	searchPath   = "/jobs/search"
	fragmentPath = "/jobs-guest/jobs/api/seeMoreJobPostings/search"
)

// Site describes the target site and the request settings shared by the
// networked strategies.
type Site struct {
	BaseURL          string
	UserAgent        string
	Referer          string
	AcceptLanguage   string
	PostedWithin     string
	RequestTimeout   time.Duration
	FragmentPageSize int
}

func SiteFromConfig(c config.ScraperConfig) Site {
	return Site{
		BaseURL:          strings.TrimRight(c.BaseURL, "/"),
		UserAgent:        c.UserAgent,
		Referer:          c.Referer,
		AcceptLanguage:   c.AcceptLanguage,
		PostedWithin:     c.PostedWithin,
		RequestTimeout:   c.RequestTimeout,
		FragmentPageSize: c.FragmentPageSize,
	}
}

// SearchURL builds the search-results page URL for q.
func (s Site) SearchURL(q models.Query) string {
	params := s.queryParams(q)
	params.Set("position", "1")
	params.Set("pageNum", strconv.Itoa(q.PageNumber))
	return s.BaseURL + searchPath + "?" + params.Encode()
}

// FragmentURL builds the progressive-loading endpoint URL for q. Pages are
// addressed by result offset rather than page number.
func (s Site) FragmentURL(q models.Query) string {
	params := s.queryParams(q)
	params.Set("start", strconv.Itoa(q.PageNumber*s.FragmentPageSize))
	return s.BaseURL + fragmentPath + "?" + params.Encode()
}

func (s Site) queryParams(q models.Query) url.Values {
	params := url.Values{}
	if q.Keywords != "" {
		params.Set("keywords", q.Keywords)
	}
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.RegionCode != "" {
		params.Set("geoId", q.RegionCode)
	}
	if s.PostedWithin != "" {
		params.Set("f_TPR", s.PostedWithin)
	}
	return params
}
