package models

import (
	"fmt"
	"time"
)

// Query describes one search against the target site.
type Query struct {
	Keywords   string `json:"keywords"`
	Location   string `json:"location"`
	RegionCode string `json:"region_code,omitempty"`
	PageNumber int    `json:"page_number"`
}

// Validate rejects queries that no strategy could serve.
func (q Query) Validate() error {
	if q.Keywords == "" && q.Location == "" {
		return fmt.Errorf("query needs keywords or a location")
	}
	if q.PageNumber < 0 {
		return fmt.Errorf("page number cannot be negative: %d", q.PageNumber)
	}
	return nil
}

// StrategyName identifies an acquisition strategy.
type StrategyName string

const (
	StrategyRelay        StrategyName = "relay"
	StrategyFeed         StrategyName = "feed"
	StrategyFragment     StrategyName = "fragment"
	StrategyHeadless     StrategyName = "headless"
	StrategyHeadlessAuth StrategyName = "headless-auth"
	StrategyDirect       StrategyName = "direct"
	StrategySimple       StrategyName = "simple"
)

// ContentType declares the shape of fetched content so the extractor
// can pick the matching selector set.
type ContentType string

const (
	ContentSearchPage ContentType = "html-search-page"
	ContentFeed       ContentType = "html-feed"
	ContentFragment   ContentType = "html-fragment"
	ContentJSON       ContentType = "json"
)

// RawContent is what a strategy hands to the extractor. It is never persisted.
type RawContent struct {
	Strategy    StrategyName
	ContentType ContentType
	Body        string
	FetchedAt   time.Time
}
