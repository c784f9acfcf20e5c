package scraper

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"

	"job-pipeline-go/internal/models"
	"job-pipeline-go/internal/scraper/extract"
)

// Deduplicator drops records whose canonical URL was already seen. Records
// without a URL fall back to a title, company and location hash.
type Deduplicator struct {
	seenJobs map[string]bool
	mu       sync.RWMutex
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		seenJobs: make(map[string]bool),
	}
}

// RemoveDuplicates keeps the first record of each group, in encounter order
func (d *Deduplicator) RemoveDuplicates(jobs []models.Job) []models.Job {
	d.mu.Lock()
	defer d.mu.Unlock()

	var uniqueJobs []models.Job

	for _, job := range jobs {
		key := d.jobKey(job)

		if !d.seenJobs[key] {
			d.seenJobs[key] = true
			uniqueJobs = append(uniqueJobs, job)
		}
	}

	return uniqueJobs
}

// jobKey is the canonical URL, or a content hash when the URL is missing
func (d *Deduplicator) jobKey(job models.Job) string {
	if url := strings.TrimSpace(job.URL); url != "" {
		return "url:" + extract.CanonicalizeURL(url)
	}

	title := strings.ToLower(strings.TrimSpace(job.Title))
	company := strings.ToLower(strings.TrimSpace(job.Company))
	location := strings.ToLower(strings.TrimSpace(job.Location))

	key := fmt.Sprintf("%s|%s|%s", title, company, location)

	hash := md5.Sum([]byte(key))
	return fmt.Sprintf("hash:%x", hash)
}

// IsDuplicate checks if a job is a duplicate without adding it to the seen jobs
func (d *Deduplicator) IsDuplicate(job models.Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.seenJobs[d.jobKey(job)]
}

// Reset clears all seen jobs
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seenJobs = make(map[string]bool)
}

// GetSeenCount returns the number of distinct jobs seen
func (d *Deduplicator) GetSeenCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.seenJobs)
}
