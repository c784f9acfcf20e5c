package scraper

import (
	"fmt"
	"strings"
	"time"

	"job-pipeline-go/internal/models"
)

// remotePhrases flag a posting as remote when found in its title, location
// or description.
var remotePhrases = []string{"remote", "work from home", "wfh"}

// industryKeywords is scanned in order against the description; the first
// keyword found decides the industry.
var industryKeywords = []struct {
	Keyword  string
	Industry string
}{
	{"healthcare", "Healthcare"},
	{"health care", "Healthcare"},
	{"medical", "Healthcare"},
	{"hospital", "Healthcare"},
	{"pharma", "Healthcare"},
	{"fintech", "Finance"},
	{"banking", "Finance"},
	{"insurance", "Finance"},
	{"finance", "Finance"},
	{"edtech", "Education"},
	{"education", "Education"},
	{"university", "Education"},
	{"e-commerce", "Retail"},
	{"ecommerce", "Retail"},
	{"retail", "Retail"},
	{"manufacturing", "Manufacturing"},
	{"automotive", "Manufacturing"},
	{"logistics", "Logistics"},
	{"supply chain", "Logistics"},
	{"software", "Technology"},
	{"saas", "Technology"},
	{"cloud", "Technology"},
	{"technology", "Technology"},
}

// Normalizer fills the derived fields of extracted records.
type Normalizer struct {
	site string
}

func NewNormalizer(site string) *Normalizer {
	return &Normalizer{site: site}
}

// Normalize sets source, capture time, remote flag and industry on every
// record. It returns a new slice and leaves jobs untouched.
func (n *Normalizer) Normalize(jobs []models.Job, q models.Query, scrapedAt time.Time) []models.Job {
	source := SourceLabel(n.site, q.Location)

	out := make([]models.Job, len(jobs))
	for i, job := range jobs {
		job.Source = source
		if job.ScrapedAt.IsZero() {
			job.ScrapedAt = scrapedAt
		}
		remote := IsRemote(job)
		job.IsRemote = &remote
		if job.Industry == "" {
			job.Industry = Industry(job.Description)
		}
		out[i] = job
	}
	return out
}

// SourceLabel tags records with the site and, when known, the searched location.
func SourceLabel(site, location string) string {
	if location == "" {
		return site
	}
	if site == "" {
		return location
	}
	return fmt.Sprintf("%s (%s)", site, location)
}

// IsRemote reports whether any remote phrase appears in the title, location
// or description, ignoring case.
func IsRemote(job models.Job) bool {
	for _, field := range []string{job.Title, job.Location, job.Description} {
		lower := strings.ToLower(field)
		for _, phrase := range remotePhrases {
			if strings.Contains(lower, phrase) {
				return true
			}
		}
	}
	return false
}

// Industry returns the industry of the first keyword found in description,
// or "" when none match.
func Industry(description string) string {
	lower := strings.ToLower(description)
	for _, k := range industryKeywords {
		if strings.Contains(lower, k.Keyword) {
			return k.Industry
		}
	}
	return ""
}
