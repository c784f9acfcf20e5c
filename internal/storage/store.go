package storage

import (
	"context"
	"strings"

	"job-pipeline-go/internal/models"
)

// UpsertResult counts what an upsert did. Duplicates covers both rows that
// already existed and repeats within the batch.
type UpsertResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}

// Store is the persistence sink. Jobs are keyed by URL and upserts ignore
// rows whose URL is already stored.
type Store interface {
	UpsertJobs(ctx context.Context, jobs []models.Job) (UpsertResult, error)
	GetJobs(ctx context.Context) ([]models.Job, error)
	JobsByCompany(ctx context.Context, company string) ([]models.Job, error)
	DeleteJobs(ctx context.Context, ids ...int) error
	Companies(ctx context.Context) ([]string, error)
	SaveContacts(ctx context.Context, contacts []models.Contact) error
	Locations(ctx context.Context) ([]models.Location, error)
}

// splitNew drops jobs without a URL and repeats within the batch, keeping
// the first of each. The second return value counts what was dropped as a repeat.
func splitNew(jobs []models.Job) ([]models.Job, int) {
	seen := make(map[string]bool, len(jobs))
	unique := make([]models.Job, 0, len(jobs))
	repeats := 0
	for _, job := range jobs {
		if job.URL == "" {
			continue
		}
		if seen[job.URL] {
			repeats++
			continue
		}
		seen[job.URL] = true
		unique = append(unique, job)
	}
	return unique, repeats
}

// distinctCompanies returns non-empty company names in first-seen order,
// comparing case-insensitively.
func distinctCompanies(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}
