package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	supabase "github.com/nedpals/supabase-go"

	"job-pipeline-go/internal/models"
)

const (
	jobsTable      = "jobs"
	contactsTable  = "contact"
	locationsTable = "locations"
	batchSize      = 50
)

// SupabaseStore uses the nedpals/supabase-go SDK to persist jobs and contacts.
type SupabaseStore struct {
	client *supabase.Client
	logger *slog.Logger
}

// NewSupabaseStore creates a SupabaseStore. It reads SUPABASE_URL and SUPABASE_KEY
// from environment variables if empty values are provided.
func NewSupabaseStore(supabaseURL, supabaseKey string, logger *slog.Logger) (*SupabaseStore, error) {
	if supabaseURL == "" {
		supabaseURL = os.Getenv("SUPABASE_URL")
	}
	if supabaseKey == "" {
		supabaseKey = os.Getenv("SUPABASE_KEY")
	}
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided via args or SUPABASE_URL / SUPABASE_KEY env vars")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := supabase.CreateClient(supabaseURL, supabaseKey)
	return &SupabaseStore{client: client, logger: logger}, nil
}

// UpsertJobs inserts jobs whose URL is not stored yet. PostgREST has no
// ignore-duplicates insert through this SDK, so existing URLs are looked up
// first and only the rest are inserted.
func (s *SupabaseStore) UpsertJobs(ctx context.Context, jobs []models.Job) (UpsertResult, error) {
	unique, repeats := splitNew(jobs)
	result := UpsertResult{Duplicates: repeats}
	if len(unique) == 0 {
		return result, nil
	}

	now := time.Now()
	for i := range unique {
		if unique[i].ScrapedAt.IsZero() {
			unique[i].ScrapedAt = now
		}
	}

	for start := 0; start < len(unique); start += batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := start + batchSize
		if end > len(unique) {
			end = len(unique)
		}

		fresh, err := s.withoutExisting(unique[start:end])
		if err != nil {
			return result, err
		}
		result.Duplicates += (end - start) - len(fresh)
		if len(fresh) == 0 {
			continue
		}

		var inserted []models.Job
		if err := s.client.DB.From(jobsTable).Insert(fresh).Execute(&inserted); err != nil {
			s.logger.WarnContext(ctx, "batch insert failed, falling back to single inserts", "batch", len(fresh), "err", err)
			result.Inserted += s.insertOneByOne(ctx, fresh)
			continue
		}
		result.Inserted += len(fresh)
	}

	return result, nil
}

func (s *SupabaseStore) withoutExisting(batch []models.Job) ([]models.Job, error) {
	urls := make([]string, len(batch))
	for i, job := range batch {
		urls[i] = job.URL
	}

	var existing []struct {
		URL string `json:"url"`
	}
	if err := s.client.DB.From(jobsTable).Select("url").In("url", urls).Execute(&existing); err != nil {
		return nil, fmt.Errorf("lookup existing urls: %w", err)
	}

	stored := make(map[string]bool, len(existing))
	for _, row := range existing {
		stored[row.URL] = true
	}

	var fresh []models.Job
	for _, job := range batch {
		if !stored[job.URL] {
			fresh = append(fresh, job)
		}
	}
	return fresh, nil
}

func (s *SupabaseStore) insertOneByOne(ctx context.Context, jobs []models.Job) int {
	inserted := 0
	for _, job := range jobs {
		var results []models.Job
		if err := s.client.DB.From(jobsTable).Insert(job).Execute(&results); err != nil {
			s.logger.WarnContext(ctx, "insert failed", "title", job.Title, "company", job.Company, "url", job.URL, "err", err)
			continue
		}
		inserted++
	}
	return inserted
}

func (s *SupabaseStore) GetJobs(ctx context.Context) ([]models.Job, error) {
	var res []models.Job
	if err := s.client.DB.From(jobsTable).Select("*").Execute(&res); err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	return res, nil
}

func (s *SupabaseStore) JobsByCompany(ctx context.Context, company string) ([]models.Job, error) {
	var res []models.Job
	if err := s.client.DB.From(jobsTable).Select("*").Eq("company", company).Execute(&res); err != nil {
		return nil, fmt.Errorf("select jobs for %q: %w", company, err)
	}
	return res, nil
}

func (s *SupabaseStore) DeleteJobs(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = strconv.Itoa(id)
	}

	var res []models.Job
	if err := s.client.DB.From(jobsTable).Delete().In("id", values).Execute(&res); err != nil {
		return fmt.Errorf("delete jobs: %w", err)
	}
	return nil
}

func (s *SupabaseStore) Companies(ctx context.Context) ([]string, error) {
	var rows []struct {
		Company string `json:"company"`
	}
	if err := s.client.DB.From(jobsTable).Select("company").Execute(&rows); err != nil {
		return nil, fmt.Errorf("select companies: %w", err)
	}

	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Company
	}
	return distinctCompanies(names), nil
}

func (s *SupabaseStore) SaveContacts(ctx context.Context, contacts []models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	var res []models.Contact
	if err := s.client.DB.From(contactsTable).Insert(contacts).Execute(&res); err != nil {
		return fmt.Errorf("insert contacts: %w", err)
	}
	return nil
}

// Locations lists the search locations configured in the locations table.
func (s *SupabaseStore) Locations(ctx context.Context) ([]models.Location, error) {
	var res []models.Location
	if err := s.client.DB.From(locationsTable).Select("name", "geoid").Execute(&res); err != nil {
		return nil, fmt.Errorf("select locations: %w", err)
	}
	return res, nil
}
