package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-pipeline-go/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id               SERIAL PRIMARY KEY,
	title            TEXT NOT NULL,
	company          TEXT NOT NULL,
	location         TEXT,
	url              TEXT NOT NULL UNIQUE,
	source           TEXT,
	posted_at        TIMESTAMPTZ,
	scrapped_at      TIMESTAMPTZ,
	description      TEXT,
	employment_type  TEXT,
	salary           TEXT,
	benefits         TEXT,
	company_size     TEXT,
	company_industry TEXT,
	company_domain   TEXT,
	is_remote        BOOLEAN,
	industry         TEXT
);

CREATE TABLE IF NOT EXISTS contact (
	id            SERIAL PRIMARY KEY,
	first_name    TEXT,
	last_name     TEXT,
	email_address TEXT,
	domain_name   TEXT,
	department    TEXT,
	position      TEXT,
	organization  TEXT,
	country       TEXT,
	state         TEXT,
	city          TEXT,
	linkedin_url  TEXT,
	phone_number  TEXT,
	industry      TEXT
);

CREATE TABLE IF NOT EXISTS locations (
	name  TEXT PRIMARY KEY,
	geoid TEXT NOT NULL
);`

const jobColumns = `id, title, company, location, url, source, posted_at, scrapped_at, description,
	employment_type, salary, benefits, company_size, company_industry, company_domain, is_remote, industry`

// PostgresStore persists to a Postgres database through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore creates and verifies a pgxpool connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the jobs, contact and locations tables if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// UpsertJobs inserts each job, letting the url unique constraint reject
// rows that already exist.
func (s *PostgresStore) UpsertJobs(ctx context.Context, jobs []models.Job) (UpsertResult, error) {
	unique, repeats := splitNew(jobs)
	result := UpsertResult{Duplicates: repeats}

	now := time.Now()
	for _, job := range unique {
		if job.ScrapedAt.IsZero() {
			job.ScrapedAt = now
		}

		tag, err := s.pool.Exec(ctx,
			`INSERT INTO jobs (title, company, location, url, source, posted_at, scrapped_at, description,
			                   employment_type, salary, benefits, company_size, company_industry, company_domain,
			                   is_remote, industry)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			 ON CONFLICT (url) DO NOTHING`,
			job.Title, job.Company, job.Location, job.URL, job.Source, job.PostedAt, job.ScrapedAt, job.Description,
			job.EmploymentType, job.Salary, job.Benefits, job.CompanySize, job.CompanyIndustry, job.CompanyDomain,
			job.IsRemote, job.Industry,
		)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.WarnContext(ctx, "insert failed", "title", job.Title, "company", job.Company, "url", job.URL, "err", err)
			continue
		}

		if tag.RowsAffected() == 0 {
			result.Duplicates++
		} else {
			result.Inserted++
		}
	}

	return result, nil
}

func (s *PostgresStore) GetJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	return collectJobs(rows)
}

func (s *PostgresStore) JobsByCompany(ctx context.Context, company string) ([]models.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE company = $1 ORDER BY id`, company)
	if err != nil {
		return nil, fmt.Errorf("query jobs for %q: %w", company, err)
	}
	return collectJobs(rows)
}

func (s *PostgresStore) DeleteJobs(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete jobs: %w", err)
	}
	return nil
}

func (s *PostgresStore) Companies(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT company FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan companies: %w", err)
	}
	return distinctCompanies(names), nil
}

func (s *PostgresStore) SaveContacts(ctx context.Context, contacts []models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range contacts {
		batch.Queue(
			`INSERT INTO contact (first_name, last_name, email_address, domain_name, department, position,
			                       organization, country, state, city, linkedin_url, phone_number, industry)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			c.FirstName, c.LastName, c.EmailAddress, c.DomainName, c.Department, c.Position,
			c.Organization, c.Country, c.State, c.City, c.LinkedinURL, c.PhoneNumber, c.Industry,
		)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert contacts: %w", err)
	}
	return nil
}

// Locations lists the search locations configured in the locations table.
func (s *PostgresStore) Locations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, geoid FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	locations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Location, error) {
		var l models.Location
		err := row.Scan(&l.Name, &l.GeoID)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan locations: %w", err)
	}
	return locations, nil
}

func collectJobs(rows pgx.Rows) ([]models.Job, error) {
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		var j models.Job
		var location, source, description, employmentType, salary, benefits *string
		var companySize, companyIndustry, companyDomain, industry *string
		var postedAt, scrapedAt *time.Time
		if err := rows.Scan(
			&j.ID, &j.Title, &j.Company, &location, &j.URL, &source, &postedAt, &scrapedAt, &description,
			&employmentType, &salary, &benefits, &companySize, &companyIndustry, &companyDomain,
			&j.IsRemote, &industry,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		j.Location = deref(location)
		j.Source = deref(source)
		j.Description = deref(description)
		j.EmploymentType = deref(employmentType)
		j.Salary = deref(salary)
		j.Benefits = deref(benefits)
		j.CompanySize = deref(companySize)
		j.CompanyIndustry = deref(companyIndustry)
		j.CompanyDomain = deref(companyDomain)
		j.Industry = deref(industry)
		if postedAt != nil {
			j.PostedAt = *postedAt
		}
		if scrapedAt != nil {
			j.ScrapedAt = *scrapedAt
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
