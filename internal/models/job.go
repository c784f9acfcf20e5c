package models

import "time"

// Job is a normalized job posting. URL is the identity key used for dedup and upserts.
type Job struct {
	ID              int       `json:"id,omitempty"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location,omitempty"`
	URL             string    `json:"url"`
	Source          string    `json:"source"`
	PostedAt        time.Time `json:"posted_at"`
	ScrapedAt       time.Time `json:"scrapped_at,omitempty"`
	Description     string    `json:"description,omitempty"`
	EmploymentType  string    `json:"employment_type,omitempty"`
	Salary          string    `json:"salary,omitempty"`
	Benefits        string    `json:"benefits,omitempty"`
	CompanySize     string    `json:"company_size,omitempty"`
	CompanyIndustry string    `json:"company_industry,omitempty"`
	CompanyDomain   string    `json:"company_domain,omitempty"`
	IsRemote        *bool     `json:"is_remote,omitempty"`
	Industry        string    `json:"industry,omitempty"`
}

// Valid reports whether the job carries the fields required for persistence.
func (j Job) Valid() bool {
	return j.Title != "" && j.Company != ""
}

// Remote returns the remote flag, treating an unset flag as false.
func (j Job) Remote() bool {
	return j.IsRemote != nil && *j.IsRemote
}
