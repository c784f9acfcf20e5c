package models

// Contact is a person record returned by the contact-lookup service.
type Contact struct {
	ID           int    `json:"id,omitempty"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
	DomainName   string `json:"domain_name"`
	Department   string `json:"department,omitempty"`
	Position     string `json:"position,omitempty"`
	Organization string `json:"organization,omitempty"`
	Country      string `json:"country,omitempty"`
	State        string `json:"state,omitempty"`
	City         string `json:"city,omitempty"`
	LinkedinURL  string `json:"linkedin_url,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Industry     string `json:"industry,omitempty"`
}

// Location is a search location paired with the site's region code.
type Location struct {
	Name  string `json:"name"`
	GeoID string `json:"geoid"`
}
