// Package contacts talks to the contact-lookup service: a domain-search API
// that maps a company name to its web domain and a domain to the people
// published for it.
package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/models"
)

type domainSearchResponse struct {
	Data struct {
		Domain       string        `json:"domain"`
		Organization string        `json:"organization"`
		Country      string        `json:"country"`
		State        string        `json:"state"`
		City         string        `json:"city"`
		Industry     string        `json:"industry"`
		Emails       []hunterEmail `json:"emails"`
	} `json:"data"`
}

type hunterEmail struct {
	Value       string `json:"value"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Department  string `json:"department"`
	Position    string `json:"position"`
	LinkedinURL string `json:"linkedin_url"`
	PhoneNumber string `json:"phone_number"`
}

// Options configures a HunterClient.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// Cache, when set, remembers company domains for CacheTTL.
	Cache    DomainCache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// OptionsFromConfig reads the lookup settings out of cfg.
func OptionsFromConfig(cfg config.ContactsConfig, cache DomainCache, logger *slog.Logger) Options {
	return Options{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Timeout:  30 * time.Second,
		Cache:    cache,
		CacheTTL: cfg.DomainCacheTTL,
		Logger:   logger,
	}
}

// HunterClient implements company domain lookup and contact search against
// a Hunter-style domain-search endpoint.
type HunterClient struct {
	client *resty.Client
	apiKey string
	cache  DomainCache
	ttl    time.Duration
	logger *slog.Logger
}

func NewHunterClient(opts Options) *HunterClient {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Accept", "application/json")

	return &HunterClient{
		client: client,
		apiKey: opts.APIKey,
		cache:  opts.Cache,
		ttl:    opts.CacheTTL,
		logger: opts.Logger,
	}
}

// FindDomain returns the web domain of company, or "" when the service
// knows none.
func (h *HunterClient) FindDomain(ctx context.Context, company string) (string, error) {
	if h.cache != nil {
		domain, ok, err := h.cache.Get(ctx, company)
		switch {
		case err != nil:
			h.logger.WarnContext(ctx, "domain cache read failed", "company", company, "err", err)
		case ok:
			return domain, nil
		}
	}

	var body domainSearchResponse
	if err := h.search(ctx, "company", company, &body); err != nil {
		return "", fmt.Errorf("find domain for %q: %w", company, err)
	}

	domain := strings.TrimSpace(body.Data.Domain)
	if domain != "" && h.cache != nil {
		if err := h.cache.Set(ctx, company, domain, h.ttl); err != nil {
			h.logger.WarnContext(ctx, "domain cache write failed", "company", company, "err", err)
		}
	}
	return domain, nil
}

// FindContacts returns the people the service lists for domain. An empty
// list is a normal answer.
func (h *HunterClient) FindContacts(ctx context.Context, domain string) ([]models.Contact, error) {
	var body domainSearchResponse
	if err := h.search(ctx, "domain", domain, &body); err != nil {
		return nil, fmt.Errorf("find contacts for %q: %w", domain, err)
	}

	data := body.Data
	contacts := make([]models.Contact, 0, len(data.Emails))
	for _, email := range data.Emails {
		contacts = append(contacts, models.Contact{
			EmailAddress: email.Value,
			DomainName:   domain,
			Organization: data.Organization,
			Country:      data.Country,
			State:        data.State,
			City:         data.City,
			FirstName:    email.FirstName,
			LastName:     email.LastName,
			Department:   email.Department,
			Position:     email.Position,
			LinkedinURL:  email.LinkedinURL,
			PhoneNumber:  email.PhoneNumber,
			Industry:     data.Industry,
		})
	}
	return contacts, nil
}

func (h *HunterClient) search(ctx context.Context, param, value string, out *domainSearchResponse) error {
	res, err := h.client.R().
		SetContext(ctx).
		SetQueryParam(param, value).
		SetQueryParam("api_key", h.apiKey).
		SetResult(out).
		Get("/domain-search")
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("domain search returned status %d", res.StatusCode())
	}
	return nil
}
