package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/titanous/json5"

	"job-pipeline-go/internal/models"
)

// Config holds the application configuration
type Config struct {
	Database   DatabaseConfig   `json:"database"`
	Scraper    ScraperConfig    `json:"scraper"`
	Pipeline   PipelineConfig   `json:"pipeline"`
	Relay      RelayConfig      `json:"relay"`
	Headless   HeadlessConfig   `json:"headless"`
	Contacts   ContactsConfig   `json:"contacts"`
	Batch      BatchConfig      `json:"batch"`
	Monitoring MonitoringConfig `json:"monitoring"`
}

// DatabaseConfig selects and configures the persistence sink
type DatabaseConfig struct {
	Driver      string `json:"driver"` // supabase or postgres
	SupabaseURL string `json:"supabase_url"`
	SupabaseKey string `json:"supabase_key"`
	PostgresURL string `json:"postgres_url"`
}

// ScraperConfig holds the target site and outbound request settings
type ScraperConfig struct {
	SiteName         string        `json:"site_name"`
	BaseURL          string        `json:"base_url"`
	RequestTimeout   time.Duration `json:"request_timeout"`
	UserAgent        string        `json:"user_agent"`
	Referer          string        `json:"referer"`
	AcceptLanguage   string        `json:"accept_language"`
	CloudflareBypass bool          `json:"cloudflare_bypass"`
	PostedWithin     string        `json:"posted_within"` // f_TPR filter, e.g. r86400
	FragmentPageSize int           `json:"fragment_page_size"`
}

// PipelineConfig controls the fallback orchestrator
type PipelineConfig struct {
	Deadline       time.Duration         `json:"deadline"`
	DefaultCascade []models.StrategyName `json:"default_cascade"`
	Mode           string                `json:"mode"` // first-success or collect-all
}

// RelayConfig lists relay endpoint templates and the relay retry policy.
// Templates use {url} for the raw target and {encoded_url} for the query-escaped target.
type RelayConfig struct {
	Endpoints     []string      `json:"endpoints"`
	RetryAttempts int           `json:"retry_attempts"`
	RetryDelay    time.Duration `json:"retry_delay"`
	Timeout       time.Duration `json:"timeout"`
}

// HeadlessConfig configures the browser-rendered strategy
type HeadlessConfig struct {
	Enabled         bool          `json:"enabled"`
	BrowserBin      string        `json:"browser_bin"`
	NavigateTimeout time.Duration `json:"navigate_timeout"`
	ResultsSelector string        `json:"results_selector"`
	SelectorWait    time.Duration `json:"selector_wait"`
	LoginURL        string        `json:"login_url"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	ViewportWidth   int           `json:"viewport_width"`
	ViewportHeight  int           `json:"viewport_height"`
}

// ContactsConfig configures the contact-lookup service
type ContactsConfig struct {
	APIKey         string        `json:"api_key"`
	BaseURL        string        `json:"base_url"`
	RequestsPerMin int           `json:"requests_per_min"`
	Concurrency    int           `json:"concurrency"`
	RedisURL       string        `json:"redis_url"`
	DomainCacheTTL time.Duration `json:"domain_cache_ttl"`
}

// BatchConfig drives the scheduled location sweep
type BatchConfig struct {
	Schedule     string            `json:"schedule"`
	Keywords     string            `json:"keywords"`
	Method       string            `json:"method"`
	Locations    []models.Location `json:"locations"`
	PauseBetween time.Duration     `json:"pause_between"`
	Enrich       bool              `json:"enrich"`
}

// MonitoringConfig holds logging configuration
type MonitoringConfig struct {
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:      "supabase",
			SupabaseURL: os.Getenv("SUPABASE_URL"),
			SupabaseKey: os.Getenv("SUPABASE_KEY"),
			PostgresURL: os.Getenv("DATABASE_URL"),
		},
		Scraper: ScraperConfig{
			SiteName:         "linkedin",
			BaseURL:          "https://www.linkedin.com",
			RequestTimeout:   10 * time.Second,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Referer:          "https://www.linkedin.com/",
			AcceptLanguage:   "en-US,en;q=0.5",
			PostedWithin:     "r86400",
			FragmentPageSize: 25,
		},
		Pipeline: PipelineConfig{
			Deadline: 2 * time.Minute,
			DefaultCascade: []models.StrategyName{
				models.StrategyRelay,
				models.StrategyFeed,
				models.StrategyFragment,
				models.StrategyDirect,
				models.StrategySimple,
				models.StrategyHeadless,
			},
			Mode: "first-success",
		},
		Relay: RelayConfig{
			Endpoints: []string{
				"https://api.allorigins.win/get?url={encoded_url}",
				"https://cors-anywhere.herokuapp.com/{url}",
				"https://api.codetabs.com/v1/proxy?quest={url}",
			},
			RetryAttempts: 3,
			RetryDelay:    5 * time.Second,
			Timeout:       30 * time.Second,
		},
		Headless: HeadlessConfig{
			Enabled:         true,
			NavigateTimeout: 60 * time.Second,
			ResultsSelector: ".jobs-search__results-list",
			SelectorWait:    10 * time.Second,
			LoginURL:        "https://www.linkedin.com/login",
			Username:        os.Getenv("LINKEDIN_USERNAME"),
			Password:        os.Getenv("LINKEDIN_PASSWORD"),
			ViewportWidth:   1280,
			ViewportHeight:  800,
		},
		Contacts: ContactsConfig{
			APIKey:         os.Getenv("HUNTER_API_KEY"),
			BaseURL:        "https://api.hunter.io/v2",
			RequestsPerMin: 15,
			Concurrency:    3,
			RedisURL:       os.Getenv("REDIS_URL"),
			DomainCacheTTL: 7 * 24 * time.Hour,
		},
		Batch: BatchConfig{
			Schedule:     "@every 6h",
			Keywords:     "Developer",
			Method:       "default",
			PauseBetween: 30 * time.Second,
		},
		Monitoring: MonitoringConfig{
			LogLevel: "info",
		},
	}
}

// LoadConfig loads configuration from a JSON or JSON5 file
func LoadConfig(filename string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := json5.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides file values with environment variables when they are set
func (c *Config) ApplyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Database.SupabaseURL, "SUPABASE_URL")
	setString(&c.Database.SupabaseKey, "SUPABASE_KEY")
	setString(&c.Database.PostgresURL, "DATABASE_URL")
	setString(&c.Database.Driver, "SINK_DRIVER")
	setString(&c.Contacts.APIKey, "HUNTER_API_KEY")
	setString(&c.Contacts.RedisURL, "REDIS_URL")
	setString(&c.Headless.Username, "LINKEDIN_USERNAME")
	setString(&c.Headless.Password, "LINKEDIN_PASSWORD")

	if v := os.Getenv("PIPELINE_DEADLINE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PIPELINE_DEADLINE must be a duration, got %q: %w", v, err)
		}
		c.Pipeline.Deadline = d
	}

	if v := os.Getenv("RELAY_ENDPOINTS"); v != "" {
		var endpoints []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				endpoints = append(endpoints, e)
			}
		}
		c.Relay.Endpoints = endpoints
	}

	return nil
}

// SaveConfig saves configuration to a JSON file
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Validate validates the pipeline-side configuration
func (c *Config) Validate() error {
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper base URL is required")
	}

	if c.Pipeline.Deadline <= 0 {
		return fmt.Errorf("pipeline deadline must be positive")
	}

	if len(c.Pipeline.DefaultCascade) == 0 {
		return fmt.Errorf("default cascade must name at least one strategy")
	}

	switch c.Pipeline.Mode {
	case "first-success", "collect-all":
	default:
		return fmt.Errorf("unknown pipeline mode %q", c.Pipeline.Mode)
	}

	if c.Relay.RetryAttempts < 1 {
		return fmt.Errorf("relay retry attempts must be at least 1")
	}

	if c.Relay.RetryDelay < 0 {
		return fmt.Errorf("relay retry delay cannot be negative")
	}

	if c.Scraper.FragmentPageSize <= 0 {
		return fmt.Errorf("fragment page size must be positive")
	}

	return nil
}

// ValidateSink checks that the configured persistence sink has credentials
func (c *Config) ValidateSink() error {
	switch c.Database.Driver {
	case "supabase":
		if c.Database.SupabaseURL == "" {
			return fmt.Errorf("supabase URL is required")
		}
		if c.Database.SupabaseKey == "" {
			return fmt.Errorf("supabase key is required")
		}
	case "postgres":
		if c.Database.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required")
		}
	default:
		return fmt.Errorf("unknown sink driver %q", c.Database.Driver)
	}
	return nil
}

// ValidateContacts checks the contact-lookup settings used by enrichment
func (c *Config) ValidateContacts() error {
	if c.Contacts.APIKey == "" {
		return fmt.Errorf("contact lookup API key is required")
	}
	if c.Contacts.RequestsPerMin <= 0 {
		return fmt.Errorf("contact lookup rate must be positive")
	}
	if c.Contacts.Concurrency <= 0 {
		return fmt.Errorf("contact lookup concurrency must be positive")
	}
	return nil
}
