// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// Addr returns the host:port pair the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Specific Configuration Sections ---

// ScraperConfig holds settings for the expired-domain sources.
type ScraperConfig struct {
	Source string `mapstructure:"source"` // apify | expiredlist | sample

	Apify       ApifyConfig       `mapstructure:"apify"`
	ExpiredList ExpiredListConfig `mapstructure:"expired_list"`

	BatchLimit int `mapstructure:"batch_limit"`
}

type ApifyConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
	ActorID string `mapstructure:"actor_id"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type ExpiredListConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// AnalyzerConfig holds settings for the RDAP/Wayback/WhoisJSON enrichment.
type AnalyzerConfig struct {
	RDAPBaseURL    string `mapstructure:"rdap_base_url"`
	WaybackBaseURL string `mapstructure:"wayback_base_url"`
	WhoisJSON      WhoisJSONConfig `mapstructure:"whoisjson"`
	Timeout     int `mapstructure:"timeout"`       // milliseconds
	CacheTTL    int `mapstructure:"cache_ttl"`     // seconds
	Concurrency int `mapstructure:"concurrency"`   // pipeline worker count
	MaxCacheAge int `mapstructure:"max_cache_age"` // seconds, 0 means CacheTTL
}

type WhoisJSONConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// ScoringConfig mirrors the explicit engine configuration so deployments can
// tune thresholds without a rebuild. Zero values fall back to the engine
// defaults.
type ScoringConfig struct {
	AcquisitionCost float64 `mapstructure:"acquisition_cost"`
	MinQualityScore float64 `mapstructure:"min_quality_score"`
}

// SchedulerConfig holds the cron expressions for the background jobs.
type SchedulerConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	ScrapeSpec       string `mapstructure:"scrape_spec"`
	CleanupSpec      string `mapstructure:"cleanup_spec"`
	StaleAfterDays   int    `mapstructure:"stale_after_days"`
	RunScrapeOnStart bool   `mapstructure:"run_scrape_on_start"`
}

// AlertsConfig holds settings for alert delivery.
type AlertsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	MaxDomainsEmail int  `mapstructure:"max_domains_per_email"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`

	Slack struct {
		Enabled    bool   `mapstructure:"enabled"`
		WebhookURL string `mapstructure:"webhook_url"`
	} `mapstructure:"slack"`
}

// SearchConfig holds settings for the Elasticsearch index.
type SearchConfig struct {
	Index string `mapstructure:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
