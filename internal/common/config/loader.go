// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like APIFY_TOKEN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// 1️⃣ LOAD BASE CONFIG
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// 2️⃣ LOAD ENV CONFIG
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	// 3️⃣ EXPAND ENV PLACEHOLDERS
	expandEnvVars(viper.GetViper())

	// 4️⃣ Unmarshal final config
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	// 5️⃣ DIRECT OVERRIDE IF STILL EMPTY
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations
func loadEnvFile() {
	// Try multiple paths (for running from different directories)
	possiblePaths := []string{
		".env",          // Current directory
		"../.env",       // Parent directory
		"../../.env",    // Two levels up (for tests in test/e2e/)
		"../../../.env", // Three levels up
	}

	// Also try to find project root by looking for go.mod
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("✅ Loaded .env from: %s\n", path)
				return
			}
		}
	}

	fmt.Printf("⚠️  .env file not found in any location, using system environment variables\n")
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Walk up directories looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// Improved environment variable expansion
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		// Only process string values
		if strVal, ok := val.(string); ok {
			// Check if it contains environment variable pattern
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	// Apify
	if cfg.Scraper.Apify.Token == "" {
		if val := os.Getenv("APIFY_TOKEN"); val != "" {
			cfg.Scraper.Apify.Token = val
		}
	}
	if cfg.Scraper.Apify.ActorID == "" {
		if val := os.Getenv("APIFY_ACTOR_ID"); val != "" {
			cfg.Scraper.Apify.ActorID = val
		}
	}

	// WhoisJSON
	if cfg.Analyzer.WhoisJSON.APIKey == "" {
		if val := os.Getenv("WHOISJSON_API_KEY"); val != "" {
			cfg.Analyzer.WhoisJSON.APIKey = val
		}
	}

	// Slack webhook
	if cfg.Alerts.Slack.WebhookURL == "" {
		if val := os.Getenv("SLACK_WEBHOOK_URL"); val != "" {
			cfg.Alerts.Slack.WebhookURL = val
		}
	}

	// Database overrides
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile() // Load env file first

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Expand environment variables before unmarshal
	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Elasticsearch URL fallback
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Scraper defaults
	if cfg.Scraper.Source == "" {
		cfg.Scraper.Source = "sample"
	}
	if cfg.Scraper.Apify.BaseURL == "" {
		cfg.Scraper.Apify.BaseURL = "https://api.apify.com"
	}
	if cfg.Scraper.Apify.Timeout == 0 {
		cfg.Scraper.Apify.Timeout = 120000
	}
	if cfg.Scraper.ExpiredList.Timeout == 0 {
		cfg.Scraper.ExpiredList.Timeout = 30000
	}
	if cfg.Scraper.BatchLimit == 0 {
		cfg.Scraper.BatchLimit = 100
	}

	// Analyzer defaults
	if cfg.Analyzer.RDAPBaseURL == "" {
		cfg.Analyzer.RDAPBaseURL = "https://rdap.org"
	}
	if cfg.Analyzer.WaybackBaseURL == "" {
		cfg.Analyzer.WaybackBaseURL = "https://archive.org"
	}
	if cfg.Analyzer.Timeout == 0 {
		cfg.Analyzer.Timeout = 10000
	}
	if cfg.Analyzer.CacheTTL == 0 {
		cfg.Analyzer.CacheTTL = 86400
	}
	if cfg.Analyzer.Concurrency == 0 {
		cfg.Analyzer.Concurrency = 5
	}

	// Scoring defaults
	if cfg.Scoring.AcquisitionCost == 0 {
		cfg.Scoring.AcquisitionCost = 50
	}
	if cfg.Scoring.MinQualityScore == 0 {
		cfg.Scoring.MinQualityScore = 50
	}

	// Scheduler defaults: daily scrape at 09:00 UTC, weekly cleanup Sunday 02:00
	if cfg.Scheduler.ScrapeSpec == "" {
		cfg.Scheduler.ScrapeSpec = "0 9 * * *"
	}
	if cfg.Scheduler.CleanupSpec == "" {
		cfg.Scheduler.CleanupSpec = "0 2 * * 0"
	}
	if cfg.Scheduler.StaleAfterDays == 0 {
		cfg.Scheduler.StaleAfterDays = 30
	}

	// Alert defaults
	if cfg.Alerts.MaxDomainsEmail == 0 {
		cfg.Alerts.MaxDomainsEmail = 20
	}
	if cfg.Alerts.AWS.Region == "" {
		cfg.Alerts.AWS.Region = "us-east-1"
	}

	// Search defaults
	if cfg.Search.Index == "" {
		cfg.Search.Index = "domains"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Elasticsearch.Enabled &&
		len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when elasticsearch is enabled")
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when redis is enabled")
	}

	if cfg.Scraper.Source == "apify" && cfg.Scraper.Apify.Token == "" {
		return fmt.Errorf("scraper.apify.token is required when the apify source is selected")
	}

	if cfg.Alerts.AWS.SES.Enabled && cfg.Alerts.AWS.SES.FromEmail == "" {
		return fmt.Errorf("alerts.aws.ses.from_email is required when SES is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
