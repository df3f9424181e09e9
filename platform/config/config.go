// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSecretKey = "dev-key-please-change-in-production"

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// CRMConfig provides Salesforce connection settings.
type CRMConfig interface {
	GetSFLoginURL() string
	GetSFInstanceURL() string
	GetSFAPIVersion() string
	GetSFClientID() string
	GetSFClientSecret() string
	GetSFUsername() string
	GetSFPassword() string
	GetSFSecurityToken() string
}

// AIConfig provides settings for the LLM-backed agents.
type AIConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetOpenAIModel() string
	IsAIEnabled() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailProvider() string
	GetSendGridAPIKey() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetDashboardPageSize() int
}

// SessionConfig provides settings for the signed draft batch cookie.
type SessionConfig interface {
	GetSecretKey() string
	GetBatchCookieName() string
	GetBatchCookieSecure() bool
}

// SchedulerConfig provides settings for the Redis-backed task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// PollerConfig provides settings for the opportunity score poller.
type PollerConfig interface {
	GetPollInterval() time.Duration
	GetPollErrorBackoff() time.Duration
	GetPollWindow() time.Duration
	GetPollConcurrency() int
	IsPollerEmbedded() bool
}

// DraftConfig provides settings for follow-up email drafting.
type DraftConfig interface {
	GetDraftTTL() time.Duration
	GetStaleAfterDays() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	DashboardPageSize int

	SFLoginURL      string
	SFInstanceURL   string
	SFAPIVersion    string
	SFClientID      string
	SFClientSecret  string
	SFUsername      string
	SFPassword      string
	SFSecurityToken string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	EmailEnabled     bool
	EmailProvider    string
	SendGridAPIKey   string
	EmailFromName    string
	EmailFromAddress string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string

	SecretKey         string
	BatchCookieName   string
	BatchCookieSecure bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	PollInterval     time.Duration
	PollErrorBackoff time.Duration
	PollWindow       time.Duration
	PollConcurrency  int
	PollerEmbedded   bool

	DraftTTL       time.Duration
	StaleAfterDays int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// CRMConfig implementation
func (c *Config) GetSFLoginURL() string      { return c.SFLoginURL }
func (c *Config) GetSFInstanceURL() string   { return c.SFInstanceURL }
func (c *Config) GetSFAPIVersion() string    { return c.SFAPIVersion }
func (c *Config) GetSFClientID() string      { return c.SFClientID }
func (c *Config) GetSFClientSecret() string  { return c.SFClientSecret }
func (c *Config) GetSFUsername() string      { return c.SFUsername }
func (c *Config) GetSFPassword() string      { return c.SFPassword }
func (c *Config) GetSFSecurityToken() string { return c.SFSecurityToken }

// AIConfig implementation
func (c *Config) GetOpenAIAPIKey() string  { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIBaseURL() string { return c.OpenAIBaseURL }
func (c *Config) GetOpenAIModel() string   { return c.OpenAIModel }
func (c *Config) IsAIEnabled() bool        { return c.OpenAIAPIKey != "" }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetEmailProvider() string    { return c.EmailProvider }
func (c *Config) GetSendGridAPIKey() string   { return c.SendGridAPIKey }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool   { return c.CORSAllowCreds }
func (c *Config) GetDashboardPageSize() int { return c.DashboardPageSize }

// SessionConfig implementation
func (c *Config) GetSecretKey() string       { return c.SecretKey }
func (c *Config) GetBatchCookieName() string { return c.BatchCookieName }
func (c *Config) GetBatchCookieSecure() bool { return c.BatchCookieSecure }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// PollerConfig implementation
func (c *Config) GetPollInterval() time.Duration     { return c.PollInterval }
func (c *Config) GetPollErrorBackoff() time.Duration { return c.PollErrorBackoff }
func (c *Config) GetPollWindow() time.Duration       { return c.PollWindow }
func (c *Config) GetPollConcurrency() int            { return c.PollConcurrency }
func (c *Config) IsPollerEmbedded() bool             { return c.PollerEmbedded }

// DraftConfig implementation
func (c *Config) GetDraftTTL() time.Duration { return c.DraftTTL }
func (c *Config) GetStaleAfterDays() int     { return c.StaleAfterDays }

// UsesDevSecret reports whether SECRET_KEY fell back to the development default.
func (c *Config) UsesDevSecret() bool { return c.SecretKey == devSecretKey }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8080"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	env := getEnv("APP_ENV", "development")
	provider := strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid")))
	sendGridAPIKey := getEnv("SENDGRID_API_KEY", "")
	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")
	switch provider {
	case "smtp":
		emailEnabled = emailEnabled && smtpHost != ""
	default:
		emailEnabled = emailEnabled && sendGridAPIKey != ""
	}

	batchCookieSecure := strings.EqualFold(getEnv("BATCH_COOKIE_SECURE", ""), "true")
	if getEnv("BATCH_COOKIE_SECURE", "") == "" {
		batchCookieSecure = strings.EqualFold(env, "production")
	}

	cfg := &Config{
		Env:               env,
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		DashboardPageSize: mustPositiveInt(getEnv("DASHBOARD_PAGE_SIZE", "10"), 10),
		SFLoginURL:        getEnv("SF_LOGIN_URL", "https://login.salesforce.com"),
		SFInstanceURL:     getEnv("SF_INSTANCE_URL", ""),
		SFAPIVersion:      getEnv("SF_API_VERSION", "v59.0"),
		SFClientID:        getEnv("SF_CLIENT_ID", ""),
		SFClientSecret:    getEnv("SF_CLIENT_SECRET", ""),
		SFUsername:        getEnv("SF_USERNAME", ""),
		SFPassword:        getEnv("SF_PASSWORD", ""),
		SFSecurityToken:   firstNonEmpty(getEnv("SF_SECURITY_TOKEN", ""), getEnv("SF_TOKEN", "")),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		EmailEnabled:      emailEnabled,
		EmailProvider:     provider,
		SendGridAPIKey:    sendGridAPIKey,
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Propensia AI"),
		EmailFromAddress:  firstNonEmpty(getEnv("EMAIL_FROM_ADDRESS", ""), getEnv("SENDGRID_FROM_EMAIL", "")),
		SMTPHost:          smtpHost,
		SMTPPort:          mustPositiveInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SecretKey:         getEnv("SECRET_KEY", devSecretKey),
		BatchCookieName:   getEnv("BATCH_COOKIE_NAME", "propensia_drafts"),
		BatchCookieSecure: batchCookieSecure,
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:  mustPositiveInt(getEnv("ASYNQ_CONCURRENCY", "4"), 4),
		PollInterval:      mustDuration(getEnv("POLL_INTERVAL", "5m"), 5*time.Minute),
		PollErrorBackoff:  mustDuration(getEnv("POLL_ERROR_BACKOFF", "1m"), time.Minute),
		PollWindow:        mustDuration(getEnv("POLL_WINDOW", "0s"), 0),
		PollConcurrency:   mustPositiveInt(getEnv("POLL_CONCURRENCY", "4"), 4),
		PollerEmbedded:    !strings.EqualFold(getEnv("POLLER_EMBEDDED", "true"), "false"),
		DraftTTL:          mustDuration(getEnv("DRAFT_TTL", "1h"), time.Hour),
		StaleAfterDays:    mustPositiveInt(getEnv("STALE_AFTER_DAYS", "7"), 7),
	}

	if cfg.SFUsername == "" || cfg.SFPassword == "" {
		return nil, fmt.Errorf("SF_USERNAME and SF_PASSWORD are required")
	}
	if cfg.SFClientID == "" || cfg.SFClientSecret == "" {
		return nil, fmt.Errorf("SF_CLIENT_ID and SF_CLIENT_SECRET are required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func mustDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func mustPositiveInt(value string, fallback int) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || result <= 0 {
		return fallback
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
