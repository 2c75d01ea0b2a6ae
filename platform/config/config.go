// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetWebhookAPIKey() string
}

// DirectoryConfig provides settings for the company directory.
type DirectoryConfig interface {
	GetSMTPEncryptionKey() []byte
}

// MailConfig provides settings for rendering and sending mail.
type MailConfig interface {
	GetMailTemplatesDir() string
}

// SettlementConfig provides settings for settlement sheet generation.
type SettlementConfig interface {
	GetSettlementDir() string
}

// ArchiveConfig provides settings for the MinIO archive store.
type ArchiveConfig interface {
	GetArchiveEndpoint() string
	GetArchiveAccessKey() string
	GetArchiveSecretKey() string
	GetArchiveUseSSL() bool
	GetArchiveBucket() string
	GetArchiveFolder() string
	IsArchiveEnabled() bool
}

// CRMConfig provides settings for the upstream CRM form sync.
type CRMConfig interface {
	GetCRMBaseURL() string
	GetCRMAppKey() string
	GetCRMAppSecret() string
	GetCRMSystemToken() string
	GetCRMAppType() string
	GetCRMProjectFormUUID() string
	GetCRMUserID() string
	IsCRMEnabled() bool
}

// CCPolicyConfig provides settings for the compliance CC rule.
type CCPolicyConfig interface {
	GetComplianceCC() []string
	GetComplianceCCAliases() []string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	MigrationsDir       string
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueue          string
	AsynqConcurrency    int
	CORSAllowAll        bool
	CORSOrigins         []string
	WebhookAPIKey       string
	SMTPEncryptionKey   []byte
	MailTemplatesDir    string
	SettlementDir       string
	ArchiveEndpoint     string
	ArchiveAccessKey    string
	ArchiveSecretKey    string
	ArchiveUseSSL       bool
	ArchiveBucket       string
	ArchiveFolder       string
	CRMBaseURL          string
	CRMAppKey           string
	CRMAppSecret        string
	CRMSystemToken      string
	CRMAppType          string
	CRMProjectFormUUID  string
	CRMUserID           string
	ComplianceCC        []string
	ComplianceCCAliases []string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueue }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetWebhookAPIKey() string { return c.WebhookAPIKey }

// DirectoryConfig implementation
func (c *Config) GetSMTPEncryptionKey() []byte { return c.SMTPEncryptionKey }

// MailConfig implementation
func (c *Config) GetMailTemplatesDir() string { return c.MailTemplatesDir }

// SettlementConfig implementation
func (c *Config) GetSettlementDir() string   { return c.SettlementDir }

// ArchiveConfig implementation
func (c *Config) GetArchiveEndpoint() string  { return c.ArchiveEndpoint }
func (c *Config) GetArchiveAccessKey() string { return c.ArchiveAccessKey }
func (c *Config) GetArchiveSecretKey() string { return c.ArchiveSecretKey }
func (c *Config) GetArchiveUseSSL() bool      { return c.ArchiveUseSSL }
func (c *Config) GetArchiveBucket() string    { return c.ArchiveBucket }
func (c *Config) GetArchiveFolder() string    { return c.ArchiveFolder }
func (c *Config) IsArchiveEnabled() bool      { return c.ArchiveEndpoint != "" }

// CRMConfig implementation
func (c *Config) GetCRMBaseURL() string         { return c.CRMBaseURL }
func (c *Config) GetCRMAppKey() string          { return c.CRMAppKey }
func (c *Config) GetCRMAppSecret() string       { return c.CRMAppSecret }
func (c *Config) GetCRMSystemToken() string     { return c.CRMSystemToken }
func (c *Config) GetCRMAppType() string         { return c.CRMAppType }
func (c *Config) GetCRMProjectFormUUID() string { return c.CRMProjectFormUUID }
func (c *Config) GetCRMUserID() string          { return c.CRMUserID }
func (c *Config) IsCRMEnabled() bool            { return c.CRMBaseURL != "" && c.CRMAppKey != "" }

// CCPolicyConfig implementation
func (c *Config) GetComplianceCC() []string        { return c.ComplianceCC }
func (c *Config) GetComplianceCCAliases() []string { return c.ComplianceCCAliases }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var smtpKey []byte
	if raw := getEnv("SMTP_ENCRYPTION_KEY", ""); raw != "" {
		decoded, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("SMTP_ENCRYPTION_KEY must be hex-encoded: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("SMTP_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		smtpKey = decoded
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "migrations"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:          getEnv("ASYNQ_QUEUE", "mailchain"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		CORSAllowAll:        strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "")),
		WebhookAPIKey:       getEnv("WEBHOOK_API_KEY", ""),
		SMTPEncryptionKey:   smtpKey,
		MailTemplatesDir:    getEnv("MAIL_TEMPLATES_DIR", "templates/mail"),
		SettlementDir:       getEnv("SETTLEMENT_DIR", "settlements"),
		ArchiveEndpoint:     getEnv("ARCHIVE_ENDPOINT", ""),
		ArchiveAccessKey:    getEnv("ARCHIVE_ACCESS_KEY", ""),
		ArchiveSecretKey:    getEnv("ARCHIVE_SECRET_KEY", ""),
		ArchiveUseSSL:       strings.EqualFold(getEnv("ARCHIVE_USE_SSL", "false"), "true"),
		ArchiveBucket:       getEnv("ARCHIVE_BUCKET", "settlements"),
		ArchiveFolder:       getEnv("ARCHIVE_FOLDER", "JZ/中港模式结算单"),
		CRMBaseURL:          getEnv("CRM_BASE_URL", ""),
		CRMAppKey:           getEnv("CRM_APP_KEY", ""),
		CRMAppSecret:        getEnv("CRM_APP_SECRET", ""),
		CRMSystemToken:      getEnv("CRM_SYSTEM_TOKEN", ""),
		CRMAppType:          getEnv("CRM_APP_TYPE", ""),
		CRMProjectFormUUID:  getEnv("CRM_PROJECT_FORM_UUID", ""),
		CRMUserID:           getEnv("CRM_USER_ID", ""),
		ComplianceCC:        splitCSV(getEnv("COMPLIANCE_CC", "")),
		ComplianceCCAliases: splitCSV(getEnv("COMPLIANCE_CC_ALIASES", "B,C")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.WebhookAPIKey == "" {
		return nil, fmt.Errorf("WEBHOOK_API_KEY is required")
	}
	if cfg.AsynqConcurrency < 1 {
		cfg.AsynqConcurrency = 10
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
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
