package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"assetrent-backend/internal/logger"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Identity  IdentityConfig  `yaml:"identity"`
	Revenue   RevenueConfig   `yaml:"revenue"`
	Redis     RedisConfig     `yaml:"redis"`
	Billing   BillingConfig   `yaml:"billing"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	SSLMode     string `yaml:"ssl_mode"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// StorageConfig selects the entity store backend
type StorageConfig struct {
	Type string `yaml:"type"` // "postgres" or "memory"
}

// JWTConfig contains bearer token settings
type JWTConfig struct {
	Secret            string   `yaml:"secret"`
	AccessTokenExpiry int      `yaml:"access_token_expiry_minutes"`
	PrivilegedRoles   []string `yaml:"privileged_roles"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// IdentityConfig controls asset identifier generation
type IdentityConfig struct {
	Prefix string `yaml:"prefix"`
}

// RevenueConfig controls the revenue sweep
type RevenueConfig struct {
	// BatchSize > 0 writes asset totals in batches committed one at a time.
	BatchSize      int    `yaml:"batch_size"`
	LockBackend    string `yaml:"lock_backend"` // "local", "postgres" or "redis"
	LockKey        string `yaml:"lock_key"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

// RedisConfig contains redis connection settings for the redis lock backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// BillingConfig contains monthly billing reminder settings
type BillingConfig struct {
	// ReminderDay is the day of month the reminder digest goes out; it is
	// clamped to the last day in shorter months.
	ReminderDay int `yaml:"reminder_day"`
}

// SMTPConfig contains email service settings. An empty host logs reminders
// instead of mailing them.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	RecomputeRevenue     string `yaml:"recompute_revenue"`
	SendBillingReminders string `yaml:"send_billing_reminders"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies environment overrides and validates it
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Identity
	if val := os.Getenv("ASSET_ID_PREFIX"); val != "" {
		c.Identity.Prefix = val
	}

	// Revenue
	if val := os.Getenv("REVENUE_BATCH_SIZE"); val != "" {
		fmt.Sscanf(val, "%d", &c.Revenue.BatchSize)
	}
	if val := os.Getenv("REVENUE_LOCK_BACKEND"); val != "" {
		c.Revenue.LockBackend = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Billing
	if val := os.Getenv("BILLING_REMINDER_DAY"); val != "" {
		fmt.Sscanf(val, "%d", &c.Billing.ReminderDay)
	}

	// SMTP
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.SMTP.User = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Storage validation
	if c.Storage.Type == "" {
		c.Storage.Type = "postgres"
	}
	switch c.Storage.Type {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if len(c.JWT.PrivilegedRoles) == 0 {
		c.JWT.PrivilegedRoles = []string{"admin", "superuser"}
	}

	// Identity defaults
	if c.Identity.Prefix == "" {
		c.Identity.Prefix = "AST"
	}
	if strings.ContainsAny(c.Identity.Prefix, "/ ") {
		return fmt.Errorf("identity prefix must not contain '/' or spaces: %q", c.Identity.Prefix)
	}

	// Revenue validation
	if c.Revenue.BatchSize < 0 {
		return fmt.Errorf("revenue batch size must not be negative: %d", c.Revenue.BatchSize)
	}
	if c.Revenue.LockBackend == "" {
		c.Revenue.LockBackend = "local"
	}
	switch c.Revenue.LockBackend {
	case "local":
	case "postgres":
		if c.Storage.Type != "postgres" {
			return fmt.Errorf("postgres lock backend requires postgres storage")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("unknown revenue lock backend: %s", c.Revenue.LockBackend)
	}
	if c.Revenue.LockKey == "" {
		c.Revenue.LockKey = "assetrent:revenue-sweep"
	}
	if c.Revenue.LockTTLSeconds == 0 {
		c.Revenue.LockTTLSeconds = 900
	}

	// Billing defaults
	if c.Billing.ReminderDay == 0 {
		c.Billing.ReminderDay = 5
	}
	if c.Billing.ReminderDay < 1 || c.Billing.ReminderDay > 31 {
		return fmt.Errorf("billing reminder day must be between 1 and 31: %d", c.Billing.ReminderDay)
	}

	// SMTP validation
	if c.SMTP.Host != "" {
		if c.SMTP.Port == 0 {
			c.SMTP.Port = 587
		}
		if c.SMTP.From == "" || c.SMTP.To == "" {
			return fmt.Errorf("smtp from and to addresses are required when smtp host is set")
		}
	}

	// Scheduler defaults
	if c.Scheduler.RecomputeRevenue == "" {
		c.Scheduler.RecomputeRevenue = "0 0 1 * * *" // 1 AM UTC
	}
	if c.Scheduler.SendBillingReminders == "" {
		c.Scheduler.SendBillingReminders = "0 0 9 * * *" // Daily at 9 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LockTTL returns the revenue lock lease duration
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Revenue.LockTTLSeconds) * time.Second
}

// LogConfig writes the effective configuration with secrets left out
func (c *Config) LogConfig(log *logger.Logger) {
	log.Info().
		Str("server", c.GetServerAddress()).
		Str("storage", c.Storage.Type).
		Str("db_host", c.Database.Host).
		Int("db_port", c.Database.Port).
		Str("db_name", c.Database.Database).
		Str("identity_prefix", c.Identity.Prefix).
		Int("revenue_batch_size", c.Revenue.BatchSize).
		Str("revenue_lock_backend", c.Revenue.LockBackend).
		Int("billing_reminder_day", c.Billing.ReminderDay).
		Str("smtp_host", c.SMTP.Host).
		Str("cron_recompute_revenue", c.Scheduler.RecomputeRevenue).
		Str("cron_billing_reminders", c.Scheduler.SendBillingReminders).
		Msg("Configuration loaded")
}
