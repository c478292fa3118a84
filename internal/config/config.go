package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Logging     LoggingConfig
	RateLimit   RateLimitConfig
	Scheduler   SchedulerConfig
	Payment     PaymentConfig
	Storage     StorageConfig
	Opportunity OpportunityConfig
	Admin       AdminSeedConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	Environment     string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	URL             string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret         string
	AccessTokenExpiry time.Duration
	BCryptCost        int
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// RateLimitConfig configures the per-client token bucket
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// SchedulerConfig configures the plan expiration sweep
type SchedulerConfig struct {
	Enabled bool
	// Spec is a six-field cron expression (seconds first).
	Spec           string
	InitialDelay   time.Duration
	ReminderWindow time.Duration
	// Timezone is the IANA zone the cron spec is evaluated in
	Timezone string
}

// PaymentConfig configures the PIX payment flow
type PaymentConfig struct {
	RequestTTL      time.Duration
	MaxReceiptBytes int64
	// PIX receiver shown to payers
	PixKey         string
	PixKeyType     string
	PixBeneficiary string
}

// StorageConfig selects where uploaded receipts are kept
type StorageConfig struct {
	Backend       string // local, s3 or gcs
	LocalDir      string
	PublicBaseURL string
	S3            S3Config
	GCS           GCSConfig
}

// S3Config contains S3 receipt bucket settings
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// GCSConfig contains Cloud Storage receipt bucket settings
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	Prefix          string
}

// OpportunityConfig holds the opportunity board policy switches
type OpportunityConfig struct {
	NotifyOnReject         bool
	RejectSiblingsOnAccept bool
	MatchLimit             int
}

// AdminSeedConfig creates the first admin on startup when Email and
// Password are both set
type AdminSeedConfig struct {
	Email    string
	Password string
	Name     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "imovlocal"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./imovlocal.db"),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 24*time.Hour),
			BCryptCost:        getEnvAsInt("BCRYPT_COST", 12),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Scheduler: SchedulerConfig{
			Enabled:        getEnvAsBool("SCHEDULER_ENABLED", true),
			Spec:           getEnv("SCHEDULER_SPEC", "0 0 6 * * *"),
			InitialDelay:   getEnvAsDuration("SCHEDULER_INITIAL_DELAY", 60*time.Second),
			ReminderWindow: getEnvAsDuration("SCHEDULER_REMINDER_WINDOW", 5*24*time.Hour),
			Timezone:       getEnv("SCHEDULER_TIMEZONE", "America/Sao_Paulo"),
		},
		Payment: PaymentConfig{
			RequestTTL:      getEnvAsDuration("PAYMENT_REQUEST_TTL", 48*time.Hour),
			MaxReceiptBytes: getEnvAsInt64("PAYMENT_MAX_RECEIPT_BYTES", 10<<20),
			PixKey:          getEnv("PIX_KEY", ""),
			PixKeyType:      getEnv("PIX_KEY_TYPE", "Chave Aleatória"),
			PixBeneficiary:  getEnv("PIX_BENEFICIARY", "ImovLocal"),
		},
		Storage: StorageConfig{
			Backend:       getEnv("STORAGE_BACKEND", "local"),
			LocalDir:      getEnv("STORAGE_LOCAL_DIR", "./uploads/receipts"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "/uploads/receipts"),
			S3: S3Config{
				Bucket:          getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				Prefix:          getEnv("S3_PREFIX", "receipts/"),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
				Prefix:          getEnv("GCS_PREFIX", "receipts/"),
			},
		},
		Opportunity: OpportunityConfig{
			NotifyOnReject:         getEnvAsBool("OPPORTUNITY_NOTIFY_ON_REJECT", false),
			RejectSiblingsOnAccept: getEnvAsBool("OPPORTUNITY_REJECT_SIBLINGS", false),
			MatchLimit:             getEnvAsInt("OPPORTUNITY_MATCH_LIMIT", 100),
		},
		Admin: AdminSeedConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Administrador"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		c.Auth.JWTSecret = "dev-only-secret"
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage backend")
		}
	case "gcs":
		if c.Storage.GCS.Bucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs storage backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	if c.Payment.RequestTTL <= 0 {
		return fmt.Errorf("PAYMENT_REQUEST_TTL must be positive")
	}
	if c.Payment.MaxReceiptBytes <= 0 {
		return fmt.Errorf("PAYMENT_MAX_RECEIPT_BYTES must be positive")
	}
	if c.Opportunity.MatchLimit <= 0 {
		c.Opportunity.MatchLimit = 100
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
