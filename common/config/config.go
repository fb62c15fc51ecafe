package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Record store backends
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

// Storage providers
const (
	ProviderBlob = "blob"
	ProviderCDN  = "cdn"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Store     StoreConfig
	Storage   StorageConfig
	Upload    UploadConfig
	Security  SecurityConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Version     string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// StoreConfig selects and configures the metadata document backend
type StoreConfig struct {
	Backend   string // file | memory | redis | badger | postgres
	DataFile  string
	BadgerDir string
	RedisKey  string
}

// StorageConfig selects the binary storage provider
type StorageConfig struct {
	Provider   string // blob | cdn
	S3         S3Config
	Cloudinary CloudinaryConfig
}

// S3Config holds blob store settings (any S3-compatible endpoint)
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	KeyPrefix       string
	PublicURL       string
	UsePathStyle    bool
}

// CloudinaryConfig holds CDN settings
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// UploadConfig holds upload validation limits
type UploadConfig struct {
	MaxFileSize     int64
	MaxBulkFiles    int
	AllowedTypes    []string
	BulkConcurrency int
}

// SecurityConfig holds the shared secret and CORS allow-list
type SecurityConfig struct {
	APIKey      string
	CORSOrigins []string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RateLimitConfig holds upload rate limit settings
type RateLimitConfig struct {
	Enabled      bool
	PerMinute    int64
	GlobalPerMin int64
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// DefaultAllowedTypes are the mimetypes accepted for upload
var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/avif",
	"image/gif",
	"image/svg+xml",
}

// Load loads configuration from environment variables, after merging an
// optional .env file (missing files are ignored)
func Load(serviceName string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return FromViper(serviceName, v)
}

// FromViper builds a Config from an already populated viper instance
func FromViper(serviceName string, v *viper.Viper) (*Config, error) {
	provider := strings.ToLower(v.GetString("STORAGE_PROVIDER"))
	if provider == "" {
		provider = ProviderBlob
		if v.GetBool("USE_CLOUDINARY") {
			provider = ProviderCDN
		}
	}

	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Version:     v.GetString("SERVICE_VERSION"),
			Port:        v.GetInt("PORT"),
			Environment: v.GetString("ENVIRONMENT"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			LogFormat:   v.GetString("LOG_FORMAT"),
		},
		Store: StoreConfig{
			Backend:   strings.ToLower(v.GetString("STORE_BACKEND")),
			DataFile:  v.GetString("DATA_FILE"),
			BadgerDir: v.GetString("BADGER_DIR"),
			RedisKey:  v.GetString("REDIS_STORE_KEY"),
		},
		Storage: StorageConfig{
			Provider: provider,
			S3: S3Config{
				Endpoint:        v.GetString("S3_ENDPOINT"),
				AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
				SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
				Bucket:          v.GetString("S3_BUCKET"),
				Region:          v.GetString("S3_REGION"),
				KeyPrefix:       v.GetString("S3_KEY_PREFIX"),
				PublicURL:       strings.TrimRight(v.GetString("S3_PUBLIC_URL"), "/"),
				UsePathStyle:    v.GetBool("S3_USE_PATH_STYLE"),
			},
			Cloudinary: CloudinaryConfig{
				CloudName: v.GetString("CLOUDINARY_NAME"),
				APIKey:    v.GetString("CLOUDINARY_KEY"),
				APISecret: v.GetString("CLOUDINARY_SECRET"),
				Folder:    v.GetString("CLOUDINARY_FOLDER"),
			},
		},
		Upload: UploadConfig{
			MaxFileSize:     v.GetInt64("MAX_UPLOAD_SIZE"),
			MaxBulkFiles:    v.GetInt("MAX_BULK_FILES"),
			AllowedTypes:    splitList(v.GetString("ALLOWED_TYPES"), DefaultAllowedTypes),
			BulkConcurrency: v.GetInt("BULK_CONCURRENCY"),
		},
		Security: SecurityConfig{
			APIKey:      v.GetString("API_KEY"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS"), []string{"http://localhost:3000"}),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("POSTGRES_HOST"),
			Port:        v.GetInt("POSTGRES_PORT"),
			Database:    v.GetString("POSTGRES_DB"),
			User:        v.GetString("POSTGRES_USER"),
			Password:    v.GetString("POSTGRES_PASSWORD"),
			MaxConns:    v.GetInt("POSTGRES_MAX_CONNS"),
			MinConns:    v.GetInt("POSTGRES_MIN_CONNS"),
			MaxIdleTime: v.GetDuration("POSTGRES_MAX_IDLE_TIME"),
			MaxLifetime: v.GetDuration("POSTGRES_MAX_LIFETIME"),
		},
		RateLimit: RateLimitConfig{
			Enabled:      v.GetBool("RATE_LIMIT_ENABLED"),
			PerMinute:    v.GetInt64("RATE_LIMIT_PER_MINUTE"),
			GlobalPerMin: v.GetInt64("RATE_LIMIT_GLOBAL_PER_MINUTE"),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: v.GetBool("ENABLE_PPROF"),
			PprofPort:   v.GetInt("PPROF_PORT"),
		},
	}

	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_VERSION", "1.0.0")
	v.SetDefault("PORT", 8080)
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("STORE_BACKEND", StoreFile)
	v.SetDefault("DATA_FILE", "./data/images.json")
	v.SetDefault("BADGER_DIR", "./data/badger")
	v.SetDefault("REDIS_STORE_KEY", "imagestore:images")

	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_BUCKET", "images")
	v.SetDefault("S3_USE_PATH_STYLE", true)
	v.SetDefault("CLOUDINARY_FOLDER", "pml-images")

	v.SetDefault("MAX_UPLOAD_SIZE", 20*1024*1024) // 20MB
	v.SetDefault("MAX_BULK_FILES", 10)
	v.SetDefault("BULK_CONCURRENCY", 4)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_DB", "imagestore")
	v.SetDefault("POSTGRES_USER", "imagestore")
	v.SetDefault("POSTGRES_PASSWORD", "imagestore")
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_MIN_CONNS", 1)
	v.SetDefault("POSTGRES_MAX_IDLE_TIME", 30*time.Minute)
	v.SetDefault("POSTGRES_MAX_LIFETIME", time.Hour)

	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("RATE_LIMIT_GLOBAL_PER_MINUTE", 300)

	v.SetDefault("ENABLE_PPROF", false)
	v.SetDefault("PPROF_PORT", 6060)
}

// Defaults returns a Config populated only from defaults, ignoring the
// environment. Used by tests and as a base for WithCustomConfig.
func Defaults(serviceName string) *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := FromViper(serviceName, v)
	return cfg
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	switch c.Store.Backend {
	case StoreFile:
		if c.Store.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for the file store")
		}
	case StoreMemory, StoreRedis, StorePostgres:
	case StoreBadger:
		if c.Store.BadgerDir == "" {
			return fmt.Errorf("BADGER_DIR is required for the badger store")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}

	switch c.Storage.Provider {
	case ProviderBlob:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the blob provider")
		}
	case ProviderCDN:
		// credentials are checked when the provider is built so that
		// check-config can report every problem at once
	default:
		return fmt.Errorf("unknown storage provider: %q", c.Storage.Provider)
	}

	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	if c.Upload.MaxBulkFiles <= 0 {
		return fmt.Errorf("MAX_BULK_FILES must be positive")
	}
	if c.Upload.BulkConcurrency <= 0 {
		return fmt.Errorf("BULK_CONCURRENCY must be positive")
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return fmt.Errorf("ALLOWED_TYPES must not be empty")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// NeedsRedis reports whether any component talks to Redis
func (c *Config) NeedsRedis() bool {
	return c.Store.Backend == StoreRedis || c.RateLimit.Enabled
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Service.Environment == "development"
}

// splitList parses a comma separated list, dropping blanks
func splitList(value string, defaultValue []string) []string {
	if strings.TrimSpace(value) == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
