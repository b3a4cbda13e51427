package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `toml:"host"`
	Port               string `toml:"port"`
	User               string `toml:"user"`
	Password           string `toml:"password"`
	Name               string `toml:"name"`
	SSLMode            string `toml:"sslmode"`
	MaxOpenConns       int    `toml:"max_open_conns"`
	MaxIdleConns       int    `toml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `toml:"conn_max_lifetime_sec"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// StorageConfig controls attachment handling on top of the object store.
type StorageConfig struct {
	// PublicEndpoint and Project form the attachment view URL:
	// {PublicEndpoint}/storage/buckets/{bucket}/files/{fileId}/view?project={Project}
	PublicEndpoint string `toml:"public_endpoint"`
	Project        string `toml:"project"`
	// MaxUploadSize is a human-readable size such as "10MB".
	MaxUploadSize string `toml:"max_upload_size"`
	// PurgeReplaced deletes blobs a document stops referencing.
	PurgeReplaced    bool `toml:"purge_replaced"`
	PresignExpirySec int  `toml:"presign_expiry_sec"`
}

// MaxUploadBytes parses MaxUploadSize. Zero means unlimited.
func (c StorageConfig) MaxUploadBytes() (int64, error) {
	if c.MaxUploadSize == "" {
		return 0, nil
	}
	n, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max upload size %q: %w", c.MaxUploadSize, err)
	}
	return n, nil
}

// AuthConfig holds session and credential policy.
type AuthConfig struct {
	JWTSecret         string   `toml:"jwt_secret"`
	SessionTTL        Duration `toml:"session_ttl"`
	RetryBackoff      Duration `toml:"retry_backoff"`
	MaxFailedAttempts int      `toml:"max_failed_attempts"`
	LockoutDuration   Duration `toml:"lockout_duration"`
}

// Duration is a time.Duration written as "90s" or "1h30m" in TOML files.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ClientConfig holds settings of the terminal client.
type ClientConfig struct {
	TokenDBPath string `toml:"token_db_path"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from an optional TOML file and then from environment variables.
// Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string         `toml:"app_host"`
	Port     string         `toml:"port"`
	LogLevel string         `toml:"log_level"`
	Database DatabaseConfig `toml:"database"`
	MinIO    MinIOConfig    `toml:"minio"`
	Storage  StorageConfig  `toml:"storage"`
	Auth     AuthConfig     `toml:"auth"`
	Client   ClientConfig   `toml:"client"`
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// If CONFIG_FILE names a TOML file, its values replace the defaults first;
// real environment variables still take precedence.
func Load() (*AppConfig, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		AppHost:  "localhost:8080",
		Port:     "8080",
		LogLevel: "info",
		Database: DatabaseConfig{
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
		Storage: StorageConfig{
			PublicEndpoint:   "http://localhost:8080",
			Project:          "dokubox",
			MaxUploadSize:    "10MB",
			PresignExpirySec: 900,
		},
		Auth: AuthConfig{
			SessionTTL:        Duration(30 * 24 * time.Hour),
			RetryBackoff:      Duration(1500 * time.Millisecond),
			MaxFailedAttempts: 5,
			LockoutDuration:   Duration(time.Minute),
		},
		Client: ClientConfig{
			TokenDBPath: "dokubox.db",
		},
	}
}

func (c *AppConfig) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	c.AppHost = getEnv("APP_HOST", c.AppHost)
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", c.Database.ConnMaxLifetimeSec)

	c.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", c.MinIO.Endpoint)
	c.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIO.AccessKey)
	c.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", c.MinIO.SecretKey)
	c.MinIO.Bucket = getEnv("MINIO_BUCKET", c.MinIO.Bucket)
	c.MinIO.UseSSL = getEnvBool("MINIO_USE_SSL", c.MinIO.UseSSL)

	c.Storage.PublicEndpoint = getEnv("STORAGE_PUBLIC_ENDPOINT", c.Storage.PublicEndpoint)
	c.Storage.Project = getEnv("STORAGE_PROJECT", c.Storage.Project)
	c.Storage.MaxUploadSize = getEnv("STORAGE_MAX_UPLOAD_SIZE", c.Storage.MaxUploadSize)
	c.Storage.PurgeReplaced = getEnvBool("STORAGE_PURGE_REPLACED", c.Storage.PurgeReplaced)
	c.Storage.PresignExpirySec = getEnvInt("STORAGE_PRESIGN_EXPIRY_SEC", c.Storage.PresignExpirySec)

	c.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.SessionTTL = getEnvDuration("AUTH_SESSION_TTL", c.Auth.SessionTTL)
	c.Auth.RetryBackoff = getEnvDuration("AUTH_RETRY_BACKOFF", c.Auth.RetryBackoff)
	c.Auth.MaxFailedAttempts = getEnvInt("AUTH_MAX_FAILED_ATTEMPTS", c.Auth.MaxFailedAttempts)
	c.Auth.LockoutDuration = getEnvDuration("AUTH_LOCKOUT_DURATION", c.Auth.LockoutDuration)

	c.Client.TokenDBPath = getEnv("CLIENT_TOKEN_DB", c.Client.TokenDBPath)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def Duration) Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return Duration(d)
		}
	}
	return def
}
