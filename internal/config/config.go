package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the client and the devserver
type Config struct {
	Client   ClientConfig
	Session  SessionConfig
	Redis    RedisConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	CORS     CORSConfig
	Log      LogConfig
}

type ClientConfig struct {
	APIURL   string
	Timeout  time.Duration
	PageSize int
}

type SessionConfig struct {
	Backend string // "file" or "redis"
	Path    string
}

type RedisConfig struct {
	URL    string
	Prefix string
}

type ServerConfig struct {
	Port    string
	Env     string
	BaseURL string
	// RequireVerification blocks login until the email token is consumed.
	RequireVerification bool
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

type StorageConfig struct {
	Type            string // "local" or "s3"
	UploadDir       string
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level string
}

const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

// Load reads configuration from environment variables and overlays the
// optional YAML file named by SKILLSWAP_CONFIG.
func Load() (*Config, error) {
	home := homeDir()

	timeout, err := parseDuration("SKILLSWAP_HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	accessExpiry, err := parseDuration("JWT_ACCESS_EXPIRY", "24h")
	if err != nil {
		return nil, err
	}
	pageSize, err := strconv.Atoi(getEnv("SKILLSWAP_PAGE_SIZE", "6"))
	if err != nil {
		return nil, fmt.Errorf("invalid SKILLSWAP_PAGE_SIZE: %w", err)
	}

	port := getEnv("PORT", "8080")
	cfg := &Config{
		Client: ClientConfig{
			APIURL:   getEnv("SKILLSWAP_API_URL", "http://localhost:8080"),
			Timeout:  timeout,
			PageSize: pageSize,
		},
		Session: SessionConfig{
			Backend: getEnv("SKILLSWAP_SESSION_BACKEND", SessionBackendFile),
			Path:    getEnv("SKILLSWAP_SESSION_PATH", filepath.Join(home, ".skillswap", "session.json")),
		},
		Redis: RedisConfig{
			URL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			Prefix: getEnv("SKILLSWAP_REDIS_PREFIX", "skillswap:"),
		},
		Server: ServerConfig{
			Port:                port,
			Env:                 getEnv("ENV", "development"),
			BaseURL:             getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
			RequireVerification: getEnv("REQUIRE_EMAIL_VERIFICATION", "true") == "true",
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-me-in-production"),
			AccessExpiry: accessExpiry,
		},
		Storage: StorageConfig{
			Type:            getEnv("STORAGE_TYPE", "local"),
			UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
			Bucket:          getEnv("R2_BUCKET_NAME", ""),
			Region:          getEnv("R2_REGION", "auto"),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseCSV(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	path, explicit := os.LookupEnv("SKILLSWAP_CONFIG")
	if !explicit {
		path = filepath.Join(home, ".skillswap", "config.yaml")
	}
	if err := cfg.overlayFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig is the YAML overlay. Only fields present in the file apply.
type fileConfig struct {
	APIURL      *string `yaml:"api_url"`
	HTTPTimeout *string `yaml:"http_timeout"`
	PageSize    *int    `yaml:"page_size"`
	Session     struct {
		Backend *string `yaml:"backend"`
		Path    *string `yaml:"path"`
	} `yaml:"session"`
	Redis struct {
		URL    *string `yaml:"url"`
		Prefix *string `yaml:"prefix"`
	} `yaml:"redis"`
	Log struct {
		Level *string `yaml:"level"`
	} `yaml:"log"`
}

func (c *Config) overlayFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.Client.APIURL, fc.APIURL)
	setString(&c.Session.Backend, fc.Session.Backend)
	setString(&c.Session.Path, fc.Session.Path)
	setString(&c.Redis.URL, fc.Redis.URL)
	setString(&c.Redis.Prefix, fc.Redis.Prefix)
	setString(&c.Log.Level, fc.Log.Level)
	if fc.PageSize != nil {
		c.Client.PageSize = *fc.PageSize
	}
	if fc.HTTPTimeout != nil {
		d, err := time.ParseDuration(*fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout in %s: %w", path, err)
		}
		c.Client.Timeout = d
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Client.APIURL) == "" {
		return errors.New("api url must not be empty")
	}
	if c.Client.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.Client.PageSize)
	}
	if c.Client.Timeout < 0 {
		return errors.New("http timeout must not be negative")
	}
	switch c.Session.Backend {
	case SessionBackendFile, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// getEnv gets an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	if raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parseCSV parses a comma-separated string into a slice of strings
func parseCSV(value string) []string {
	var result []string
	for _, s := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
