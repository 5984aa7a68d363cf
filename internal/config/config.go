package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissing is wrapped by Load when a required setting is absent.
var ErrMissing = errors.New("missing required configuration")

// Excerpt lengths used when TRUNCATE_LIMIT is not set.
const (
	DefaultReadOnlyTruncateLimit = 500
	DefaultUploadTruncateLimit   = 300
)

// Config is the resolved dashboard configuration.
type Config struct {
	HTTPPort   int
	PageTitle  string
	SessionTTL time.Duration

	ResultsEndpoint string
	TruncateLimit   int

	UploadEnabled   bool
	UploadBucket    string
	CredentialsFile string
	StorageLocation string
}

type configFile struct {
	Service struct {
		HTTPPort          int    `yaml:"http_port"`
		PageTitle         string `yaml:"page_title"`
		SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
	} `yaml:"service"`
	Results struct {
		Endpoint      string `yaml:"endpoint"`
		TruncateLimit int    `yaml:"truncate_limit"`
	} `yaml:"results"`
	Upload struct {
		Enabled         *bool  `yaml:"enabled"`
		Bucket          string `yaml:"bucket"`
		CredentialsFile string `yaml:"credentials_file"`
		Location        string `yaml:"location"`
	} `yaml:"upload"`
}

// Load builds the configuration from defaults, the optional YAML file at path, and
// environment variables, in that order of precedence. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Config{
		HTTPPort:   8501,
		PageTitle:  "Smart Invoice Analysis",
		SessionTTL: 12 * time.Hour,
	}
	fileLimit := 0

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.PageTitle != "" {
			cfg.PageTitle = f.Service.PageTitle
		}
		if f.Service.SessionTTLMinutes > 0 {
			cfg.SessionTTL = time.Duration(f.Service.SessionTTLMinutes) * time.Minute
		}
		cfg.ResultsEndpoint = f.Results.Endpoint
		fileLimit = f.Results.TruncateLimit
		if f.Upload.Enabled != nil {
			cfg.UploadEnabled = *f.Upload.Enabled
		}
		cfg.UploadBucket = f.Upload.Bucket
		cfg.CredentialsFile = f.Upload.CredentialsFile
		cfg.StorageLocation = f.Upload.Location
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg.ResultsEndpoint = envOrDefault("RESULTS_ENDPOINT", cfg.ResultsEndpoint)
	cfg.PageTitle = envOrDefault("PAGE_TITLE", cfg.PageTitle)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_MINUTES", int(cfg.SessionTTL.Minutes()))) * time.Minute
	cfg.UploadEnabled = envBool("UPLOAD_ENABLED", cfg.UploadEnabled)
	cfg.UploadBucket = envOrDefault("UPLOAD_BUCKET", cfg.UploadBucket)
	cfg.CredentialsFile = envOrDefault("GOOGLE_APPLICATION_CREDENTIALS", cfg.CredentialsFile)
	cfg.StorageLocation = envOrDefault("STORAGE_LOCATION", cfg.StorageLocation)

	cfg.TruncateLimit = DefaultReadOnlyTruncateLimit
	if cfg.UploadEnabled {
		cfg.TruncateLimit = DefaultUploadTruncateLimit
	}
	if fileLimit > 0 {
		cfg.TruncateLimit = fileLimit
	}
	cfg.TruncateLimit = envInt("TRUNCATE_LIMIT", cfg.TruncateLimit)

	if cfg.ResultsEndpoint == "" {
		return Config{}, fmt.Errorf("%w: RESULTS_ENDPOINT", ErrMissing)
	}
	if cfg.UploadEnabled {
		if cfg.UploadBucket == "" {
			return Config{}, fmt.Errorf("%w: UPLOAD_BUCKET", ErrMissing)
		}
		if cfg.CredentialsFile == "" {
			return Config{}, fmt.Errorf("%w: GOOGLE_APPLICATION_CREDENTIALS", ErrMissing)
		}
		if cfg.StorageLocation == "" {
			return Config{}, fmt.Errorf("%w: STORAGE_LOCATION", ErrMissing)
		}
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("Ignoring malformed integer setting", "name", name, "value", raw, "fallback", fallback)
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		slog.Warn("Ignoring malformed boolean setting", "name", name, "value", raw, "fallback", fallback)
		return fallback
	}
}
