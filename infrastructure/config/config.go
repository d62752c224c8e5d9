package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domainconfig "github.com/Apanazar/WGE/domain/config"
)

// AppName names the per-user data directories
const AppName = "WikiGraphExplorer"

// Snapshot backends
const (
	SnapshotBackendSQLite   = "sqlite"
	SnapshotBackendDynamoDB = "dynamodb"
	SnapshotBackendNone     = "none"
)

// Limits are the engine limits that may change while running
type Limits struct {
	LinkLimit        int `yaml:"linkLimit" validate:"min=0,max=1000"`
	LabelMaxLength   int `yaml:"labelMaxLength" validate:"min=0,max=500"`
	ThumbnailMaxSize int `yaml:"thumbnailMaxSize" validate:"min=0,max=4096"`
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress  string   `yaml:"serverAddress" validate:"required"`
	Environment    string   `yaml:"environment" validate:"oneof=development staging production test"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	// Logging
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	LogsDir  string `yaml:"logsDir"`

	// Content
	Language     string        `yaml:"language" validate:"required,min=2,max=16"`
	FetchTimeout time.Duration `yaml:"fetchTimeout" validate:"min=0"`
	UserAgent    string        `yaml:"userAgent" validate:"required"`
	Limits       Limits        `yaml:"limits"`

	// Persistence
	SnapshotBackend string `yaml:"snapshotBackend" validate:"oneof=sqlite dynamodb none"`
	SQLitePath      string `yaml:"sqlitePath"`
	DynamoDBTable   string `yaml:"dynamodbTable" validate:"required_if=SnapshotBackend dynamodb"`
	DownloadDir     string `yaml:"downloadDir" validate:"required"`

	// AWS configuration
	AWSRegion         string `yaml:"awsRegion"`
	EventBusName      string `yaml:"eventBusName" validate:"required_if=EnableEventBridge true"`
	EnableEventBridge bool   `yaml:"enableEventBridge"`

	// Feature flags
	EnableMetrics   bool    `yaml:"enableMetrics"`
	EnableTracing   bool    `yaml:"enableTracing"`
	TracingEndpoint string  `yaml:"tracingEndpoint"`
	TraceSampleRate float64 `yaml:"traceSampleRate" validate:"min=0,max=1"`

	// ConfigFile is the YAML overlay, watched for limit changes
	ConfigFile string `yaml:"-"`
}

var validate = validator.New()

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	domain := domainconfig.DefaultDomainConfig()
	dataDir := DataDir()
	return &Config{
		ServerAddress:  ":8091",
		Environment:    "development",
		AllowedOrigins: []string{"http://localhost:8091", "http://127.0.0.1:8091"},

		LogLevel: "info",
		LogsDir:  LogsDir(),

		Language:     domain.DefaultLanguage,
		FetchTimeout: 30 * time.Second,
		UserAgent:    "WikiGraphExplorer/1.0",
		Limits: Limits{
			LinkLimit:        domain.LinkLimit,
			LabelMaxLength:   domain.LabelMaxLength,
			ThumbnailMaxSize: domain.ThumbnailMaxSize,
		},

		SnapshotBackend: SnapshotBackendSQLite,
		SQLitePath:      filepath.Join(dataDir, "snapshots.db"),
		DynamoDBTable:   "wikigraph-snapshots",
		DownloadDir:     DownloadsDir(),

		AWSRegion:    "us-west-2",
		EventBusName: "wikigraph-events",

		TraceSampleRate: 1.0,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML
// overlay named by CONFIG_FILE and environment variables, in that order of
// precedence (lowest first).
func LoadConfig() (*Config, error) {
	cfg := Default()
	cfg.ConfigFile = os.Getenv("CONFIG_FILE")

	if cfg.ConfigFile != "" {
		if err := cfg.ApplyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.LogsDir = getEnv("LOGS_DIR", c.LogsDir)

	c.Language = getEnv("WGE_LANGUAGE", c.Language)
	c.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", c.FetchTimeout)
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)
	c.Limits.LinkLimit = getEnvInt("LINK_LIMIT", c.Limits.LinkLimit)

	c.SnapshotBackend = strings.ToLower(getEnv("SNAPSHOT_BACKEND", c.SnapshotBackend))
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.DynamoDBTable = getEnv("DYNAMODB_TABLE", c.DynamoDBTable)
	c.DownloadDir = getEnv("DOWNLOAD_DIR", c.DownloadDir)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.EnableEventBridge = getEnvBool("ENABLE_EVENTBRIDGE", c.EnableEventBridge)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.TracingEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.TracingEndpoint)
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DomainConfig returns the engine rules for this environment with the
// configured limits applied
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	domain := domainconfig.LoadDomainConfig(c.Environment)
	domain.DefaultLanguage = c.Language
	c.Limits.ApplyTo(domain)
	return domain
}

// ApplyTo copies the non-zero limits onto rules
func (l Limits) ApplyTo(rules *domainconfig.DomainConfig) {
	if l.LinkLimit > 0 {
		rules.LinkLimit = l.LinkLimit
	}
	if l.LabelMaxLength > 0 {
		rules.LabelMaxLength = l.LabelMaxLength
	}
	if l.ThumbnailMaxSize > 0 {
		rules.ThumbnailMaxSize = l.ThumbnailMaxSize
	}
}

// LogsDir returns the per-user log directory for the current OS
func LogsDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, AppName, "logs")
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", AppName)
	case "linux":
		return filepath.Join(DataDir(), "logs")
	default:
		return "logs"
	}
}

// DataDir returns the per-user application data directory
func DataDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, AppName)
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", AppName)
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, AppName)
		}
		return filepath.Join(homeDir(), ".local", "share", AppName)
	}
}

// DownloadsDir returns where saved graphs go by default
func DownloadsDir() string {
	return filepath.Join(homeDir(), "Downloads")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or whole seconds ("45")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
