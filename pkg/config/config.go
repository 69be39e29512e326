package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	JWT      JWTConfig
	Zoom     ZoomConfig
	LiveKit  LiveKitConfig
	Calendar CalendarConfig
	Search   SearchConfig
	Assembly AssemblyConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig holds object storage configuration for raw caption archives
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// JWTConfig holds service-token configuration for trigger and projection routes
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// ZoomConfig holds conferencing platform credentials
type ZoomConfig struct {
	BaseURL       string
	AccessToken   string
	WebhookSecret string
}

// LiveKitConfig holds LiveKit webhook credentials
type LiveKitConfig struct {
	APIKey    string
	APISecret string
}

// CalendarConfig holds calendar API credentials. The OAuth client fields
// drive the consent flow that connects an account's calendar.
type CalendarConfig struct {
	BaseURL           string
	AccessToken       string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string
}

// SearchConfig holds the generic document search collaborator endpoint
type SearchConfig struct {
	BaseURL     string
	AccessToken string
}

// AssemblyConfig holds AssemblyAI credentials for recording transcription
type AssemblyConfig struct {
	APIKey string
}

// LLMConfig holds the draft generation collaborator configuration
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// PipelineConfig holds the tuning knobs of the processing pipeline.
// All of these were fixed constants in early versions; they are configuration
// now so operators can adjust them without a deploy.
type PipelineConfig struct {
	MaxRetries          int           `envconfig:"PIPELINE_MAX_RETRIES" default:"3"`
	BackoffBase         time.Duration `envconfig:"PIPELINE_BACKOFF_BASE" default:"1s"`
	VisibilityTimeout   time.Duration `envconfig:"PIPELINE_VISIBILITY_TIMEOUT" default:"5m"`
	MatchTolerance      time.Duration `envconfig:"PIPELINE_MATCH_TOLERANCE" default:"5m"`
	PollLookback        time.Duration `envconfig:"PIPELINE_POLL_LOOKBACK" default:"15m"`
	SearchWindow        time.Duration `envconfig:"PIPELINE_SEARCH_WINDOW" default:"10m"`
	FreeMonthlyQuota    int           `envconfig:"PIPELINE_FREE_MONTHLY_QUOTA" default:"10"`
	MaxJobsPerRun       int           `envconfig:"PIPELINE_MAX_JOBS_PER_RUN" default:"10"`
	WebhookMaxSkew      time.Duration `envconfig:"PIPELINE_WEBHOOK_MAX_SKEW" default:"5m"`
	ExternalCallTimeout time.Duration `envconfig:"PIPELINE_EXTERNAL_CALL_TIMEOUT" default:"30s"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "meeting_followup"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "meeting-followup"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me-in-production"),
			Expiry: getEnvAsDuration("JWT_EXPIRY", "24h"),
		},
		Zoom: ZoomConfig{
			BaseURL:       getEnv("ZOOM_BASE_URL", "https://api.zoom.us/v2"),
			AccessToken:   getEnv("ZOOM_ACCESS_TOKEN", ""),
			WebhookSecret: getEnv("ZOOM_WEBHOOK_SECRET", ""),
		},
		LiveKit: LiveKitConfig{
			APIKey:    getEnv("LIVEKIT_API_KEY", ""),
			APISecret: getEnv("LIVEKIT_API_SECRET", ""),
		},
		Calendar: CalendarConfig{
			BaseURL:           getEnv("CALENDAR_BASE_URL", "https://www.googleapis.com/calendar/v3"),
			AccessToken:       getEnv("CALENDAR_ACCESS_TOKEN", ""),
			OAuthClientID:     getEnv("CALENDAR_OAUTH_CLIENT_ID", ""),
			OAuthClientSecret: getEnv("CALENDAR_OAUTH_CLIENT_SECRET", ""),
			OAuthRedirectURL:  getEnv("CALENDAR_OAUTH_REDIRECT_URL", ""),
		},
		Search: SearchConfig{
			BaseURL:     getEnv("SEARCH_BASE_URL", ""),
			AccessToken: getEnv("SEARCH_ACCESS_TOKEN", ""),
		},
		Assembly: AssemblyConfig{
			APIKey: getEnv("ASSEMBLYAI_API_KEY", ""),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("LLM_API_KEY", ""),
			BaseURL: getEnv("LLM_API_URL", "https://api.groq.com"),
			Model:   getEnv("LLM_MODEL", "llama-3.1-70b-versatile"),
		},
	}

	if err := envconfig.Process("", &config.Pipeline); err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("PIPELINE_MAX_RETRIES must be >= 0")
	}
	if c.Pipeline.BackoffBase <= 0 {
		return fmt.Errorf("PIPELINE_BACKOFF_BASE must be positive")
	}
	if c.Server.Environment == "production" && c.Zoom.WebhookSecret == "" {
		return fmt.Errorf("ZOOM_WEBHOOK_SECRET is required in production")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
