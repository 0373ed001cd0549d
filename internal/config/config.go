package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	BaseURL   string
	Database  DatabaseConfig
	Workflow  WorkflowConfig
	Notify    NotifyConfig
	AI        AIConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// WorkflowConfig isolates every workflow rule constant so tests can
// substitute alternate product catalogs and thresholds.
type WorkflowConfig struct {
	// Product excluded from the PM-approval product count (no-cost add-on).
	ExcludedProductID string
	// PM approval is required at this many distinct products...
	PMProductThreshold int
	// ...or at this many total pricing-role units.
	PMUnitThreshold float64
	// How long an approval may sit pending before reminders start.
	ReminderAfterHours int
}

// NotifyConfig holds notification configuration
type NotifyConfig struct {
	WebhookURL    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// AIConfig holds the optional Gemini summarizer configuration
type AIConfig struct {
	GeminiAPIKey string
	GeminiModel  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3230"),
		JWTSecret: jwtSecret,
		BaseURL:   getEnv("BASE_URL", "http://localhost:3230"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "sowflow"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Workflow:  LoadWorkflowConfig(),
		Notify: NotifyConfig{
			WebhookURL:    os.Getenv("NOTIFY_WEBHOOK_URL"),
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       0,
		},
		AI: AIConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
	}, nil
}

// LoadWorkflowConfig returns the workflow rule constants. Defaults match the
// production approval policy; override via env for staging catalogs.
func LoadWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		ExcludedProductID:  getEnv("WF_EXCLUDED_PRODUCT_ID", "prod-support-addon"),
		PMProductThreshold: 3,
		PMUnitThreshold:    100,
		ReminderAfterHours: 24,
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
