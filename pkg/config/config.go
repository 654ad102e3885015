package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all configuration for the compliance portal service
type Config struct {
	ServiceName string
	Server      ServerConfig
	DB          DBConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Notify      NotifyConfig
	Brokermatic BrokermaticConfig
	Mail        MailConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.DBName + " sslmode=" + c.SSLMode
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// NotifyConfig holds notification scheduler configuration
type NotifyConfig struct {
	// Recipients for compliance alerts (risk management distribution list)
	Recipients []string
	// APIKey guards the notification trigger endpoint against unauthorized runs
	APIKey string
	// BaseURL used to build links into the portal from email bodies
	BaseURL string
	// SendTimeout bounds each individual email send
	SendTimeout time.Duration
}

// BrokermaticConfig holds Brokermatic Smart COI API configuration
type BrokermaticConfig struct {
	APIKey        string
	BaseURL       string
	WebhookSecret string
}

// UseMock reports whether the in-repo mock client should be used instead of
// the real Brokermatic API
func (c *BrokermaticConfig) UseMock() bool {
	return c.APIKey == "" || c.APIKey == "mock_api_key"
}

// MailConfig holds outbound email configuration
type MailConfig struct {
	From    string
	ReplyTo string
	Enabled bool
}

// Load loads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()

	config := &Config{
		ServiceName: "compliance-portal",
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "compliance_portal"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "compliance_portal"),
		},
		Notify: NotifyConfig{
			Recipients:  getEnvAsList("NOTIFICATION_RECIPIENTS", []string{"insurance@columbia.edu", "riskmanagement@columbia.edu"}),
			APIKey:      getEnv("NOTIFICATION_API_KEY", "dev-notification-key"),
			BaseURL:     getEnv("APP_BASE_URL", "http://localhost:3000"),
			SendTimeout: getEnvAsDuration("NOTIFICATION_SEND_TIMEOUT", 10*time.Second),
		},
		Brokermatic: BrokermaticConfig{
			APIKey:        getEnv("BROKERMATIC_API_KEY", ""),
			BaseURL:       getEnv("BROKERMATIC_API_URL", "https://api.brokermatic.ai/v1"),
			WebhookSecret: getEnv("BROKERMATIC_WEBHOOK_SECRET", "mock_webhook_secret"),
		},
		Mail: MailConfig{
			From:    getEnv("EMAIL_FROM", "noreply@columbia.edu"),
			ReplyTo: getEnv("EMAIL_REPLY_TO", "insurance@columbia.edu"),
			Enabled: getEnvAsBool("EMAIL_SERVICE_ENABLED", false),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as zap logger fields
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as booleans
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get comma-separated environment variables as lists
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
