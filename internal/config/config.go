package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/skud-attendance/internal/pkg/clock"
	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Admin      AdminConfig
	Scanner    ScannerConfig
	Attendance AttendanceConfig
	MQTT       MQTTConfig
	Kafka      KafkaConfig
	SMTP       SMTPConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	StoreDriver    string
	AllowedOrigins []string
}

// AdminConfig is the single administrator allowed to read reports and correct records.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// ScannerConfig guards the ingestion endpoint. An empty hash disables the check.
type ScannerConfig struct {
	APIKeyHash string
}

type AttendanceConfig struct {
	Timezone         string
	Location         *time.Location
	MinInterval      time.Duration
	DefaultEndTime   clock.Clock
	AutoCloseEnabled bool
	AutoCloseAt      clock.Clock
}

type MQTTConfig struct {
	Enabled     bool
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	ScanTopic   string
	ResultTopic string
	QoS         byte
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type SMTPConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "skud_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StoreDriver:    getEnv("STORE_DRIVER", StoreDriverPostgres),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.App.AllowedOrigins) == 0 {
		config.App.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// JWT configuration
	accessExpiration, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
	}

	config.Admin = AdminConfig{
		Username:     getEnv("ADMIN_USERNAME", "admin"),
		PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	config.Scanner = ScannerConfig{
		APIKeyHash: getEnv("SCANNER_API_KEY_HASH", ""),
	}

	// Attendance rules
	timezone := getEnv("ATTENDANCE_TIMEZONE", "Europe/Moscow")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}

	minInterval, err := time.ParseDuration(getEnv("ATTENDANCE_MIN_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_MIN_INTERVAL: %w", err)
	}

	defaultEnd, err := clock.Parse(getEnv("ATTENDANCE_DEFAULT_END_TIME", "17:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_DEFAULT_END_TIME: %w", err)
	}

	autoCloseAt, err := clock.Parse(getEnv("AUTO_CLOSE_AT", "23:59"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_CLOSE_AT: %w", err)
	}

	autoCloseEnabled, err := getEnvBool("AUTO_CLOSE_ENABLED", true)
	if err != nil {
		return nil, err
	}

	config.Attendance = AttendanceConfig{
		Timezone:         timezone,
		Location:         loc,
		MinInterval:      minInterval,
		DefaultEndTime:   defaultEnd,
		AutoCloseEnabled: autoCloseEnabled,
		AutoCloseAt:      autoCloseAt,
	}

	// MQTT scanner transport
	mqttEnabled, err := getEnvBool("MQTT_ENABLED", false)
	if err != nil {
		return nil, err
	}
	mqttQoS, err := strconv.Atoi(getEnv("MQTT_QOS", "1"))
	if err != nil || mqttQoS < 0 || mqttQoS > 2 {
		return nil, fmt.Errorf("invalid MQTT_QOS: must be 0, 1 or 2")
	}

	config.MQTT = MQTTConfig{
		Enabled:     mqttEnabled,
		BrokerURL:   getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		ClientID:    getEnv("MQTT_CLIENT_ID", "skud-attendance"),
		Username:    getEnv("MQTT_USERNAME", ""),
		Password:    getEnv("MQTT_PASSWORD", ""),
		ScanTopic:   getEnv("MQTT_SCAN_TOPIC", "skud/scans"),
		ResultTopic: getEnv("MQTT_RESULT_TOPIC", "skud/results"),
		QoS:         byte(mqttQoS),
	}

	// Kafka event stream
	kafkaEnabled, err := getEnvBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	config.Kafka = KafkaConfig{
		Enabled: kafkaEnabled,
		Brokers: getEnvSlice("KAFKA_BROKERS"),
		Topic:   getEnv("KAFKA_TOPIC", "attendance.events"),
	}

	// SMTP for administrator alerts
	smtpEnabled, err := getEnvBool("SMTP_ENABLED", false)
	if err != nil {
		return nil, err
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	config.SMTP = SMTPConfig{
		Enabled:    smtpEnabled,
		Host:       getEnv("SMTP_HOST", ""),
		Port:       smtpPort,
		Username:   getEnv("SMTP_USERNAME", ""),
		Password:   getEnv("SMTP_PASSWORD", ""),
		From:       getEnv("SMTP_FROM", "skud@localhost"),
		AdminEmail: getEnv("SMTP_ADMIN_EMAIL", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.App.StoreDriver {
	case StoreDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: %s, %s", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Attendance.MinInterval < 0 {
		return fmt.Errorf("ATTENDANCE_MIN_INTERVAL must not be negative")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if c.SMTP.Enabled {
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required when SMTP_ENABLED is true")
		}
		if c.SMTP.AdminEmail == "" {
			return fmt.Errorf("SMTP_ADMIN_EMAIL is required when SMTP_ENABLED is true")
		}
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
