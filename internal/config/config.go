package config

import (
	"fmt"
	"os"
)

// Config holds application configuration
type Config struct {
	Port        string
	DBConn      string
	LogLevel    string
	CBRURL      string
	KeyRateCron string
	RedisAddr   string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DBConn:       getEnv("DB_CONN", "host=localhost port=5432 user=loans password=loans dbname=loans sslmode=disable"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		CBRURL:       getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		KeyRateCron:  getEnv("KEY_RATE_CRON", "@hourly"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "noreply@loan-service.local"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.KeyRateCron == "" {
		return nil, fmt.Errorf("KEY_RATE_CRON is required")
	}

	return cfg, nil
}

// SMTPEnabled reports whether outgoing email is configured
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
