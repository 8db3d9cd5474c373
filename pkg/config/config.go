// Package config provides configuration management for the bot.
// It loads environment variables (optionally from a .env file) and makes
// them available throughout the application.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken   string
	DevGuildID string

	// Punishment store (SQLite)
	DatabasePath string

	// Moderation log archive (MongoDB). Empty URL disables it.
	MongoDBURL string
	DBName     string

	// MQTT
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string
	MQTTTopic    string

	// Web Server
	Port     string
	APIToken string

	// AllowedHosts is a host regexp; requests for other hosts are refused.
	// Empty allows every host.
	AllowedHosts string

	// Environment
	Environment string

	// Logging
	LogDir       string
	ErrorWebhook string
	LogsWebhook  string

	// Expiry sweeper
	SweepInterval  time.Duration
	SweepLookahead time.Duration
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

var (
	cfg     *Config
	cfgErr  error
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgErr = nil
	cfgOnce = sync.Once{}
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	c := &Config{
		BotToken:   getEnv("botToken", ""),
		DevGuildID: getEnv("devGuildId", ""),

		DatabasePath: getEnv("DATABASE_PATH", "pancymod.db"),

		MongoDBURL: getEnv("mongodbUrl", ""),
		DBName:     getEnv("dbName", "PancyMod"),

		MQTTHost:     getEnv("MQTT_Host", "localhost"),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),
		MQTTTopic:    getEnv("MQTT_Topic", "pancymod/punishments"),

		Port:         getEnv("PORT", "3000"),
		APIToken:     getEnv("API_TOKEN", ""),
		AllowedHosts: getEnv("WEB_ALLOWED_HOSTS", ""),

		Environment: getEnv("enviroment", "dev"),

		LogDir:       getEnv("LOG_DIR", "logs"),
		ErrorWebhook: getEnv("errorWebhook", ""),
		LogsWebhook:  getEnv("logsWebhook", ""),
	}

	var err error
	if c.SweepInterval, err = getDuration("SWEEP_INTERVAL", 30*time.Second); err != nil {
		cfgErr = err
		return
	}
	if c.SweepLookahead, err = getDuration("SWEEP_LOOKAHEAD", 120*time.Second); err != nil {
		cfgErr = err
		return
	}
	cfg = c
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, cfgErr
}

// Get returns the current configuration. It is nil if Load failed.
func Get() *Config {
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// ArchiveEnabled reports whether a MongoDB archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.MongoDBURL != ""
}
