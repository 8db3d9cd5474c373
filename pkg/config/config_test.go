package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("botToken", "test-token")
	t.Setenv("PORT", "3001")
	t.Setenv("enviroment", "test")
	t.Setenv("DATABASE_PATH", "/tmp/mod.db")

	resetForTesting()

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if config.BotToken != "test-token" {
		t.Errorf("BotToken = %v, want %v", config.BotToken, "test-token")
	}

	if config.Port != "3001" {
		t.Errorf("Port = %v, want %v", config.Port, "3001")
	}

	if config.Environment != "test" {
		t.Errorf("Environment = %v, want %v", config.Environment, "test")
	}

	if config.DatabasePath != "/tmp/mod.db" {
		t.Errorf("DatabasePath = %v, want %v", config.DatabasePath, "/tmp/mod.db")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	if got := getEnv("TEST_VAR", "default"); got != "test-value" {
		t.Errorf("getEnv() = %v, want %v", got, "test-value")
	}

	if got := getEnv("NON_EXISTENT_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want %v", got, "default")
	}
}

func TestIsProd(t *testing.T) {
	resetForTesting()
	t.Setenv("enviroment", "prod")
	config, _ := Load()

	if !config.IsProd() {
		t.Error("IsProd() should return true when environment is 'prod'")
	}

	resetForTesting()
	t.Setenv("enviroment", "dev")
	config, _ = Load()

	if config.IsProd() {
		t.Error("IsProd() should return false when environment is not 'prod'")
	}
}

func TestGet(t *testing.T) {
	resetForTesting()

	config := Get()
	if config == nil {
		t.Fatal("Get() returned nil")
	}

	if config2 := Get(); config != config2 {
		t.Error("Get() should return the same config on subsequent calls")
	}
}

func TestDefaultValues(t *testing.T) {
	for _, key := range []string{"botToken", "DATABASE_PATH", "mongodbUrl", "dbName", "MQTT_Host",
		"MQTT_Port", "MQTT_Topic", "PORT", "enviroment", "SWEEP_INTERVAL", "SWEEP_LOOKAHEAD", "LOG_DIR"} {
		t.Setenv(key, "")
	}

	resetForTesting()
	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"DatabasePath", config.DatabasePath, "pancymod.db"},
		{"DBName", config.DBName, "PancyMod"},
		{"MQTTHost", config.MQTTHost, "localhost"},
		{"MQTTPort", config.MQTTPort, "1883"},
		{"MQTTTopic", config.MQTTTopic, "pancymod/punishments"},
		{"Port", config.Port, "3000"},
		{"Environment", config.Environment, "dev"},
		{"LogDir", config.LogDir, "logs"},
		{"SweepInterval", config.SweepInterval, 30 * time.Second},
		{"SweepLookahead", config.SweepLookahead, 120 * time.Second},
		{"ArchiveEnabled", config.ArchiveEnabled(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s default = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestInvalidSweepInterval(t *testing.T) {
	tests := []string{"soon", "-5s", "0s"}

	for _, value := range tests {
		t.Run(value, func(t *testing.T) {
			t.Setenv("SWEEP_INTERVAL", value)
			resetForTesting()

			if _, err := Load(); err == nil {
				t.Errorf("Load() with SWEEP_INTERVAL=%q should fail", value)
			}
		})
	}
	resetForTesting()
}
