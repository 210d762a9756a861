// Package config loads the TradePulse message bus configuration.
package config

import (
	"os"
	"path/filepath"
)

// DefaultPort matches the port the rest of the TradePulse services assume.
const DefaultPort = 5555

// Config is the full configuration for both the broker and its CLI clients.
type Config struct {
	// Host is where clients reach the broker; the broker itself always
	// binds all interfaces.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// TimeoutMS bounds each client send/receive, in milliseconds.
	TimeoutMS int `yaml:"timeout_ms"`

	LogLevel string `yaml:"log_level"`

	// StatsIntervalSec is how often the broker logs a status snapshot.
	StatsIntervalSec int `yaml:"stats_interval_sec"`
}

func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		Port:             DefaultPort,
		TimeoutMS:        5000,
		LogLevel:         "info",
		StatsIntervalSec: 60,
	}
}

// ConfigPath returns the default configuration file path: ~/.tradepulse/config.yaml.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tradepulse/config.yaml"
	}
	return filepath.Join(home, ".tradepulse", "config.yaml")
}

// DataDir returns the tradepulse data directory: ~/.tradepulse.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tradepulse"
	}
	return filepath.Join(home, ".tradepulse")
}
