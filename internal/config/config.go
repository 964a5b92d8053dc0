package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the remsh server.
type ServerConfig struct {
	// ListenAddr is the TCP address the command service accepts clients on.
	ListenAddr string `yaml:"listen_addr"`

	// AdminAddr is the HTTP address the admin API listens on.
	AdminAddr string `yaml:"admin_addr"`

	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json

	// DBPath is the SQLite execution-history database path
	// (default ~/.remsh/remsh.db, ":memory:" for testing, "off" disables it).
	DBPath string `yaml:"db_path"`

	// Shell is the interpreter shell tasks are run with.
	Shell string `yaml:"shell"`

	// NoColor disables ANSI colour on the stdout protocol surface.
	NoColor bool `yaml:"no_color"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr: ":8080",
		AdminAddr:  ":8081",
		LogLevel:   "info",
		LogFormat:  "text",
		Shell:      "/bin/sh",
	}
}

// Load reads a YAML config file over the defaults. Fields absent from
// the file keep their default values.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
