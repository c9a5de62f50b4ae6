package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Auth   AuthConfig   `yaml:"auth"`
	MCP    MCPConfig    `yaml:"mcp"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StoreConfig struct {
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Redis   RedisConfig  `yaml:"redis"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// AuthConfig holds the bcrypt hash of the admin bearer token. An empty
// hash disables the admin API.
type AuthConfig struct {
	TokenHash string `yaml:"token_hash"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
			SQLite:  SQLiteConfig{Path: "verdant.db"},
			Redis:   RedisConfig{URL: "redis://localhost:6379/0"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("VERDANT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("VERDANT_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("VERDANT_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid VERDANT_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if backend := os.Getenv("VERDANT_STORE_BACKEND"); backend != "" {
		cfg.Store.Backend = backend
	}
	if path := os.Getenv("VERDANT_SQLITE_PATH"); path != "" {
		cfg.Store.SQLite.Path = path
	}
	if url := os.Getenv("VERDANT_REDIS_URL"); url != "" {
		cfg.Store.Redis.URL = url
	}
	if level := os.Getenv("VERDANT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv("VERDANT_LOG_PATH"); path != "" {
		cfg.Log.Path = path
	}
	if hash := os.Getenv("VERDANT_AUTH_TOKEN_HASH"); hash != "" {
		cfg.Auth.TokenHash = hash
	}
	if enabled := os.Getenv("VERDANT_MCP_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid VERDANT_MCP_ENABLED: %w", err)
		}
		cfg.MCP.Enabled = v
	}

	if cfg.Store.Backend != BackendSQLite && cfg.Store.Backend != BackendRedis {
		return Config{}, fmt.Errorf("invalid store backend %q", cfg.Store.Backend)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
