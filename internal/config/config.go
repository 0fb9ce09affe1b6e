// File: internal/config/config.go
// Awalé Server - Configuration Management

package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the Awalé server.
type Config struct {
	ServerHost string // Host/IP to bind to (empty string = all interfaces)
	ServerPort int

	UsersDir string // directory holding one .dat file per user
	GamesDir string // directory holding one .dat file per game

	MaxClients          int
	ShutdownTimeoutSecs int
}

var defaultConfig = Config{
	ServerHost:          "",
	ServerPort:          12345,
	UsersDir:            "./users/",
	GamesDir:            "./games/",
	MaxClients:          64,
	ShutdownTimeoutSecs: 10,
}

// LoadConfig loads configuration from an environment file. Command line
// flag -env can specify a custom one; if it does not exist, a default is
// created and the built-in defaults are used for this run.
func LoadConfig() (*Config, error) {
	envFile := flag.String("env", ".env", "Path to environment configuration file")
	flag.Parse()

	log.Printf("Loading configuration from: %s", *envFile)

	if err := godotenv.Load(*envFile); err != nil {
		if os.IsNotExist(err) {
			log.Printf("Configuration file %s not found, creating with defaults...", *envFile)
			if err := createDefaultEnvFile(*envFile); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			log.Printf("Created default configuration file: %s", *envFile)
		} else {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg := defaultConfig
	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("Configuration loaded successfully")
	return &cfg, nil
}

// applyEnv overlays values present in the process environment (set by
// godotenv.Load, or inherited from the shell) onto cfg.
func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("SERVER_HOST"); ok {
		cfg.ServerHost = v
	}
	if v, ok := os.LookupEnv("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.ServerPort = port
	}
	if v, ok := os.LookupEnv("USERS_DIR"); ok {
		cfg.UsersDir = v
	}
	if v, ok := os.LookupEnv("GAMES_DIR"); ok {
		cfg.GamesDir = v
	}
	if v, ok := os.LookupEnv("MAX_CLIENTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_CLIENTS: %w", err)
		}
		cfg.MaxClients = n
	}
	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT_SECS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT_SECS: %w", err)
		}
		cfg.ShutdownTimeoutSecs = n
	}
	return nil
}

func createDefaultEnvFile(filename string) error {
	content := `# Awalé Server Configuration File
# Bootstrap configuration, created automatically with defaults if missing.

# Host/IP to bind to:
#   (empty)      = bind to all interfaces (0.0.0.0)
#   127.0.0.1    = local connections only
SERVER_HOST=

SERVER_PORT=12345

USERS_DIR=./users/
GAMES_DIR=./games/

MAX_CLIENTS=64
SHUTDOWN_TIMEOUT_SECS=10
`
	return os.WriteFile(filename, []byte(content), 0o644)
}

func validateConfig(cfg *Config) error {
	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: must be between 1 and 65535")
	}
	if cfg.UsersDir == "" {
		return fmt.Errorf("USERS_DIR cannot be empty")
	}
	if cfg.GamesDir == "" {
		return fmt.Errorf("GAMES_DIR cannot be empty")
	}
	if cfg.MaxClients < 10 {
		return fmt.Errorf("MAX_CLIENTS must be at least 10")
	}
	if cfg.ShutdownTimeoutSecs < 1 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECS must be at least 1 second")
	}
	return nil
}

// GetBindAddress returns the address to bind the server to.
func (c *Config) GetBindAddress() string {
	if c.ServerHost == "" {
		return "0.0.0.0"
	}
	return c.ServerHost
}

// GetListenAddress returns the full listen address (host:port).
func (c *Config) GetListenAddress() string {
	return fmt.Sprintf("%s:%d", c.GetBindAddress(), c.ServerPort)
}

// LogConfig logs the current configuration.
func (c *Config) LogConfig() {
	log.Println("=== Server Configuration ===")
	log.Printf("Bind Address: %s", c.GetListenAddress())
	log.Printf("Users Dir: %s", c.UsersDir)
	log.Printf("Games Dir: %s", c.GamesDir)
	log.Printf("Max Clients: %d", c.MaxClients)
	log.Println("=============================")
}
