package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvRPCEndpoint = "ARBSCAN_RPC_ENDPOINT"
	EnvOutputPath  = "ARBSCAN_OUTPUT_PATH"
	EnvDebug       = "ARBSCAN_DEBUG"
	EnvConfigPath  = "ARBSCAN_CONFIG"
)

// LoadEnv loads environment variables from a .env file if one exists
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvRPCEndpoint); v != "" {
		cfg.Network.RPCEndpoint = v
	}
	if v := os.Getenv(EnvOutputPath); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}
