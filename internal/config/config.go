package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Solana   SolanaConfig
	Rules    RulesConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret         string
	ContentTablesPath string
	FeeTablePath      string
}

// SolanaConfig holds the chain-facing identities and RPC settings
type SolanaConfig struct {
	Network        string
	RPCURL         string
	ProgramID      string
	PlatformWallet string
	Simulate       bool
}

// RulesConfig holds overrides for the validation rule tables
type RulesConfig struct {
	MinEventBuffer         time.Duration
	RecommendedEventBuffer time.Duration
	FreezeWindow           time.Duration
	DisputeWindow          time.Duration
	MinBetLamports         uint64
	MaxBetLamports         uint64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "market_agent"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			ContentTablesPath: getEnv("CONTENT_TABLES_PATH", ""),
			FeeTablePath:      getEnv("FEE_TABLE_PATH", ""),
		},
		Solana: SolanaConfig{
			Network:        getEnv("SOLANA_NETWORK", "devnet"),
			RPCURL:         getEnv("SOLANA_RPC_URL", ""),
			ProgramID:      getEnv("PROGRAM_ID", ""),
			PlatformWallet: getEnv("PLATFORM_WALLET", ""),
			Simulate:       getEnvBool("SIMULATE_TRANSACTIONS", true),
		},
		Rules: RulesConfig{
			MinEventBuffer:         getEnvDuration("MIN_EVENT_BUFFER", 12*time.Hour),
			RecommendedEventBuffer: getEnvDuration("RECOMMENDED_EVENT_BUFFER", 48*time.Hour),
			FreezeWindow:           getEnvDuration("BETTING_FREEZE_WINDOW", 5*time.Minute),
			DisputeWindow:          getEnvDuration("DISPUTE_WINDOW", 24*time.Hour),
			MinBetLamports:         getEnvUint64("MIN_BET_LAMPORTS", 10_000_000),
			MaxBetLamports:         getEnvUint64("MAX_BET_LAMPORTS", 100_000_000_000),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Solana.ProgramID == "" {
		return nil, fmt.Errorf("PROGRAM_ID is required")
	}

	if config.Solana.PlatformWallet == "" {
		return nil, fmt.Errorf("PLATFORM_WALLET is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
