package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"webasset/utils"
)

// KasmConfig holds the connection settings for the KasmWeb provisioner API.
type KasmConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// InfisicalConfig holds the connection settings for the Infisical secret store.
type InfisicalConfig struct {
	BaseURL     string
	Token       string
	Environment string
}

// Config is the explicit application configuration. It is loaded once in main
// and passed into every constructor that needs it, so tests can build their
// own values instead of reading the environment.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string
	RedisURL string

	JWTSecretKey string
	JWTIssuer    string

	Kasm      KasmConfig
	Infisical InfisicalConfig

	MaxSessionsPerUser int
	LoginTimeout       time.Duration
	SelectorTimeout    time.Duration
	ArtifactDir        string
	HeadlessBrowser    bool
}

var requiredEnvVars = []string{
	"MONGO_URI",
	"MONGO_DB",
	"JWT_SECRET_KEY",
	"KASM_URL",
	"KASM_API_KEY",
	"KASM_API_SECRET",
	"INFISICAL_URL",
	"INFISICAL_TOKEN",
}

// Load reads configuration from the environment, loading a .env file first
// outside of test runs.
func Load() (*Config, error) {
	if os.Getenv("GO_ENV") != "test" {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}
	}

	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			return nil, fmt.Errorf("required environment variable %s is not set", envVar)
		}
	}

	cfg := &Config{
		Port:         utils.GetEnvAsString("PORT", "8080"),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      os.Getenv("MONGO_DB"),
		RedisURL:     utils.GetEnvAsString("REDIS_URL", ""),
		JWTSecretKey: os.Getenv("JWT_SECRET_KEY"),
		JWTIssuer:    utils.GetEnvAsString("JWT_ISSUER", "webasset"),
		Kasm: KasmConfig{
			BaseURL:   os.Getenv("KASM_URL"),
			APIKey:    os.Getenv("KASM_API_KEY"),
			APISecret: os.Getenv("KASM_API_SECRET"),
		},
		Infisical: InfisicalConfig{
			BaseURL:     os.Getenv("INFISICAL_URL"),
			Token:       os.Getenv("INFISICAL_TOKEN"),
			Environment: utils.GetEnvAsString("INFISICAL_ENVIRONMENT", "production"),
		},
		MaxSessionsPerUser: utils.GetEnvAsInt("MAX_SESSIONS_PER_USER", 5),
		LoginTimeout:       utils.GetEnvAsDuration("LOGIN_TIMEOUT", 30*time.Second),
		SelectorTimeout:    utils.GetEnvAsDuration("SELECTOR_TIMEOUT", 2*time.Second),
		ArtifactDir:        utils.GetEnvAsString("ARTIFACT_DIR", "/app/logs"),
		HeadlessBrowser:    utils.GetEnvAsBool("HEADLESS_BROWSER", true),
	}

	return cfg, nil
}
