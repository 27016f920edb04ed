package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the full service configuration.
type Config struct {
	JWTSecret        string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CachePath        string
	CloudinaryConfig CloudinaryConfig
	AppEnv           string
	Port             string
	WSPort           string
	NodeID           string
}

// DatabaseConfig holds the remote store connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CloudinaryConfig holds the media upload settings.
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

// LoadConfig loads variables from .env and the environment.
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env file not found, falling back to environment variables")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "swapcycle_user"),
		Password: getEnv("PGPASSWORD", "swapcycle_pass"),
		Name:     getEnv("PGDATABASE", "swapcycle"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	cloudinaryConfig := CloudinaryConfig{
		CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "swapcycle_listings"),
	}

	cfg := &Config{
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DatabaseURL:      dbURL,
		DatabaseConfig:   dbConfig,
		CachePath:        getEnv("SQLITE_PATH", "swapcycle.db"),
		CloudinaryConfig: cloudinaryConfig,
		AppEnv:           getEnv("APP_ENV", "production"),
		Port:             getEnv("PORT", "8080"),
		WSPort:           getEnv("WS_PORT", "8081"),
		NodeID:           getEnv("NODE_ID", "node-1"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("❌ Error: required environment variables are not set")
	}

	return cfg
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
