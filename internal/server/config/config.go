package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	DatabaseDSN string
	JWTSecret   string
	SeedJobs    bool
}

// Load reads configuration from the environment, with a .env file as a
// development convenience.
func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		HTTPAddr:    getEnv("VERGO_HTTP_ADDR", ":8080"),
		DatabaseDSN: getEnv("VERGO_DB_DSN", "file:vergo.db?cache=shared&mode=rwc"),
		JWTSecret:   getEnv("VERGO_JWT_SECRET", "dev-secret-change"),
		SeedJobs:    getEnv("VERGO_SEED_JOBS", "1") == "1",
	}
	if cfg.JWTSecret == "dev-secret-change" {
		log.Println("WARNING: using development JWT secret; set VERGO_JWT_SECRET")
	}
	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
