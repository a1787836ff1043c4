package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the server.
type Config struct {
	MongoURI       string
	DatabaseName   string
	JWTSecret      string
	Port           string
	LogFile        string
	LogLevel       string
	AllowedOrigins []string
	LoginRateLimit int
	TokenTTL       time.Duration
	RolloverSpec   string
}

// Load reads the .env file when present and builds the configuration from
// environment variables with defaults.
func Load() (Config, error) {
	// A missing .env is fine in containers where the environment is injected.
	_ = godotenv.Load()

	cfg := Config{
		MongoURI:       strings.TrimSpace(os.Getenv("MONGO_URI")),
		DatabaseName:   envOr("MONGO_DB_NAME", "retail_tasks"),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		Port:           envOr("PORT", "8081"),
		LogFile:        envOr("LOG_FILE", "logs/retailtasks.log"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(envOr("CORS_ALLOWED_ORIGINS", "*")),
		LoginRateLimit: parsePositiveInt(os.Getenv("LOGIN_RATE_LIMIT"), 10),
		TokenTTL:       time.Duration(parsePositiveInt(os.Getenv("TOKEN_TTL_HOURS"), 2)) * time.Hour,
		RolloverSpec:   envOr("ROLLOVER_SPEC", "0 5 0 * * *"),
	}

	if cfg.MongoURI == "" {
		uri, err := atlasURI()
		if err != nil {
			return cfg, err
		}
		cfg.MongoURI = uri
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// atlasURI builds a MongoDB Atlas connection string from its parts.
func atlasURI() (string, error) {
	username := os.Getenv("MONGO_USERNAME")
	password := os.Getenv("MONGO_PASSWORD")
	cluster := os.Getenv("MONGO_CLUSTER")
	appName := os.Getenv("MONGO_APP_NAME")

	if username == "" || password == "" || cluster == "" || appName == "" {
		return "", fmt.Errorf("MONGO_URI or MONGO_USERNAME/MONGO_PASSWORD/MONGO_CLUSTER/MONGO_APP_NAME must be set")
	}

	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority&appName=%s",
		username, password, cluster, appName), nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePositiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
