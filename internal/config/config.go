package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string
	JWTSecret string

	// CORSOrigins are the browser origins allowed to call the api.
	CORSOrigins []string

	// DBDriver is "sqlite" or "mysql". The sqlite driver is the default so the
	// service runs with zero external infrastructure.
	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AI provider
	AIProvider        string
	OllamaBaseURL     string
	OllamaModel       string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterSiteURL string
	OpenRouterAppName string

	// rabbitMQ (async revision jobs); empty RabbitURL disables the async path
	RabbitURL   string
	RabbitQueue string

	// AutosaveDebounce is the quiet window after the last working-copy mutation
	// before a deferred save fires.
	AutosaveDebounce time.Duration
}

func Load() Config {
	// Load .env if present; real deployments use environment variables.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	driver := getEnv("DB_DRIVER", "sqlite")
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		switch driver {
		case "mysql":
			dsn = "app:apppass@tcp(127.0.0.1:3306)/dreamcraft?charset=utf8mb4&parseTime=true&loc=Local"
		default:
			dsn = "dreamcraft.db"
		}
	}

	debounce := 2 * time.Second
	if v := os.Getenv("AUTOSAVE_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			debounce = time.Duration(n) * time.Millisecond
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return Config{
		Addr:      getEnv("ADDR", ":8080"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ","),

		DBDriver: driver,
		DBDSN:    dsn,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		AIProvider:        getEnv("AI_PROVIDER", "ollama"),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3:latest"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "openrouter/auto"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: getEnv("RABBIT_QUEUE", "revision_jobs"),

		AutosaveDebounce: debounce,
	}
}

// Validate rejects configuration the process cannot run with.
func (c Config) Validate() error {
	switch strings.ToLower(c.AIProvider) {
	case "", "ollama", "openrouter":
		return nil
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AIProvider)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
