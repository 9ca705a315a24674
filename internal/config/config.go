package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Collector holds everything a collector needs. It is passed explicitly to
// the factory instead of living in package state.
type Collector struct {
	Mode string // "instagram", "reddit" or "mock"

	InstagramAccessToken       string
	InstagramBusinessAccountID string
	InstagramAPIBase           string

	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditSubreddit    string
	UserAgent          string

	Timeout time.Duration
}

type Config struct {
	Port     string
	LogLevel string

	Collector  Collector
	FetchLimit int
	Workers    int

	CategoriesFile string
	HistoryFile    string
	CatalogFile    string

	DatabaseURL string

	NATSURL     string
	NATSSubject string
}

func Load() Config {
	return Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Collector: Collector{
			Mode: strings.ToLower(getEnv("COLLECTOR_MODE", "instagram")),

			InstagramAccessToken:       getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			InstagramBusinessAccountID: getEnv("INSTAGRAM_BUSINESS_ACCOUNT_ID", ""),
			InstagramAPIBase:           getEnv("INSTAGRAM_API_BASE", "https://graph.facebook.com/v18.0"),

			RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
			RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
			RedditUsername:     getEnv("REDDIT_USERNAME", ""),
			RedditPassword:     getEnv("REDDIT_PASSWORD", ""),
			RedditSubreddit:    getEnv("REDDIT_SUBREDDIT", ""),
			UserAgent:          getEnv("USER_AGENT", "caption-importer/1.0"),

			Timeout: getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		},
		FetchLimit: getEnvInt("FETCH_LIMIT", 20),
		Workers:    getEnvInt("PARSE_WORKERS", 4),

		CategoriesFile: getEnv("CATEGORIES_FILE", "input/categories.csv"),
		HistoryFile:    getEnv("HISTORY_FILE", "data/drafts.ndjson"),
		CatalogFile:    getEnv("CATALOG_FILE", "data/catalog.json"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "catalog.product.imported"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
