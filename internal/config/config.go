package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	AniList  AniListConfig
	Session  SessionConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
	EventTopic  string
	JWTSecret   string
}

type DatabaseConfig struct {
	Connection string
}

type AniListConfig struct {
	APIURL      string
	MinInterval time.Duration // minimum spacing between outbound requests
	CacheTTL    time.Duration // short-lived same-interaction reuse only
	HTTPTimeout time.Duration
}

type SessionConfig struct {
	PaginatorTTL    time.Duration
	ConfirmationTTL time.Duration
	WizardTTL       time.Duration
	PanelTTL        time.Duration
	PageSize        int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "3000"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/anitrack.log"),
			EventTopic:  getEnv("PLATFORM_EVENT_TOPIC", "PLATFORM_EVENTS"),
			JWTSecret:   getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		AniList: AniListConfig{
			APIURL:      getEnv("ANILIST_API_URL", "https://graphql.anilist.co"),
			MinInterval: getEnvAsDuration("ANILIST_MIN_INTERVAL", time.Second),
			CacheTTL:    getEnvAsDuration("ANILIST_CACHE_TTL", 2*time.Minute),
			HTTPTimeout: getEnvAsDuration("ANILIST_HTTP_TIMEOUT", 15*time.Second),
		},
		Session: SessionConfig{
			PaginatorTTL:    getEnvAsDuration("SESSION_PAGINATOR_TTL", 60*time.Second),
			ConfirmationTTL: getEnvAsDuration("SESSION_CONFIRMATION_TTL", 30*time.Second),
			WizardTTL:       getEnvAsDuration("SESSION_WIZARD_TTL", 180*time.Second),
			PanelTTL:        getEnvAsDuration("SESSION_PANEL_TTL", 60*time.Second),
			PageSize:        getEnvAsInt("LIST_PAGE_SIZE", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
