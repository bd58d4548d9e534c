package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	RawDataDir       string
	ProcessedDataDir string
	HTTPAddr         string

	SerperAPIKey  string
	SerperBaseURL string

	Headless          bool
	PageLoadTimeoutS  int
	MaxRetries        int
	RateLimitMs       int
	ChromeBin         string
	DefaultSearchPage int

	LogDebug bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		RawDataDir:       getEnv("RAW_DATA_DIR", filepath.Join("data", "raw")),
		ProcessedDataDir: getEnv("PROCESSED_DATA_DIR", filepath.Join("data", "processed")),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),

		SerperAPIKey:  getEnv("SERPER_API_KEY", ""),
		SerperBaseURL: getEnv("SERPER_BASE_URL", "https://google.serper.dev"),

		Headless:          getEnvBool("HEADLESS", true),
		PageLoadTimeoutS:  getEnvInt("PAGE_LOAD_TIMEOUT_S", 30),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RateLimitMs:       getEnvInt("RATE_LIMIT_MS", 2000),
		ChromeBin:         getEnv("CHROME_BIN", ""),
		DefaultSearchPage: getEnvInt("DEFAULT_SEARCH_PAGES", 1),

		LogDebug: getEnvBool("LOG_DEBUG", false),
	}
}

// EnsureDirs creates the raw and processed data folders.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.RawDataDir, c.ProcessedDataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
