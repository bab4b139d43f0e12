package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string
	MaxUploadMB  int
	SettingsFile string // YAML с весами/порогами; пусто: значения по умолчанию

	Embed EmbedConfig

	// колонки справочника, которые копируются в результат (Category, Basic Type, ...)
	ExtraColumns []string
}

type EmbedConfig struct {
	Provider   string // hash | openai
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
	Cache      bool
	CacheSize  int // максимум векторов в LRU
}

// Load reads the environment; a .env file in the working directory is applied first if present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         atoi(getenv("PORT", "8082"), 8082),
		AllowOrigins: splitList(getenv("ALLOW_ORIGINS", "*")),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFile:      getenv("LOG_FILE", "logs/product-matcher.log"),
		MaxUploadMB:  atoi(getenv("MAX_UPLOAD_MB", "64"), 64),
		SettingsFile: getenv("SETTINGS_FILE", ""),
		Embed: EmbedConfig{
			Provider:   strings.ToLower(getenv("EMBED_PROVIDER", "hash")),
			APIKey:     getenv("EMBED_API_KEY", os.Getenv("OPENAI_API_KEY")),
			BaseURL:    getenv("EMBED_BASE_URL", ""),
			Model:      getenv("EMBED_MODEL", ""),
			Dimensions: atoi(getenv("EMBED_DIMENSIONS", "0"), 0),
			BatchSize:  atoi(getenv("EMBED_BATCH_SIZE", "100"), 100),
			Cache:      getenv("EMBED_CACHE", "true") != "false",
			CacheSize:  atoi(getenv("EMBED_CACHE_SIZE", "10000"), 10000),
		},
		ExtraColumns: splitList(getenv("OUTPUT_EXTRA_COLUMNS", "")),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
