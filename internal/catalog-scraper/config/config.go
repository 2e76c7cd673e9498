package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Target   TargetConfig
	Scraper  ScraperConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Output   OutputConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
}

// TargetConfig describes the storefront being scraped. The search and
// category terms are turned into catalogsearch listing URLs when a run
// request does not bring its own.
type TargetConfig struct {
	BaseURL       string
	SearchTerms   []string
	CategoryTerms []string
}

type ScraperConfig struct {
	MaxPages         int
	PageDelay        time.Duration
	RequestTimeout   time.Duration
	VariantCacheSize int
	StrictFamily     bool
}

// DatabaseConfig is optional: persistence is enabled only when a host is
// configured.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type OutputConfig struct {
	Dir string
}

type LogConfig struct {
	Format string // json or text
	Level  string
}

// Default query vocabulary for the storefront. Search terms hit the
// catalogsearch endpoint one page at a time; category terms are broader
// phrases that get paginated.
var (
	defaultSearchTerms = []string{
		"oil", "organic", "butter", "essential", "virgin", "refined",
		"cold pressed", "extract", "powder", "wax", "seed", "nut",
		"coconut", "olive", "almond", "jojoba", "argan", "sweet",
		"natural", "pure", "unrefined", "carrier", "base", "massage",
		"cosmetic", "food grade", "therapeutic", "aromatherapy",
		"moisturizing", "anti-aging", "nourishing", "hydrating",
	}
	defaultCategoryTerms = []string{
		"essential oil", "plant oil", "carrier oil", "base oil",
		"massage oil", "cosmetic oil", "food grade oil",
		"butter", "natural butter", "cosmetic wax", "food grade wax",
		"chocolate", "cocoa", "coffee", "salt", "natural salt",
		"organic sweetener", "botanical extract", "herbal extract",
		"fruit powder", "vegetable powder", "emulsifier",
		"natural emulsifier", "food thickener", "raw material",
		"specialty ingredient", "organic product", "natural product",
		"cosmetic ingredient", "food ingredient",
	}
)

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8085),
		},
		Target: TargetConfig{
			BaseURL:       getEnv("BASE_URL", "https://bulknaturaloils.com"),
			SearchTerms:   getEnvList("SEARCH_TERMS", defaultSearchTerms),
			CategoryTerms: getEnvList("CATEGORY_TERMS", defaultCategoryTerms),
		},
		Scraper: ScraperConfig{
			MaxPages:         getEnvInt("SCRAPER_MAX_PAGES", 30),
			PageDelay:        time.Duration(getEnvInt("SCRAPER_PAGE_DELAY_MS", 500)) * time.Millisecond,
			RequestTimeout:   time.Duration(getEnvInt("SCRAPER_TIMEOUT", 15)) * time.Second,
			VariantCacheSize: getEnvInt("SCRAPER_VARIANT_CACHE", 512),
			StrictFamily:     getEnvBool("SCRAPER_STRICT_FAMILY", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "catalog_scraper"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Stream:   getEnv("REDIS_STREAM", "stream:catalog_runs"),
		},
		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "output"),
		},
		Log: LogConfig{
			Format: getEnv("LOG_FORMAT", "json"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Target.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if !strings.HasPrefix(c.Target.BaseURL, "http://") && !strings.HasPrefix(c.Target.BaseURL, "https://") {
		return fmt.Errorf("base URL must be absolute: %s", c.Target.BaseURL)
	}

	if c.Scraper.MaxPages < 1 {
		return fmt.Errorf("max pages must be at least 1")
	}
	if c.Scraper.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Scraper.VariantCacheSize < 1 {
		return fmt.Errorf("variant cache size must be at least 1")
	}

	if c.Database.Enabled() && c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Redis.Enabled() && !c.Database.Enabled() {
		return fmt.Errorf("the event relay requires the database outbox")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
