package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ImageSourceBrowser = "browser"
	ImageSourceHTTP    = "http"
)

// Config holds all configuration for the application
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Site       SiteConfig       `mapstructure:"site"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Translator TranslatorConfig `mapstructure:"translator"`
	Output     OutputConfig     `mapstructure:"output"`
	Proxies    []string         `mapstructure:"proxies"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SiteConfig describes the listing page and the selectors it is scraped with
type SiteConfig struct {
	BaseURL           string          `mapstructure:"base_url"`
	ListingURL        string          `mapstructure:"listing_url"`
	LoadMoreDelay     time.Duration   `mapstructure:"load_more_delay"`
	MaxLoadMoreClicks int             `mapstructure:"max_load_more_clicks"` // 0 means unbounded
	Selectors         SelectorsConfig `mapstructure:"selectors"`
}

type SelectorsConfig struct {
	CookieButton  string `mapstructure:"cookie_button"`
	LoadMore      string `mapstructure:"load_more"`
	Product       string `mapstructure:"product"`
	Link          string `mapstructure:"link"`
	Image         string `mapstructure:"image"`
	Name          string `mapstructure:"name"`
	ArticleNumber string `mapstructure:"article_number"`
}

// BrowserConfig holds headless browser settings
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	Bin            string        `mapstructure:"bin"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	ConsentTimeout time.Duration `mapstructure:"consent_timeout"` // 0 waits forever
}

// TranslatorConfig holds translation API settings
type TranslatorConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	SourceLang           string        `mapstructure:"source_lang"`
	TargetLang           string        `mapstructure:"target_lang"`
	Timeout              time.Duration `mapstructure:"timeout"` // 0 means no timeout
	MaxRetries           int           `mapstructure:"max_retries"`
	MaxRequestsPerSecond int           `mapstructure:"max_requests_per_second"` // 0 means unlimited
}

type OutputConfig struct {
	Root         string        `mapstructure:"root"`
	ImageSource  string        `mapstructure:"image_source"`
	ImageTimeout time.Duration `mapstructure:"image_timeout"` // http image source only, 0 means no timeout
}

// DatabaseConfig holds database configuration for the optional run snapshot
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN builds a libpq style connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details for the optional translation cache
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	Database int           `mapstructure:"database"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load loads configuration from an optional YAML file with .env and environment variable overrides
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	return load(v)
}

// LoadFile loads configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Site.ListingURL == "" {
		return errors.New("site.listing_url must not be empty")
	}
	if c.Site.Selectors.Product == "" {
		return errors.New("site.selectors.product must not be empty")
	}
	if c.Translator.TargetLang == "" {
		return errors.New("translator.target_lang must not be empty")
	}
	if c.Output.Root == "" {
		return errors.New("output.root must not be empty")
	}
	switch c.Output.ImageSource {
	case ImageSourceBrowser, ImageSourceHTTP:
	default:
		return fmt.Errorf("unknown output.image_source %q", c.Output.ImageSource)
	}
	if c.Site.MaxLoadMoreClicks < 0 || c.Translator.MaxRetries < 0 || c.Translator.MaxRequestsPerSecond < 0 {
		return errors.New("limits must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("site.base_url", "https://www.gardena.com")
	v.SetDefault("site.listing_url", "https://www.gardena.com/int/products/soil-ground/combisystem")
	v.SetDefault("site.load_more_delay", time.Second)
	v.SetDefault("site.max_load_more_clicks", 1000)
	v.SetDefault("site.selectors.cookie_button", "#onetrust-accept-btn-handler")
	v.SetDefault("site.selectors.load_more", "#products-accessories > div > div.grid-footer.row.m-0.p-0 > div.show-more > div > a")
	v.SetDefault("site.selectors.product", ".product")
	v.SetDefault("site.selectors.link", "a")
	v.SetDefault("site.selectors.image", "img")
	v.SetDefault("site.selectors.name", "h4")
	v.SetDefault("site.selectors.article_number", ".article-number")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.viewport_width", 1080)
	v.SetDefault("browser.viewport_height", 1024)
	v.SetDefault("browser.consent_timeout", 0)

	v.SetDefault("translator.base_url", "https://translate.googleapis.com")
	v.SetDefault("translator.source_lang", "en")
	v.SetDefault("translator.target_lang", "ru")
	v.SetDefault("translator.timeout", 0)
	v.SetDefault("translator.max_retries", 0)
	v.SetDefault("translator.max_requests_per_second", 0)

	v.SetDefault("output.root", "build")
	v.SetDefault("output.image_source", ImageSourceBrowser)
	v.SetDefault("output.image_timeout", 0)

	v.SetDefault("proxies", []string{})

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "gardena")
	v.SetDefault("database.user", "gardena_user")
	v.SetDefault("database.password", "gardena_pass")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.ttl", 30*24*time.Hour)
}
