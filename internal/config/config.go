package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// AppConfig holds all runtime configuration. Every field comes from the
// environment, optionally seeded from a .env file.
type AppConfig struct {
	Port        string        `env:"PORT" env-default:"8080"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" env-default:"10s"`

	// WeatherFreshness is how long a stored weather snapshot is served.
	WeatherFreshness time.Duration `env:"WEATHER_FRESHNESS" env-default:"60m"`
	ResolveTimeout   time.Duration `env:"RESOLVE_TIMEOUT" env-default:"45s"`

	OpenWeatherAPIKey string `env:"OPENWEATHER_API_KEY"`
	WeatherAPIKey     string `env:"WEATHERAPI_API_KEY"`
	OpenMeteoEnabled  bool   `env:"OPENMETEO_ENABLED" env-default:"true"`

	AgmarknetAPIKey   string   `env:"AGMARKNET_API_KEY"`
	AgmarknetResource string   `env:"AGMARKNET_RESOURCE" env-default:"9ef84268-d588-465a-a308-a864a43d0070"`
	ScraperURLs       []string `env:"SCRAPER_URLS" env-separator:","`
	DefaultCrops      []string `env:"DEFAULT_CROPS" env-separator:"," env-default:"wheat,rice,corn,sugarcane,cotton"`
	SeedSamplePrices  bool     `env:"SEED_SAMPLE_PRICES" env-default:"true"`

	SoilGridsEnabled bool   `env:"SOILGRIDS_ENABLED" env-default:"true"`
	PlantIDAPIKey    string `env:"PLANTID_API_KEY"`

	GoogleGeocodingAPIKey string `env:"GOOGLE_GEOCODING_API_KEY"`
	NominatimURL          string `env:"NOMINATIM_URL" env-default:"https://nominatim.openstreetmap.org/search"`

	GenAI GenAIConfig

	ProviderMaxRetries int           `env:"PROVIDER_MAX_RETRIES" env-default:"0"`
	BreakerMaxRequests uint32        `env:"BREAKER_MAX_REQUESTS" env-default:"5"`
	BreakerInterval    time.Duration `env:"BREAKER_INTERVAL" env-default:"1m"`
	BreakerTimeout     time.Duration `env:"BREAKER_TIMEOUT" env-default:"2m"`
	BreakerFailures    uint32        `env:"BREAKER_FAILURES" env-default:"5"`

	Images ImageConfig

	// Optional cache warmer.
	WarmLocations []string      `env:"WARM_LOCATIONS" env-separator:","`
	WarmInterval  time.Duration `env:"WARM_INTERVAL" env-default:"30m"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`
}

// GenAIConfig selects the generative backend used as the last provider tier.
type GenAIConfig struct {
	Provider string `env:"GENAI_PROVIDER" env-default:"openai"`
	APIKey   string `env:"GENAI_API_KEY"`
	BaseURL  string `env:"GENAI_BASE_URL"`
	Model    string `env:"GENAI_MODEL"`
}

// ImageConfig selects where pest images are kept.
type ImageConfig struct {
	Store     string `env:"IMAGE_STORE" env-default:"inline"`
	Bucket    string `env:"S3_BUCKET"`
	Region    string `env:"S3_REGION" env-default:"ap-south-1"`
	Endpoint  string `env:"S3_ENDPOINT"`
	PathStyle bool   `env:"S3_PATH_STYLE" env-default:"false"`
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.ScraperURLs = compact(cfg.ScraperURLs)
	cfg.DefaultCrops = compact(cfg.DefaultCrops)
	cfg.WarmLocations = compact(cfg.WarmLocations)
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.WeatherFreshness <= 0 {
		return fmt.Errorf("WEATHER_FRESHNESS must be positive, got %s", c.WeatherFreshness)
	}
	if c.ProviderMaxRetries < 0 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES must not be negative, got %d", c.ProviderMaxRetries)
	}
	switch strings.ToLower(c.Images.Store) {
	case "inline":
	case "s3":
		if c.Images.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when IMAGE_STORE=s3")
		}
	default:
		return fmt.Errorf("IMAGE_STORE must be inline or s3, got %q", c.Images.Store)
	}
	return nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
