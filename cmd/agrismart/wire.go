package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/config"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm/providers"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/genai"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/geo"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/imagestore"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/logging"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/metrics"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/store"
)

type application struct {
	cfg      *config.AppConfig
	logger   *zap.Logger
	registry *prometheus.Registry
	resolver *farm.Resolver
	records  *farm.Records
}

func build(ctx context.Context) (*application, error) {

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	memStore := store.NewMemoryStore()
	if cfg.SeedSamplePrices {
		store.Seed(memStore)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	httpCfg := providers.DefaultHTTPConfig(httpClient)
	httpCfg.Backoff.MaxRetries = cfg.ProviderMaxRetries
	httpCfg.Breaker = providers.BreakerConfig{
		MaxRequests:      cfg.BreakerMaxRequests,
		Interval:         cfg.BreakerInterval,
		Timeout:          cfg.BreakerTimeout,
		FailureThreshold: cfg.BreakerFailures,
	}

	geocoder := geo.New(geo.Config{
		NominatimURL: cfg.NominatimURL,
		GoogleAPIKey: cfg.GoogleGeocodingAPIKey,
		Client:       httpClient,
	}, logger)

	llm, err := genai.New(genai.Config{
		Backend:  cfg.GenAI.Provider,
		APIKey:   cfg.GenAI.APIKey,
		Endpoint: cfg.GenAI.BaseURL,
		Model:    cfg.GenAI.Model,
	}, logger)
	if err != nil {
		return nil, err
	}

	images, err := imageStore(ctx, cfg, httpClient)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	resolver := farm.NewResolver(memStore, sources(cfg, httpCfg, geocoder, llm, logger), geocoder, images,
		farm.WithLogger(logger),
		farm.WithRecorder(metrics.NewRecorder(registry)),
		farm.WithFreshness(cfg.WeatherFreshness),
		farm.WithTimeout(cfg.ResolveTimeout),
		farm.WithDefaultCrops(cfg.DefaultCrops),
	)

	return &application{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		resolver: resolver,
		records:  farm.NewRecords(memStore),
	}, nil
}

// sources lists the configured providers per fact, API first, then scraping,
// then the generative backend.
func sources(cfg *config.AppConfig, httpCfg providers.HTTPClientConfig, geocoder *geo.Geocoder, llm genai.Client, logger *zap.Logger) farm.Sources {
	var upstreams []providers.WeatherUpstream
	if cfg.OpenWeatherAPIKey != "" {
		upstreams = append(upstreams, providers.NewOpenWeatherProvider(httpCfg, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		upstreams = append(upstreams, providers.NewWeatherAPIProvider(httpCfg, cfg.WeatherAPIKey))
	}
	if cfg.OpenMeteoEnabled {
		upstreams = append(upstreams, providers.NewOpenMeteoProvider(httpCfg, geocoder))
	}

	var s farm.Sources
	if len(upstreams) > 0 {
		s.Weather = append(s.Weather, providers.NewWeatherAggregator(logger, upstreams...))
	}
	if cfg.AgmarknetAPIKey != "" {
		s.Markets = append(s.Markets, providers.NewAgmarknetProvider(httpCfg, cfg.AgmarknetAPIKey, cfg.AgmarknetResource, logger))
	}
	if len(cfg.ScraperURLs) > 0 {
		s.Markets = append(s.Markets, providers.NewScrapeProvider(httpCfg, cfg.ScraperURLs, logger))
	}
	if cfg.SoilGridsEnabled {
		s.Soil = append(s.Soil, providers.NewSoilGridsProvider(httpCfg))
	}
	s.Advisors = append(s.Advisors, providers.NewAgronomyAdvisor())
	if cfg.PlantIDAPIKey != "" {
		s.Pests = append(s.Pests, providers.NewPlantIDProvider(httpCfg, cfg.PlantIDAPIKey))
	}

	if llm != nil {
		gen := providers.NewGenerativeProvider(llm)
		s.Weather = append(s.Weather, gen)
		s.Predictors = append(s.Predictors, gen)
		s.Soil = append(s.Soil, gen)
		s.Advisors = append(s.Advisors, gen)
		s.Pests = append(s.Pests, gen)
	} else {
		logger.Warn("no generative backend configured; AI tiers disabled")
	}
	return s
}

func imageStore(ctx context.Context, cfg *config.AppConfig, client *http.Client) (farm.ImageStore, error) {
	if !strings.EqualFold(cfg.Images.Store, "s3") {
		return imagestore.Inline{}, nil
	}
	s3, err := imagestore.NewS3(ctx, imagestore.S3Config{
		Bucket:     cfg.Images.Bucket,
		Region:     cfg.Images.Region,
		Endpoint:   cfg.Images.Endpoint,
		PathStyle:  cfg.Images.PathStyle,
		HTTPClient: client,
	})
	if err != nil {
		return nil, fmt.Errorf("image store: %w", err)
	}
	return s3, nil
}
