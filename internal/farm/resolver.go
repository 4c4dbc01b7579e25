package farm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultFreshness is how long a weather snapshot is served from the store.
	DefaultFreshness = 60 * time.Minute

	// DefaultConfidence is stamped on advice whose tier reported none.
	DefaultConfidence = 0.85

	// MaxImageBytes bounds uploaded pest images.
	MaxImageBytes = 10 << 20

	defaultResolveTimeout = 45 * time.Second
)

// Weather defaults fed to generative crop advice when no measured weather exists.
const (
	DefaultTemperature = 25.0
	DefaultHumidity    = 65.0
	DefaultRainfall    = 0.0
)

// DefaultCrops is the batch requested when a market price query names no crop.
var DefaultCrops = []string{"wheat", "rice", "corn", "sugarcane", "cotton"}

// Fact names used in logs and metrics.
const (
	FactWeather = "weather"
	FactMarket  = "market_prices"
	FactSoil    = "soil"
	FactCrop    = "crop_recommendation"
	FactPest    = "pest_diagnosis"
)

// Sources lists provider adapters per capability in priority order.
// Predictors are generative market tiers whose output is never persisted.
type Sources struct {
	Weather    []WeatherSource
	Markets    []MarketSource
	Predictors []MarketSource
	Soil       []SoilSource
	Advisors   []CropAdvisor
	Pests      []PestSource
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(r *Resolver) { r.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option { return func(r *Resolver) { r.recorder = rec } }

// WithClock overrides time.Now, mostly for freshness tests.
func WithClock(now func() time.Time) Option { return func(r *Resolver) { r.now = now } }

// WithFreshness overrides the weather freshness window.
func WithFreshness(d time.Duration) Option { return func(r *Resolver) { r.freshness = d } }

// WithDefaultCrops overrides the crop batch used for unfiltered price queries.
func WithDefaultCrops(crops []string) Option {
	return func(r *Resolver) {
		if len(crops) > 0 {
			r.defaultCrops = crops
		}
	}
}

// WithTimeout bounds one resolution, including every tier it consults.
func WithTimeout(d time.Duration) Option { return func(r *Resolver) { r.timeout = d } }

// Resolver answers weather, price, crop and pest questions by checking the
// store first, then walking provider tiers in order and persisting whichever
// answer is produced.
type Resolver struct {
	store    Store
	geocoder Geocoder
	images   ImageStore

	weather    *Cascade[WeatherQuery, *WeatherReport]
	markets    *Cascade[[]string, []PriceQuote]
	predictors *Cascade[[]string, []PriceQuote]
	soil       *Cascade[Coordinates, *SoilReport]
	advisors   *Cascade[CropContext, *CropAdvice]
	pests      *Cascade[PestQuery, *PestDiagnosis]

	freshness    time.Duration
	defaultCrops []string
	timeout      time.Duration
	now          func() time.Time
	logger       *zap.Logger
	recorder     Recorder
}

// NewResolver wires the store, geocoder, image store and provider tiers.
func NewResolver(store Store, sources Sources, geocoder Geocoder, images ImageStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:        store,
		geocoder:     geocoder,
		images:       images,
		freshness:    DefaultFreshness,
		defaultCrops: DefaultCrops,
		timeout:      defaultResolveTimeout,
		now:          time.Now,
		logger:       zap.NewNop(),
		recorder:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("resolver")

	r.weather = NewCascade(FactWeather, func(w *WeatherReport) bool { return w == nil }, WeatherTiers(sources.Weather...)...).
		observe(r.logger, r.recorder)
	r.markets = NewCascade(FactMarket, emptyQuotes, MarketTiers(sources.Markets...)...).
		observe(r.logger, r.recorder)
	r.predictors = NewCascade(FactMarket, emptyQuotes, MarketTiers(sources.Predictors...)...).
		observe(r.logger, r.recorder)
	r.soil = NewCascade(FactSoil, func(s *SoilReport) bool { return s == nil }, SoilTiers(sources.Soil...)...).
		observe(r.logger, r.recorder)
	r.advisors = NewCascade(FactCrop, func(a *CropAdvice) bool { return a == nil || len(a.RecommendedCrops) == 0 }, AdvisorTiers(sources.Advisors...)...).
		observe(r.logger, r.recorder)
	r.pests = NewCascade(FactPest, func(p *PestDiagnosis) bool { return p == nil || p.Pest == "" }, PestTiers(sources.Pests...)...).
		observe(r.logger, r.recorder)
	return r
}

func emptyQuotes(q []PriceQuote) bool { return len(q) == 0 }

// detach keeps a resolution running after its caller goes away so the answer
// is still persisted, while bounding it by the resolver timeout.
func (r *Resolver) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
}

func (r *Resolver) finish(fact string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	r.recorder.Resolution(fact, outcome, time.Since(start))
}

// IsFresh reports whether a snapshot can still be served without refetching.
func (r *Resolver) IsFresh(s WeatherSnapshot) bool {
	if s.UpdatedAt.IsZero() {
		return false
	}
	return !s.UpdatedAt.Before(r.now().Add(-r.freshness))
}

// LatestWeather returns the newest stored snapshot for a location, matched
// case-insensitively.
func (r *Resolver) LatestWeather(location string) (WeatherSnapshot, error) {
	matches := r.store.Weather().List(func(s WeatherSnapshot) bool {
		return strings.EqualFold(s.Location, location)
	})
	if len(matches) == 0 {
		return WeatherSnapshot{}, ErrNotFound
	}
	latest := matches[0]
	for _, s := range matches[1:] {
		if !s.UpdatedAt.Before(latest.UpdatedAt) {
			latest = s
		}
	}
	return latest, nil
}

type weatherRequest struct {
	Location string `validate:"required"`
}

// ResolveWeather returns the current weather for a location, serving a fresh
// stored snapshot when one exists and otherwise fetching and persisting a new one.
func (r *Resolver) ResolveWeather(ctx context.Context, location string) (snap WeatherSnapshot, err error) {
	location = strings.TrimSpace(location)
	if err := Validate(weatherRequest{Location: location}); err != nil {
		return WeatherSnapshot{}, err
	}

	if cached, err := r.LatestWeather(location); err == nil && r.IsFresh(cached) {
		r.recorder.CacheLookup(FactWeather, true)
		r.logger.Debug("weather cache hit", zap.String("location", location), zap.String("id", cached.ID))
		return cached, nil
	}
	r.recorder.CacheLookup(FactWeather, false)

	start := time.Now()
	defer func() { r.finish(FactWeather, start, err) }()

	ctx, cancel := r.detach(ctx)
	defer cancel()

	out, err := r.weather.Run(ctx, WeatherQuery{Location: location})
	if err != nil {
		r.logger.Error("weather resolution failed", zap.String("location", location), zap.Error(err))
		return WeatherSnapshot{}, err
	}

	rep := out.Value
	source := rep.Source
	if source == "" {
		source = out.Tier
	}
	alerts := rep.Alerts
	if alerts == nil {
		alerts = []string{}
	}
	return r.store.Weather().Create(WeatherSnapshot{
		Location:    location,
		Temperature: rep.Temperature,
		Humidity:    rep.Humidity,
		WindSpeed:   rep.WindSpeed,
		UVIndex:     rep.UVIndex,
		Rainfall:    rep.Rainfall,
		Pressure:    rep.Pressure,
		Description: fmt.Sprintf("%s (Source: %s)", rep.Description, Provenance(out.Origin, source)),
		Alerts:      alerts,
	}), nil
}

// MarketPrices is the answer to a price query. Synthetic results come from
// generative or baseline predictions and are never persisted.
type MarketPrices struct {
	Prices    []MarketPrice `json:"prices"`
	Tier      string        `json:"tier,omitempty"`
	Cached    bool          `json:"cached"`
	Synthetic bool          `json:"synthetic"`
}

// ResolveMarketPrices returns prices for the crop filter, or for every stored
// crop when crop is empty. Stored prices never expire. When nothing matches,
// the persisted tiers are consulted for the requested crop (or the default
// crop batch) and the first non-empty answer is stored and returned, even if
// it covers only some of the requested crops. If every persisted tier fails,
// unpersisted predictions are returned instead.
func (r *Resolver) ResolveMarketPrices(ctx context.Context, crop string) (res MarketPrices, err error) {
	crop = strings.TrimSpace(crop)
	needle := strings.ToLower(crop)
	stored := r.store.MarketPrices().List(func(p MarketPrice) bool {
		return needle == "" || strings.Contains(strings.ToLower(p.CropName), needle)
	})
	if len(stored) > 0 {
		r.recorder.CacheLookup(FactMarket, true)
		return MarketPrices{Prices: stored, Cached: true}, nil
	}
	r.recorder.CacheLookup(FactMarket, false)

	start := time.Now()
	defer func() { r.finish(FactMarket, start, err) }()

	ctx, cancel := r.detach(ctx)
	defer cancel()

	crops := r.defaultCrops
	if crop != "" {
		crops = []string{crop}
	}

	out, err := r.markets.Run(ctx, crops)
	if err == nil {
		prices := make([]MarketPrice, 0, len(out.Value))
		for _, q := range out.Value {
			prices = append(prices, r.store.MarketPrices().Create(priceFromQuote(q, out.Origin, out.Tier)))
		}
		return MarketPrices{Prices: prices, Tier: out.Tier}, nil
	}
	r.logger.Warn("persisted market tiers exhausted, falling back to predictions",
		zap.Strings("crops", crops), zap.Error(err))

	quotes, tier := r.predict(ctx, crops)
	prices := make([]MarketPrice, 0, len(quotes))
	now := r.now().UTC()
	for _, q := range quotes {
		p := priceFromQuote(q, OriginAI, tier)
		p.UpdatedAt = now
		prices = append(prices, p)
	}
	return MarketPrices{Prices: prices, Tier: tier, Synthetic: true}, nil
}

// predict runs the generative tiers and falls back to baseline estimates.
func (r *Resolver) predict(ctx context.Context, crops []string) ([]PriceQuote, string) {
	out, err := r.predictors.Run(ctx, crops)
	if err == nil {
		return out.Value, out.Tier
	}
	r.logger.Warn("market predictors unavailable, using baseline estimates", zap.Error(err))
	return BaselinePredictions(crops), "baseline"
}

func priceFromQuote(q PriceQuote, origin Origin, tier string) MarketPrice {
	source := q.Source
	if source == "" {
		source = tier
	}
	unit := q.Unit
	if unit == "" {
		unit = "quintal"
	}
	return MarketPrice{
		CropName:        q.Crop,
		Price:           q.Price,
		Unit:            unit,
		Market:          fmt.Sprintf("%s (%s)", q.Market, Provenance(origin, source)),
		Location:        q.Location,
		Trend:           TrendFor(q.Change),
		TrendPercentage: q.Change,
	}
}

// CropRequest asks for a crop recommendation for a field.
type CropRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Location string `json:"location" validate:"required"`
	SoilType string `json:"soilType" validate:"required"`
	Climate  string `json:"climate" validate:"required"`
	Season   string `json:"season" validate:"required"`
}

// RecommendCrops gathers weather and soil context for the field and walks the
// advisor tiers. Advisors that need measured data decline when either weather
// or soil is missing, so the request falls through to generative advice built
// from whatever context exists plus defaults.
func (r *Resolver) RecommendCrops(ctx context.Context, req CropRequest) (rec CropRecommendation, err error) {
	if err := Validate(req); err != nil {
		return CropRecommendation{}, err
	}

	start := time.Now()
	defer func() { r.finish(FactCrop, start, err) }()

	ctx, cancel := r.detach(ctx)
	defer cancel()

	cctx := r.cropContext(ctx, req)

	out, err := r.advisors.Run(ctx, cctx)
	if err != nil {
		r.logger.Error("crop recommendation failed", zap.String("location", req.Location), zap.Error(err))
		return CropRecommendation{}, err
	}

	advice := *out.Value
	source := advice.Source
	if source == "" {
		source = out.Tier
	}
	advice.Source = Provenance(out.Origin, source)

	confidence := advice.Confidence
	if confidence <= 0 {
		confidence = DefaultConfidence
	}
	advice.Confidence = math.Min(confidence, 1)

	return r.store.CropRecommendations().Create(CropRecommendation{
		UserID:          req.UserID,
		CropType:        strings.Join(advice.RecommendedCrops, ", "),
		SoilType:        req.SoilType,
		Climate:         req.Climate,
		Season:          req.Season,
		Confidence:      advice.Confidence,
		Recommendations: &advice,
	}), nil
}

func (r *Resolver) cropContext(ctx context.Context, req CropRequest) CropContext {
	// Weather is looked up by name unless the location resolved; soil needs
	// a point and falls back to the default one.
	wq := WeatherQuery{Location: req.Location}
	coords := DefaultCoordinates
	if r.geocoder != nil {
		if c, err := r.geocoder.Resolve(ctx, req.Location); err == nil {
			coords = c
			wq.Coordinates = &c
		} else {
			r.logger.Info("using default coordinates for soil",
				zap.String("location", req.Location),
				zap.Error(err))
		}
	}

	cctx := CropContext{
		Location:    req.Location,
		Coordinates: coords,
		SoilType:    req.SoilType,
		Climate:     req.Climate,
		Season:      req.Season,
		Temperature: DefaultTemperature,
		Humidity:    DefaultHumidity,
		Rainfall:    DefaultRainfall,
	}

	// Only measured weather counts as context; synthetic weather would make
	// generated advice look grounded.
	if w, err := r.weather.Excluding(OriginAI).Run(ctx, wq); err == nil {
		cctx.Weather = w.Value
		cctx.Temperature = w.Value.Temperature
		cctx.Humidity = w.Value.Humidity
		cctx.Rainfall = w.Value.Rainfall
	}
	if s, err := r.soil.Run(ctx, coords); err == nil {
		cctx.Soil = s.Value
	}
	r.logger.Debug("crop context gathered",
		zap.String("location", req.Location),
		zap.Bool("weather", cctx.Weather != nil),
		zap.Bool("soil", cctx.Soil != nil))
	return cctx
}

// PestRequest carries an uploaded image for diagnosis.
type PestRequest struct {
	UserID      string `validate:"required"`
	Image       []byte `validate:"required,min=1,max=10485760"`
	MimeType    string
	Description string
}

// DiagnosePest walks the pest tiers for the image and persists the detection.
func (r *Resolver) DiagnosePest(ctx context.Context, req PestRequest) (det PestDetection, err error) {
	if err := Validate(req); err != nil {
		return PestDetection{}, err
	}
	if req.MimeType == "" {
		req.MimeType = http.DetectContentType(req.Image)
	}

	start := time.Now()
	defer func() { r.finish(FactPest, start, err) }()

	ctx, cancel := r.detach(ctx)
	defer cancel()

	out, err := r.pests.Run(ctx, PestQuery{Image: req.Image, MimeType: req.MimeType, Description: req.Description})
	if err != nil {
		r.logger.Error("pest diagnosis failed", zap.String("user", req.UserID), zap.Error(err))
		return PestDetection{}, err
	}

	var ref string
	if r.images != nil {
		ref, err = r.images.Save(ctx, req.UserID, req.Image, req.MimeType)
		if err != nil {
			r.logger.Warn("storing pest image failed", zap.String("user", req.UserID), zap.Error(err))
			ref, err = "", nil
		}
	}

	d := out.Value
	source := d.Source
	if source == "" {
		source = out.Tier
	}
	return r.store.PestDetections().Create(PestDetection{
		UserID:          req.UserID,
		ImageURL:        ref,
		DetectedPest:    d.Pest,
		Severity:        d.Severity,
		OrganicSolution: d.OrganicSolution,
		AyurvedicRemedy: d.AyurvedicRemedy,
		Confidence:      math.Max(0, math.Min(d.Confidence, 1)),
		Source:          Provenance(out.Origin, source),
	}), nil
}
