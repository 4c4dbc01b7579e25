package farm_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/store"
)

type stub struct {
	name   string
	origin farm.Origin
	calls  int
}

func (s *stub) Name() string        { return s.name }
func (s *stub) Origin() farm.Origin { return s.origin }

type weatherStub struct {
	stub
	report *farm.WeatherReport
	err    error
	seen   farm.WeatherQuery
	ctxErr error
}

func (w *weatherStub) FetchWeather(ctx context.Context, q farm.WeatherQuery) (*farm.WeatherReport, error) {
	w.calls++
	w.seen = q
	if w.ctxErr = ctx.Err(); w.ctxErr != nil {
		return nil, w.ctxErr
	}
	return w.report, w.err
}

type marketStub struct {
	stub
	quotes []farm.PriceQuote
	err    error
	asked  []string
}

func (m *marketStub) FetchMarketPrices(_ context.Context, crops []string) ([]farm.PriceQuote, error) {
	m.calls++
	m.asked = crops
	return m.quotes, m.err
}

type soilStub struct {
	stub
	report *farm.SoilReport
	at     farm.Coordinates
}

func (s *soilStub) FetchSoilData(_ context.Context, at farm.Coordinates) (*farm.SoilReport, error) {
	s.calls++
	s.at = at
	if s.report == nil {
		return nil, farm.ErrUnavailable
	}
	return s.report, nil
}

type advisorStub struct {
	stub
	needsData bool
	advice    *farm.CropAdvice
	seen      farm.CropContext
}

func (a *advisorStub) RecommendCrops(_ context.Context, c farm.CropContext) (*farm.CropAdvice, error) {
	a.calls++
	a.seen = c
	if a.needsData && !c.Complete() {
		return nil, farm.ErrUnavailable
	}
	return a.advice, nil
}

type pestStub struct {
	stub
	diagnosis *farm.PestDiagnosis
}

func (p *pestStub) FetchPestDiagnosis(context.Context, farm.PestQuery) (*farm.PestDiagnosis, error) {
	p.calls++
	return p.diagnosis, nil
}

type fixedGeocoder struct{ at farm.Coordinates }

func (g fixedGeocoder) Resolve(context.Context, string) (farm.Coordinates, error) { return g.at, nil }

type unknownGeocoder struct{}

func (unknownGeocoder) Resolve(context.Context, string) (farm.Coordinates, error) {
	return farm.Coordinates{}, errors.New("no match")
}

type imageStub struct {
	saved int
	err   error
}

func (i *imageStub) Save(context.Context, string, []byte, string) (string, error) {
	i.saved++
	if i.err != nil {
		return "", i.err
	}
	return "s3://bucket/leaf.jpg", nil
}

type clock struct{ now time.Time }

func newClock() *clock {
	return &clock{now: time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newStore(c *clock) *store.MemoryStore {
	return store.NewMemoryStore(store.WithClock(c.Now))
}

func TestResolveWeatherStoresAndServesFreshSnapshot(t *testing.T) {
	clk := newClock()
	st := newStore(clk)
	primary := &weatherStub{stub: stub{name: "OpenWeatherMap"}, report: &farm.WeatherReport{Temperature: 29, Humidity: 60, Description: "Clear sky"}}
	r := farm.NewResolver(st, farm.Sources{Weather: []farm.WeatherSource{primary}}, nil, nil, farm.WithClock(clk.Now))

	snap, err := r.ResolveWeather(context.Background(), "Pune")
	require.NoError(t, err)
	assert.Equal(t, "Pune", snap.Location)
	assert.Equal(t, 29.0, snap.Temperature)
	assert.Contains(t, snap.Description, "OpenWeatherMap")
	assert.Equal(t, []string{}, snap.Alerts)
	assert.Equal(t, 1, primary.calls)

	clk.Advance(30 * time.Minute)
	again, err := r.ResolveWeather(context.Background(), "Pune")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, again.ID)
	assert.Equal(t, 1, primary.calls)
}

func TestWeatherFreshnessBoundary(t *testing.T) {
	clk := newClock()
	st := newStore(clk)
	primary := &weatherStub{stub: stub{name: "api"}, report: &farm.WeatherReport{Temperature: 25, Description: "Cloudy"}}
	r := farm.NewResolver(st, farm.Sources{Weather: []farm.WeatherSource{primary}}, nil, nil, farm.WithClock(clk.Now))

	_, err := r.ResolveWeather(context.Background(), "Nashik")
	require.NoError(t, err)

	// exactly 60 minutes old is still fresh
	clk.Advance(farm.DefaultFreshness)
	_, err = r.ResolveWeather(context.Background(), "nashik")
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)

	clk.Advance(time.Second)
	snap, err := r.ResolveWeather(context.Background(), "Nashik")
	require.NoError(t, err)
	assert.Equal(t, 2, primary.calls)
	assert.True(t, clk.now.Equal(snap.UpdatedAt))

	latest, err := r.LatestWeather("NASHIK")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)
	assert.Len(t, st.Weather().List(nil), 2)
}

func TestIsFresh(t *testing.T) {
	clk := newClock()
	r := farm.NewResolver(newStore(clk), farm.Sources{}, nil, nil, farm.WithClock(clk.Now), farm.WithFreshness(10*time.Minute))

	assert.False(t, r.IsFresh(farm.WeatherSnapshot{}))
	assert.True(t, r.IsFresh(farm.WeatherSnapshot{UpdatedAt: clk.now.Add(-10 * time.Minute)}))
	assert.False(t, r.IsFresh(farm.WeatherSnapshot{UpdatedAt: clk.now.Add(-11 * time.Minute)}))
}

func TestResolveWeatherFallsBackToAI(t *testing.T) {
	st := store.NewMemoryStore()
	primary := &weatherStub{stub: stub{name: "api"}, err: errors.New("timeout")}
	ai := &weatherStub{stub: stub{name: "generative", origin: farm.OriginAI}, report: &farm.WeatherReport{Temperature: 31, Description: "Sunny"}}
	r := farm.NewResolver(st, farm.Sources{Weather: []farm.WeatherSource{primary, ai}}, nil, nil)

	snap, err := r.ResolveWeather(context.Background(), "Jaipur")
	require.NoError(t, err)
	assert.Equal(t, "Sunny (Source: AI-generated)", snap.Description)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, ai.calls)
}

func TestResolveWeatherAllTiersFail(t *testing.T) {
	st := store.NewMemoryStore()
	primary := &weatherStub{stub: stub{name: "api"}, err: errors.New("timeout")}
	ai := &weatherStub{stub: stub{name: "generative", origin: farm.OriginAI}}
	r := farm.NewResolver(st, farm.Sources{Weather: []farm.WeatherSource{primary, ai}}, nil, nil)

	_, err := r.ResolveWeather(context.Background(), "Jaipur")
	assert.ErrorIs(t, err, farm.ErrResolutionFailed)
	assert.Empty(t, st.Weather().List(nil))
}

func TestResolveWeatherOutlivesCancelledCaller(t *testing.T) {
	st := store.NewMemoryStore()
	primary := &weatherStub{stub: stub{name: "api"}, report: &farm.WeatherReport{Temperature: 27, Description: "Haze"}}
	r := farm.NewResolver(st, farm.Sources{Weather: []farm.WeatherSource{primary}}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := r.ResolveWeather(ctx, "Indore")
	require.NoError(t, err)
	assert.NoError(t, primary.ctxErr)
	assert.Equal(t, 1, primary.calls)

	stored := st.Weather().List(nil)
	require.Len(t, stored, 1)
	assert.Equal(t, snap.ID, stored[0].ID)
	assert.Equal(t, "Indore", stored[0].Location)
}

func TestResolveWeatherRequiresLocation(t *testing.T) {
	primary := &weatherStub{stub: stub{name: "api"}}
	r := farm.NewResolver(store.NewMemoryStore(), farm.Sources{Weather: []farm.WeatherSource{primary}}, nil, nil)

	_, err := r.ResolveWeather(context.Background(), "  ")
	assert.ErrorIs(t, err, farm.ErrValidation)
	assert.Zero(t, primary.calls)
}

func TestMarketPricesServedFromStore(t *testing.T) {
	st := store.NewMemoryStore()
	store.Seed(st)
	api := &marketStub{stub: stub{name: "agmarknet"}}
	r := farm.NewResolver(st, farm.Sources{Markets: []farm.MarketSource{api}}, nil, nil)

	res, err := r.ResolveMarketPrices(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Len(t, res.Prices, len(store.SampleMarketPrices))

	res, err = r.ResolveMarketPrices(context.Background(), "CORN")
	require.NoError(t, err)
	require.Len(t, res.Prices, 1)
	assert.Equal(t, "Corn", res.Prices[0].CropName)
	assert.Zero(t, api.calls)
}

func TestMarketPricesPersistProviderAnswer(t *testing.T) {
	st := store.NewMemoryStore()
	api := &marketStub{stub: stub{name: "agmarknet"}, err: errors.New("quota")}
	scrape := &marketStub{stub: stub{name: "market-scraper", origin: farm.OriginScrape}, quotes: []farm.PriceQuote{
		{Crop: "Onion", Price: 1450, Market: "Lasalgaon", Location: "Nashik", Change: -3, Source: "example.org"},
	}}
	r := farm.NewResolver(st, farm.Sources{Markets: []farm.MarketSource{api, scrape}}, nil, nil)

	res, err := r.ResolveMarketPrices(context.Background(), "onion")
	require.NoError(t, err)
	assert.False(t, res.Synthetic)
	assert.Equal(t, "market-scraper", res.Tier)
	require.Len(t, res.Prices, 1)

	p := res.Prices[0]
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Lasalgaon (web scrape: example.org)", p.Market)
	assert.Equal(t, farm.TrendDown, p.Trend)
	assert.Equal(t, "quintal", p.Unit)
	assert.Equal(t, []string{"onion"}, api.asked)

	res, err = r.ResolveMarketPrices(context.Background(), "onion")
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, scrape.calls)
}

func TestMarketPricesPrimaryTierShortCircuits(t *testing.T) {
	st := store.NewMemoryStore()
	api := &marketStub{stub: stub{name: "agmarknet"}, quotes: []farm.PriceQuote{{Crop: "Soybean", Price: 4600, Market: "Indore"}}}
	scrape := &marketStub{stub: stub{name: "market-scraper", origin: farm.OriginScrape}, quotes: []farm.PriceQuote{{Crop: "Soybean", Price: 1}}}
	ai := &marketStub{stub: stub{name: "generative", origin: farm.OriginAI}, quotes: []farm.PriceQuote{{Crop: "Soybean", Price: 2}}}
	r := farm.NewResolver(st, farm.Sources{
		Markets:    []farm.MarketSource{api, scrape},
		Predictors: []farm.MarketSource{ai},
	}, nil, nil)

	res, err := r.ResolveMarketPrices(context.Background(), "soybean")
	require.NoError(t, err)
	assert.Equal(t, "agmarknet", res.Tier)
	require.Len(t, res.Prices, 1)
	assert.Equal(t, 4600.0, res.Prices[0].Price)
	assert.Equal(t, 1, api.calls)
	assert.Zero(t, scrape.calls)
	assert.Zero(t, ai.calls)
}

func TestMarketPricesPartialBatch(t *testing.T) {
	st := store.NewMemoryStore()
	api := &marketStub{stub: stub{name: "agmarknet"}, quotes: []farm.PriceQuote{
		{Crop: "wheat", Price: 2200, Market: "Azadpur"},
		{Crop: "rice", Price: 3100, Market: "Karnal"},
	}}
	r := farm.NewResolver(st, farm.Sources{Markets: []farm.MarketSource{api}}, nil, nil,
		farm.WithDefaultCrops([]string{"wheat", "rice", "cotton"}))

	res, err := r.ResolveMarketPrices(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"wheat", "rice", "cotton"}, api.asked)
	assert.Len(t, res.Prices, 2)
	assert.Len(t, st.MarketPrices().List(nil), 2)
}

func TestMarketPricesSyntheticFallback(t *testing.T) {
	st := store.NewMemoryStore()
	api := &marketStub{stub: stub{name: "agmarknet"}}
	scrape := &marketStub{stub: stub{name: "market-scraper", origin: farm.OriginScrape}}
	ai := &marketStub{stub: stub{name: "generative", origin: farm.OriginAI}}
	r := farm.NewResolver(st, farm.Sources{
		Markets:    []farm.MarketSource{api, scrape},
		Predictors: []farm.MarketSource{ai},
	}, nil, nil)

	res, err := r.ResolveMarketPrices(context.Background(), "teff")
	require.NoError(t, err)
	assert.True(t, res.Synthetic)
	require.NotEmpty(t, res.Prices)
	for _, p := range res.Prices {
		assert.Contains(t, p.Market, farm.AIMarker)
		assert.Empty(t, p.ID)
	}
	assert.Equal(t, 1, ai.calls)
	assert.Empty(t, st.MarketPrices().List(nil))
}

func TestMarketPricesPredictionsFromModel(t *testing.T) {
	st := store.NewMemoryStore()
	ai := &marketStub{stub: stub{name: "generative", origin: farm.OriginAI}, quotes: []farm.PriceQuote{
		{Crop: "teff", Price: 4000, Market: "Predicted market rate"},
	}}
	r := farm.NewResolver(st, farm.Sources{Predictors: []farm.MarketSource{ai}}, nil, nil)

	res, err := r.ResolveMarketPrices(context.Background(), "teff")
	require.NoError(t, err)
	assert.Equal(t, "generative", res.Tier)
	assert.Equal(t, 4000.0, res.Prices[0].Price)
	assert.Equal(t, "Predicted market rate (AI-generated)", res.Prices[0].Market)
	assert.Empty(t, st.MarketPrices().List(nil))
}

func cropRequest() farm.CropRequest {
	return farm.CropRequest{UserID: "u1", Location: "Nagpur", SoilType: "black", Climate: "tropical", Season: "kharif"}
}

func TestRecommendCropsWithMeasuredContext(t *testing.T) {
	st := store.NewMemoryStore()
	weather := &weatherStub{stub: stub{name: "api"}, report: &farm.WeatherReport{Temperature: 30, Humidity: 70, Rainfall: 4}}
	soil := &soilStub{stub: stub{name: "soilgrids"}, report: &farm.SoilReport{PH: 7.1, Texture: "clay"}}
	rules := &advisorStub{stub: stub{name: "agronomy-rules"}, needsData: true, advice: &farm.CropAdvice{
		RecommendedCrops: []string{"Cotton", "Soybean"}, Confidence: 0.8, Source: "agronomy rules",
	}}
	ai := &advisorStub{stub: stub{name: "generative", origin: farm.OriginAI}}
	r := farm.NewResolver(st, farm.Sources{
		Weather:  []farm.WeatherSource{weather},
		Soil:     []farm.SoilSource{soil},
		Advisors: []farm.CropAdvisor{rules, ai},
	}, fixedGeocoder{at: farm.Coordinates{Lat: 21.1, Lon: 79.1}}, nil)

	rec, err := r.RecommendCrops(context.Background(), cropRequest())
	require.NoError(t, err)
	assert.Equal(t, "Cotton, Soybean", rec.CropType)
	assert.Equal(t, 0.8, rec.Confidence)
	assert.Equal(t, "agronomy rules", rec.Recommendations.Source)
	assert.Equal(t, 30.0, rules.seen.Temperature)
	assert.Equal(t, farm.Coordinates{Lat: 21.1, Lon: 79.1}, rules.seen.Coordinates)
	require.NotNil(t, weather.seen.Coordinates)
	assert.Equal(t, farm.Coordinates{Lat: 21.1, Lon: 79.1}, *weather.seen.Coordinates)
	assert.Equal(t, farm.Coordinates{Lat: 21.1, Lon: 79.1}, soil.at)
	assert.Zero(t, ai.calls)

	// the weather fetched as context is not persisted
	assert.Empty(t, st.Weather().List(nil))
	assert.Len(t, st.CropRecommendations().List(nil), 1)
}

func TestRecommendCropsUnresolvedLocationFetchesWeatherByName(t *testing.T) {
	st := store.NewMemoryStore()
	weather := &weatherStub{stub: stub{name: "api"}, report: &farm.WeatherReport{Temperature: 18, Humidity: 80, Rainfall: 2}}
	soil := &soilStub{stub: stub{name: "soilgrids"}, report: &farm.SoilReport{PH: 5.8, Texture: "loam"}}
	rules := &advisorStub{stub: stub{name: "agronomy-rules"}, needsData: true, advice: &farm.CropAdvice{
		RecommendedCrops: []string{"Tea"}, Confidence: 0.7,
	}}
	r := farm.NewResolver(st, farm.Sources{
		Weather:  []farm.WeatherSource{weather},
		Soil:     []farm.SoilSource{soil},
		Advisors: []farm.CropAdvisor{rules},
	}, unknownGeocoder{}, nil)

	req := cropRequest()
	req.Location = "Ooty"
	_, err := r.RecommendCrops(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Ooty", weather.seen.Location)
	assert.Nil(t, weather.seen.Coordinates)
	assert.Equal(t, 18.0, rules.seen.Temperature)
	// soil still needs a point
	assert.Equal(t, farm.DefaultCoordinates, soil.at)
}

func TestRecommendCropsFallsThroughWithoutMeasuredData(t *testing.T) {
	st := store.NewMemoryStore()
	aiWeather := &weatherStub{stub: stub{name: "generative", origin: farm.OriginAI}, report: &farm.WeatherReport{Temperature: 40}}
	rules := &advisorStub{stub: stub{name: "agronomy-rules"}, needsData: true}
	ai := &advisorStub{stub: stub{name: "generative", origin: farm.OriginAI}, advice: &farm.CropAdvice{
		RecommendedCrops: []string{"Pearl Millet"},
	}}
	r := farm.NewResolver(st, farm.Sources{
		Weather:  []farm.WeatherSource{aiWeather},
		Advisors: []farm.CropAdvisor{rules, ai},
	}, nil, nil)

	rec, err := r.RecommendCrops(context.Background(), cropRequest())
	require.NoError(t, err)
	assert.Equal(t, farm.AIMarker, rec.Recommendations.Source)
	assert.Equal(t, farm.DefaultConfidence, rec.Confidence)

	// generated weather never counts as measured context
	assert.Zero(t, aiWeather.calls)
	assert.Nil(t, ai.seen.Weather)
	assert.Equal(t, farm.DefaultTemperature, ai.seen.Temperature)
	assert.Equal(t, 1, rules.calls)
}

func TestRecommendCropsValidation(t *testing.T) {
	r := farm.NewResolver(store.NewMemoryStore(), farm.Sources{}, nil, nil)

	req := cropRequest()
	req.Season = ""
	_, err := r.RecommendCrops(context.Background(), req)
	assert.ErrorIs(t, err, farm.ErrValidation)
}

func TestRecommendCropsAllAdvisorsFail(t *testing.T) {
	st := store.NewMemoryStore()
	rules := &advisorStub{stub: stub{name: "agronomy-rules"}, needsData: true}
	r := farm.NewResolver(st, farm.Sources{Advisors: []farm.CropAdvisor{rules}}, nil, nil)

	_, err := r.RecommendCrops(context.Background(), cropRequest())
	assert.ErrorIs(t, err, farm.ErrResolutionFailed)
	assert.Empty(t, st.CropRecommendations().List(nil))
}

func TestDiagnosePest(t *testing.T) {
	st := store.NewMemoryStore()
	api := &pestStub{stub: stub{name: "plant.id"}}
	ai := &pestStub{stub: stub{name: "generative", origin: farm.OriginAI}, diagnosis: &farm.PestDiagnosis{
		Pest: "Aphids", Severity: "medium", Confidence: 1.4,
	}}
	images := &imageStub{}
	r := farm.NewResolver(st, farm.Sources{Pests: []farm.PestSource{api, ai}}, nil, images)

	det, err := r.DiagnosePest(context.Background(), farm.PestRequest{UserID: "u1", Image: []byte("\xff\xd8\xff\xe0jpeg")})
	require.NoError(t, err)
	assert.Equal(t, "Aphids", det.DetectedPest)
	assert.Equal(t, farm.AIMarker, det.Source)
	assert.Equal(t, 1.0, det.Confidence)
	assert.Equal(t, "s3://bucket/leaf.jpg", det.ImageURL)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 1, images.saved)
}

func TestDiagnosePestImageStoreFailureIsTolerated(t *testing.T) {
	st := store.NewMemoryStore()
	api := &pestStub{stub: stub{name: "plant.id"}, diagnosis: &farm.PestDiagnosis{Pest: "Leaf spot", Source: "Plant.id"}}
	r := farm.NewResolver(st, farm.Sources{Pests: []farm.PestSource{api}}, nil, &imageStub{err: errors.New("bucket gone")})

	det, err := r.DiagnosePest(context.Background(), farm.PestRequest{UserID: "u1", Image: []byte("img")})
	require.NoError(t, err)
	assert.Empty(t, det.ImageURL)
	assert.Equal(t, "Plant.id", det.Source)
	assert.Len(t, st.PestDetections().List(nil), 1)
}

func TestDiagnosePestValidation(t *testing.T) {
	r := farm.NewResolver(store.NewMemoryStore(), farm.Sources{}, nil, nil)

	_, err := r.DiagnosePest(context.Background(), farm.PestRequest{UserID: "u1"})
	assert.ErrorIs(t, err, farm.ErrValidation)

	big := []byte(strings.Repeat("x", farm.MaxImageBytes+1))
	_, err = r.DiagnosePest(context.Background(), farm.PestRequest{UserID: "u1", Image: big})
	assert.ErrorIs(t, err, farm.ErrValidation)
}
