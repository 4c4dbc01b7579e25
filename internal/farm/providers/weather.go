package providers

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

var conditionText = map[Condition]string{
	ConditionUnknown: "Conditions unknown",
	ConditionClear:   "Clear sky",
	ConditionCloudy:  "Cloudy",
	ConditionRain:    "Rain",
	ConditionSnow:    "Snow",
	ConditionStorm:   "Thunderstorm",
	ConditionMist:    "Mist",
}

// Reading is a single upstream's normalized current conditions.
type Reading struct {
	Upstream  string
	Timestamp time.Time

	TemperatureC float64
	HumidityPct  float64
	WindSpeedMS  float64
	PressureHpa  float64
	PrecipMm     float64
	UVIndex      float64
	Condition    Condition
}

// WeatherUpstream is one weather API consulted by the aggregator.
type WeatherUpstream interface {
	Name() string
	Fetch(ctx context.Context, q farm.WeatherQuery) (Reading, error)
}

// Alert thresholds.
const (
	HeatAlertC      = 38.0
	FrostAlertC     = 2.0
	HeavyRainMm     = 20.0
	HighWindMS      = 15.0
	HighUVIndex     = 8.0
	FungalHumidity  = 90.0
	aggregatorLabel = "weather"
)

// WeatherAggregator is the primary weather tier. It queries every configured
// upstream concurrently and merges the successful readings into one report.
type WeatherAggregator struct {
	upstreams []WeatherUpstream
	logger    *zap.Logger
}

// NewWeatherAggregator creates an aggregator over the given upstreams.
func NewWeatherAggregator(logger *zap.Logger, upstreams ...WeatherUpstream) *WeatherAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherAggregator{upstreams: upstreams, logger: logger.Named("weather")}
}

func (a *WeatherAggregator) Name() string {
	names := make([]string, 0, len(a.upstreams))
	for _, u := range a.upstreams {
		names = append(names, u.Name())
	}
	if len(names) == 0 {
		return aggregatorLabel
	}
	return strings.Join(names, "+")
}

func (a *WeatherAggregator) Origin() farm.Origin { return farm.OriginAPI }

// FetchWeather fetches from all upstreams concurrently and aggregates the
// readings that succeeded. It is unavailable when none succeeded.
func (a *WeatherAggregator) FetchWeather(ctx context.Context, q farm.WeatherQuery) (*farm.WeatherReport, error) {
	if len(a.upstreams) == 0 {
		return nil, unavailable(a.Name(), errNotConfigured)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings = make([]*Reading, len(a.upstreams))
	)
	for i, u := range a.upstreams {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := u.Fetch(ctx, q)
			if err != nil {
				// Log and continue; partial success is enough.
				a.logger.Warn("upstream fetch failed",
					zap.String("upstream", u.Name()),
					zap.String("location", q.Location),
					zap.Error(err))
				return
			}
			if r.Upstream == "" {
				r.Upstream = u.Name()
			}

			mu.Lock()
			readings[i] = &r
			mu.Unlock()
		}()
	}
	wg.Wait()

	ok := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if r != nil {
			ok = append(ok, *r)
		}
	}
	if len(ok) == 0 {
		return nil, unavailable(a.Name(), fmt.Errorf("no upstream returned data for %q", q.Location))
	}

	rep := AggregateReadings(ok)
	return &rep, nil
}

// AggregateReadings combines readings into a single report. Numeric fields are
// averaged except UV which takes the maximum; the condition is the majority
// (first seen wins ties). Alerts are derived from the merged values.
func AggregateReadings(readings []Reading) farm.WeatherReport {
	if len(readings) == 0 {
		return farm.WeatherReport{Description: conditionText[ConditionUnknown], Alerts: []string{}}
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumPressure float64
		sumPrecip   float64
		maxUV       float64
	)
	conditionCounts := make(map[Condition]int)
	var conditionOrder []Condition
	names := make([]string, 0, len(readings))

	for _, r := range readings {
		sumTemp += r.TemperatureC
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedMS
		sumPressure += r.PressureHpa
		sumPrecip += r.PrecipMm
		maxUV = math.Max(maxUV, r.UVIndex)

		cond := r.Condition
		if cond == "" {
			cond = ConditionUnknown
		}
		if conditionCounts[cond] == 0 {
			conditionOrder = append(conditionOrder, cond)
		}
		conditionCounts[cond]++
		names = append(names, r.Upstream)
	}

	n := float64(len(readings))

	// Pick majority condition.
	bestCond := ConditionUnknown
	bestCount := 0
	for _, cond := range conditionOrder {
		if conditionCounts[cond] > bestCount {
			bestCount = conditionCounts[cond]
			bestCond = cond
		}
	}

	rep := farm.WeatherReport{
		Source:      strings.Join(names, ", "),
		Temperature: round1(sumTemp / n),
		Humidity:    round1(sumHumidity / n),
		WindSpeed:   round1(sumWind / n),
		UVIndex:     maxUV,
		Rainfall:    round1(sumPrecip / n),
		Pressure:    round1(sumPressure / n),
		Description: conditionText[bestCond],
	}
	rep.Alerts = WeatherAlerts(rep)
	return rep
}

// WeatherAlerts derives farming alerts from current conditions.
func WeatherAlerts(r farm.WeatherReport) []string {
	alerts := []string{}
	if r.Temperature >= HeatAlertC {
		alerts = append(alerts, fmt.Sprintf("Heat stress: %.1f°C, irrigate early morning or evening", r.Temperature))
	}
	if r.Temperature <= FrostAlertC {
		alerts = append(alerts, fmt.Sprintf("Frost risk: %.1f°C, cover sensitive crops", r.Temperature))
	}
	if r.Rainfall >= HeavyRainMm {
		alerts = append(alerts, fmt.Sprintf("Heavy rain: %.1f mm, check field drainage", r.Rainfall))
	}
	if r.WindSpeed >= HighWindMS {
		alerts = append(alerts, fmt.Sprintf("High wind: %.1f m/s, postpone spraying", r.WindSpeed))
	}
	if r.UVIndex >= HighUVIndex {
		alerts = append(alerts, fmt.Sprintf("High UV index %.0f, avoid midday field work", r.UVIndex))
	}
	if r.Humidity >= FungalHumidity {
		alerts = append(alerts, fmt.Sprintf("Humidity %.0f%%, fungal disease risk", r.Humidity))
	}
	return alerts
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
