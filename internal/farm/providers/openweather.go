package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// OpenWeatherProvider reads current conditions from OpenWeatherMap.
type OpenWeatherProvider struct {
	upstream
	apiKey  string
	baseURL string
}

func NewOpenWeatherProvider(cfg HTTPClientConfig, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		upstream: newUpstream("openweathermap", cfg),
		apiKey:   apiKey,
		baseURL:  "https://api.openweathermap.org/data/2.5/weather",
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, q farm.WeatherQuery) (Reading, error) {
	if p.apiKey == "" {
		return Reading{}, unavailable(p.name, errNotConfigured)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		if q.Coordinates != nil {
			values.Set("lat", fmt.Sprintf("%f", q.Coordinates.Lat))
			values.Set("lon", fmt.Sprintf("%f", q.Coordinates.Lon))
		} else {
			values.Set("q", q.Location)
		}
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Rain struct {
			OneH   float64 `json:"1h"`
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}
	if err := p.getJSON(ctx, buildRequest, &payload); err != nil {
		return Reading{}, err
	}
	if len(payload.Weather) == 0 && payload.Main.Humidity == 0 {
		return Reading{}, unavailable(p.name, fmt.Errorf("empty observation for %q", q.Location))
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	precip := payload.Rain.OneH
	if precip == 0 {
		precip = payload.Rain.ThreeH
	}

	cond := ConditionUnknown
	if len(payload.Weather) > 0 {
		cond = mapOpenWeatherCondition(payload.Weather[0].Main)
	}

	return Reading{
		Upstream:     p.name,
		Timestamp:    ts,
		TemperatureC: payload.Main.Temp,
		HumidityPct:  payload.Main.Humidity,
		WindSpeedMS:  payload.Wind.Speed,
		PressureHpa:  payload.Main.Pressure,
		PrecipMm:     precip,
		Condition:    cond,
	}, nil
}

func mapOpenWeatherCondition(main string) Condition {
	switch main {
	case "Clear":
		return ConditionClear
	case "Clouds":
		return ConditionCloudy
	case "Rain", "Drizzle":
		return ConditionRain
	case "Snow":
		return ConditionSnow
	case "Thunderstorm":
		return ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust":
		return ConditionMist
	default:
		return ConditionUnknown
	}
}
