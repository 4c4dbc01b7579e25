package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/common"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// WeatherAPIProvider reads current conditions from WeatherAPI.com.
type WeatherAPIProvider struct {
	upstream
	apiKey  string
	baseURL string
}

func NewWeatherAPIProvider(cfg HTTPClientConfig, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		upstream: newUpstream("weatherapi", cfg),
		apiKey:   apiKey,
		baseURL:  "https://api.weatherapi.com/v1/current.json",
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, q farm.WeatherQuery) (Reading, error) {
	if p.apiKey == "" {
		return Reading{}, unavailable(p.name, errNotConfigured)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		if q.Coordinates != nil {
			values.Set("q", fmt.Sprintf("%f,%f", q.Coordinates.Lat, q.Coordinates.Lon))
		} else {
			values.Set("q", q.Location)
		}
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	var payload struct {
		Current struct {
			LastUpdatedEpoch int64   `json:"last_updated_epoch"`
			TempC            float64 `json:"temp_c"`
			Humidity         float64 `json:"humidity"`
			WindKph          float64 `json:"wind_kph"`
			PressureMb       float64 `json:"pressure_mb"`
			PrecipMm         float64 `json:"precip_mm"`
			UV               float64 `json:"uv"`
			Condition        struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}
	if err := p.getJSON(ctx, buildRequest, &payload); err != nil {
		return Reading{}, err
	}
	if payload.Current.LastUpdatedEpoch == 0 && payload.Current.Condition.Text == "" {
		return Reading{}, unavailable(p.name, fmt.Errorf("empty observation for %q", q.Location))
	}

	ts := time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	if payload.Current.LastUpdatedEpoch == 0 {
		ts = time.Now().UTC()
	}

	return Reading{
		Upstream:     p.name,
		Timestamp:    ts,
		TemperatureC: payload.Current.TempC,
		HumidityPct:  payload.Current.Humidity,
		WindSpeedMS:  payload.Current.WindKph / 3.6,
		PressureHpa:  payload.Current.PressureMb,
		PrecipMm:     payload.Current.PrecipMm,
		UVIndex:      payload.Current.UV,
		Condition:    mapWeatherAPICondition(payload.Current.Condition.Text),
	}, nil
}

func mapWeatherAPICondition(text string) Condition {
	switch {
	case text == "":
		return ConditionUnknown
	case common.HasAny(text, "thunder", "storm"):
		return ConditionStorm
	case common.HasAny(text, "rain", "shower", "drizzle"):
		return ConditionRain
	case common.HasAny(text, "snow", "sleet", "blizzard"):
		return ConditionSnow
	case common.HasAny(text, "mist", "fog", "haze"):
		return ConditionMist
	case common.HasAny(text, "cloud", "overcast"):
		return ConditionCloudy
	case common.HasAny(text, "sunny", "clear"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}
