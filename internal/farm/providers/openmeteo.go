package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// CoordinateResolver resolves a location strictly, failing when it is unknown.
type CoordinateResolver interface {
	Resolve(ctx context.Context, location string) (farm.Coordinates, error)
}

// OpenMeteoProvider reads current conditions from Open-Meteo. It needs
// coordinates and resolves the location itself when the query has none.
type OpenMeteoProvider struct {
	upstream
	baseURL  string
	resolver CoordinateResolver
}

func NewOpenMeteoProvider(cfg HTTPClientConfig, resolver CoordinateResolver) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		upstream: newUpstream("openmeteo", cfg),
		baseURL:  "https://api.open-meteo.com/v1/forecast",
		resolver: resolver,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, q farm.WeatherQuery) (Reading, error) {
	at, err := p.coordinates(ctx, q)
	if err != nil {
		return Reading{}, unavailable(p.name, err)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", at.Lat))
		values.Set("longitude", fmt.Sprintf("%f", at.Lon))
		values.Set("current", "temperature_2m,relative_humidity_2m,precipitation,weather_code,surface_pressure,wind_speed_10m,uv_index")
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	var payload struct {
		Current *struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			Precipitation float64 `json:"precipitation"`
			WeatherCode   int     `json:"weather_code"`
			Pressure      float64 `json:"surface_pressure"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			UVIndex       float64 `json:"uv_index"`
		} `json:"current"`
	}
	if err := p.getJSON(ctx, buildRequest, &payload); err != nil {
		return Reading{}, err
	}
	if payload.Current == nil {
		return Reading{}, unavailable(p.name, fmt.Errorf("no current block for %q", q.Location))
	}
	cur := payload.Current

	ts, err := time.Parse("2006-01-02T15:04", cur.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return Reading{
		Upstream:     p.name,
		Timestamp:    ts.UTC(),
		TemperatureC: cur.Temperature,
		HumidityPct:  cur.Humidity,
		WindSpeedMS:  cur.WindSpeed,
		PressureHpa:  cur.Pressure,
		PrecipMm:     cur.Precipitation,
		UVIndex:      cur.UVIndex,
		Condition:    mapOpenMeteoCondition(cur.WeatherCode),
	}, nil
}

func (p *OpenMeteoProvider) coordinates(ctx context.Context, q farm.WeatherQuery) (farm.Coordinates, error) {
	if q.Coordinates != nil {
		return *q.Coordinates, nil
	}
	if p.resolver == nil {
		return farm.Coordinates{}, fmt.Errorf("latitude and longitude required for %q", q.Location)
	}
	return p.resolver.Resolve(ctx, q.Location)
}

func mapOpenMeteoCondition(code int) Condition {
	// WMO weather interpretation codes (simplified).
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}
