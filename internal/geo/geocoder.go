// Package geo turns free-text farm locations into coordinates.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// ErrUnresolvable is returned when no geocoding backend knows the location.
var ErrUnresolvable = errors.New("location could not be geocoded")

// DefaultNominatimURL is the public OpenStreetMap search endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// Config configures the geocoder backends.
type Config struct {
	NominatimURL string
	GoogleAPIKey string
	Client       *http.Client
}

type lookupFunc func(ctx context.Context, location string) (farm.Coordinates, error)

// Geocoder resolves locations through Google (when a key is configured) and
// then Nominatim. It satisfies farm.Geocoder.
type Geocoder struct {
	lookups []namedLookup
	logger  *zap.Logger
}

type namedLookup struct {
	name string
	fn   lookupFunc
}

var _ farm.Geocoder = (*Geocoder)(nil)

// New creates a Geocoder.
func New(cfg Config, logger *zap.Logger) *Geocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	nominatim := cfg.NominatimURL
	if nominatim == "" {
		nominatim = DefaultNominatimURL
	}

	g := &Geocoder{logger: logger.Named("geo")}
	if cfg.GoogleAPIKey != "" {
		geocoder.ApiKey = cfg.GoogleAPIKey
		g.lookups = append(g.lookups, namedLookup{name: "google", fn: googleLookup})
	}
	g.lookups = append(g.lookups, namedLookup{name: "nominatim", fn: nominatimLookup(client, nominatim)})
	return g
}

// Resolve returns the coordinates of location or ErrUnresolvable. Inputs of
// the form "lat,lon" are parsed directly.
func (g *Geocoder) Resolve(ctx context.Context, location string) (farm.Coordinates, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return farm.Coordinates{}, ErrUnresolvable
	}
	if c, ok := parseLatLon(location); ok {
		return c, nil
	}

	for _, l := range g.lookups {
		c, err := l.fn(ctx, location)
		if err == nil {
			return c, nil
		}
		g.logger.Debug("geocoding backend failed",
			zap.String("backend", l.name),
			zap.String("location", location),
			zap.Error(err))
	}
	return farm.Coordinates{}, fmt.Errorf("%w: %q", ErrUnresolvable, location)
}

func parseLatLon(s string) (farm.Coordinates, bool) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return farm.Coordinates{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return farm.Coordinates{}, false
	}
	return farm.Coordinates{Lat: lat, Lon: lon}, true
}

func googleLookup(ctx context.Context, location string) (farm.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return farm.Coordinates{}, err
	}
	loc, err := geocoder.Geocoding(geocoder.Address{City: location})
	if err != nil {
		return farm.Coordinates{}, err
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return farm.Coordinates{}, ErrUnresolvable
	}
	return farm.Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}

func nominatimLookup(client *http.Client, endpoint string) lookupFunc {
	return func(ctx context.Context, location string) (farm.Coordinates, error) {
		values := url.Values{}
		values.Set("format", "json")
		values.Set("limit", "1")
		values.Set("q", location)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+values.Encode(), nil)
		if err != nil {
			return farm.Coordinates{}, err
		}
		// Nominatim's usage policy requires an identifying agent.
		req.Header.Set("User-Agent", "agrismart/1.0")

		resp, err := client.Do(req)
		if err != nil {
			return farm.Coordinates{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return farm.Coordinates{}, fmt.Errorf("nominatim status %d", resp.StatusCode)
		}

		var places []struct {
			Lat string `json:"lat"`
			Lon string `json:"lon"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
			return farm.Coordinates{}, fmt.Errorf("decode nominatim: %w", err)
		}
		if len(places) == 0 {
			return farm.Coordinates{}, ErrUnresolvable
		}
		lat, err := strconv.ParseFloat(places[0].Lat, 64)
		if err != nil {
			return farm.Coordinates{}, err
		}
		lon, err := strconv.ParseFloat(places[0].Lon, 64)
		if err != nil {
			return farm.Coordinates{}, err
		}
		return farm.Coordinates{Lat: lat, Lon: lon}, nil
	}
}
