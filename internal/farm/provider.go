package farm

import (
	"context"
)

// Origin classifies the kind of tier that produced a fact.
type Origin int

const (
	OriginAPI Origin = iota
	OriginScrape
	OriginAI
)

const (
	// ScrapeMarker tags facts extracted from scraped web pages.
	ScrapeMarker = "web scrape"
	// AIMarker tags facts synthesized by a generative model.
	AIMarker = "AI-generated"
)

func (o Origin) String() string {
	switch o {
	case OriginScrape:
		return "scrape"
	case OriginAI:
		return "ai"
	default:
		return "api"
	}
}

// Provenance returns the marker stamped into a persisted fact's descriptive field.
func Provenance(origin Origin, source string) string {
	switch origin {
	case OriginScrape:
		if source == "" {
			return ScrapeMarker
		}
		return ScrapeMarker + ": " + source
	case OriginAI:
		return AIMarker
	default:
		return source
	}
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DefaultCoordinates (New Delhi) stand in for unresolvable locations where a
// point is mandatory, such as soil lookups.
var DefaultCoordinates = Coordinates{Lat: 28.6139, Lon: 77.2090}

// WeatherQuery identifies the place to fetch weather for. Coordinates are set
// when the caller already geocoded the location.
type WeatherQuery struct {
	Location    string
	Coordinates *Coordinates
}

// WeatherReport is a provider's answer for current conditions.
type WeatherReport struct {
	Source      string   `json:"source"`
	Temperature float64  `json:"temperature"`
	Humidity    float64  `json:"humidity"`
	WindSpeed   float64  `json:"windSpeed"`
	UVIndex     float64  `json:"uvIndex"`
	Rainfall    float64  `json:"rainfall"`
	Pressure    float64  `json:"pressure"`
	Description string   `json:"description"`
	Alerts      []string `json:"alerts"`
}

// PriceQuote is a provider's price for one crop at one market.
type PriceQuote struct {
	Crop     string  `json:"crop"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
	Market   string  `json:"market"`
	Location string  `json:"location"`
	Change   float64 `json:"change"`
	Source   string  `json:"source"`
}

// SoilReport describes topsoil properties at a coordinate.
type SoilReport struct {
	Source        string  `json:"source"`
	PH            float64 `json:"ph"`
	Clay          float64 `json:"clayPercent"`
	Sand          float64 `json:"sandPercent"`
	OrganicCarbon float64 `json:"organicCarbon"`
	Texture       string  `json:"texture"`
}

// CropContext is everything known about a field when recommending crops.
// Temperature, Humidity and Rainfall are always populated, from Weather when
// it is available and from defaults otherwise.
type CropContext struct {
	Location    string
	Coordinates Coordinates
	SoilType    string
	Climate     string
	Season      string
	Weather     *WeatherReport
	Soil        *SoilReport
	Temperature float64
	Humidity    float64
	Rainfall    float64
}

// Complete reports whether both measured weather and soil data are present.
func (c CropContext) Complete() bool {
	return c.Weather != nil && c.Soil != nil
}

// CropAdvice is the structured recommendation payload.
type CropAdvice struct {
	RecommendedCrops []string `json:"recommendedCrops"`
	Reasoning        string   `json:"reasoning,omitempty"`
	SoilManagement   string   `json:"soilManagement,omitempty"`
	Irrigation       string   `json:"irrigation,omitempty"`
	Confidence       float64  `json:"confidence,omitempty"`
	Source           string   `json:"source"`
}

// PestQuery carries an uploaded plant image and the farmer's description.
type PestQuery struct {
	Image       []byte
	MimeType    string
	Description string
}

// PestDiagnosis is a provider's reading of a plant image.
type PestDiagnosis struct {
	Pest            string  `json:"pest"`
	Severity        string  `json:"severity"`
	OrganicSolution string  `json:"organicSolution"`
	AyurvedicRemedy string  `json:"ayurvedicRemedy"`
	Confidence      float64 `json:"confidence"`
	Source          string  `json:"source"`
}

// Source is implemented by every provider adapter.
type Source interface {
	Name() string
	Origin() Origin
}

// WeatherSource fetches current weather.
type WeatherSource interface {
	Source
	FetchWeather(ctx context.Context, q WeatherQuery) (*WeatherReport, error)
}

// MarketSource fetches prices for a batch of crops. It may answer for a
// subset of the requested crops.
type MarketSource interface {
	Source
	FetchMarketPrices(ctx context.Context, crops []string) ([]PriceQuote, error)
}

// SoilSource fetches soil properties at a coordinate.
type SoilSource interface {
	Source
	FetchSoilData(ctx context.Context, at Coordinates) (*SoilReport, error)
}

// CropAdvisor turns field context into crop advice.
type CropAdvisor interface {
	Source
	RecommendCrops(ctx context.Context, c CropContext) (*CropAdvice, error)
}

// PestSource diagnoses pests and diseases from an image.
type PestSource interface {
	Source
	FetchPestDiagnosis(ctx context.Context, q PestQuery) (*PestDiagnosis, error)
}

// Geocoder converts free text into coordinates. It fails when the location
// is unknown.
type Geocoder interface {
	Resolve(ctx context.Context, location string) (Coordinates, error)
}

// ImageStore keeps uploaded images and returns a reference to them.
type ImageStore interface {
	Save(ctx context.Context, userID string, image []byte, mimeType string) (string, error)
}
