package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/genai"
)

const agronomistSystem = "You are an agricultural expert for Indian farmers. Reply with a single JSON object and nothing else."

// GenerativeProvider is the last-resort tier for every capability. Its
// answers are synthesized by a model and tagged as AI-generated.
type GenerativeProvider struct {
	client genai.Client
}

func NewGenerativeProvider(client genai.Client) *GenerativeProvider {
	return &GenerativeProvider{client: client}
}

func (p *GenerativeProvider) Name() string {
	if p.client == nil {
		return "generative"
	}
	return "generative:" + p.client.Model()
}

func (p *GenerativeProvider) Origin() farm.Origin { return farm.OriginAI }

func generate[T any](ctx context.Context, p *GenerativeProvider, req genai.Request) (T, error) {
	var zero T
	if p.client == nil {
		return zero, unavailable(p.Name(), errNotConfigured)
	}
	if req.System == "" {
		req.System = agronomistSystem
	}
	text, err := p.client.Generate(ctx, req)
	if err != nil {
		return zero, unavailable(p.Name(), err)
	}
	out, err := genai.ParseJSON[T](text)
	if err != nil {
		return zero, unavailable(p.Name(), err)
	}
	return out, nil
}

// FetchWeather asks the model for typical current conditions at the location.
func (p *GenerativeProvider) FetchWeather(ctx context.Context, q farm.WeatherQuery) (*farm.WeatherReport, error) {
	prompt := fmt.Sprintf(`Estimate the typical current weather for %q in India.
Return JSON: {"temperature": number (°C), "humidity": number (%%), "windSpeed": number (m/s),
"uvIndex": number, "rainfall": number (mm), "pressure": number (hPa), "description": string,
"alerts": [string]} where alerts are farming advisories.`, q.Location)

	rep, err := generate[farm.WeatherReport](ctx, p, genai.Request{Prompt: prompt, Temperature: 0.3})
	if err != nil {
		return nil, err
	}
	if rep.Description == "" && rep.Temperature == 0 && rep.Humidity == 0 {
		return nil, unavailable(p.Name(), fmt.Errorf("model returned no weather"))
	}
	rep.Source = p.Name()
	if rep.Alerts == nil {
		rep.Alerts = WeatherAlerts(rep)
	}
	return &rep, nil
}

type predictedPrice struct {
	Crop     string  `json:"crop"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
	Market   string  `json:"market"`
	Location string  `json:"location"`
	Change   float64 `json:"changePercent"`
}

// FetchMarketPrices predicts current mandi prices. Predictions are never persisted.
func (p *GenerativeProvider) FetchMarketPrices(ctx context.Context, crops []string) ([]farm.PriceQuote, error) {
	prompt := fmt.Sprintf(`Predict current Indian mandi modal prices for: %s.
Return JSON: {"prices": [{"crop": string, "price": number (INR), "unit": "quintal",
"market": string, "location": string, "changePercent": number}]}`, strings.Join(crops, ", "))

	out, err := generate[struct {
		Prices []predictedPrice `json:"prices"`
	}](ctx, p, genai.Request{Prompt: prompt, Temperature: 0.2})
	if err != nil {
		return nil, err
	}

	quotes := make([]farm.PriceQuote, 0, len(out.Prices))
	for _, pp := range out.Prices {
		if pp.Crop == "" || pp.Price <= 0 {
			continue
		}
		market := pp.Market
		if market == "" {
			market = "Predicted market rate"
		}
		quotes = append(quotes, farm.PriceQuote{
			Crop:     pp.Crop,
			Price:    pp.Price,
			Unit:     pp.Unit,
			Market:   market,
			Location: pp.Location,
			Change:   pp.Change,
			Source:   p.Name(),
		})
	}
	if len(quotes) == 0 {
		return nil, unavailable(p.Name(), fmt.Errorf("model returned no prices"))
	}
	return quotes, nil
}

// FetchSoilData estimates typical topsoil properties near the coordinate.
func (p *GenerativeProvider) FetchSoilData(ctx context.Context, at farm.Coordinates) (*farm.SoilReport, error) {
	prompt := fmt.Sprintf(`Estimate typical topsoil properties at latitude %.4f, longitude %.4f.
Return JSON: {"ph": number, "clayPercent": number, "sandPercent": number,
"organicCarbon": number (g/kg), "texture": string}`, at.Lat, at.Lon)

	rep, err := generate[farm.SoilReport](ctx, p, genai.Request{Prompt: prompt, Temperature: 0.2})
	if err != nil {
		return nil, err
	}
	if rep.PH <= 0 {
		return nil, unavailable(p.Name(), fmt.Errorf("model returned no soil data"))
	}
	if rep.Texture == "" {
		rep.Texture = TextureClass(rep.Clay, rep.Sand)
	}
	rep.Source = p.Name()
	return &rep, nil
}

// RecommendCrops synthesizes advice from whatever context is available.
func (p *GenerativeProvider) RecommendCrops(ctx context.Context, c farm.CropContext) (*farm.CropAdvice, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommend crops for a farm in %s.\n", c.Location)
	fmt.Fprintf(&b, "Soil type: %s. Climate: %s. Season: %s.\n", c.SoilType, c.Climate, c.Season)
	fmt.Fprintf(&b, "Temperature: %.1f°C. Humidity: %.0f%%. Rainfall: %.1f mm.\n", c.Temperature, c.Humidity, c.Rainfall)
	if c.Soil != nil {
		fmt.Fprintf(&b, "Measured soil: pH %.1f, clay %.0f%%, sand %.0f%%, %s texture.\n",
			c.Soil.PH, c.Soil.Clay, c.Soil.Sand, c.Soil.Texture)
	}
	b.WriteString(`Return JSON: {"recommendedCrops": [string], "reasoning": string,
"soilManagement": string, "irrigation": string, "confidence": number between 0 and 1}`)

	advice, err := generate[farm.CropAdvice](ctx, p, genai.Request{Prompt: b.String(), Temperature: 0.4})
	if err != nil {
		return nil, err
	}
	if len(advice.RecommendedCrops) == 0 {
		return nil, unavailable(p.Name(), fmt.Errorf("model recommended no crops"))
	}
	advice.Source = p.Name()
	return &advice, nil
}

// FetchPestDiagnosis sends the image to a vision model.
func (p *GenerativeProvider) FetchPestDiagnosis(ctx context.Context, q farm.PestQuery) (*farm.PestDiagnosis, error) {
	prompt := `Identify any pest or disease affecting the plant in this image.`
	if q.Description != "" {
		prompt += fmt.Sprintf(" The farmer reports: %q.", q.Description)
	}
	prompt += `
Return JSON: {"pest": string, "severity": "low"|"medium"|"high", "organicSolution": string,
"ayurvedicRemedy": string, "confidence": number between 0 and 1}`

	d, err := generate[farm.PestDiagnosis](ctx, p, genai.Request{
		Prompt:      prompt,
		Image:       q.Image,
		ImageMime:   q.MimeType,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}
	if d.Pest == "" {
		return nil, unavailable(p.Name(), fmt.Errorf("model identified nothing"))
	}
	switch strings.ToLower(d.Severity) {
	case "low", "medium", "high":
		d.Severity = strings.ToLower(d.Severity)
	default:
		d.Severity = SeverityFor(d.Confidence)
	}
	d.Source = p.Name()
	return &d, nil
}
