package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// Severity thresholds applied to a diagnosis probability.
const (
	HighSeverityAt   = 0.7
	MediumSeverityAt = 0.4
)

// SeverityFor classifies a probability as high, medium or low.
func SeverityFor(probability float64) string {
	switch {
	case probability >= HighSeverityAt:
		return "high"
	case probability >= MediumSeverityAt:
		return "medium"
	default:
		return "low"
	}
}

// PlantIDProvider is the primary pest tier backed by the Plant.id health
// assessment API.
type PlantIDProvider struct {
	upstream
	apiKey  string
	baseURL string
}

func NewPlantIDProvider(cfg HTTPClientConfig, apiKey string) *PlantIDProvider {
	return &PlantIDProvider{
		upstream: newUpstream("plant.id", cfg),
		apiKey:   apiKey,
		baseURL:  "https://plant.id/api/v3/health_assessment",
	}
}

func (p *PlantIDProvider) Name() string        { return p.name }
func (p *PlantIDProvider) Origin() farm.Origin { return farm.OriginAPI }

type plantIDSuggestion struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Details     struct {
		LocalName string `json:"local_name"`
		Treatment struct {
			Biological []string `json:"biological"`
			Chemical   []string `json:"chemical"`
			Prevention []string `json:"prevention"`
		} `json:"treatment"`
	} `json:"details"`
}

// FetchPestDiagnosis submits the image and maps the most probable disease.
func (p *PlantIDProvider) FetchPestDiagnosis(ctx context.Context, q farm.PestQuery) (*farm.PestDiagnosis, error) {
	if p.apiKey == "" {
		return nil, unavailable(p.name, errNotConfigured)
	}

	body, err := json.Marshal(map[string]any{
		"images":         []string{dataURI(q.MimeType, q.Image)},
		"similar_images": false,
	})
	if err != nil {
		return nil, unavailable(p.name, err)
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost,
			p.baseURL+"?language=en&details=local_name,description,treatment", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Api-Key", p.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	var payload struct {
		Result struct {
			IsHealthy struct {
				Binary      bool    `json:"binary"`
				Probability float64 `json:"probability"`
			} `json:"is_healthy"`
			Disease struct {
				Suggestions []plantIDSuggestion `json:"suggestions"`
			} `json:"disease"`
		} `json:"result"`
	}
	if err := p.getJSON(ctx, buildRequest, &payload); err != nil {
		return nil, err
	}

	res := payload.Result
	if res.IsHealthy.Binary {
		return &farm.PestDiagnosis{
			Pest:            "No pest or disease detected",
			Severity:        "low",
			OrganicSolution: "Continue regular monitoring and balanced organic fertilization.",
			AyurvedicRemedy: "Spray diluted neem leaf extract every two weeks as a preventive.",
			Confidence:      res.IsHealthy.Probability,
			Source:          "Plant.id",
		}, nil
	}
	if len(res.Disease.Suggestions) == 0 {
		return nil, unavailable(p.name, fmt.Errorf("no disease suggestions"))
	}

	top := res.Disease.Suggestions[0]
	name := top.Name
	if top.Details.LocalName != "" {
		name = top.Details.LocalName
	}
	return &farm.PestDiagnosis{
		Pest:            name,
		Severity:        SeverityFor(top.Probability),
		OrganicSolution: joinOr(top.Details.Treatment.Biological, "Remove affected leaves and apply a neem oil spray."),
		AyurvedicRemedy: joinOr(top.Details.Treatment.Prevention, "Apply a garlic and chilli extract spray in the evening."),
		Confidence:      top.Probability,
		Source:          "Plant.id",
	}, nil
}

func dataURI(mimeType string, image []byte) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, " ")
}
