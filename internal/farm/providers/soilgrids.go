package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// SoilGridsProvider reads topsoil properties from the ISRIC SoilGrids API.
type SoilGridsProvider struct {
	upstream
	baseURL string
}

func NewSoilGridsProvider(cfg HTTPClientConfig) *SoilGridsProvider {
	return &SoilGridsProvider{
		upstream: newUpstream("soilgrids", cfg),
		baseURL:  "https://rest.isric.org/soilgrids/v2.0/properties/query",
	}
}

func (p *SoilGridsProvider) Name() string        { return p.name }
func (p *SoilGridsProvider) Origin() farm.Origin { return farm.OriginAPI }

type soilLayer struct {
	Name        string `json:"name"`
	UnitMeasure struct {
		DFactor float64 `json:"d_factor"`
	} `json:"unit_measure"`
	Depths []struct {
		Label  string `json:"label"`
		Values struct {
			Mean *float64 `json:"mean"`
		} `json:"values"`
	} `json:"depths"`
}

// FetchSoilData queries the 0-5cm mean of pH, clay, sand and organic carbon.
func (p *SoilGridsProvider) FetchSoilData(ctx context.Context, at farm.Coordinates) (*farm.SoilReport, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", at.Lat))
		values.Set("lon", fmt.Sprintf("%f", at.Lon))
		for _, prop := range []string{"phh2o", "clay", "sand", "soc"} {
			values.Add("property", prop)
		}
		values.Set("depth", "0-5cm")
		values.Set("value", "mean")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	var payload struct {
		Properties struct {
			Layers []soilLayer `json:"layers"`
		} `json:"properties"`
	}
	if err := p.getJSON(ctx, buildRequest, &payload); err != nil {
		return nil, err
	}

	props := make(map[string]float64, 4)
	for _, l := range payload.Properties.Layers {
		if v, ok := l.topsoilMean(); ok {
			props[l.Name] = v
		}
	}
	ph, hasPH := props["phh2o"]
	clay, hasClay := props["clay"]
	sand, hasSand := props["sand"]
	if !hasPH || !hasClay || !hasSand {
		return nil, unavailable(p.name, fmt.Errorf("no soil data at %.4f,%.4f", at.Lat, at.Lon))
	}

	return &farm.SoilReport{
		Source:        "SoilGrids",
		PH:            ph,
		Clay:          clay,
		Sand:          sand,
		OrganicCarbon: props["soc"],
		Texture:       TextureClass(clay, sand),
	}, nil
}

func (l soilLayer) topsoilMean() (float64, bool) {
	for _, d := range l.Depths {
		if d.Values.Mean == nil {
			continue
		}
		factor := l.UnitMeasure.DFactor
		if factor == 0 {
			factor = 1
		}
		return math.Round(*d.Values.Mean/factor*10) / 10, true
	}
	return 0, false
}

// TextureClass maps clay and sand percentages to a simplified USDA texture class.
func TextureClass(clay, sand float64) string {
	switch {
	case clay >= 40:
		return "clay"
	case sand >= 85:
		return "sand"
	case sand >= 70:
		return "loamy sand"
	case clay >= 27 && sand <= 45:
		return "clay loam"
	case clay >= 20 && sand > 45:
		return "sandy clay loam"
	case sand >= 52:
		return "sandy loam"
	default:
		return "loam"
	}
}
