package providers

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

type cropProfile struct {
	name     string
	phMin    float64
	phMax    float64
	tempMin  float64
	tempMax  float64
	wet      bool // tolerates waterlogging or heavy rain
	seasons  []string
	textures []string
}

var cropProfiles = []cropProfile{
	{name: "Rice", phMin: 5.0, phMax: 7.5, tempMin: 20, tempMax: 37, wet: true, seasons: []string{"kharif"}, textures: []string{"clay", "clay loam"}},
	{name: "Wheat", phMin: 6.0, phMax: 7.5, tempMin: 10, tempMax: 25, seasons: []string{"rabi"}, textures: []string{"loam", "clay loam", "sandy clay loam"}},
	{name: "Maize", phMin: 5.5, phMax: 7.5, tempMin: 18, tempMax: 32, seasons: []string{"kharif", "rabi", "zaid"}, textures: []string{"loam", "sandy loam", "sandy clay loam"}},
	{name: "Cotton", phMin: 6.0, phMax: 8.0, tempMin: 21, tempMax: 35, seasons: []string{"kharif"}, textures: []string{"clay", "clay loam"}},
	{name: "Sugarcane", phMin: 6.0, phMax: 7.8, tempMin: 20, tempMax: 38, wet: true, seasons: []string{"kharif", "zaid"}, textures: []string{"loam", "clay loam"}},
	{name: "Chickpea", phMin: 6.0, phMax: 8.0, tempMin: 10, tempMax: 28, seasons: []string{"rabi"}, textures: []string{"loam", "sandy loam", "clay loam"}},
	{name: "Mustard", phMin: 6.0, phMax: 7.5, tempMin: 10, tempMax: 25, seasons: []string{"rabi"}, textures: []string{"loam", "sandy loam"}},
	{name: "Groundnut", phMin: 6.0, phMax: 7.0, tempMin: 22, tempMax: 34, seasons: []string{"kharif", "zaid"}, textures: []string{"sandy loam", "loamy sand"}},
	{name: "Pearl Millet", phMin: 6.5, phMax: 8.5, tempMin: 24, tempMax: 40, seasons: []string{"kharif", "zaid"}, textures: []string{"sand", "loamy sand", "sandy loam"}},
	{name: "Watermelon", phMin: 6.0, phMax: 7.5, tempMin: 22, tempMax: 38, seasons: []string{"zaid"}, textures: []string{"sandy loam", "loamy sand"}},
}

// AgronomyAdvisor is the rule-based crop advisor. It only answers with
// measured weather and soil; otherwise it declines so a later tier can run.
type AgronomyAdvisor struct {
	top int
}

func NewAgronomyAdvisor() *AgronomyAdvisor { return &AgronomyAdvisor{top: 3} }

func (a *AgronomyAdvisor) Name() string        { return "agronomy-rules" }
func (a *AgronomyAdvisor) Origin() farm.Origin { return farm.OriginAPI }

type scored struct {
	name  string
	score float64
}

// RecommendCrops scores every known crop against soil pH, texture,
// temperature, rainfall and season.
func (a *AgronomyAdvisor) RecommendCrops(_ context.Context, c farm.CropContext) (*farm.CropAdvice, error) {
	if !c.Complete() {
		return nil, unavailable(a.Name(), fmt.Errorf("needs measured weather and soil"))
	}

	season := strings.ToLower(c.Season)
	ranked := make([]scored, 0, len(cropProfiles))
	for _, p := range cropProfiles {
		ranked = append(ranked, scored{name: p.name, score: p.score(c, season)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := min(a.top, len(ranked))
	crops := make([]string, 0, n)
	for _, s := range ranked[:n] {
		if s.score <= 0 {
			break
		}
		crops = append(crops, s.name)
	}
	if len(crops) == 0 {
		return nil, unavailable(a.Name(), fmt.Errorf("no crop suits the conditions"))
	}

	return &farm.CropAdvice{
		RecommendedCrops: crops,
		Reasoning: fmt.Sprintf("Soil pH %.1f with %s texture, %.1f°C and %.1f mm rainfall in %s season.",
			c.Soil.PH, c.Soil.Texture, c.Temperature, c.Rainfall, c.Season),
		SoilManagement: soilManagement(c.Soil),
		Irrigation:     irrigation(c),
		Confidence:     math.Round(ranked[0].score/maxScore*100) / 100,
		Source:         "agronomy rules",
	}, nil
}

const maxScore = 5.0

func (p cropProfile) score(c farm.CropContext, season string) float64 {
	var s float64
	if c.Soil.PH >= p.phMin && c.Soil.PH <= p.phMax {
		s++
	} else if c.Soil.PH >= p.phMin-0.5 && c.Soil.PH <= p.phMax+0.5 {
		s += 0.5
	}
	if c.Temperature >= p.tempMin && c.Temperature <= p.tempMax {
		s++
	}
	for _, t := range p.textures {
		if t == c.Soil.Texture {
			s++
			break
		}
	}
	heavyRain := c.Rainfall >= HeavyRainMm || c.Humidity >= FungalHumidity
	if heavyRain == p.wet {
		s++
	}
	for _, ss := range p.seasons {
		if strings.Contains(season, ss) {
			s++
			break
		}
	}
	return s
}

func soilManagement(s *farm.SoilReport) string {
	var tips []string
	switch {
	case s.PH < 5.5:
		tips = append(tips, "Apply agricultural lime to raise soil pH.")
	case s.PH > 8.0:
		tips = append(tips, "Apply gypsum and organic matter to lower alkalinity.")
	}
	if s.OrganicCarbon > 0 && s.OrganicCarbon < 5 {
		tips = append(tips, "Add farmyard manure or compost to build organic carbon.")
	}
	if s.Sand >= 70 {
		tips = append(tips, "Mulch to reduce moisture loss in sandy soil.")
	}
	if s.Clay >= 40 {
		tips = append(tips, "Use raised beds to improve drainage in heavy clay.")
	}
	if len(tips) == 0 {
		tips = append(tips, "Maintain soil health with crop rotation and green manure.")
	}
	return strings.Join(tips, " ")
}

func irrigation(c farm.CropContext) string {
	switch {
	case c.Rainfall >= HeavyRainMm:
		return "Suspend irrigation and keep drainage channels clear."
	case c.Temperature >= 32 || c.Humidity < 40:
		return "Irrigate every 3-4 days, preferably by drip in the early morning."
	default:
		return "Irrigate weekly, adjusting to soil moisture."
	}
}
