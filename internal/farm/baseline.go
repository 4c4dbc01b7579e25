package farm

import "strings"

// baselinePrices are rough national modal prices in INR per quintal.
var baselinePrices = map[string]float64{
	"wheat":     2150,
	"rice":      3200,
	"paddy":     2183,
	"corn":      1850,
	"maize":     1850,
	"sugarcane": 350,
	"cotton":    5200,
	"soybean":   4600,
	"mustard":   5450,
	"onion":     1800,
	"potato":    1200,
	"tomato":    1500,
}

const baselineFallbackPrice = 2500

// BaselinePredictions returns last-resort estimates for crops when neither
// provider data nor generative predictions are available. The results are
// marked as synthetic by the caller and never persisted.
func BaselinePredictions(crops []string) []PriceQuote {
	quotes := make([]PriceQuote, 0, len(crops))
	for _, c := range crops {
		name := strings.TrimSpace(c)
		if name == "" {
			continue
		}
		price, ok := baselinePrices[strings.ToLower(name)]
		if !ok {
			price = baselineFallbackPrice
		}
		quotes = append(quotes, PriceQuote{
			Crop:     name,
			Price:    price,
			Unit:     "quintal",
			Market:   "Estimated national average",
			Location: "India",
			Source:   "baseline estimate",
		})
	}
	return quotes
}
