package store

import "github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"

// SampleMarketPrices are the demo mandi prices loaded at startup.
var SampleMarketPrices = []farm.MarketPrice{
	{CropName: "Wheat", Price: 2150, Unit: "quintal", Market: "Delhi Mandi", Location: "Delhi", Trend: farm.TrendUp, TrendPercentage: 2.5},
	{CropName: "Rice", Price: 3200, Unit: "quintal", Market: "Mumbai Mandi", Location: "Mumbai", Trend: farm.TrendStable, TrendPercentage: 0},
	{CropName: "Corn", Price: 1850, Unit: "quintal", Market: "Pune Mandi", Location: "Pune", Trend: farm.TrendDown, TrendPercentage: -1.2},
	{CropName: "Sugarcane", Price: 350, Unit: "quintal", Market: "Kolkata Mandi", Location: "Kolkata", Trend: farm.TrendUp, TrendPercentage: 3.1},
	{CropName: "Cotton", Price: 5200, Unit: "quintal", Market: "Ahmedabad Mandi", Location: "Ahmedabad", Trend: farm.TrendUp, TrendPercentage: 1.8},
}

// SampleCatalog is the demo crop protection catalog.
var SampleCatalog = []farm.CatalogItem{
	{
		Name:              "Neem Oil Concentrate",
		Description:       "Cold-pressed neem oil for soft-bodied insects",
		Price:             450,
		Category:          "organic",
		Brand:             "GreenShield",
		InStock:           true,
		PestTargets:       []string{"aphids", "whitefly", "mealybug"},
		ActiveIngredients: []string{"azadirachtin 1500 ppm"},
		Usage:             "5 ml per litre of water, spray every 7 days",
	},
	{
		Name:              "Trichoderma Bio-Fungicide",
		Description:       "Soil-applied biological control for root rot and wilt",
		Price:             320,
		Category:          "biological",
		Brand:             "BioRaksha",
		InStock:           true,
		PestTargets:       []string{"root rot", "fusarium wilt", "damping off"},
		ActiveIngredients: []string{"Trichoderma viride 1% WP"},
		Usage:             "2.5 kg per acre mixed with farmyard manure",
	},
	{
		Name:              "Pheromone Trap Kit",
		Description:       "Lure and trap set for bollworm monitoring",
		Price:             280,
		Category:          "traps",
		Brand:             "AgriGuard",
		InStock:           true,
		PestTargets:       []string{"pink bollworm", "fruit borer"},
		ActiveIngredients: []string{"gossyplure"},
		Usage:             "5 traps per acre at canopy height",
	},
	{
		Name:              "Imidacloprid 17.8 SL",
		Description:       "Systemic insecticide for sucking pests",
		Price:             540,
		Category:          "chemical",
		Brand:             "KrishiCare",
		InStock:           false,
		PestTargets:       []string{"aphids", "jassids", "thrips"},
		ActiveIngredients: []string{"imidacloprid 17.8% SL"},
		Usage:             "0.3 ml per litre of water",
	},
}

// Seed loads the sample prices and catalog into s.
func Seed(s farm.Store) {
	for _, p := range SampleMarketPrices {
		s.MarketPrices().Create(p)
	}
	for _, c := range SampleCatalog {
		s.Catalog().Create(c)
	}
}
