package farm

import (
	"time"
)

// Trend is the direction of a market price movement.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// TrendFor classifies a percentage change.
func TrendFor(change float64) Trend {
	switch {
	case change > 0:
		return TrendUp
	case change < 0:
		return TrendDown
	default:
		return TrendStable
	}
}

// WeatherSnapshot is the persisted weather for a location at a point in time.
// The newest snapshot for a location supersedes older ones; old ones are kept.
type WeatherSnapshot struct {
	ID          string    `json:"id"`
	Location    string    `json:"location"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	UVIndex     float64   `json:"uvIndex"`
	Rainfall    float64   `json:"rainfall"`
	Pressure    float64   `json:"pressure"`
	Description string    `json:"description"`
	Alerts      []string  `json:"alerts"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MarketPrice is one quoted price for a crop at a market.
type MarketPrice struct {
	ID              string    `json:"id,omitempty"`
	CropName        string    `json:"cropName"`
	Price           float64   `json:"price"`
	Unit            string    `json:"unit"`
	Market          string    `json:"market"`
	Location        string    `json:"location"`
	Trend           Trend     `json:"trend"`
	TrendPercentage float64   `json:"trendPercentage"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CropRecommendation is a persisted recommendation for a user.
type CropRecommendation struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	CropType        string      `json:"cropType"`
	SoilType        string      `json:"soilType"`
	Climate         string      `json:"climate"`
	Season          string      `json:"season"`
	Confidence      float64     `json:"confidence"`
	Recommendations *CropAdvice `json:"recommendations"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// PestDetection is a persisted pest diagnosis for an uploaded image.
type PestDetection struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ImageURL        string    `json:"imageUrl"`
	DetectedPest    string    `json:"detectedPest"`
	Severity        string    `json:"severity"`
	OrganicSolution string    `json:"organicSolution"`
	AyurvedicRemedy string    `json:"ayurvedicRemedy"`
	Confidence      float64   `json:"confidence"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"createdAt"`
}

// User is a farmer account. Login is a stub keyed by email.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Language  string    `json:"language"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IoTReading is one sensor sample pushed by a field device.
type IoTReading struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	SensorType     string    `json:"sensorType"`
	SoilMoisture   *float64  `json:"soilMoisture,omitempty"`
	Temperature    *float64  `json:"temperature,omitempty"`
	LightIntensity *float64  `json:"lightIntensity,omitempty"`
	SoilPH         *float64  `json:"soilPh,omitempty"`
	Location       string    `json:"location,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// CommunityPost is a message on the farmer community board.
type CommunityPost struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// CatalogItem is a crop protection product offered in the shop.
type CatalogItem struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Price             float64   `json:"price"`
	Category          string    `json:"category"`
	Brand             string    `json:"brand,omitempty"`
	InStock           bool      `json:"inStock"`
	PestTargets       []string  `json:"pestTargets,omitempty"`
	ActiveIngredients []string  `json:"activeIngredients,omitempty"`
	Usage             string    `json:"usage,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// CartItem is a quantity of a catalog item in a user's cart.
type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ItemID    string    `json:"medicineId"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Order is a checked-out cart.
type Order struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Items           []CartItem `json:"items"`
	TotalAmount     float64    `json:"totalAmount"`
	DeliveryAddress string     `json:"deliveryAddress"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
}
