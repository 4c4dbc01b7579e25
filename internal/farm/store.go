package farm

// Table is the keyed collection contract for one entity type.
//
// Create assigns a fresh id and timestamp and never deduplicates. Get, Update
// and Delete return ErrNotFound for unknown ids. List returns records in
// insertion order unless the table was built with a natural order. Concurrent
// updates to the same id are last-writer-wins.
type Table[T any] interface {
	Get(id string) (T, error)
	List(match func(T) bool) []T
	Create(rec T) T
	Update(id string, patch func(*T)) (T, error)
	Delete(id string) error
}

// Store bundles one Table per entity. No referential integrity is enforced
// between tables.
type Store interface {
	Users() Table[User]
	Weather() Table[WeatherSnapshot]
	MarketPrices() Table[MarketPrice]
	CropRecommendations() Table[CropRecommendation]
	PestDetections() Table[PestDetection]
	IoTReadings() Table[IoTReading]
	CommunityPosts() Table[CommunityPost]
	Catalog() Table[CatalogItem]
	CartItems() Table[CartItem]
	Orders() Table[Order]
}
