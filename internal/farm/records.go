package farm

import (
	"sort"
	"strings"
)

// Records is the plain CRUD surface for entities that have no resolution
// logic: users, history queries, IoT readings, community posts and the shop.
type Records struct {
	store Store
}

// NewRecords creates a Records service over the store.
func NewRecords(store Store) *Records {
	return &Records{store: store}
}

// LoginRequest identifies a user by email. Login is a stub: unknown emails
// create an account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username"`
}

// Login finds the user with the given email or creates one.
func (r *Records) Login(req LoginRequest) (User, error) {
	if err := Validate(req); err != nil {
		return User{}, err
	}
	email := strings.TrimSpace(req.Email)
	existing := r.store.Users().List(func(u User) bool { return strings.EqualFold(u.Email, email) })
	if len(existing) > 0 {
		return existing[0], nil
	}
	username := req.Username
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	return r.store.Users().Create(User{Email: email, Username: username, Language: "en"}), nil
}

// User returns a user by id.
func (r *Records) User(id string) (User, error) {
	return r.store.Users().Get(id)
}

// UserUpdate is a partial profile update; nil fields are left unchanged.
type UserUpdate struct {
	Username *string `json:"username" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Language *string `json:"language" validate:"omitempty,min=2"`
	Location *string `json:"location"`
}

// UpdateUser applies a partial update to a user.
func (r *Records) UpdateUser(id string, upd UserUpdate) (User, error) {
	if err := Validate(upd); err != nil {
		return User{}, err
	}
	return r.store.Users().Update(id, func(u *User) {
		if upd.Username != nil {
			u.Username = *upd.Username
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Language != nil {
			u.Language = *upd.Language
		}
		if upd.Location != nil {
			u.Location = *upd.Location
		}
	})
}

// CropRecommendations lists a user's stored recommendations.
func (r *Records) CropRecommendations(userID string) []CropRecommendation {
	return r.store.CropRecommendations().List(func(c CropRecommendation) bool { return c.UserID == userID })
}

// PestDetections lists a user's stored detections.
func (r *Records) PestDetections(userID string) []PestDetection {
	return r.store.PestDetections().List(func(p PestDetection) bool { return p.UserID == userID })
}

// IoTReadingRequest is a sensor sample pushed by a device.
type IoTReadingRequest struct {
	UserID         string   `json:"userId" validate:"required"`
	SensorType     string   `json:"sensorType" validate:"required"`
	SoilMoisture   *float64 `json:"soilMoisture" validate:"omitempty,gte=0,lte=100"`
	Temperature    *float64 `json:"temperature"`
	LightIntensity *float64 `json:"lightIntensity" validate:"omitempty,gte=0"`
	SoilPH         *float64 `json:"soilPh" validate:"omitempty,gte=0,lte=14"`
	Location       string   `json:"location"`
}

// RecordReading stores a sensor sample.
func (r *Records) RecordReading(req IoTReadingRequest) (IoTReading, error) {
	if err := Validate(req); err != nil {
		return IoTReading{}, err
	}
	return r.store.IoTReadings().Create(IoTReading{
		UserID:         req.UserID,
		SensorType:     req.SensorType,
		SoilMoisture:   req.SoilMoisture,
		Temperature:    req.Temperature,
		LightIntensity: req.LightIntensity,
		SoilPH:         req.SoilPH,
		Location:       req.Location,
	}), nil
}

// Readings lists a user's samples in insertion order, truncated to limit
// when limit is positive.
func (r *Records) Readings(userID string, limit int) []IoTReading {
	readings := r.store.IoTReadings().List(func(i IoTReading) bool { return i.UserID == userID })
	if limit > 0 && len(readings) > limit {
		readings = readings[:limit]
	}
	return readings
}

// LatestReading returns a user's newest sample.
func (r *Records) LatestReading(userID string) (IoTReading, error) {
	readings := r.store.IoTReadings().List(func(i IoTReading) bool { return i.UserID == userID })
	if len(readings) == 0 {
		return IoTReading{}, ErrNotFound
	}
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})
	return readings[0], nil
}

// PostRequest creates a community post.
type PostRequest struct {
	UserID   string   `json:"userId" validate:"required"`
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category" validate:"max=50"`
	Tags     []string `json:"tags"`
}

// CreatePost stores a community post.
func (r *Records) CreatePost(req PostRequest) (CommunityPost, error) {
	if err := Validate(req); err != nil {
		return CommunityPost{}, err
	}
	return r.store.CommunityPosts().Create(CommunityPost{
		UserID:   req.UserID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	}), nil
}

// Posts lists community posts newest first, optionally filtered by category.
func (r *Records) Posts(category string) []CommunityPost {
	// the posts table is ordered newest first
	return r.store.CommunityPosts().List(func(p CommunityPost) bool {
		return category == "" || p.Category == category
	})
}

// LikePost increments a post's like counter.
func (r *Records) LikePost(id string) (CommunityPost, error) {
	return r.store.CommunityPosts().Update(id, func(p *CommunityPost) { p.Likes++ })
}
