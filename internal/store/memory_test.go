package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

func TestMemoryTableCRUD(t *testing.T) {
	s := NewMemoryStore()

	created := s.Users().Create(farm.User{Email: "a@example.com"})
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Users().Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := s.Users().Update(created.ID, func(u *farm.User) {
		u.ID = "hijacked"
		u.Username = "asha"
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "asha", updated.Username)

	require.NoError(t, s.Users().Delete(created.ID))
	_, err = s.Users().Get(created.ID)
	assert.ErrorIs(t, err, farm.ErrNotFound)
	assert.ErrorIs(t, s.Users().Delete(created.ID), farm.ErrNotFound)

	_, err = s.Users().Update("missing", func(*farm.User) {})
	assert.ErrorIs(t, err, farm.ErrNotFound)
}

func TestMemoryTableCreateNeverDeduplicates(t *testing.T) {
	s := NewMemoryStore()
	a := s.MarketPrices().Create(farm.MarketPrice{CropName: "Wheat", Price: 2150})
	b := s.MarketPrices().Create(farm.MarketPrice{CropName: "Wheat", Price: 2150})

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, s.prices.Len())
}

func TestMemoryTableOrdering(t *testing.T) {
	s := NewMemoryStore()
	for _, title := range []string{"first", "second", "third"} {
		s.CommunityPosts().Create(farm.CommunityPost{Title: title})
		s.IoTReadings().Create(farm.IoTReading{SensorType: title})
	}

	posts := s.CommunityPosts().List(nil)
	require.Len(t, posts, 3)
	assert.Equal(t, "third", posts[0].Title)

	readings := s.IoTReadings().List(func(r farm.IoTReading) bool { return r.SensorType != "second" })
	require.Len(t, readings, 2)
	assert.Equal(t, "first", readings[0].SensorType)
	assert.Equal(t, "third", readings[1].SensorType)
}

func TestMemoryStoreKeepsExplicitTimestamps(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()

	w := s.Weather().Create(farm.WeatherSnapshot{Location: "Pune", UpdatedAt: at})
	assert.True(t, at.Equal(w.UpdatedAt))
}

func TestCartTouchAndOrderDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithClock(func() time.Time { return now }))

	line := s.CartItems().Create(farm.CartItem{UserID: "u1", Quantity: 1})
	now = now.Add(time.Hour)
	line, err := s.CartItems().Update(line.ID, func(c *farm.CartItem) { c.Quantity++ })
	require.NoError(t, err)
	assert.True(t, now.Equal(line.UpdatedAt))

	order := s.Orders().Create(farm.Order{UserID: "u1"})
	assert.Equal(t, farm.OrderPending, order.Status)
}

func TestWeatherHistoryIsNeverPruned(t *testing.T) {
	now := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithClock(func() time.Time { return now }))

	first := s.Weather().Create(farm.WeatherSnapshot{Location: "Pune"})
	for range 5 {
		now = now.Add(24 * time.Hour)
		s.Weather().Create(farm.WeatherSnapshot{Location: "Pune"})
	}

	history := s.Weather().List(nil)
	assert.Len(t, history, 6)
	assert.Equal(t, first.ID, history[0].ID)
}

func TestMemoryTableConcurrentCreate(t *testing.T) {
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IoTReadings().Create(farm.IoTReading{UserID: "u1"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.iot.Len())
}

func TestSeed(t *testing.T) {
	s := NewMemoryStore()
	Seed(s)

	assert.Len(t, s.MarketPrices().List(nil), len(SampleMarketPrices))
	assert.Len(t, s.Catalog().List(nil), len(SampleCatalog))
}
