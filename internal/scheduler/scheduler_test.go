package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

type recordingResolver struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingResolver) ResolveWeather(_ context.Context, location string) (farm.WeatherSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, location)
	if location == "Atlantis" {
		return farm.WeatherSnapshot{}, errors.New("boom")
	}
	return farm.WeatherSnapshot{Location: location}, nil
}

func TestRunOnceResolvesEveryLocation(t *testing.T) {
	res := &recordingResolver{}
	s := New([]string{"Delhi", "Pune", "Atlantis"}, 0, res, nil)

	s.RunOnce(context.Background())

	sort.Strings(res.calls)
	assert.Equal(t, []string{"Atlantis", "Delhi", "Pune"}, res.calls)
}

func TestStartWithoutLocationsSchedulesNothing(t *testing.T) {
	res := &recordingResolver{}
	s := New(nil, 0, res, nil)
	require.NoError(t, s.Start())
	s.Stop()
	assert.Empty(t, res.calls)
}
