package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// WeatherResolver is the part of the resolver the warmer drives.
type WeatherResolver interface {
	ResolveWeather(ctx context.Context, location string) (farm.WeatherSnapshot, error)
}

// Scheduler periodically resolves weather for configured locations so that
// requests find a fresh snapshot in the store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	resolver  WeatherResolver
	locations []string
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(locations []string, interval time.Duration, resolver WeatherResolver, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		resolver:  resolver,
		locations: locations,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger.Named("warmer"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 30
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce resolves every location concurrently. Locations with a fresh
// snapshot are served from the store and cost nothing.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.logger.Debug("running weather warm job", zap.Int("locations", len(s.locations)))

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if _, err := s.resolver.ResolveWeather(ctx, loc); err != nil {
				s.logger.Warn("warm failed", zap.String("location", loc), zap.Error(err))
			}
		}()
	}
	wg.Wait()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
