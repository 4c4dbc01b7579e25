package farm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Tier outcomes reported to a Recorder.
const (
	OutcomeHit         = "hit"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"
)

// Recorder observes cache lookups and cascade progress.
type Recorder interface {
	CacheLookup(fact string, hit bool)
	TierOutcome(fact, tier, outcome string)
	Resolution(fact, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string, bool)                 {}
func (nopRecorder) TierOutcome(string, string, string)       {}
func (nopRecorder) Resolution(string, string, time.Duration) {}

// Tier is one stage of a cascade.
type Tier[Q, R any] struct {
	Name   string
	Origin Origin
	Fetch  func(ctx context.Context, q Q) (R, error)
}

// Outcome is the answer of the first tier that produced data.
type Outcome[R any] struct {
	Value  R
	Tier   string
	Origin Origin
}

// Cascade consults its tiers strictly in order and stops at the first one
// that returns a non-empty result. Errors and empty results are both treated
// as "unavailable" and the next tier is tried. Each tier is called at most
// once per Run.
type Cascade[Q, R any] struct {
	fact     string
	tiers    []Tier[Q, R]
	empty    func(R) bool
	logger   *zap.Logger
	recorder Recorder
}

// NewCascade builds a cascade for the named fact. empty decides whether a
// successful result still counts as "no data".
func NewCascade[Q, R any](fact string, empty func(R) bool, tiers ...Tier[Q, R]) *Cascade[Q, R] {
	return &Cascade[Q, R]{
		fact:     fact,
		tiers:    tiers,
		empty:    empty,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
}

func (c *Cascade[Q, R]) observe(logger *zap.Logger, recorder Recorder) *Cascade[Q, R] {
	if logger != nil {
		c.logger = logger
	}
	if recorder != nil {
		c.recorder = recorder
	}
	return c
}

// Len returns the number of tiers.
func (c *Cascade[Q, R]) Len() int { return len(c.tiers) }

// Excluding returns a cascade over the tiers whose origin is not o.
func (c *Cascade[Q, R]) Excluding(o Origin) *Cascade[Q, R] {
	kept := make([]Tier[Q, R], 0, len(c.tiers))
	for _, t := range c.tiers {
		if t.Origin != o {
			kept = append(kept, t)
		}
	}
	out := NewCascade(c.fact, c.empty, kept...)
	out.logger, out.recorder = c.logger, c.recorder
	return out
}

// Run executes the cascade. It returns a *ResolutionError (matching
// ErrResolutionFailed) when no tier produced data.
func (c *Cascade[Q, R]) Run(ctx context.Context, q Q) (Outcome[R], error) {
	var (
		tried   = make([]string, 0, len(c.tiers))
		lastErr error
	)
	for _, t := range c.tiers {
		tried = append(tried, t.Name)

		res, err := c.call(ctx, t, q)
		if err != nil {
			lastErr = err
			c.recorder.TierOutcome(c.fact, t.Name, OutcomeUnavailable)
			c.logger.Warn("tier unavailable",
				zap.String("fact", c.fact),
				zap.String("tier", t.Name),
				zap.Error(err))
			continue
		}
		if c.empty != nil && c.empty(res) {
			lastErr = fmt.Errorf("%w: %s returned no data", ErrUnavailable, t.Name)
			c.recorder.TierOutcome(c.fact, t.Name, OutcomeEmpty)
			c.logger.Info("tier returned no data",
				zap.String("fact", c.fact),
				zap.String("tier", t.Name))
			continue
		}

		c.recorder.TierOutcome(c.fact, t.Name, OutcomeHit)
		return Outcome[R]{Value: res, Tier: t.Name, Origin: t.Origin}, nil
	}

	if lastErr == nil {
		lastErr = ErrUnavailable
	}
	return Outcome[R]{}, &ResolutionError{Fact: c.fact, Tried: tried, Last: lastErr}
}

// call invokes one tier and turns a panic or a bare error into ErrUnavailable.
func (c *Cascade[Q, R]) call(ctx context.Context, t Tier[Q, R], q Q) (res R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s panicked: %v", ErrUnavailable, t.Name, p)
		}
	}()
	res, err = t.Fetch(ctx, q)
	if err != nil && !errors.Is(err, ErrUnavailable) {
		err = fmt.Errorf("%w: %s: %v", ErrUnavailable, t.Name, err)
	}
	return res, err
}

func tiersOf[S Source, Q, R any](sources []S, method func(S) func(context.Context, Q) (R, error)) []Tier[Q, R] {
	tiers := make([]Tier[Q, R], 0, len(sources))
	for _, s := range sources {
		tiers = append(tiers, Tier[Q, R]{Name: s.Name(), Origin: s.Origin(), Fetch: method(s)})
	}
	return tiers
}

// WeatherTiers adapts weather sources into cascade tiers, keeping their order.
func WeatherTiers(sources ...WeatherSource) []Tier[WeatherQuery, *WeatherReport] {
	return tiersOf(sources, func(s WeatherSource) func(context.Context, WeatherQuery) (*WeatherReport, error) {
		return s.FetchWeather
	})
}

// MarketTiers adapts market sources into cascade tiers, keeping their order.
func MarketTiers(sources ...MarketSource) []Tier[[]string, []PriceQuote] {
	return tiersOf(sources, func(s MarketSource) func(context.Context, []string) ([]PriceQuote, error) {
		return s.FetchMarketPrices
	})
}

// SoilTiers adapts soil sources into cascade tiers, keeping their order.
func SoilTiers(sources ...SoilSource) []Tier[Coordinates, *SoilReport] {
	return tiersOf(sources, func(s SoilSource) func(context.Context, Coordinates) (*SoilReport, error) {
		return s.FetchSoilData
	})
}

// AdvisorTiers adapts crop advisors into cascade tiers, keeping their order.
func AdvisorTiers(sources ...CropAdvisor) []Tier[CropContext, *CropAdvice] {
	return tiersOf(sources, func(s CropAdvisor) func(context.Context, CropContext) (*CropAdvice, error) {
		return s.RecommendCrops
	})
}

// PestTiers adapts pest sources into cascade tiers, keeping their order.
func PestTiers(sources ...PestSource) []Tier[PestQuery, *PestDiagnosis] {
	return tiersOf(sources, func(s PestSource) func(context.Context, PestQuery) (*PestDiagnosis, error) {
		return s.FetchPestDiagnosis
	})
}
