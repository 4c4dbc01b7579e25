package providers

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/common"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// DefaultAgmarknetResource is the data.gov.in dataset of daily mandi prices.
const DefaultAgmarknetResource = "9ef84268-d588-465a-a308-a864a43d0070"

// commodityAliases maps common crop names to Agmarknet commodity names.
var commodityAliases = map[string]string{
	"corn":    "Maize",
	"paddy":   "Paddy(Dhan)(Common)",
	"mustard": "Mustard",
	"soybean": "Soyabean",
}

// AgmarknetProvider is the primary market price tier backed by the
// data.gov.in Agmarknet resource API.
type AgmarknetProvider struct {
	upstream
	apiKey   string
	resource string
	baseURL  string
	logger   *zap.Logger
}

func NewAgmarknetProvider(cfg HTTPClientConfig, apiKey, resource string, logger *zap.Logger) *AgmarknetProvider {
	if resource == "" {
		resource = DefaultAgmarknetResource
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgmarknetProvider{
		upstream: newUpstream("agmarknet", cfg),
		apiKey:   apiKey,
		resource: resource,
		baseURL:  "https://api.data.gov.in/resource",
		logger:   logger.Named("agmarknet"),
	}
}

func (p *AgmarknetProvider) Name() string        { return p.name }
func (p *AgmarknetProvider) Origin() farm.Origin { return farm.OriginAPI }

// flexNumber accepts both quoted and bare JSON numbers.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" || string(b) == "NR" {
		*n = 0
		return nil
	}
	v, ok := common.ParseAmount(string(b))
	if !ok {
		*n = 0
		return nil
	}
	*n = flexNumber(v)
	return nil
}

type agmarkRecord struct {
	State       string     `json:"state"`
	District    string     `json:"district"`
	Market      string     `json:"market"`
	Commodity   string     `json:"commodity"`
	ArrivalDate string     `json:"arrival_date"`
	ModalPrice  flexNumber `json:"modal_price"`
}

// FetchMarketPrices queries each crop separately and answers for the crops
// that have at least one priced record.
func (p *AgmarknetProvider) FetchMarketPrices(ctx context.Context, crops []string) ([]farm.PriceQuote, error) {
	if p.apiKey == "" {
		return nil, unavailable(p.name, errNotConfigured)
	}

	quotes := make([]farm.PriceQuote, 0, len(crops))
	var lastErr error
	for _, crop := range crops {
		records, err := p.records(ctx, crop)
		if err != nil {
			lastErr = err
			p.logger.Debug("commodity lookup failed", zap.String("crop", crop), zap.Error(err))
			continue
		}
		if q, ok := latestQuote(crop, records); ok {
			q.Source = "Agmarknet"
			quotes = append(quotes, q)
		}
	}
	if len(quotes) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, unavailable(p.name, fmt.Errorf("no priced records for %s", strings.Join(crops, ", ")))
	}
	return quotes, nil
}

func (p *AgmarknetProvider) records(ctx context.Context, crop string) ([]agmarkRecord, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("api-key", p.apiKey)
		values.Set("format", "json")
		values.Set("limit", "100")
		values.Set("filters[commodity]", commodityName(crop))
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/%s?%s", p.baseURL, p.resource, values.Encode()), nil)
	}

	var payload struct {
		Records []agmarkRecord `json:"records"`
	}
	if err := p.getJSON(ctx, buildRequest, &payload); err != nil {
		return nil, err
	}
	return payload.Records, nil
}

func commodityName(crop string) string {
	c := strings.ToLower(strings.TrimSpace(crop))
	if alias, ok := commodityAliases[c]; ok {
		return alias
	}
	if c == "" {
		return c
	}
	return strings.ToUpper(c[:1]) + c[1:]
}

// latestQuote picks the most recent priced arrival and derives the trend from
// the previous arrival at the same market.
func latestQuote(crop string, records []agmarkRecord) (farm.PriceQuote, bool) {
	type arrival struct {
		rec agmarkRecord
		at  time.Time
	}
	byMarket := make(map[string][]arrival)
	for _, r := range records {
		if r.ModalPrice <= 0 {
			continue
		}
		at, err := time.Parse("02/01/2006", r.ArrivalDate)
		if err != nil {
			continue
		}
		key := r.State + "|" + r.District + "|" + r.Market
		byMarket[key] = append(byMarket[key], arrival{rec: r, at: at})
	}
	if len(byMarket) == 0 {
		return farm.PriceQuote{}, false
	}

	var best []arrival
	for _, arrivals := range byMarket {
		sort.SliceStable(arrivals, func(i, j int) bool { return arrivals[i].at.After(arrivals[j].at) })
		if best == nil || arrivals[0].at.After(best[0].at) ||
			(arrivals[0].at.Equal(best[0].at) && arrivals[0].rec.Market < best[0].rec.Market) {
			best = arrivals
		}
	}

	latest := best[0].rec
	var change float64
	if len(best) > 1 && best[1].rec.ModalPrice > 0 {
		prev := float64(best[1].rec.ModalPrice)
		change = math.Round((float64(latest.ModalPrice)-prev)/prev*1000) / 10
	}

	location := latest.District
	if latest.State != "" {
		location = latest.District + ", " + latest.State
	}
	return farm.PriceQuote{
		Crop:     crop,
		Price:    float64(latest.ModalPrice),
		Unit:     "quintal",
		Market:   latest.Market,
		Location: strings.Trim(location, ", "),
		Change:   change,
	}, true
}
