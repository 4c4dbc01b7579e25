package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

const agmarknetWheat = `{"records":[
	{"state":"NCT of Delhi","district":"North Delhi","market":"Azadpur","commodity":"Wheat","arrival_date":"31/05/2025","modal_price":"2000"},
	{"state":"NCT of Delhi","district":"North Delhi","market":"Azadpur","commodity":"Wheat","arrival_date":"01/06/2025","modal_price":"2200"},
	{"state":"Punjab","district":"Ludhiana","market":"Khanna","commodity":"Wheat","arrival_date":"28/05/2025","modal_price":2150},
	{"state":"Punjab","district":"Ludhiana","market":"Jagraon","commodity":"Wheat","arrival_date":"02/06/2025","modal_price":"NR"}
]}`

func TestAgmarknetProvider(t *testing.T) {
	var commodities []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/"+DefaultAgmarknetResource))
		assert.Equal(t, "key", r.URL.Query().Get("api-key"))
		commodity := r.URL.Query().Get("filters[commodity]")
		commodities = append(commodities, commodity)
		if commodity == "Wheat" {
			_, _ = w.Write([]byte(agmarknetWheat))
			return
		}
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	p := NewAgmarknetProvider(DefaultHTTPConfig(srv.Client()), "key", "", nil)
	p.baseURL = srv.URL

	quotes, err := p.FetchMarketPrices(context.Background(), []string{"wheat", "corn"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wheat", "Maize"}, commodities)

	require.Len(t, quotes, 1)
	q := quotes[0]
	assert.Equal(t, "wheat", q.Crop)
	assert.Equal(t, 2200.0, q.Price)
	assert.Equal(t, "Azadpur", q.Market)
	assert.Equal(t, "North Delhi, NCT of Delhi", q.Location)
	assert.Equal(t, 10.0, q.Change)
	assert.Equal(t, "Agmarknet", q.Source)
}

func TestAgmarknetProviderNoRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	p := NewAgmarknetProvider(DefaultHTTPConfig(srv.Client()), "key", "", nil)
	p.baseURL = srv.URL

	_, err := p.FetchMarketPrices(context.Background(), []string{"millet"})
	assert.ErrorIs(t, err, farm.ErrUnavailable)
}

func TestAgmarknetProviderWithoutKey(t *testing.T) {
	p := NewAgmarknetProvider(DefaultHTTPConfig(nil), "", "", nil)
	_, err := p.FetchMarketPrices(context.Background(), []string{"wheat"})
	assert.ErrorIs(t, err, farm.ErrUnavailable)
}

func TestCommodityName(t *testing.T) {
	assert.Equal(t, "Maize", commodityName("Corn"))
	assert.Equal(t, "Soyabean", commodityName(" soybean "))
	assert.Equal(t, "Cotton", commodityName("cotton"))
	assert.Equal(t, "", commodityName(""))
}

const pricePage = `<html><body>
<table>
	<tr><th>Commodity</th><th>Market</th><th>Modal price</th></tr>
	<tr><td>Wheat</td><td>Indore</td><td>₹ 2,310 /qtl</td></tr>
	<tr><td>Onion</td><td>Lasalgaon</td><td>1,450</td></tr>
	<tr><td>Cotton</td><td>Rajkot</td><td>n/a</td></tr>
</table>
</body></html>`

func TestScrapeProvider(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "agrismart")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(pricePage))
	}))
	defer page.Close()

	p := NewScrapeProvider(DefaultHTTPConfig(page.Client()), []string{broken.URL, page.URL}, nil)
	assert.Equal(t, farm.OriginScrape, p.Origin())

	quotes, err := p.FetchMarketPrices(context.Background(), []string{"wheat", "cotton"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "wheat", quotes[0].Crop)
	assert.Equal(t, 2310.0, quotes[0].Price)
	assert.Equal(t, "Indore", quotes[0].Market)
	assert.Equal(t, strings.TrimPrefix(page.URL, "http://"), quotes[0].Source)
}

func TestScrapeProviderBreakerIsPerHost(t *testing.T) {
	var deadHits, liveHits int
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		deadHits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer dead.Close()
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		liveHits++
		_, _ = w.Write([]byte(pricePage))
	}))
	defer live.Close()

	cfg := DefaultHTTPConfig(live.Client())
	cfg.Breaker.FailureThreshold = 2
	p := NewScrapeProvider(cfg, []string{dead.URL, live.URL}, nil)

	for i := 0; i < 4; i++ {
		quotes, err := p.FetchMarketPrices(context.Background(), []string{"wheat"})
		require.NoError(t, err)
		assert.Equal(t, 2310.0, quotes[0].Price)
	}
	assert.Equal(t, 2, deadHits)
	assert.Equal(t, 4, liveHits)
}

func TestScrapeProviderNoMatches(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(pricePage))
	}))
	defer page.Close()

	p := NewScrapeProvider(DefaultHTTPConfig(page.Client()), []string{page.URL}, nil)
	_, err := p.FetchMarketPrices(context.Background(), []string{"sugarcane"})
	assert.ErrorIs(t, err, farm.ErrUnavailable)

	_, err = NewScrapeProvider(DefaultHTTPConfig(nil), nil, nil).FetchMarketPrices(context.Background(), []string{"wheat"})
	assert.ErrorIs(t, err, farm.ErrUnavailable)
}
