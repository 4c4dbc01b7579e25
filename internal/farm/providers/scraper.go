package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/common"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

const scraperName = "market-scraper"

// ScrapeProvider is the scrape market tier. It reads price tables from a list
// of public pages and matches rows naming a requested crop. Each host has its
// own breaker so one dead site does not block the others.
type ScrapeProvider struct {
	name   string
	pages  []string
	hosts  map[string]upstream
	logger *zap.Logger
}

func NewScrapeProvider(cfg HTTPClientConfig, pages []string, logger *zap.Logger) *ScrapeProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	hosts := make(map[string]upstream)
	for _, page := range pages {
		host := hostOf(page)
		if _, ok := hosts[host]; !ok {
			hosts[host] = newUpstream(scraperName+":"+host, cfg)
		}
	}
	return &ScrapeProvider{
		name:   scraperName,
		pages:  pages,
		hosts:  hosts,
		logger: logger.Named("scraper"),
	}
}

func (p *ScrapeProvider) Name() string        { return p.name }
func (p *ScrapeProvider) Origin() farm.Origin { return farm.OriginScrape }

// FetchMarketPrices walks the pages in order and keeps the first price found
// for each crop.
func (p *ScrapeProvider) FetchMarketPrices(ctx context.Context, crops []string) ([]farm.PriceQuote, error) {
	if len(p.pages) == 0 {
		return nil, unavailable(p.name, errNotConfigured)
	}

	found := make(map[string]farm.PriceQuote, len(crops))
	for _, page := range p.pages {
		if len(found) == len(crops) {
			break
		}
		doc, err := p.document(ctx, page)
		if err != nil {
			p.logger.Debug("page unavailable", zap.String("url", page), zap.Error(err))
			continue
		}
		for _, q := range scrapeQuotes(doc, crops, hostOf(page)) {
			if _, ok := found[q.Crop]; !ok {
				found[q.Crop] = q
			}
		}
	}

	quotes := make([]farm.PriceQuote, 0, len(found))
	for _, crop := range crops {
		if q, ok := found[crop]; ok {
			quotes = append(quotes, q)
		}
	}
	if len(quotes) == 0 {
		return nil, unavailable(p.name, fmt.Errorf("no price rows for %s", strings.Join(crops, ", ")))
	}
	return quotes, nil
}

func (p *ScrapeProvider) document(ctx context.Context, page string) (*goquery.Document, error) {
	body, err := p.hosts[hostOf(page)].fetch(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, page, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; agrismart/1.0)")
		req.Header.Set("Accept", "text/html")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// scrapeQuotes scans table rows for a cell naming a crop followed by a cell
// holding a positive number.
func scrapeQuotes(doc *goquery.Document, crops []string, source string) []farm.PriceQuote {
	var quotes []farm.PriceQuote
	seen := make(map[string]bool, len(crops))

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		texts := cells.Map(func(_ int, c *goquery.Selection) string {
			return strings.TrimSpace(c.Text())
		})

		for _, crop := range crops {
			if seen[crop] {
				continue
			}
			col := cropColumn(texts, crop)
			if col < 0 {
				continue
			}
			price, market := 0.0, ""
			for _, t := range texts[col+1:] {
				if v, ok := common.ParseAmount(t); ok && v > 0 {
					price = v
					break
				}
				if market == "" && t != "" {
					market = t
				}
			}
			if price == 0 {
				continue
			}
			if market == "" {
				market = source
			}
			seen[crop] = true
			quotes = append(quotes, farm.PriceQuote{
				Crop:     crop,
				Price:    price,
				Unit:     "quintal",
				Market:   market,
				Location: "India",
				Source:   source,
			})
		}
	})
	return quotes
}

func cropColumn(texts []string, crop string) int {
	for i, t := range texts {
		if common.HasAny(t, crop) {
			if _, numeric := common.ParseAmount(t); !numeric {
				return i
			}
		}
	}
	return -1
}

func hostOf(page string) string {
	u, err := url.Parse(page)
	if err != nil || u.Host == "" {
		return page
	}
	return u.Host
}
