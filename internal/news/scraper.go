// Package news scrapes recent headlines for an asset from public
// financial news sites. Headlines only enrich the sentiment prompt;
// scraping failures degrade to an empty list and never block a cycle.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/types"
)

type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source defines one news site and the CSS selectors for its listing page.
type Source struct {
	Name          string
	BaseURL       string
	SearchPath    string // "{symbol}" is replaced with the asset symbol
	ItemSelector  string
	TitleSelector string
	RateLimit     time.Duration
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{sources: defaultSources(), timeout: timeout}
}

func NewScraperWithSources(timeout time.Duration, sources []Source) *Scraper {
	return &Scraper{sources: sources, timeout: timeout}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:          "MoneyControl",
			BaseURL:       "https://www.moneycontrol.com",
			SearchPath:    "/news/tags/{symbol}.html",
			ItemSelector:  "li.clearfix",
			TitleSelector: "h2 a, h3 a",
			RateLimit:     2 * time.Second,
		},
		{
			Name:          "EconomicTimes",
			BaseURL:       "https://economictimes.indiatimes.com",
			SearchPath:    "/topic/{symbol}",
			ItemSelector:  "div.story-box",
			TitleSelector: "a",
			RateLimit:     2 * time.Second,
		},
	}
}

// RecentHeadlines fetches up to max headlines for symbol across sources.
func (s *Scraper) RecentHeadlines(ctx context.Context, symbol string, max int) ([]types.NewsHeadline, error) {
	perSource := max / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var all []types.NewsHeadline
	for _, src := range s.sources {
		if ctx.Err() != nil {
			break
		}
		hs, err := s.scrapeSource(ctx, src, symbol, perSource)
		if err != nil {
			logger.Warn(ctx, "Headline scrape failed", "source", src.Name, "symbol", symbol, "error", err)
			continue
		}
		all = append(all, hs...)
		if len(all) >= max {
			all = all[:max]
			break
		}
	}
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src Source, symbol string, max int) ([]types.NewsHeadline, error) {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (compatible; adaptive-trading-bot/1.0)"),
	)
	c.SetRequestTimeout(s.timeout)

	var headlines []types.NewsHeadline
	c.OnHTML(src.ItemSelector, func(e *colly.HTMLElement) {
		if len(headlines) >= max {
			return
		}
		if h, ok := headlineFrom(e.DOM, src, symbol); ok {
			h.URL = e.Request.AbsoluteURL(h.URL)
			headlines = append(headlines, h)
		}
	})

	url := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{symbol}", strings.ToLower(symbol))
	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("visit %s: %w", url, err)
	}
	c.Wait()
	return headlines, nil
}

// headlineFrom pulls title and link out of one listing item.
func headlineFrom(sel *goquery.Selection, src Source, symbol string) (types.NewsHeadline, bool) {
	link := sel.Find(src.TitleSelector).First()
	title := strings.TrimSpace(link.Text())
	if title == "" {
		return types.NewsHeadline{}, false
	}
	href, _ := link.Attr("href")
	return types.NewsHeadline{
		Symbol: symbol,
		Title:  title,
		Source: src.Name,
		URL:    href,
	}, true
}
