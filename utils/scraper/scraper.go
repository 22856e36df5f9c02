package scraper

import (
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/difygen/difygen/utils/config"
)

// PageContent represents the text extracted from a reference page
type PageContent struct {
	URL         string
	Title       string
	Paragraphs  []string
	StatusCode  int
	ContentType string
}

// Scraper fetches reference documentation pages whose text is fed to the
// generation pipeline as extra context
type Scraper struct {
	collector *colly.Collector
}

// NewScraper creates a new scraper instance with default configuration
func NewScraper() *Scraper {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent("Mozilla/5.0 (compatible; difygen/1.0; +http://github.com/difygen/difygen)"),
	)

	return &Scraper{collector: c}
}

// Fetch retrieves the page at url and returns its extracted content
func (s *Scraper) Fetch(url string) (*PageContent, error) {
	content := &PageContent{URL: url}

	s.collector.OnHTML("title", func(e *colly.HTMLElement) {
		content.Title = e.Text
	})

	s.collector.OnHTML("p", func(e *colly.HTMLElement) {
		if text := strings.TrimSpace(e.Text); text != "" {
			content.Paragraphs = append(content.Paragraphs, text)
		}
	})

	s.collector.OnResponse(func(r *colly.Response) {
		content.StatusCode = r.StatusCode
		content.ContentType = r.Headers.Get("Content-Type")
	})

	if err := s.collector.Visit(url); err != nil {
		return nil, err
	}

	config.DebugLog("fetched %s: %d paragraphs", url, len(content.Paragraphs))
	return content, nil
}

// ContextText flattens the page into a block of context text for the
// pipeline, title first
func (c *PageContent) ContextText() string {
	var parts []string
	if c.Title != "" {
		parts = append(parts, c.Title)
	}
	parts = append(parts, c.Paragraphs...)
	return strings.Join(parts, "\n")
}
