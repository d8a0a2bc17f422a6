package news

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"llm-daily-trader/internal/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper fetches a page and reduces it to readable text.
type Scraper struct {
	timeout  time.Duration
	maxChars int
}

func NewScraper(timeout time.Duration, maxChars int) *Scraper {
	return &Scraper{timeout: timeout, maxChars: maxChars}
}

// FetchText visits pageURL and returns its visible text without scripts,
// styles or navigation, truncated to maxChars runes.
func (s *Scraper) FetchText(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	var (
		text     string
		parseErr error
	)
	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			parseErr = err
			return
		}
		doc.Find("script, style, nav, footer, noscript").Remove()
		text = cleanText(doc.Find("body").Text())
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "url", pageURL, "status", r.StatusCode)
	})

	if err := c.Visit(pageURL); err != nil {
		return "", fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	c.Wait()
	if parseErr != nil {
		return "", fmt.Errorf("failed to parse %s: %w", pageURL, parseErr)
	}

	return truncateRunes(text, s.maxChars), nil
}

// cleanText trims every line, splits on runs of double spaces and drops
// empty fragments.
func cleanText(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		for _, phrase := range strings.Split(line, "  ") {
			if p := strings.TrimSpace(phrase); p != "" {
				parts = append(parts, p)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
