package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/types"
)

const insightSystem = "You are a market news analyst. Extract the facts from a web page that matter to traders, " +
	"noting sentiment, supply events and price-moving rumours."

// WebProvider scrapes configured pages and has the oracle distil each into
// an insight.
type WebProvider struct {
	urls    []string
	target  string
	scraper *Scraper
	oracle  interfaces.Oracle
	cache   *textCache
}

var _ interfaces.NewsProvider = (*WebProvider)(nil)

func NewWebProvider(urls []string, target string, scraper *Scraper, oracle interfaces.Oracle, ttl time.Duration) *WebProvider {
	return &WebProvider{
		urls:    urls,
		target:  target,
		scraper: scraper,
		oracle:  oracle,
		cache:   newTextCache(ttl),
	}
}

// Fetch returns one insight block per reachable page.
func (w *WebProvider) Fetch(ctx context.Context, date time.Time) (string, error) {
	day := date.Format("2006-01-02")
	var insights []string
	for _, u := range w.urls {
		key := u + "|" + day
		if cached, ok := w.cache.get(key); ok {
			insights = append(insights, cached)
			continue
		}

		page, err := w.scraper.FetchText(ctx, u)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to fetch news page", err, "url", u)
			continue
		}
		insight := w.analyze(ctx, u, page)
		w.cache.set(key, insight)
		insights = append(insights, insight)
	}

	if len(insights) == 0 && len(w.urls) > 0 {
		return "", errors.New("no news page could be fetched")
	}
	logger.Info(ctx, "Web news fetched", "date", day, "pages", len(insights))
	return strings.Join(insights, "\n\n"), nil
}

func (w *WebProvider) analyze(ctx context.Context, pageURL, page string) string {
	target := w.target
	if target == "" {
		target = "General"
	}
	analysis := w.oracle.Converse(ctx, []types.Turn{
		{Role: types.RoleSystem, Content: insightSystem},
		{Role: types.RoleUser, Content: fmt.Sprintf("Focus: %s\n\nPage text:\n%s", target, page)},
	})
	return fmt.Sprintf("Source: %s\nTarget: %s\nAnalysis:\n%s", pageURL, target, analysis)
}
