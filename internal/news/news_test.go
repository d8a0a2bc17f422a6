package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"llm-daily-trader/internal/types"
)

func TestTextCacheExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cache := newTextCache(time.Hour)
	cache.now = func() time.Time { return now }

	cache.set("a", "alpha")
	if got, ok := cache.get("a"); !ok || got != "alpha" {
		t.Fatalf("expected cached alpha, got %q %v", got, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := cache.get("a"); ok {
		t.Error("expected entry to be expired")
	}

	cache.set("b", "beta")
	if cache.len() != 1 {
		t.Errorf("expected expired entry evicted, have %d", cache.len())
	}
}

func TestDirProvider(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("20260301_b.txt", "second story")
	write("20260301_a.txt", "first story")
	write("20260302_a.txt", "tomorrow")

	p := NewDirProvider(dir)
	got, err := p.Fetch(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "--- NEWS FOR 2026-03-01 (found 2 files) ---") {
		t.Errorf("unexpected header: %q", got)
	}
	first := strings.Index(got, "--- SOURCE: 20260301_a.txt ---\nfirst story")
	second := strings.Index(got, "--- SOURCE: 20260301_b.txt ---\nsecond story")
	if first < 0 || second < 0 || first > second {
		t.Errorf("files missing or out of order: %q", got)
	}
	if strings.Contains(got, "tomorrow") {
		t.Error("included a file from another date")
	}

	empty, err := p.Fetch(context.Background(), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if empty != "No significant market news found for 2026-04-01." {
		t.Errorf("unexpected empty-day text: %q", empty)
	}
}

func TestScraperStripsChrome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><style>body{}</style></head><body>
<nav>Home | Markets</nav>
<h1>Sticker prices climb</h1>
<p>Major   tournament  capsules rose 12% this week.</p>
<script>track()</script>
<footer>Copyright</footer>
</body></html>`))
	}))
	defer srv.Close()

	text, err := NewScraper(5*time.Second, 0).FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	for _, banned := range []string{"Home", "track()", "Copyright", "body{}"} {
		if strings.Contains(text, banned) {
			t.Errorf("text still contains %q: %q", banned, text)
		}
	}
	if !strings.Contains(text, "Sticker prices climb") || !strings.Contains(text, "tournament") {
		t.Errorf("article text missing: %q", text)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("新闻新闻新闻", 4); got != "新闻新闻" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
}

type countingOracle struct{ calls int }

func (o *countingOracle) Converse(ctx context.Context, turns []types.Turn) string {
	o.calls++
	return "prices rising"
}

func TestWebProviderCachesPerDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>Market is busy today.</p></body></html>"))
	}))
	defer srv.Close()

	oracle := &countingOracle{}
	p := NewWebProvider([]string{srv.URL}, "", NewScraper(5*time.Second, 15000), oracle, time.Hour)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := p.Fetch(context.Background(), day)
	if err != nil {
		t.Fatal(err)
	}
	want := "Source: " + srv.URL + "\nTarget: General\nAnalysis:\nprices rising"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if _, err := p.Fetch(context.Background(), day); err != nil {
		t.Fatal(err)
	}
	if oracle.calls != 1 {
		t.Errorf("expected one oracle call, got %d", oracle.calls)
	}
}

func TestWebProviderAllPagesDown(t *testing.T) {
	p := NewWebProvider([]string{"http://127.0.0.1:1/none"}, "", NewScraper(time.Second, 100), &countingOracle{}, time.Hour)
	if _, err := p.Fetch(context.Background(), time.Now()); err == nil {
		t.Error("expected an error when no page is reachable")
	}
}
