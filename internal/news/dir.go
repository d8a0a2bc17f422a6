package news

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
)

// DirProvider reads hand-written news files named YYYYMMDD*.txt.
type DirProvider struct {
	dir string
}

var _ interfaces.NewsProvider = (*DirProvider)(nil)

func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{dir: dir}
}

func (d *DirProvider) Fetch(ctx context.Context, date time.Time) (string, error) {
	day := date.Format("2006-01-02")
	matches, err := filepath.Glob(filepath.Join(d.dir, date.Format("20060102")+"*.txt"))
	if err != nil {
		return "", err
	}
	sort.Strings(matches)

	var sb strings.Builder
	found := 0
	for _, m := range matches {
		b, err := os.ReadFile(m)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to read news file", err, "path", m)
			continue
		}
		fmt.Fprintf(&sb, "\n\n--- SOURCE: %s ---\n%s", filepath.Base(m), strings.TrimSpace(string(b)))
		found++
	}
	if found == 0 {
		return fmt.Sprintf("No significant market news found for %s.", day), nil
	}

	logger.Info(ctx, "News files loaded", "date", day, "files", found)
	return fmt.Sprintf("--- NEWS FOR %s (found %d files) ---%s", day, found, sb.String()), nil
}
