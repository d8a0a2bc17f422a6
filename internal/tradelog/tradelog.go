package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const dayLayout = "2006-01-02"

// Entry is one ledger acquisition or disposal.
type Entry struct {
	Time, RunID, Date, Name, Side, Reason string
	ID                                    int
	Price                                 float64
	BoughtPrice                           float64 `json:",omitempty"`
	Score                                 int
	Extra                                 map[string]any `json:"extra,omitempty"`
}

// DecisionEntry is one hold/sell verdict.
type DecisionEntry struct {
	Time, RunID, Date, Name, Action, Reason string
	ID                                      int
	Price                                   float64
	Score                                   int
	DaysHeld                                int
	Extra                                   map[string]any `json:"extra,omitempty"`
}

// Journal appends JSON lines into one file per cycle date. A nil Journal
// discards everything.
type Journal struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func New(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) Dir() string {
	return j.dir
}

// TradesPath is the trade file for date.
func (j *Journal) TradesPath(date time.Time) string {
	return filepath.Join(j.dir, date.Format(dayLayout)+".txt")
}

func (j *Journal) decisionsPath(date time.Time) string {
	return filepath.Join(j.dir, "decisions", date.Format(dayLayout)+".txt")
}

func (j *Journal) Append(date time.Time, e Entry) error {
	if j == nil {
		return nil
	}
	e.Time = j.now().Format("2006-01-02 15:04:05")
	e.Date = date.Format(dayLayout)
	return j.appendLine(j.TradesPath(date), e)
}

func (j *Journal) AppendDecision(date time.Time, e DecisionEntry) error {
	if j == nil {
		return nil
	}
	e.Time = j.now().Format("2006-01-02 15:04:05")
	e.Date = date.Format(dayLayout)
	return j.appendLine(j.decisionsPath(date), e)
}

func (j *Journal) appendLine(p string, v any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files last modified more than retentionDays ago.
func (j *Journal) CompressOlder(retentionDays int) error {
	if j == nil || retentionDays <= 0 {
		return nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
