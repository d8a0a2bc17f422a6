package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendWritesPerCycleDate(t *testing.T) {
	j := New(t.TempDir())
	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	if err := j.Append(date, Entry{Name: "Alpha", Side: "BUY", ID: 7, Price: 101.5, Score: 70}); err != nil {
		t.Fatal(err)
	}
	if err := j.Append(date, Entry{Name: "Beta", Side: "SELL", ID: 8, Price: 90}); err != nil {
		t.Fatal(err)
	}
	if err := j.AppendDecision(date, DecisionEntry{Name: "Beta", Action: "SELL", Reason: "peaked"}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(j.TradesPath(date))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatal(err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Date != "2026-03-09" || entries[0].Name != "Alpha" || entries[0].ID != 7 {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[0].Time == "" {
		t.Error("expected wall-clock time to be stamped")
	}

	if _, err := os.Stat(filepath.Join(j.Dir(), "decisions", "2026-03-09.txt")); err != nil {
		t.Errorf("decision file missing: %v", err)
	}
}

func TestNilJournalDiscards(t *testing.T) {
	var j *Journal
	if err := j.Append(time.Now(), Entry{Name: "x"}); err != nil {
		t.Errorf("nil journal returned %v", err)
	}
	if err := j.CompressOlder(3); err != nil {
		t.Errorf("nil journal returned %v", err)
	}
}

func TestCompressOlder(t *testing.T) {
	j := New(t.TempDir())
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := j.Append(old, Entry{Name: "Alpha"}); err != nil {
		t.Fatal(err)
	}
	p := j.TradesPath(old)
	stale := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(p, stale, stale); err != nil {
		t.Fatal(err)
	}

	if err := j.CompressOlder(3); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("expected original file removed")
	}
	if _, err := os.Stat(p + ".gz"); err != nil {
		t.Errorf("expected gzip file: %v", err)
	}
}
