// Package ledger holds the owned positions and their durable snapshot.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"llm-daily-trader/internal/logger"
)

// DefaultHoldPeriod is the T+7 lock on newly acquired positions.
const DefaultHoldPeriod = 7 * 24 * time.Hour

// Ledger is the ordered collection of owned positions. It is not safe for
// concurrent use; one cycle owns it at a time.
type Ledger struct {
	positions []*Position
	hold      time.Duration
}

func New(hold time.Duration) *Ledger {
	return &Ledger{hold: hold}
}

func (l *Ledger) HoldPeriod() time.Duration {
	return l.hold
}

func (l *Ledger) Len() int {
	return len(l.positions)
}

// Positions returns a snapshot slice in insertion order.
func (l *Ledger) Positions() []*Position {
	out := make([]*Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// Names lists distinct held names in first-seen order.
func (l *Ledger) Names() []string {
	seen := make(map[string]struct{}, len(l.positions))
	var out []string
	for _, p := range l.positions {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p.Name)
	}
	return out
}

// Tradable snapshots the positions whose hold period has elapsed.
func (l *Ledger) Tradable(asOf time.Time) []*Position {
	var out []*Position
	for _, p := range l.positions {
		if p.Tradable(asOf, l.hold) {
			out = append(out, p)
		}
	}
	return out
}

// Acquire appends a new position dated asOf.
func (l *Ledger) Acquire(id int, name string, price float64, asOf time.Time, info map[string]any) *Position {
	p := &Position{
		ID:           id,
		Name:         name,
		BoughtPrice:  price,
		PurchaseDate: asOf,
		ExtraInfo:    info,
		DailyScore:   []int{},
		DailyPrice:   []float64{},
	}
	l.positions = append(l.positions, p)
	return p
}

// Dispose removes exactly the given position. It reports false when the
// position is not held.
func (l *Ledger) Dispose(target *Position) bool {
	for i, p := range l.positions {
		if p == target {
			l.positions = append(l.positions[:i], l.positions[i+1:]...)
			return true
		}
	}
	return false
}

// Persist writes the full ledger to path, replacing any previous snapshot.
func (l *Ledger) Persist(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	positions := l.positions
	if positions == nil {
		positions = []*Position{}
	}
	b, err := json.MarshalIndent(positions, "", "    ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace ledger snapshot: %w", err)
	}
	return nil
}

// Restore loads a snapshot. A missing or corrupt file yields an empty ledger.
func Restore(ctx context.Context, path string, hold time.Duration) *Ledger {
	l := New(hold)
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.ErrorWithErr(ctx, "Failed to read ledger snapshot, starting empty", err, "path", path)
		}
		return l
	}
	var positions []*Position
	if err := json.Unmarshal(b, &positions); err != nil {
		logger.ErrorWithErr(ctx, "Corrupt ledger snapshot, starting empty", err, "path", path)
		return l
	}
	for _, p := range positions {
		if p != nil {
			l.positions = append(l.positions, p)
		}
	}
	logger.Info(ctx, "Ledger restored", "path", path, "positions", len(l.positions))
	return l
}
