// Package llm provides the rate-limit-aware gateway every agent talks through.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/metrics"
	"llm-daily-trader/internal/types"
)

// ErrRateLimited is wrapped by backends when the provider throttles a request.
var ErrRateLimited = errors.New("rate limited")

const (
	// SentinelPrefix starts every failure string the gateway returns.
	SentinelPrefix = "[LLM Error]"
	// SentinelExhausted is returned once every retry attempt was throttled.
	SentinelExhausted = SentinelPrefix + ": Max retries exceeded."
)

// IsSentinel reports whether text is a gateway failure string.
func IsSentinel(text string) bool {
	return strings.HasPrefix(text, SentinelPrefix)
}

// Gateway retries throttled requests with exponential backoff and turns every
// other failure into a sentinel string.
type Gateway struct {
	backend     interfaces.Backend
	temperature float32
	maxAttempts int
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

var _ interfaces.Oracle = (*Gateway)(nil)

type Option func(*Gateway)

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gateway) { g.sleep = sleep }
}

func NewGateway(backend interfaces.Backend, temperature float32, maxAttempts int, backoffBase time.Duration, opts ...Option) *Gateway {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	g := &Gateway{
		backend:     backend,
		temperature: temperature,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Converse sends turns to the backend. Attempt i that is throttled waits
// backoffBase*2^i before the next try.
func (g *Gateway) Converse(ctx context.Context, turns []types.Turn) string {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		text, err := g.backend.Complete(ctx, turns, g.temperature)
		if err == nil {
			return text
		}
		if !isRateLimited(err) {
			logger.ErrorWithErr(ctx, "Oracle request failed", err, "attempt", attempt+1)
			return fmt.Sprintf("%s: %v", SentinelPrefix, err)
		}
		if attempt == g.maxAttempts-1 {
			break
		}

		wait := g.backoffBase * time.Duration(1<<attempt)
		metrics.OracleRetries.Inc()
		logger.Warn(ctx, "Oracle rate limited, backing off", "attempt", attempt+1, "wait", wait.String())
		if err := g.sleep(ctx, wait); err != nil {
			return fmt.Sprintf("%s: %v", SentinelPrefix, err)
		}
	}
	logger.Error(ctx, "Oracle retries exhausted", "attempts", g.maxAttempts)
	return SentinelExhausted
}

func isRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "quota")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
