// Package metrics exposes Prometheus counters for the daily cycle.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llm-daily-trader/internal/logger"
)

var (
	Cycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_cycles_total",
		Help: "Daily cycles run, by outcome.",
	}, []string{"outcome"})

	OracleRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trader_oracle_retries_total",
		Help: "Oracle requests retried after throttling.",
	})

	ParseFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_parse_fallbacks_total",
		Help: "Oracle responses that fell back to defaults, by kind.",
	}, []string{"kind"})

	Acquisitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trader_acquisitions_total",
		Help: "Positions added to the ledger.",
	})

	Disposals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trader_disposals_total",
		Help: "Positions removed from the ledger.",
	})

	LookupFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_lookup_fallbacks_total",
		Help: "Market lookups replaced by a fallback value, by kind.",
	}, []string{"kind"})
)

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info(ctx, "Metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "Metrics endpoint stopped", err)
		}
	}()
}
