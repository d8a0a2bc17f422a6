package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"llm-daily-trader/internal/agents"
	"llm-daily-trader/internal/audit"
	"llm-daily-trader/internal/engine"
	"llm-daily-trader/internal/engine/engineobs"
	"llm-daily-trader/internal/eod"
	"llm-daily-trader/internal/eod/eodobs"
	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/ledger"
	"llm-daily-trader/internal/llm"
	"llm-daily-trader/internal/llm/claude"
	"llm-daily-trader/internal/llm/llmobs"
	"llm-daily-trader/internal/llm/noop"
	"llm-daily-trader/internal/llm/openai"
	"llm-daily-trader/internal/logger"
	"llm-daily-trader/internal/market"
	"llm-daily-trader/internal/metrics"
	"llm-daily-trader/internal/news"
	"llm-daily-trader/internal/store"
	"llm-daily-trader/internal/tradelog"
)

// app is everything one invocation needs.
type app struct {
	cfg     *store.Config
	cycle   interfaces.CycleRunner
	eod     interfaces.EodSummarizer
	journal *tradelog.Journal
	audit   *audit.FileSink
}

// initializeSystem loads .env and starts logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializeBackend picks the completion backend for the configured provider.
func initializeBackend(ctx context.Context, cfg *store.Config) (interfaces.Backend, error) {
	provider := strings.ToLower(cfg.LLM.Provider)

	var (
		backend interfaces.Backend
		err     error
	)
	switch provider {
	case "claude":
		backend, err = claude.New(cfg)
	case "noop":
		logger.Warn(ctx, "No LLM provider configured, every decision will be HOLD")
		backend = noop.New()
	default:
		backend, err = openai.New(cfg)
	}
	if err != nil {
		return nil, err
	}
	return llmobs.Wrap(provider, backend), nil
}

// initializeNews returns the configured context provider.
func initializeNews(ctx context.Context, cfg *store.Config, oracle interfaces.Oracle) interfaces.NewsProvider {
	if cfg.News.Source == "web" {
		logger.Info(ctx, "Using web news", "urls", len(cfg.News.URLs), "cache_ttl", cfg.News.CacheTTL)
		scraper := news.NewScraper(cfg.News.Timeout, cfg.News.MaxChars)
		return news.NewWebProvider(cfg.News.URLs, cfg.AssetKind, scraper, oracle, cfg.News.CacheTTL)
	}
	logger.Info(ctx, "Using dated news files", "dir", cfg.News.Dir)
	return news.NewDirProvider(cfg.News.Dir)
}

// initializeResolver returns the listing resolver. Missing credentials are fatal.
func initializeResolver(ctx context.Context, cfg *store.Config) (interfaces.Resolver, error) {
	switch cfg.Market.Provider {
	case "csqaq":
		token, err := store.RequireEnv("INFO_API_TOKEN")
		if err != nil {
			return nil, err
		}
		return market.NewCSQAQ(market.CSQAQParams{
			BaseURL:         cfg.Market.BaseURL,
			Token:           token,
			RatePerSecond:   cfg.Market.RatePerSecond,
			BreakerFailures: cfg.Market.BreakerFailures,
			BreakerTimeout:  cfg.Market.BreakerTimeout,
			Timeout:         cfg.News.Timeout,
		}), nil
	case "kite":
		apiKey, err := store.RequireEnv("KITE_API_KEY")
		if err != nil {
			return nil, err
		}
		token, err := store.RequireEnv("KITE_ACCESS_TOKEN")
		if err != nil {
			return nil, err
		}
		return market.NewKite(apiKey, token, cfg.Market.Exchange), nil
	default:
		logger.Warn(ctx, "No market provider configured, prices will be synthetic")
		return market.Offline{}, nil
	}
}

// initializeApp wires the cycle and its collaborators from cfg.
func initializeApp(ctx context.Context, cfg *store.Config) (*app, error) {
	backend, err := initializeBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	oracle := llm.NewGateway(backend, cfg.LLM.Temperature, cfg.LLM.MaxRetries, cfg.LLM.BackoffBase)

	resolver, err := initializeResolver(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sink, err := audit.NewFileSink(cfg.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	journal := tradelog.New(cfg.Journal.Dir)
	book := ledger.Restore(ctx, cfg.Strategy.SavePath, cfg.HoldPeriod())

	cycle := engine.New(engine.Params{
		TargetQuantity: cfg.Strategy.TargetQuantity,
		MaxBuyPerDay:   cfg.Strategy.MaxBuyPerDay,
		SavePath:       cfg.Strategy.SavePath,
		MinContextLen:  cfg.Strategy.MinContextLen,
		ScoreDelay:     cfg.Strategy.ScoreDelay,
		DecisionDelay:  cfg.Strategy.DecisionDelay,
		MemoryTurns:    cfg.Strategy.MemoryTurns,
	}, engine.Deps{
		Ledger:   book,
		News:     initializeNews(ctx, cfg, oracle),
		Resolver: resolver,
		Scorer:   agents.NewScorer(oracle, sink, cfg.AssetKind),
		Trader:   agents.NewTrader(oracle, sink, cfg.AssetKind),
		Finder:   agents.NewFinder(oracle, cfg.AssetKind, cfg.Strategy.CandidateLimit),
		Analyst:  agents.NewAnalyst(oracle, cfg.AssetKind),
		Journal:  journal,
	})

	if cfg.Metrics.Addr != "" {
		metrics.Serve(ctx, cfg.Metrics.Addr)
	}

	return &app{
		cfg:     cfg,
		cycle:   engineobs.Wrap(cycle),
		eod:     eodobs.Wrap(eod.NewSummarizer(journal)),
		journal: journal,
		audit:   sink,
	}, nil
}

// compressOldLogs gzips journal files past the retention window.
func compressOldLogs(ctx context.Context, a *app) {
	if a.cfg.Journal.RetentionDays <= 0 {
		return
	}
	if err := a.journal.CompressOlder(a.cfg.Journal.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

func (a *app) close(ctx context.Context) {
	if err := a.audit.Close(); err != nil {
		logger.Warn(ctx, "Failed to close audit log", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", err)
	}
}
