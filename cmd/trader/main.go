package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"llm-daily-trader/internal/backtest"
	"llm-daily-trader/internal/logger"
)

var (
	configPath string
	demo       bool
	runCycle   bool
	dateFlag   string
	days       int
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "LLM-driven daily portfolio trader",
	Long: `trader runs one daily cycle per simulated day: it scores the held
positions against the day's news, sells tradable positions the model
rejects and buys toward the target portfolio size.

Examples:
  trader --demo
  trader --run
  trader --run --date 2026-03-01 --days 10`,
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	rootCmd.Flags().BoolVar(&demo, "demo", false, "Run the demo backtest")
	rootCmd.Flags().BoolVar(&runCycle, "run", false, "Run the daily cycle")
	rootCmd.Flags().StringVar(&dateFlag, "date", "", "First cycle date, YYYY-MM-DD (default today)")
	rootCmd.Flags().IntVar(&days, "days", 1, "Number of consecutive days to simulate")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if !demo && !runCycle {
		return cmd.Help()
	}
	if err := initializeSystem(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if demo {
		if err := runDemo(ctx); err != nil {
			return err
		}
	}
	if runCycle {
		return runDays(ctx)
	}
	return nil
}

func runDemo(ctx context.Context) error {
	logger.Info(ctx, "Running demo backtest")
	res, err := backtest.New().Run(backtest.DemoPrices(), nil)
	if err != nil {
		return err
	}
	logger.Info(ctx, "Demo backtest finished", "sharpe", fmt.Sprintf("%.4f", res.Sharpe), "total_return", res.TotalReturn)
	return printJSON(res)
}

func runDays(ctx context.Context) error {
	start, err := startDate()
	if err != nil {
		return err
	}
	if days < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", days)
	}

	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	a, err := initializeApp(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Startup failed", err)
		return err
	}
	defer a.close(context.Background())

	compressOldLogs(ctx, a)

	for i := 0; i < days; i++ {
		if ctx.Err() != nil {
			logger.Info(ctx, "Shutting down before next cycle")
			return nil
		}
		date := start.AddDate(0, 0, i)
		report, err := a.cycle.Run(ctx, date)
		if err != nil {
			return fmt.Errorf("cycle %s: %w", date.Format("2006-01-02"), err)
		}
		if err := printJSON(report); err != nil {
			return err
		}
		if _, err := a.eod.SummarizeDay(date); err != nil {
			logger.Warn(ctx, "EOD summary failed", "date", report.Date, "error", err)
		}
	}
	return nil
}

func startDate() (time.Time, error) {
	if dateFlag == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	d, err := time.ParseInLocation("2006-01-02", dateFlag, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", dateFlag, err)
	}
	return d, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
