package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is returned when a required environment credential is unset.
var ErrMissingCredential = errors.New("missing credential")

type Config struct {
	AssetKind string `yaml:"asset_kind"`
	LLM       struct {
		Provider    string        `yaml:"provider"`
		Model       string        `yaml:"model"`
		Temperature float32       `yaml:"temperature"`
		MaxTokens   int           `yaml:"max_tokens"`
		MaxRetries  int           `yaml:"max_retries"`
		BackoffBase time.Duration `yaml:"backoff_base"`
	} `yaml:"llm"`
	Strategy struct {
		TargetQuantity int           `yaml:"target_quantity"`
		MaxBuyPerDay   int           `yaml:"max_buy_per_day"`
		SavePath       string        `yaml:"save_path"`
		HoldDays       int           `yaml:"hold_days"`
		MinContextLen  int           `yaml:"min_context_len"`
		ScoreDelay     time.Duration `yaml:"score_delay"`
		DecisionDelay  time.Duration `yaml:"decision_delay"`
		CandidateLimit int           `yaml:"candidate_limit"`
		MemoryTurns    int           `yaml:"memory_turns"`
	} `yaml:"strategy"`
	News struct {
		Source   string        `yaml:"source"` // dir | web
		Dir      string        `yaml:"dir"`
		URLs     []string      `yaml:"urls"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Timeout  time.Duration `yaml:"timeout"`
		MaxChars int           `yaml:"max_chars"`
	} `yaml:"news"`
	Market struct {
		Provider        string        `yaml:"provider"` // csqaq | kite | none
		BaseURL         string        `yaml:"base_url"`
		RatePerSecond   float64       `yaml:"rate_per_second"`
		BreakerFailures uint32        `yaml:"breaker_failures"`
		BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
		Exchange        string        `yaml:"exchange"`
	} `yaml:"market"`
	Audit struct {
		Path string `yaml:"path"`
	} `yaml:"audit"`
	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.AssetKind == "" {
		c.AssetKind = "CS2 sticker"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 5
	}
	if c.LLM.BackoffBase == 0 {
		c.LLM.BackoffBase = 2 * time.Second
	}
	if c.Strategy.TargetQuantity == 0 {
		c.Strategy.TargetQuantity = 5
	}
	if c.Strategy.MaxBuyPerDay == 0 {
		c.Strategy.MaxBuyPerDay = 2
	}
	if c.Strategy.SavePath == "" {
		c.Strategy.SavePath = "data/inventory.json"
	}
	if c.Strategy.HoldDays == 0 {
		c.Strategy.HoldDays = 7
	}
	if c.Strategy.MinContextLen == 0 {
		c.Strategy.MinContextLen = 50
	}
	if c.Strategy.CandidateLimit == 0 {
		c.Strategy.CandidateLimit = 5
	}
	if c.Strategy.MemoryTurns == 0 {
		c.Strategy.MemoryTurns = 40
	}
	if c.News.Source == "" {
		c.News.Source = "dir"
	}
	if c.News.Dir == "" {
		c.News.Dir = "data/news"
	}
	if c.News.CacheTTL == 0 {
		c.News.CacheTTL = 6 * time.Hour
	}
	if c.News.Timeout == 0 {
		c.News.Timeout = 20 * time.Second
	}
	if c.News.MaxChars == 0 {
		c.News.MaxChars = 15000
	}
	if c.Market.Provider == "" {
		c.Market.Provider = "csqaq"
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = "https://api.csqaq.com/api/v1"
	}
	if c.Market.RatePerSecond == 0 {
		c.Market.RatePerSecond = 1
	}
	if c.Market.BreakerFailures == 0 {
		c.Market.BreakerFailures = 5
	}
	if c.Market.BreakerTimeout == 0 {
		c.Market.BreakerTimeout = time.Minute
	}
	if c.Market.Exchange == "" {
		c.Market.Exchange = "NSE"
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "batch_score_error.log"
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "deepseek", "qwen", "gemini", "claude", "noop":
	default:
		return fmt.Errorf("invalid llm.provider '%s'", c.LLM.Provider)
	}
	if c.Strategy.TargetQuantity < 0 {
		return fmt.Errorf("strategy.target_quantity must be >= 0, got %d", c.Strategy.TargetQuantity)
	}
	if c.Strategy.MaxBuyPerDay < 0 {
		return fmt.Errorf("strategy.max_buy_per_day must be >= 0, got %d", c.Strategy.MaxBuyPerDay)
	}
	if c.Strategy.HoldDays < 0 {
		return fmt.Errorf("strategy.hold_days must be >= 0, got %d", c.Strategy.HoldDays)
	}
	if c.Strategy.ScoreDelay < 0 || c.Strategy.DecisionDelay < 0 {
		return errors.New("strategy delays must not be negative")
	}
	if c.News.Source != "dir" && c.News.Source != "web" {
		return fmt.Errorf("news.source must be 'dir' or 'web', got '%s'", c.News.Source)
	}
	if c.News.Source == "web" && len(c.News.URLs) == 0 {
		return errors.New("news.urls cannot be empty when news.source is 'web'")
	}
	switch c.Market.Provider {
	case "csqaq", "kite", "none":
	default:
		return fmt.Errorf("market.provider must be 'csqaq', 'kite' or 'none', got '%s'", c.Market.Provider)
	}
	if c.Market.RatePerSecond < 0 {
		return fmt.Errorf("market.rate_per_second must be >= 0, got %.2f", c.Market.RatePerSecond)
	}
	return nil
}

// HoldPeriod is the minimum holding time before a position may be sold.
func (c *Config) HoldPeriod() time.Duration {
	return time.Duration(c.Strategy.HoldDays) * 24 * time.Hour
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// RequireEnv returns the named environment variable or ErrMissingCredential.
func RequireEnv(name string) (string, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingCredential, name)
	}
	return v, nil
}
