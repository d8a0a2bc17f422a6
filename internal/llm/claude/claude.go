package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/llm"
	"llm-daily-trader/internal/store"
	"llm-daily-trader/internal/trace"
	"llm-daily-trader/internal/types"
)

// overloaded is Anthropic's capacity status, treated like a throttle.
const overloaded = 529

// Backend calls the Anthropic Messages API.
type Backend struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

var _ interfaces.Backend = (*Backend)(nil)

// New reads CLAUDE_API_KEY; CLAUDE_API_ENDPOINT points at a proxy if set.
func New(cfg *store.Config) (*Backend, error) {
	key, err := store.RequireEnv("CLAUDE_API_KEY")
	if err != nil {
		return nil, err
	}
	opts := []option.RequestOption{option.WithAPIKey(key), option.WithMaxRetries(0)}
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		opts = append(opts, option.WithBaseURL(ep))
	}
	return &Backend{
		client:    anthropic.NewClient(opts...),
		model:     cfg.LLM.Model,
		maxTokens: cfg.LLM.MaxTokens,
	}, nil
}

func (b *Backend) Complete(ctx context.Context, turns []types.Turn, temperature float32) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-messages")
	defer span.End()

	var system []anthropic.TextBlockParam
	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case types.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: t.Content})
		case types.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}

	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   int64(b.maxTokens),
		Temperature: anthropic.Float(float64(temperature)),
		System:      system,
		Messages:    msgs,
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == overloaded) {
			return "", fmt.Errorf("%w: %v", llm.ErrRateLimited, err)
		}
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("empty claude response")
	}
	return strings.TrimSpace(sb.String()), nil
}
