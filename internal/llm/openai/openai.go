package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/llm"
	"llm-daily-trader/internal/store"
	"llm-daily-trader/internal/trace"
	"llm-daily-trader/internal/types"
)

// provider describes an OpenAI-compatible endpoint.
type provider struct {
	keyEnv  string
	baseURL string
}

var providers = map[string]provider{
	"openai":   {keyEnv: "OPENAI_API_KEY"},
	"deepseek": {keyEnv: "DEEPSEEK_API_KEY", baseURL: "https://api.deepseek.com/v1"},
	"qwen":     {keyEnv: "DASHSCOPE_API_KEY", baseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1"},
	"gemini":   {keyEnv: "GEMINI_API_KEY", baseURL: "https://generativelanguage.googleapis.com/v1beta/openai/"},
}

// Backend speaks the chat-completions protocol.
type Backend struct {
	client    *goopenai.Client
	model     string
	maxTokens int
}

var _ interfaces.Backend = (*Backend)(nil)

// New builds a backend for one of the OpenAI-compatible providers.
// OPENAI_BASE_URL overrides the endpoint.
func New(cfg *store.Config) (*Backend, error) {
	name := strings.ToLower(cfg.LLM.Provider)
	p, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q is not OpenAI-compatible", cfg.LLM.Provider)
	}
	key, err := store.RequireEnv(p.keyEnv)
	if err != nil {
		return nil, err
	}

	clientCfg := goopenai.DefaultConfig(key)
	if p.baseURL != "" {
		clientCfg.BaseURL = p.baseURL
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		clientCfg.BaseURL = base
	}

	return &Backend{
		client:    goopenai.NewClientWithConfig(clientCfg),
		model:     cfg.LLM.Model,
		maxTokens: cfg.LLM.MaxTokens,
	}, nil
}

func (b *Backend) Complete(ctx context.Context, turns []types.Turn, temperature float32) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-chat-completion")
	defer span.End()

	msgs := make([]goopenai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: roleOf(t.Role), Content: t.Content})
	}

	resp, err := b.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		if throttled(err) {
			return "", fmt.Errorf("%w: %v", llm.ErrRateLimited, err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func roleOf(r types.Role) string {
	switch r {
	case types.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	case types.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant
	default:
		return goopenai.ChatMessageRoleUser
	}
}

func throttled(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *goopenai.RequestError
	return errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests
}
