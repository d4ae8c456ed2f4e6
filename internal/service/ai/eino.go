package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"tripconcierge/internal/config"
	"tripconcierge/internal/models"
)

// EinoGateway serves completions through an eino chat model.
type EinoGateway struct {
	provider  string
	chatModel model.BaseChatModel
	timeout   time.Duration
}

// NewEinoGateway builds the eino chat model for cfg.Kind.
func NewEinoGateway(ctx context.Context, cfg config.ProviderConfig) (*EinoGateway, error) {
	var (
		chatModel model.BaseChatModel
		err       error
	)
	baseURL := cfg.BaseURL
	// the OpenRouter default only makes sense for the OpenAI-compatible client
	if cfg.Kind != "openai" && baseURL == config.DefaultOpenRouterURL {
		baseURL = ""
	}

	switch cfg.Kind {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
		if err != nil {
			return nil, fmt.Errorf("new gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if baseURL != "" {
			baseURLPtr = &baseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Kind, err)
	}
	return newEinoGateway(cfg.Kind, chatModel, cfg.Timeout), nil
}

func newEinoGateway(provider string, chatModel model.BaseChatModel, timeout time.Duration) *EinoGateway {
	return &EinoGateway{
		provider:  provider,
		chatModel: chatModel,
		timeout:   config.ClampTimeout(timeout),
	}
}

// Complete makes a single Generate call bounded by the configured timeout.
func (g *EinoGateway) Complete(ctx context.Context, messages []models.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.chatModel.Generate(ctx, convertMessages(messages))
	if err != nil {
		return "", g.classify(err)
	}
	if out == nil || out.Content == "" {
		return "", &GatewayError{
			Kind:     MalformedResponse,
			Provider: g.provider,
			Err:      errors.New("empty completion"),
		}
	}
	return out.Content, nil
}

func (g *EinoGateway) classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return &GatewayError{Kind: Unreachable, Provider: g.provider, Err: err}
	}
	return &GatewayError{Kind: UpstreamStatus, Provider: g.provider, Body: err.Error(), Err: err}
}

func convertMessages(messages []models.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		var role schema.RoleType
		switch msg.Role {
		case models.RoleAssistant:
			role = schema.Assistant
		case models.RoleSystem:
			role = schema.System
		default:
			role = schema.User
		}
		out = append(out, &schema.Message{Role: role, Content: msg.Content})
	}
	return out
}
