package ai

import (
	"context"
	"errors"
	"fmt"

	"tripconcierge/internal/config"
	"tripconcierge/internal/models"
)

// Gateway sends a message list to a chat-completion backend and returns the
// raw reply text. Failures are *GatewayError.
type Gateway interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
}

// GatewayErrorKind classifies gateway failures.
type GatewayErrorKind int

const (
	Unreachable GatewayErrorKind = iota + 1
	UpstreamStatus
	MalformedResponse
)

func (k GatewayErrorKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case UpstreamStatus:
		return "upstream_status"
	case MalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

var (
	ErrUnreachable       = errors.New("model backend unreachable")
	ErrUpstreamStatus    = errors.New("model backend returned an error")
	ErrMalformedResponse = errors.New("model backend returned a malformed response")
)

// GatewayError describes a failed completion. StatusCode is zero when the
// backend reported an error without an HTTP status.
type GatewayError struct {
	Kind       GatewayErrorKind
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case Unreachable:
		return fmt.Sprintf("Network error contacting %s: %v", e.Provider, e.Err)
	case UpstreamStatus:
		if e.StatusCode == 0 {
			return fmt.Sprintf("%s error: %s", e.Provider, e.Body)
		}
		return fmt.Sprintf("%s error %d: %s", e.Provider, e.StatusCode, e.Body)
	default:
		if e.Err != nil {
			return fmt.Sprintf("Could not parse model response: %v", e.Err)
		}
		return "Could not parse model response"
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *GatewayError) Is(target error) bool {
	switch e.Kind {
	case Unreachable:
		return target == ErrUnreachable
	case UpstreamStatus:
		return target == ErrUpstreamStatus
	case MalformedResponse:
		return target == ErrMalformedResponse
	}
	return false
}

// NewGateway builds the gateway selected by cfg.Kind. referer is sent as
// attribution to OpenRouter and ignored by the other providers.
func NewGateway(ctx context.Context, cfg config.ProviderConfig, referer string) (Gateway, error) {
	switch cfg.Kind {
	case "", "openrouter":
		return NewOpenRouterClient(cfg, referer), nil
	case "openai", "claude", "gemini":
		return NewEinoGateway(ctx, cfg)
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Kind)
	}
}
