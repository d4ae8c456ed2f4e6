package ai

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"tripconcierge/internal/models"
	"tripconcierge/internal/service/reply"
)

// WarningMarker prefixes answers produced when the model could not be reached.
const WarningMarker = "⚠️ "

const (
	summaryTimeout = 20 * time.Second
	summarySystem  = "You summarize clearly and concisely."
	summaryPrompt  = "Summarize this itinerary in 5 lines:\n\n"
)

// Service runs chat turns and itinerary summaries against a Gateway.
type Service struct {
	gateway   Gateway
	processor *reply.Processor
	log       *zap.Logger
}

func NewService(gateway Gateway, processor *reply.Processor, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{gateway: gateway, processor: processor, log: log}
}

// Ask sends one question with its history and itinerary to the model and
// post-processes the reply. Only ErrInvalidInput and *GatewayError are returned.
func (s *Service) Ask(ctx context.Context, question string, history []models.Message, itinerary *string) (models.Reply, error) {
	messages, err := Assemble(question, history, itinerary)
	if err != nil {
		return models.Reply{}, err
	}
	raw, err := s.gateway.Complete(ctx, messages)
	if err != nil {
		s.log.Error("chat completion failed", zap.Error(err), zap.Int("messages", len(messages)))
		return models.Reply{}, err
	}
	return s.processor.Process(raw), nil
}

// DegradedReply is the reply sent to the client when the gateway failed.
func DegradedReply(err error) models.Reply {
	return models.Reply{
		Answer: WarningMarker + err.Error(),
		Images: []string{},
		Places: []string{},
	}
}

// Summarize asks the model for a five-line summary of itinerary. A nil
// itinerary is summarized as DefaultItinerary.
func (s *Service) Summarize(ctx context.Context, itinerary *string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()

	messages := []models.Message{
		{Role: models.RoleSystem, Content: summarySystem},
		{Role: models.RoleUser, Content: summaryPrompt + itineraryOrDefault(itinerary)},
	}
	summary, err := s.gateway.Complete(ctx, messages)
	if err != nil {
		s.log.Error("summary request failed", zap.Error(err))
		return "", err
	}
	return summary, nil
}

// FailureKind reports the gateway error kind of err, or "" when err is not
// a gateway failure.
func FailureKind(err error) string {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind.String()
	}
	return ""
}
