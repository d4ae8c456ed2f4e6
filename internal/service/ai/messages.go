package ai

import (
	"errors"
	"strings"

	"tripconcierge/internal/models"
)

// SystemPrompt is the concierge persona sent ahead of every chat.
const SystemPrompt = `
You are Trip Concierge Pro, friendly, concise, and helpful.
When responding:
 - Provide a short Summary line.
 - Offer 3 clear options (timing, cost, who will enjoy).
 - When possible include markdown image tags e.g. ![](https://...)
 - Ask one short follow-up question if it helps.
`

// DefaultItinerary stands in for a missing itinerary.
const DefaultItinerary = "No itinerary uploaded yet."

const itineraryDivider = "\n\n--- USER ITINERARY ---\n"

// ErrInvalidInput is returned when the question is blank.
var ErrInvalidInput = errors.New("question is required")

// ParseHistory keeps the entries that carry string role and content fields,
// in order. Anything else is dropped.
func ParseHistory(raw []any) []models.Message {
	history := make([]models.Message, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		role, ok := entry["role"].(string)
		if !ok {
			continue
		}
		content, ok := entry["content"].(string)
		if !ok {
			continue
		}
		history = append(history, models.Message{Role: models.Role(role), Content: content})
	}
	return history
}

// Assemble builds the message list for one chat turn: the system prompt with
// the itinerary appended, the prior history, then the trimmed question.
func Assemble(question string, history []models.Message, itinerary *string) ([]models.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, models.Message{
		Role:    models.RoleSystem,
		Content: SystemPrompt + itineraryDivider + itineraryOrDefault(itinerary),
	})
	messages = append(messages, history...)
	messages = append(messages, models.Message{Role: models.RoleUser, Content: question})
	return messages, nil
}

func itineraryOrDefault(itinerary *string) string {
	if itinerary == nil {
		return DefaultItinerary
	}
	return *itinerary
}
