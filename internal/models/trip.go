package models

import "time"

// DefaultTripName is used when a trip is saved without a name.
const DefaultTripName = "Untitled Trip"

// Trip is a saved itinerary document.
type Trip struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Itinerary string         `json:"itinerary"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// TripSummary is the list view of a trip.
type TripSummary struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

// Summary returns the list view of t.
func (t *Trip) Summary() TripSummary {
	meta := t.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return TripSummary{ID: t.ID, Name: t.Name, Metadata: meta}
}
