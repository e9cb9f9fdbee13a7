package types

import "encoding/json"

// PlaceCandidate is one resolved point of interest: the authoritative store
// record for an identifier returned by the fuzzy name index. Candidates are
// transient, produced per request and never persisted.
type PlaceCandidate struct {
	ID         string          `json:"place_id"`
	Name       string          `json:"name"`
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Category   string          `json:"category,omitempty"`
	Rating     float64         `json:"rating,omitempty"`
	Hours      string          `json:"hours,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// AsDestination projects a candidate into an itinerary destination.
func (p PlaceCandidate) AsDestination() Destination {
	lat, lon := p.Latitude, p.Longitude
	return Destination{
		ID:        p.ID,
		Name:      p.Name,
		Latitude:  &lat,
		Longitude: &lon,
		Category:  p.Category,
	}
}

// ConflictState tags the result of evaluating a candidate against a day.
type ConflictState string

const (
	ConflictDuplicate ConflictState = "duplicate"
	ConflictClean     ConflictState = "clean"
	ConflictAmbiguous ConflictState = "ambiguous"
	ConflictConfirmed ConflictState = "confirmed"
)

// ConflictVerdict is computed fresh per request; it has no lifecycle beyond a
// single call. An Ambiguous verdict blocks insertion until the caller issues
// the explicit confirmation command, which re-resolves the same fields.
type ConflictVerdict struct {
	State     ConflictState  `json:"state"`
	Candidate PlaceCandidate `json:"candidate"`
}
