package types

import "math"

// Itinerary is the caller-owned trip snapshot. It is supplied whole on every
// request and never persisted here; day numbers are 1-indexed and contiguous.
type Itinerary struct {
	Name      string `json:"name"`
	Members   int    `json:"members,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Days      []Day  `json:"days"`
}

// Day owns an ordered sequence of destinations.
type Day struct {
	Number       int           `json:"day_number"`
	Destinations []Destination `json:"destinations"`
}

// Destination is one stop inside a day. Coordinates are pointers because a
// stored place may legitimately lack them; conflict checks degrade such stops
// to (0,0).
type Destination struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Category  string   `json:"category,omitempty"`
}

// Coordinate returns the destination's position, falling back to (0,0) when
// either component is missing.
func (d Destination) Coordinate() (lat, lon float64) {
	if d.Latitude != nil {
		lat = *d.Latitude
	}
	if d.Longitude != nil {
		lon = *d.Longitude
	}
	return lat, lon
}

// TruncateDegrees reduces a coordinate component to its integer part, the
// coarse city-level bucket used for duplicate and conflict comparison. The
// bucket is roughly 111 km wide; that granularity is intentional and kept for
// compatibility with existing itineraries.
func TruncateDegrees(deg float64) float64 {
	return math.Trunc(deg)
}

// Day returns a pointer to the day with the given 1-indexed number, or nil.
func (it *Itinerary) Day(number int) *Day {
	for i := range it.Days {
		if it.Days[i].Number == number {
			return &it.Days[i]
		}
	}
	return nil
}

// Renumber restores the contiguous 1..n day numbering after a structural edit.
func (it *Itinerary) Renumber() {
	for i := range it.Days {
		it.Days[i].Number = i + 1
	}
}

// Clone deep-copies the snapshot so handlers can mutate freely without
// aliasing the caller's input.
func (it *Itinerary) Clone() *Itinerary {
	out := &Itinerary{
		Name:      it.Name,
		Members:   it.Members,
		StartDate: it.StartDate,
		EndDate:   it.EndDate,
		Days:      make([]Day, len(it.Days)),
	}
	for i, day := range it.Days {
		dests := make([]Destination, len(day.Destinations))
		copy(dests, day.Destinations)
		out.Days[i] = Day{Number: day.Number, Destinations: dests}
	}
	return out
}
