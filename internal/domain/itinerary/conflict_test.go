package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smarttravel/itinerary-api/internal/types"
)

func ptr(f float64) *float64 { return &f }

func dayWith(dests ...types.Destination) types.Day {
	return types.Day{Number: 1, Destinations: dests}
}

func TestTruncateDegrees(t *testing.T) {
	assert.Equal(t, 10.0, types.TruncateDegrees(10.7))
	assert.Equal(t, -10.0, types.TruncateDegrees(-10.7), "truncation goes toward zero, not down")
	assert.Equal(t, 0.0, types.TruncateDegrees(0.999))

	// Idempotence: truncating a truncated value changes nothing.
	for _, v := range []float64{10.7, -3.2, 0.0, 179.99, -89.5} {
		once := types.TruncateDegrees(v)
		assert.Equal(t, once, types.TruncateDegrees(once))
	}
}

func TestEvaluateInsert_EmptyDayIsClean(t *testing.T) {
	candidate := types.PlaceCandidate{ID: "p1", Latitude: 21.02, Longitude: 105.85}
	verdict := EvaluateInsert(dayWith(), candidate)
	assert.Equal(t, types.ConflictClean, verdict.State)
	assert.Equal(t, candidate, verdict.Candidate)
}

func TestEvaluateInsert_SameIDIsDuplicate(t *testing.T) {
	existing := types.Destination{ID: "p1", Latitude: ptr(50.0), Longitude: ptr(8.0)}
	candidate := types.PlaceCandidate{ID: "p1", Latitude: 21.02, Longitude: 105.85}
	verdict := EvaluateInsert(dayWith(existing), candidate)
	assert.Equal(t, types.ConflictDuplicate, verdict.State, "same id always wins over coordinates")
}

func TestEvaluateInsert_SameBucketIsDuplicate(t *testing.T) {
	existing := types.Destination{ID: "p1", Latitude: ptr(21.02), Longitude: ptr(105.85)}
	// Different place in the same integer lat+lon cell.
	candidate := types.PlaceCandidate{ID: "p2", Latitude: 21.99, Longitude: 105.01}
	verdict := EvaluateInsert(dayWith(existing), candidate)
	assert.Equal(t, types.ConflictDuplicate, verdict.State)
}

func TestEvaluateInsert_SameLatitudeBandIsClean(t *testing.T) {
	existing := types.Destination{ID: "p1", Latitude: ptr(21.02), Longitude: ptr(105.85)}
	// Same integer latitude, different longitude cell.
	candidate := types.PlaceCandidate{ID: "p2", Latitude: 21.5, Longitude: 107.2}
	verdict := EvaluateInsert(dayWith(existing), candidate)
	assert.Equal(t, types.ConflictClean, verdict.State)
}

func TestEvaluateInsert_DifferentLatitudeBandIsAmbiguous(t *testing.T) {
	existing := types.Destination{ID: "p1", Latitude: ptr(10.3), Longitude: ptr(106.7)}
	candidate := types.PlaceCandidate{ID: "p2", Latitude: 11.9, Longitude: 108.4}
	verdict := EvaluateInsert(dayWith(existing), candidate)
	assert.Equal(t, types.ConflictAmbiguous, verdict.State)
}

func TestEvaluateInsert_AnyOutlierForcesAmbiguous(t *testing.T) {
	d1 := types.Destination{ID: "p1", Latitude: ptr(21.1), Longitude: ptr(105.8)}
	d2 := types.Destination{ID: "p2", Latitude: ptr(16.0), Longitude: ptr(108.2)}
	candidate := types.PlaceCandidate{ID: "p3", Latitude: 21.9, Longitude: 106.5}
	verdict := EvaluateInsert(dayWith(d1, d2), candidate)
	assert.Equal(t, types.ConflictAmbiguous, verdict.State,
		"one destination outside the candidate's band is enough")
}

func TestEvaluateInsert_MissingCoordinatesCompareAsZero(t *testing.T) {
	// A degraded destination sits at (0,0); a candidate in the zero cell is a
	// duplicate of it.
	existing := types.Destination{ID: "p1"}
	candidate := types.PlaceCandidate{ID: "p2", Latitude: 0.4, Longitude: 0.9}
	verdict := EvaluateInsert(dayWith(existing), candidate)
	assert.Equal(t, types.ConflictDuplicate, verdict.State)
}

func TestConfirmInsert_StillDetectsDuplicates(t *testing.T) {
	existing := types.Destination{ID: "p1", Latitude: ptr(21.02), Longitude: ptr(105.85)}
	candidate := types.PlaceCandidate{ID: "p2", Latitude: 21.5, Longitude: 105.1}
	verdict := ConfirmInsert(dayWith(existing), candidate)
	assert.Equal(t, types.ConflictDuplicate, verdict.State)
}

func TestConfirmInsert_AmbiguousBecomesConfirmed(t *testing.T) {
	existing := types.Destination{ID: "p1", Latitude: ptr(10.3), Longitude: ptr(106.7)}
	candidate := types.PlaceCandidate{ID: "p2", Latitude: 11.9, Longitude: 108.4}

	// Would be ambiguous on first evaluation...
	assert.Equal(t, types.ConflictAmbiguous, EvaluateInsert(dayWith(existing), candidate).State)
	// ...and is accepted on the confirmation path.
	assert.Equal(t, types.ConflictConfirmed, ConfirmInsert(dayWith(existing), candidate).State)
}
