package itinerary

import (
	"github.com/smarttravel/itinerary-api/internal/types"
)

// EvaluateInsert decides whether candidate can join day without user input.
//
// A candidate duplicates an existing destination when either shares its id or
// both truncated coordinates match. Absent a duplicate, the insert is clean
// when the day is empty or every existing destination sits in the candidate's
// integer-latitude band; otherwise the verdict is ambiguous and the caller
// must ask the user to confirm.
func EvaluateInsert(day types.Day, candidate types.PlaceCandidate) types.ConflictVerdict {
	if isDuplicate(day, candidate) {
		return types.ConflictVerdict{State: types.ConflictDuplicate, Candidate: candidate}
	}

	if len(day.Destinations) == 0 {
		return types.ConflictVerdict{State: types.ConflictClean, Candidate: candidate}
	}

	candLat := types.TruncateDegrees(candidate.Latitude)
	for _, dest := range day.Destinations {
		lat, _ := dest.Coordinate()
		if types.TruncateDegrees(lat) != candLat {
			return types.ConflictVerdict{State: types.ConflictAmbiguous, Candidate: candidate}
		}
	}

	return types.ConflictVerdict{State: types.ConflictClean, Candidate: candidate}
}

// ConfirmInsert is the confirmation path: the user has already accepted an
// ambiguous insert, so only the duplicate check is repeated. Ambiguity never
// resurfaces here.
func ConfirmInsert(day types.Day, candidate types.PlaceCandidate) types.ConflictVerdict {
	if isDuplicate(day, candidate) {
		return types.ConflictVerdict{State: types.ConflictDuplicate, Candidate: candidate}
	}
	return types.ConflictVerdict{State: types.ConflictConfirmed, Candidate: candidate}
}

func isDuplicate(day types.Day, candidate types.PlaceCandidate) bool {
	candLat := types.TruncateDegrees(candidate.Latitude)
	candLon := types.TruncateDegrees(candidate.Longitude)
	for _, dest := range day.Destinations {
		if dest.ID == candidate.ID {
			return true
		}
		lat, lon := dest.Coordinate()
		if types.TruncateDegrees(lat) == candLat && types.TruncateDegrees(lon) == candLon {
			return true
		}
	}
	return false
}
