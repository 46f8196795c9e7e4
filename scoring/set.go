package scoring

import "github.com/Dosada05/club-scoring/models"

// Standard set thresholds.
const (
	SetWinGames         = 6
	SetMaxGames         = 7
	SetMinMargin        = 2
	SuperTiebreakPoints = 10
)

// ValidateSet checks one set's raw score. A 0-0 set is a placeholder and always passes.
// With strict rules the standard set table applies, and the deciding set of a
// best-of-three match may instead be a super tiebreak.
func ValidateSet(set models.Set, setIndex int, format models.MatchFormat, strict bool) error {
	a, b := set.Team1Games, set.Team2Games
	if a < 0 || b < 0 {
		return &InvalidSetError{SetIndex: setIndex, Set: set, Reason: "games cannot be negative"}
	}
	if a == b {
		if a == 0 {
			return nil
		}
		return &TiedSetError{SetIndex: setIndex, Set: set}
	}
	if !strict {
		return nil
	}

	hi, lo := max(a, b), min(a, b)
	margin := hi - lo

	if isDecidingSet(setIndex, format) && hi >= SuperTiebreakPoints {
		if margin < SetMinMargin {
			return &InvalidSetError{SetIndex: setIndex, Set: set, Reason: "super tiebreak must be won by 2"}
		}
		return nil
	}

	switch {
	case hi < SetWinGames:
		return &InvalidSetError{SetIndex: setIndex, Set: set, Reason: "set is not finished"}
	case hi == SetWinGames:
		if margin < SetMinMargin {
			return &InvalidSetError{SetIndex: setIndex, Set: set, Reason: "a set at 6 must be won by 2"}
		}
	case hi == SetMaxGames:
		if lo != SetWinGames-1 && lo != SetWinGames {
			return &InvalidSetError{SetIndex: setIndex, Set: set, Reason: "a set at 7 is only valid as 7-5 or 7-6"}
		}
	default:
		if isDecidingSet(setIndex, format) {
			return &InvalidSetError{SetIndex: setIndex, Set: set, Reason: "super tiebreak is played to 10"}
		}
		return &InvalidSetError{SetIndex: setIndex, Set: set, Reason: "a set cannot exceed 7 games"}
	}
	return nil
}

func isDecidingSet(setIndex int, format models.MatchFormat) bool {
	return format == models.FormatBestOfThree && setIndex == format.MaxSets()-1
}
