package scoring

import "github.com/Dosada05/club-scoring/models"

type Side int

const (
	SideNone Side = iota
	SideTeam1
	SideTeam2
)

// Resolution is the outcome of checking a whole set sequence against a match format.
type Resolution struct {
	SetsWon  models.SetScore `json:"setsWon"`
	Games    models.SetScore `json:"games"`
	Entered  int             `json:"entered"`
	Complete bool            `json:"complete"`
	Winner   Side            `json:"winner"`
	Reason   string          `json:"reason,omitempty"`
}

// WinnerID maps the winning side onto the match's team ids.
func (r Resolution) WinnerID(team1ID, team2ID string) string {
	switch r.Winner {
	case SideTeam1:
		return team1ID
	case SideTeam2:
		return team2ID
	}
	return ""
}

// ResolveMatch validates every entered set and tallies sets won. The returned error is nil
// only when the tally satisfies the format's win condition; the Resolution is filled either way.
func ResolveMatch(sets []models.Set, format models.MatchFormat, strict bool) (Resolution, error) {
	var res Resolution
	if !format.Valid() {
		err := &FormatMismatchError{Format: format, Reason: "unknown match format"}
		res.Reason = err.Reason
		return res, err
	}

	for i, set := range sets {
		if !set.Entered() {
			continue
		}
		if err := ValidateSet(set, i, format, strict); err != nil {
			res.Reason = Reason(err)
			return res, err
		}
		res.Entered++
		res.Games.Team1 += set.Team1Games
		res.Games.Team2 += set.Team2Games
		if set.Team1Games > set.Team2Games {
			res.SetsWon.Team1++
		} else {
			res.SetsWon.Team2++
		}
	}

	if reason := formatShortfall(res, format); reason != "" {
		res.Reason = reason
		return res, &FormatMismatchError{Format: format, Reason: reason}
	}

	res.Complete = true
	if res.SetsWon.Team1 > res.SetsWon.Team2 {
		res.Winner = SideTeam1
	} else {
		res.Winner = SideTeam2
	}
	return res, nil
}

// formatShortfall returns why the tally does not finish the match, or "" when it does:
// singleSet ends 1-0 or 0-1, bestOfThree ends 2-0 or 2-1.
func formatShortfall(res Resolution, format models.MatchFormat) string {
	if res.Entered == 0 {
		return "no sets entered"
	}
	if res.Entered > format.MaxSets() {
		return "too many sets for this format"
	}
	switch format {
	case models.FormatSingleSet:
		// one entered set always yields 1-0 or 0-1
		return ""
	case models.FormatBestOfThree:
		t1, t2 := res.SetsWon.Team1, res.SetsWon.Team2
		switch {
		case res.Entered == 1:
			return "needs a second set"
		case res.Entered == 2 && t1 == 1 && t2 == 1:
			return "needs a deciding set"
		case t1 == 3 || t2 == 3:
			return "match was already decided after two sets"
		case t1 != 2 && t2 != 2:
			return "no team has won two sets"
		}
	}
	return ""
}
