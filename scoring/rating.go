package scoring

import "math"

// Rating Points Algorithm tuning. Team strength is the sum of both players' ratings.
const (
	// RatingK is the award for a win whose expected score was zero.
	RatingK = 40.0
	// RatingSpread is the team-sum gap at which the stronger team is expected to win ten times as often.
	RatingSpread = 800.0
	// MaxRatingGap clamps the team-sum gap so mismatches cannot produce runaway awards.
	MaxRatingGap = 800.0
	// MarginWindow is the game differential at which the margin scaling saturates.
	MarginWindow = 12
	// MarginWeight bounds the margin scaling to [1-MarginWeight, 1+MarginWeight].
	MarginWeight = 0.5

	DefaultPlayerRating = 1000.0
)

type RatingInput struct {
	RatingA1 *float64
	RatingA2 *float64
	RatingB1 *float64
	RatingB2 *float64
	GamesA   int
	GamesB   int
	// Winner is SideTeam1 for team A and SideTeam2 for team B.
	Winner Side
}

// RatingFallback records a player slot whose rating was missing. Slot is one of A1, A2, B1, B2.
type RatingFallback struct {
	Slot   string  `json:"slot"`
	Rating float64 `json:"rating"`
}

type RatingResult struct {
	DeltaA int `json:"deltaA"`
	DeltaB int `json:"deltaB"`

	SumA           float64          `json:"sumA"`
	SumB           float64          `json:"sumB"`
	Gap            float64          `json:"gap"`
	ClampedGap     float64          `json:"clampedGap"`
	ExpectedWinner float64          `json:"expectedWinner"`
	Factor         float64          `json:"factor"`
	Base           float64          `json:"base"`
	Margin         int              `json:"margin"`
	MarginFactor   float64          `json:"marginFactor"`
	Points         int              `json:"points"`
	Multiplier     float64          `json:"multiplier"`
	Fallbacks      []RatingFallback `json:"fallbacks,omitempty"`
}

// CalcRatingDelta computes the zero-sum adjustment for a completed doubles match.
// The winner gains Points and the loser gives up the same amount.
func CalcRatingDelta(in RatingInput, defaultRating float64) RatingResult {
	var res RatingResult
	rating := func(slot string, r *float64) float64 {
		if r == nil {
			res.Fallbacks = append(res.Fallbacks, RatingFallback{Slot: slot, Rating: defaultRating})
			return defaultRating
		}
		return *r
	}

	res.SumA = rating("A1", in.RatingA1) + rating("A2", in.RatingA2)
	res.SumB = rating("B1", in.RatingB1) + rating("B2", in.RatingB2)
	res.Gap = res.SumB - res.SumA
	res.ClampedGap = math.Max(-MaxRatingGap, math.Min(MaxRatingGap, res.Gap))
	res.Multiplier = 1

	if in.Winner != SideTeam1 && in.Winner != SideTeam2 {
		return res
	}

	// gap and margin from the winner's side, so swapping teams yields bit-identical points
	gap := res.ClampedGap
	margin := in.GamesA - in.GamesB
	if in.Winner == SideTeam2 {
		gap = -gap
		margin = -margin
	}
	res.ExpectedWinner = 1 / (1 + math.Pow(10, gap/RatingSpread))

	res.Factor = 1 - res.ExpectedWinner
	res.Base = RatingK * res.Factor
	res.Margin = margin
	clamped := max(-MarginWindow, min(MarginWindow, margin))
	res.MarginFactor = 1 + MarginWeight*float64(clamped)/float64(MarginWindow)
	res.Points = int(math.Round(math.Max(0, res.Base*res.MarginFactor)))
	res.assign(in.Winner)
	return res
}

// ApplyMultiplier scales the award uniformly; the result stays zero-sum.
func (r RatingResult) ApplyMultiplier(m float64, winner Side) RatingResult {
	if m < 0 {
		m = 0
	}
	out := r
	out.Multiplier = r.Multiplier * m
	out.Points = int(math.Round(float64(r.Points) * m))
	out.assign(winner)
	return out
}

func (r *RatingResult) assign(winner Side) {
	switch winner {
	case SideTeam1:
		r.DeltaA, r.DeltaB = r.Points, -r.Points
	case SideTeam2:
		r.DeltaA, r.DeltaB = -r.Points, r.Points
	default:
		r.DeltaA, r.DeltaB = 0, 0
	}
}
