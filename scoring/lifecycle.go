package scoring

import (
	"time"

	"github.com/Dosada05/club-scoring/models"
)

// Lifecycle is the match state machine. Every transition takes a match by value and
// returns the next state; callers persist it.
//
//	scheduled  -> inProgress  Start
//	inProgress -> scheduled   Revert
//	scheduled  -> completed   Complete (resolver must report complete)
//	inProgress -> completed   Complete, ConfirmProvisional
//	completed  -> scheduled   Revert (clears the result)
type Lifecycle struct {
	Strict bool
	Now    func() time.Time
}

func NewLifecycle(strict bool) *Lifecycle {
	return &Lifecycle{Strict: strict, Now: time.Now}
}

func (l *Lifecycle) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now().UTC()
}

func (l *Lifecycle) Start(m models.Match) (models.Match, error) {
	if m.Status != models.StatusScheduled {
		return m, &InvalidTransitionError{From: m.Status, Action: "start"}
	}
	if err := requireTeams(m, "start"); err != nil {
		return m, err
	}
	next := m.Clone()
	next.Status = models.StatusInProgress
	next.UpdatedAt = l.now()
	return next, nil
}

// Complete records a final result. It is accepted only when ResolveMatch reports the
// set sequence complete for the match format.
func (l *Lifecycle) Complete(m models.Match, sets []models.Set) (models.Match, Resolution, error) {
	if m.Status != models.StatusScheduled && m.Status != models.StatusInProgress {
		return m, Resolution{}, &InvalidTransitionError{From: m.Status, Action: "complete", Reason: "revert the recorded result first"}
	}
	if err := requireTeams(m, "complete"); err != nil {
		return m, Resolution{}, err
	}
	res, err := ResolveMatch(sets, m.Format, l.Strict)
	if err != nil {
		return m, res, err
	}

	next := m.Clone()
	next.Sets = trimSets(sets)
	next.Score = res.SetsWon
	winner := res.WinnerID(m.Team1ID, m.Team2ID)
	next.WinnerID = &winner
	next.Status = models.StatusCompleted
	next.LiveScore = nil
	next.PendingConfirmation = nil
	next.UpdatedAt = l.now()
	return next, res, nil
}

// Revert moves a match back to scheduled. For a completed match this clears the
// result; the returned flag tells the caller to invalidate the stored rating delta.
func (l *Lifecycle) Revert(m models.Match) (models.Match, bool, error) {
	next := m.Clone()
	cleared := false
	switch m.Status {
	case models.StatusInProgress:
	case models.StatusCompleted:
		// BYE pairings are completed by the bracket and have no result to clear
		if err := requireTeams(m, "revert"); err != nil {
			return m, false, err
		}
		next.Sets = models.Sets{}
		next.Score = models.SetScore{}
		next.WinnerID = nil
		cleared = true
	default:
		return m, false, &InvalidTransitionError{From: m.Status, Action: "revert"}
	}
	next.Status = models.StatusScheduled
	next.LiveScore = nil
	next.PendingConfirmation = nil
	next.UpdatedAt = l.now()
	return next, cleared, nil
}

// UpdateLiveScore overwrites the running score without validation.
func (l *Lifecycle) UpdateLiveScore(m models.Match, sets []models.Set) (models.Match, error) {
	if m.Status != models.StatusInProgress {
		return m, &InvalidTransitionError{From: m.Status, Action: "update the live score of"}
	}
	now := l.now()
	live := &models.LiveScore{Sets: append([]models.Set(nil), sets...), UpdatedAt: now}
	for _, s := range sets {
		live.Games.Team1 += s.Team1Games
		live.Games.Team2 += s.Team2Games
	}
	next := m.Clone()
	next.LiveScore = live
	next.UpdatedAt = now
	return next, nil
}

func (l *Lifecycle) SubmitProvisional(m models.Match, sets []models.Set, submittedBy string) (models.Match, error) {
	if m.Status != models.StatusInProgress {
		return m, &InvalidTransitionError{From: m.Status, Action: "submit a provisional result for"}
	}
	if m.PendingConfirmation != nil {
		return m, &InvalidTransitionError{From: m.Status, Action: "submit a provisional result for", Reason: "a provisional result is already pending"}
	}
	now := l.now()
	next := m.Clone()
	next.PendingConfirmation = &models.PendingConfirmation{
		Sets:        append([]models.Set(nil), sets...),
		SubmittedBy: submittedBy,
		SubmittedAt: now,
	}
	next.UpdatedAt = now
	return next, nil
}

// ConfirmProvisional promotes the pending result through Complete. On a validation
// failure the match is returned unchanged, pending result included.
func (l *Lifecycle) ConfirmProvisional(m models.Match) (models.Match, Resolution, error) {
	if m.Status != models.StatusInProgress || m.PendingConfirmation == nil {
		return m, Resolution{}, &InvalidTransitionError{From: m.Status, Action: "confirm", Reason: "no provisional result is pending"}
	}
	return l.Complete(m, m.PendingConfirmation.Sets)
}

func (l *Lifecycle) RejectProvisional(m models.Match) (models.Match, error) {
	if m.Status != models.StatusInProgress || m.PendingConfirmation == nil {
		return m, &InvalidTransitionError{From: m.Status, Action: "reject", Reason: "no provisional result is pending"}
	}
	next := m.Clone()
	next.PendingConfirmation = nil
	next.UpdatedAt = l.now()
	return next, nil
}

func requireTeams(m models.Match, action string) error {
	if models.IsPlaceholderTeam(m.Team1ID) || models.IsPlaceholderTeam(m.Team2ID) {
		return &InvalidTransitionError{From: m.Status, Action: action, Reason: "both teams must be determined"}
	}
	return nil
}

// trimSets drops trailing placeholder sets and keeps set positions otherwise.
func trimSets(sets []models.Set) models.Sets {
	n := len(sets)
	for n > 0 && !sets[n-1].Entered() {
		n--
	}
	return append(make(models.Sets, 0, n), sets[:n]...)
}
