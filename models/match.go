package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type MatchStatus string

const (
	StatusScheduled  MatchStatus = "scheduled"
	StatusInProgress MatchStatus = "inProgress"
	StatusCompleted  MatchStatus = "completed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type MatchFormat string

const (
	FormatSingleSet   MatchFormat = "singleSet"
	FormatBestOfThree MatchFormat = "bestOfThree"
)

func (f MatchFormat) Valid() bool {
	return f == FormatSingleSet || f == FormatBestOfThree
}

// MaxSets is the number of sets a match of this format can hold.
func (f MatchFormat) MaxSets() int {
	if f == FormatBestOfThree {
		return 3
	}
	return 1
}

// Placeholder team references used by knockout brackets.
const (
	TeamTBD = "TBD"
	TeamBYE = "BYE"
)

func IsPlaceholderTeam(id string) bool {
	return id == "" || id == TeamTBD || id == TeamBYE
}

// Set holds games won by each side. A 0-0 set counts as not yet played.
type Set struct {
	Team1Games int `json:"team1Games"`
	Team2Games int `json:"team2Games"`
}

func (s Set) Entered() bool {
	return s.Team1Games > 0 || s.Team2Games > 0
}

// Sets is stored as a JSONB column.
type Sets []Set

func (s Sets) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return jsonValue(s)
}

func (s *Sets) Scan(src interface{}) error {
	return scanJSON(src, s)
}

type SetScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// LiveScore is an unvalidated running score, overwritten freely while a match is in progress.
type LiveScore struct {
	Sets      []Set     `json:"sets"`
	Games     SetScore  `json:"games"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l *LiveScore) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return jsonValue(l)
}

func (l *LiveScore) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// PendingConfirmation is a provisional final result awaiting an authorized confirm or reject.
type PendingConfirmation struct {
	Sets        []Set     `json:"sets"`
	SubmittedBy string    `json:"submittedBy"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func (p *PendingConfirmation) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return jsonValue(p)
}

func (p *PendingConfirmation) Scan(src interface{}) error {
	return scanJSON(src, p)
}

type Match struct {
	ID           string      `json:"id"`
	TournamentID string      `json:"tournamentId"`
	Team1ID      string      `json:"team1Id"`
	Team2ID      string      `json:"team2Id"`
	Format       MatchFormat `json:"format"`
	Sets         Sets        `json:"sets"`
	Score        SetScore    `json:"score"`
	WinnerID     *string     `json:"winnerId"`
	Status       MatchStatus `json:"status"`
	GroupID      *string     `json:"groupId,omitempty"`
	Round        *Round      `json:"round,omitempty"`
	OrderInRound int         `json:"orderInRound,omitempty"`

	// Knockout linking: the winner of this match moves into NextMatchID at WinnerToSlot (1 or 2).
	NextMatchID  *string `json:"nextMatchId,omitempty"`
	WinnerToSlot *int    `json:"winnerToSlot,omitempty"`

	LiveScore           *LiveScore           `json:"liveScore,omitempty"`
	PendingConfirmation *PendingConfirmation `json:"pendingConfirmation,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Match) IsKnockout() bool {
	return m.Round != nil
}

// Winner returns the winner id or "" when there is none.
func (m *Match) Winner() string {
	if m.WinnerID == nil {
		return ""
	}
	return *m.WinnerID
}

// Clone returns a deep copy so transitions never mutate the caller's record.
func (m Match) Clone() Match {
	out := m
	if m.Sets != nil {
		out.Sets = append(make(Sets, 0, len(m.Sets)), m.Sets...)
	}
	if m.WinnerID != nil {
		w := *m.WinnerID
		out.WinnerID = &w
	}
	if m.GroupID != nil {
		g := *m.GroupID
		out.GroupID = &g
	}
	if m.Round != nil {
		r := *m.Round
		out.Round = &r
	}
	if m.NextMatchID != nil {
		n := *m.NextMatchID
		out.NextMatchID = &n
	}
	if m.WinnerToSlot != nil {
		s := *m.WinnerToSlot
		out.WinnerToSlot = &s
	}
	if m.LiveScore != nil {
		ls := *m.LiveScore
		ls.Sets = append([]Set(nil), m.LiveScore.Sets...)
		out.LiveScore = &ls
	}
	if m.PendingConfirmation != nil {
		pc := *m.PendingConfirmation
		pc.Sets = append([]Set(nil), m.PendingConfirmation.Sets...)
		out.PendingConfirmation = &pc
	}
	return out
}

// jsonValue returns text so the driver does not send JSON columns as bytea.
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Join(errors.New("failed to decode JSON column"), err)
	}
	return nil
}
