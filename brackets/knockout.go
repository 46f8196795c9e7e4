package brackets

import (
	"cmp"
	"slices"

	"github.com/Dosada05/club-scoring/models"
)

type RoundMatches struct {
	Round   models.Round   `json:"round"`
	Matches []models.Match `json:"matches"`
}

// GroupByRound buckets knockout matches by round in canonical order. Rounds without
// matches are left out; group-stage matches and unknown round tags are ignored.
// Team references, TBD and BYE included, are passed through as stored.
func GroupByRound(matches []models.Match) []RoundMatches {
	buckets := make(map[models.Round][]models.Match)
	for _, m := range matches {
		if m.Round == nil || !m.Round.Valid() {
			continue
		}
		buckets[*m.Round] = append(buckets[*m.Round], m)
	}

	out := make([]RoundMatches, 0, len(buckets))
	for _, r := range models.Rounds {
		ms, ok := buckets[r]
		if !ok {
			continue
		}
		slices.SortFunc(ms, func(a, b models.Match) int {
			if c := cmp.Compare(a.OrderInRound, b.OrderInRound); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		out = append(out, RoundMatches{Round: r, Matches: ms})
	}
	return out
}

// ChampionOf returns the winner of the finals match once it is completed. It reports
// false when there is no single finals match or it has no winner yet.
func ChampionOf(matches []models.Match) (string, bool) {
	var final *models.Match
	for i := range matches {
		m := &matches[i]
		if m.Round == nil || *m.Round != models.RoundFinal {
			continue
		}
		if final != nil {
			return "", false
		}
		final = m
	}
	if final == nil || final.Status != models.StatusCompleted || models.IsPlaceholderTeam(final.Winner()) {
		return "", false
	}
	return final.Winner(), true
}

// AdvancingTeam is the team that leaves a knockout match for the next round: the winner of a
// completed match, or the real team of a BYE pairing. Empty when not yet decided.
func AdvancingTeam(m models.Match) string {
	if m.Status == models.StatusCompleted && !models.IsPlaceholderTeam(m.Winner()) {
		return m.Winner()
	}
	switch {
	case m.Team2ID == models.TeamBYE && !models.IsPlaceholderTeam(m.Team1ID):
		return m.Team1ID
	case m.Team1ID == models.TeamBYE && !models.IsPlaceholderTeam(m.Team2ID):
		return m.Team2ID
	}
	return ""
}

// Advancers lists, in bracket order, the teams already through from the given round.
func Advancers(matches []models.Match, round models.Round) []string {
	var out []string
	for _, rm := range GroupByRound(matches) {
		if rm.Round != round {
			continue
		}
		for _, m := range rm.Matches {
			if t := AdvancingTeam(m); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
