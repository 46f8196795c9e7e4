package models

import (
	"database/sql/driver"
	"fmt"
)

// Round is a canonical knockout round. The numeric value is the bracket order.
type Round int

const (
	RoundOf16 Round = iota + 1
	RoundQuarterFinal
	RoundSemiFinal
	RoundFinal
	RoundThirdPlace
)

// Rounds lists every canonical round in bracket order.
var Rounds = []Round{RoundOf16, RoundQuarterFinal, RoundSemiFinal, RoundFinal, RoundThirdPlace}

var roundNames = map[Round]string{
	RoundOf16:         "roundOf16",
	RoundQuarterFinal: "quarterfinals",
	RoundSemiFinal:    "semifinals",
	RoundFinal:        "finals",
	RoundThirdPlace:   "thirdPlace",
}

func (r Round) String() string {
	if name, ok := roundNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Round(%d)", int(r))
}

func (r Round) Valid() bool {
	_, ok := roundNames[r]
	return ok
}

// CountsForChampionship is false only for the third-place playoff.
func (r Round) CountsForChampionship() bool {
	return r.Valid() && r != RoundThirdPlace
}

// MatchCount is the number of matches a full bracket has in this round.
func (r Round) MatchCount() int {
	switch r {
	case RoundOf16:
		return 8
	case RoundQuarterFinal:
		return 4
	case RoundSemiFinal:
		return 2
	case RoundFinal, RoundThirdPlace:
		return 1
	}
	return 0
}

func ParseRound(s string) (Round, error) {
	for r, name := range roundNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown round %q", s)
}

func (r Round) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid round %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Round) UnmarshalText(text []byte) error {
	parsed, err := ParseRound(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Round) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid round %d", int(r))
	}
	return r.String(), nil
}

func (r *Round) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Round", src)
	}
}
