package services

import "errors"

var (
	ErrNotFound = errors.New("requested resource not found")

	ErrMatchNotFound = errors.New("match not found")
	ErrTeamNotFound  = errors.New("team not found")

	ErrValidationFailed = errors.New("validation failed")
	ErrAlreadyGenerated = errors.New("matches have already been generated")
)
