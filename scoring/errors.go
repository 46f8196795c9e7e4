package scoring

import (
	"errors"
	"fmt"

	"github.com/Dosada05/club-scoring/models"
)

var (
	ErrTiedSet           = errors.New("tied set")
	ErrInvalidSet        = errors.New("invalid set score")
	ErrFormatMismatch    = errors.New("score does not satisfy match format")
	ErrInvalidTransition = errors.New("invalid match transition")
)

// TiedSetError reports a set whose two scores are equal and non-zero.
type TiedSetError struct {
	SetIndex int
	Set      models.Set
}

func (e *TiedSetError) Error() string {
	return fmt.Sprintf("set %d is tied at %d-%d", e.SetIndex+1, e.Set.Team1Games, e.Set.Team2Games)
}

func (e *TiedSetError) Unwrap() error { return ErrTiedSet }

// InvalidSetError reports a set that breaks the strict racket-sport rules.
type InvalidSetError struct {
	SetIndex int
	Set      models.Set
	Reason   string
}

func (e *InvalidSetError) Error() string {
	return fmt.Sprintf("set %d (%d-%d): %s", e.SetIndex+1, e.Set.Team1Games, e.Set.Team2Games, e.Reason)
}

func (e *InvalidSetError) Unwrap() error { return ErrInvalidSet }

type FormatMismatchError struct {
	Format models.MatchFormat
	Reason string
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("%s match: %s", e.Format, e.Reason)
}

func (e *FormatMismatchError) Unwrap() error { return ErrFormatMismatch }

type InvalidTransitionError struct {
	From   models.MatchStatus
	Action string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s a %s match: %s", e.Action, e.From, e.Reason)
	}
	return fmt.Sprintf("cannot %s a %s match", e.Action, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// Reason extracts the human-readable reason from any scoring error.
func Reason(err error) string {
	var (
		tied       *TiedSetError
		invalidSet *InvalidSetError
		mismatch   *FormatMismatchError
		transition *InvalidTransitionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &tied):
		return tied.Error()
	case errors.As(err, &invalidSet):
		return invalidSet.Error()
	case errors.As(err, &mismatch):
		return mismatch.Reason
	case errors.As(err, &transition):
		return transition.Error()
	}
	return err.Error()
}
