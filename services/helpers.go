package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/club-scoring/repositories"
)

// Notifier pushes events to clients following a tournament. *brackets.Hub implements it.
type Notifier interface {
	Publish(tournamentID, eventType string, payload interface{})
}

// SnapshotPublisher writes public read-only copies of computed views.
// *storage.SnapshotPublisher implements it.
type SnapshotPublisher interface {
	PublishStandings(ctx context.Context, groupID string, table interface{}) error
	PublishBracket(ctx context.Context, tournamentID string, bracket interface{}) error
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, string, interface{}) {}

// mapRepoError translates repository sentinels into service errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	}
	return err
}

func wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
