package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Snapshot is the JSON document written for public consumers.
type Snapshot struct {
	Kind        string      `json:"kind"`
	ID          string      `json:"id"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Data        interface{} `json:"data"`
}

func StandingsKey(groupID string) string {
	return fmt.Sprintf("snapshots/groups/%s/standings.json", groupID)
}

func BracketKey(tournamentID string) string {
	return fmt.Sprintf("snapshots/tournaments/%s/bracket.json", tournamentID)
}

// SnapshotPublisher serialises computed standings and brackets into an object store.
type SnapshotPublisher struct {
	store  ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

func NewSnapshotPublisher(store ObjectStore, logger *slog.Logger) *SnapshotPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotPublisher{store: store, logger: logger, now: time.Now}
}

func (p *SnapshotPublisher) PublishStandings(ctx context.Context, groupID string, table interface{}) error {
	return p.publish(ctx, StandingsKey(groupID), Snapshot{Kind: "standings", ID: groupID, Data: table})
}

func (p *SnapshotPublisher) PublishBracket(ctx context.Context, tournamentID string, bracket interface{}) error {
	return p.publish(ctx, BracketKey(tournamentID), Snapshot{Kind: "bracket", ID: tournamentID, Data: bracket})
}

func (p *SnapshotPublisher) publish(ctx context.Context, key string, snap Snapshot) error {
	snap.GeneratedAt = p.now().UTC()
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", snap.Kind, err)
	}
	res, err := p.store.Put(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	p.logger.Debug("snapshot published", slog.String("key", res.Key), slog.String("location", res.Location))
	return nil
}
