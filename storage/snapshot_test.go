package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Put(ctx context.Context, key, contentType string, r io.Reader) (*PutResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.objects[key] = b
	m.types[key] = contentType
	return &PutResult{Key: key, Location: m.PublicURL(key)}, nil
}

func (m *memoryStore) PublicURL(key string) string {
	return joinPublicURL("https://cdn.example.com/club", key)
}

func TestSnapshotPublisher_WritesStandings(t *testing.T) {
	store := newMemoryStore()
	p := NewSnapshotPublisher(store, nil)
	p.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, p.PublishStandings(context.Background(), "g1", []map[string]int{{"position": 1}}))

	raw, ok := store.objects["snapshots/groups/g1/standings.json"]
	require.True(t, ok)
	assert.Equal(t, "application/json", store.types["snapshots/groups/g1/standings.json"])

	var snap struct {
		Kind        string           `json:"kind"`
		ID          string           `json:"id"`
		GeneratedAt time.Time        `json:"generatedAt"`
		Data        []map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, "standings", snap.Kind)
	assert.Equal(t, "g1", snap.ID)
	assert.Equal(t, 1, snap.Data[0]["position"])
	assert.True(t, snap.GeneratedAt.Equal(p.now()))
}

func TestSnapshotPublisher_PropagatesStoreError(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("bucket unavailable")
	p := NewSnapshotPublisher(store, nil)
	assert.ErrorContains(t, p.PublishBracket(context.Background(), "t1", nil), "bucket unavailable")
}

func TestJoinPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a/b.json", joinPublicURL("https://cdn.example.com", "a/b.json"))
	assert.Equal(t, "https://cdn.example.com/club/a.json", joinPublicURL("https://cdn.example.com/club/", "/a.json"))
	assert.Equal(t, "", joinPublicURL("", "a.json"))
	assert.Equal(t, "", joinPublicURL("https://cdn.example.com", ""))
}

func TestR2Config_Enabled(t *testing.T) {
	assert.False(t, R2Config{}.Enabled())
	assert.True(t, R2Config{AccountID: "a", AccessKeyID: "k", SecretAccessKey: "s", BucketName: "b"}.Enabled())

	_, err := NewR2Store(context.Background(), R2Config{})
	assert.ErrorIs(t, err, ErrStoreNotConfigured)
}
