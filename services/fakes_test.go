package services

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Dosada05/club-scoring/models"
	"github.com/Dosada05/club-scoring/repositories"
)

// memStore backs every fake repository. By default txMu serializes transactions the way
// row locks serialize writers of one match and a failed transaction restores the state it
// started from. With concurrentTx set, transactions overlap and only the group locks taken
// through LockGroup order them; failures are not rolled back in that mode.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	concurrentTx bool
	groupLocks   map[string]*sync.Mutex

	matches   map[string]models.Match
	teams     map[string]models.Team
	deltas    map[string]models.RatingDelta
	standings map[string][]models.Standing

	standingWrites int
}

func newMemStore() *memStore {
	return &memStore{
		matches:    make(map[string]models.Match),
		teams:      make(map[string]models.Team),
		deltas:     make(map[string]models.RatingDelta),
		standings:  make(map[string][]models.Standing),
		groupLocks: make(map[string]*sync.Mutex),
	}
}

type memTxKey struct{}

// memTx collects the locks a transaction holds until it ends.
type memTx struct {
	unlocks []func()
}

func (tx *memTx) release() {
	for i := len(tx.unlocks) - 1; i >= 0; i-- {
		tx.unlocks[i]()
	}
}

type memState struct {
	matches   map[string]models.Match
	deltas    map[string]models.RatingDelta
	standings map[string][]models.Standing
}

func (s *memStore) save() memState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := memState{
		matches:   make(map[string]models.Match, len(s.matches)),
		deltas:    maps.Clone(s.deltas),
		standings: make(map[string][]models.Standing, len(s.standings)),
	}
	for id, m := range s.matches {
		st.matches[id] = m.Clone()
	}
	for id, rows := range s.standings {
		st.standings[id] = slices.Clone(rows)
	}
	return st
}

func (s *memStore) restore(st memState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches, s.deltas, s.standings = st.matches, st.deltas, st.standings
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error {
	tx := &memTx{}
	defer tx.release()
	ctx = context.WithValue(ctx, memTxKey{}, tx)

	if s.concurrentTx {
		return fn(ctx, nil)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	st := s.save()
	if err := fn(ctx, nil); err != nil {
		s.restore(st)
		return err
	}
	return nil
}

func (s *memStore) addTeam(t models.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t
}

func (s *memStore) addMatches(ms ...models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range ms {
		s.matches[m.ID] = m.Clone()
	}
}

func (s *memStore) match(id string) models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id].Clone()
}

func (s *memStore) delta(matchID string) (models.RatingDelta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deltas[matchID]
	return d, ok
}

func (s *memStore) table(groupID string) []models.Standing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.standings[groupID])
}

type fakeMatchRepo struct{ s *memStore }

func (r fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[m.ID]; ok {
		return repositories.ErrMatchConflict
	}
	r.s.matches[m.ID] = m.Clone()
	return nil
}

func (r fakeMatchRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, ms []models.Match) error {
	for i := range ms {
		if err := r.Create(ctx, exec, &ms[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	out := m.Clone()
	return &out, nil
}

func (r fakeMatchRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r fakeMatchRepo) ListByGroup(_ context.Context, _ repositories.SQLExecutor, groupID string, status *models.MatchStatus) ([]models.Match, error) {
	return r.list(func(m models.Match) bool {
		return m.GroupID != nil && *m.GroupID == groupID && (status == nil || m.Status == *status)
	}), nil
}

func (r fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID string) ([]models.Match, error) {
	return r.list(func(m models.Match) bool {
		return m.TournamentID == tournamentID && m.Round != nil
	}), nil
}

func (r fakeMatchRepo) list(keep func(models.Match) bool) []models.Match {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range r.s.matches {
		if keep(m) {
			out = append(out, m.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.Match) int {
		if c := cmp.Compare(a.OrderInRound, b.OrderInRound); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (r fakeMatchRepo) Update(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	r.s.matches[m.ID] = m.Clone()
	return nil
}

func (r fakeMatchRepo) UpdateLiveScore(_ context.Context, _ repositories.SQLExecutor, id string, live *models.LiveScore) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok || m.Status != models.StatusInProgress {
		return repositories.ErrMatchNotInProgress
	}
	m.LiveScore = live
	r.s.matches[id] = m.Clone()
	return nil
}

func (r fakeMatchRepo) AssignSlot(_ context.Context, _ repositories.SQLExecutor, matchID string, slot int, teamID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	switch slot {
	case 1:
		m.Team1ID = teamID
	case 2:
		m.Team2ID = teamID
	default:
		return repositories.ErrInvalidSlot
	}
	r.s.matches[matchID] = m
	return nil
}

type fakeTeamRepo struct{ s *memStore }

func (r fakeTeamRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &t, nil
}

func (r fakeTeamRepo) GetByIDs(_ context.Context, _ repositories.SQLExecutor, ids []string) (map[string]*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]*models.Team, len(ids))
	for _, id := range ids {
		if t, ok := r.s.teams[id]; ok {
			out[id] = &t
		}
	}
	return out, nil
}

func (r fakeTeamRepo) ListByGroup(_ context.Context, _ repositories.SQLExecutor, groupID string) ([]models.Team, error) {
	return r.list(func(t models.Team) bool { return t.GroupID != nil && *t.GroupID == groupID }), nil
}

func (r fakeTeamRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID string) ([]models.Team, error) {
	return r.list(func(t models.Team) bool { return t.TournamentID == tournamentID }), nil
}

func (r fakeTeamRepo) list(keep func(models.Team) bool) []models.Team {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Team, 0)
	for _, t := range r.s.teams {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b models.Team) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

type fakeDeltaRepo struct{ s *memStore }

func (r fakeDeltaRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, d *models.RatingDelta) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deltas[d.MatchID] = *d
	return nil
}

func (r fakeDeltaRepo) GetByMatch(_ context.Context, _ repositories.SQLExecutor, matchID string) (*models.RatingDelta, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.deltas[matchID]
	if !ok {
		return nil, repositories.ErrRatingDeltaNotFound
	}
	return &d, nil
}

func (r fakeDeltaRepo) DeleteByMatch(_ context.Context, _ repositories.SQLExecutor, matchID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.deltas, matchID)
	return nil
}

func (r fakeDeltaRepo) ListByMatches(_ context.Context, _ repositories.SQLExecutor, matchIDs []string) ([]models.RatingDelta, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.RatingDelta, 0)
	for _, id := range matchIDs {
		if d, ok := r.s.deltas[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeStandingRepo struct{ s *memStore }

func (r fakeStandingRepo) LockGroup(ctx context.Context, _ repositories.SQLExecutor, groupID string) error {
	tx, ok := ctx.Value(memTxKey{}).(*memTx)
	if !ok {
		return repositories.ErrTxRequired
	}
	r.s.mu.Lock()
	lock, ok := r.s.groupLocks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		r.s.groupLocks[groupID] = lock
	}
	r.s.mu.Unlock()

	lock.Lock()
	tx.unlocks = append(tx.unlocks, lock.Unlock)
	return nil
}

func (r fakeStandingRepo) ReplaceForGroup(_ context.Context, _ repositories.SQLExecutor, groupID string, rows []models.Standing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range rows {
		rows[i].UpdatedAt = time.Now().UTC()
	}
	r.s.standings[groupID] = slices.Clone(rows)
	r.s.standingWrites++
	return nil
}

func (r fakeStandingRepo) ListByGroup(_ context.Context, _ repositories.SQLExecutor, groupID string) ([]models.Standing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.standings[groupID]), nil
}

type publishedEvent struct {
	TournamentID string
	Type         string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *recordingNotifier) Publish(tournamentID, eventType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{TournamentID: tournamentID, Type: eventType})
}

func (n *recordingNotifier) count(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Type == eventType {
			c++
		}
	}
	return c
}

type countingSnapshots struct {
	mu        sync.Mutex
	standings map[string]int
	brackets  map[string]int
}

func newCountingSnapshots() *countingSnapshots {
	return &countingSnapshots{standings: make(map[string]int), brackets: make(map[string]int)}
}

func (c *countingSnapshots) PublishStandings(_ context.Context, groupID string, _ interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.standings[groupID]++
	return nil
}

func (c *countingSnapshots) PublishBracket(_ context.Context, tournamentID string, _ interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.brackets[tournamentID]++
	return nil
}

// fixture wires the three services over one memStore.
type fixture struct {
	store     *memStore
	notifier  *recordingNotifier
	snapshots *countingSnapshots
	standings StandingsService
	brackets  BracketService
	matches   MatchService
}

func newFixture(cfg MatchServiceConfig) *fixture {
	f := &fixture{
		store:     newMemStore(),
		notifier:  &recordingNotifier{},
		snapshots: newCountingSnapshots(),
	}
	f.standings = NewStandingsService(StandingsServiceDeps{
		Tx:        f.store,
		Matches:   fakeMatchRepo{f.store},
		Teams:     fakeTeamRepo{f.store},
		Deltas:    fakeDeltaRepo{f.store},
		Standings: fakeStandingRepo{f.store},
		Notifier:  f.notifier,
		Snapshots: f.snapshots,
	}, StandingsConfig{Points: models.DefaultPointsSystem}, nil)

	n := 0
	f.brackets = NewBracketService(BracketServiceDeps{
		Tx:        f.store,
		Matches:   fakeMatchRepo{f.store},
		Teams:     fakeTeamRepo{f.store},
		Standings: f.standings,
		Notifier:  f.notifier,
		Snapshots: f.snapshots,
		NewID: func() string {
			n++
			return "gen-" + strconv.Itoa(n)
		},
	}, nil)

	f.matches = NewMatchService(MatchServiceDeps{
		Tx:        f.store,
		Matches:   fakeMatchRepo{f.store},
		Teams:     fakeTeamRepo{f.store},
		Deltas:    fakeDeltaRepo{f.store},
		Standings: f.standings,
		Brackets:  f.brackets,
		Notifier:  f.notifier,
	}, cfg, nil)
	return f
}

func rating(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

// pair registers a team of two players rated r in tournament t1.
func (f *fixture) pair(id string, groupID *string, r *float64) {
	f.store.addTeam(models.Team{
		ID:           id,
		TournamentID: "t1",
		GroupID:      groupID,
		Players: []models.Player{
			{ID: id + "-1", Rating: r},
			{ID: id + "-2", Rating: r},
		},
	})
}

func groupMatch(id, groupID, team1, team2 string) models.Match {
	return models.Match{
		ID:           id,
		TournamentID: "t1",
		Team1ID:      team1,
		Team2ID:      team2,
		Format:       models.FormatBestOfThree,
		Sets:         models.Sets{},
		Status:       models.StatusScheduled,
		GroupID:      strPtr(groupID),
	}
}

func sets(pairs ...int) []models.Set {
	out := make([]models.Set, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Set{Team1Games: pairs[i], Team2Games: pairs[i+1]})
	}
	return out
}
