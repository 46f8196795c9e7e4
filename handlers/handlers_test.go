package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/club-scoring/brackets"
	"github.com/Dosada05/club-scoring/handlers"
	"github.com/Dosada05/club-scoring/models"
	"github.com/Dosada05/club-scoring/routes"
	"github.com/Dosada05/club-scoring/scoring"
	"github.com/Dosada05/club-scoring/services"
)

var secret = []byte("handler-secret")

type stubMatchService struct {
	services.MatchService
	match       *models.Match
	err         error
	submittedBy string
	sets        []models.Set
}

func (s *stubMatchService) GetMatch(_ context.Context, id string) (*models.Match, error) {
	return s.match, s.err
}

func (s *stubMatchService) StartMatch(_ context.Context, id string) (*models.Match, error) {
	return s.match, s.err
}

func (s *stubMatchService) CompleteMatch(_ context.Context, id string, sets []models.Set) (*services.MatchResult, error) {
	s.sets = sets
	if s.err != nil {
		return nil, s.err
	}
	return &services.MatchResult{Match: s.match, Rating: &scoring.RatingResult{DeltaA: 25, DeltaB: -25}}, nil
}

func (s *stubMatchService) SubmitProvisional(_ context.Context, id string, sets []models.Set, by string) (*models.Match, error) {
	s.submittedBy = by
	s.sets = sets
	return s.match, s.err
}

type stubStandingsService struct {
	services.StandingsService
	table []models.Standing
}

func (s *stubStandingsService) GetGroupStandings(_ context.Context, groupID string) ([]models.Standing, error) {
	if s.table == nil {
		return nil, services.ErrNotFound
	}
	return s.table, nil
}

type stubBracketService struct {
	services.BracketService
	knockout services.GenerateKnockoutInput
	group    services.GenerateGroupInput
}

func (s *stubBracketService) GetBracket(_ context.Context, tournamentID string) (*services.Bracket, error) {
	return nil, services.ErrNotFound
}

func (s *stubBracketService) GenerateKnockout(_ context.Context, in services.GenerateKnockoutInput) ([]models.Match, error) {
	s.knockout = in
	return []models.Match{}, nil
}

func (s *stubBracketService) GenerateGroupMatches(_ context.Context, in services.GenerateGroupInput) ([]models.Match, error) {
	s.group = in
	return nil, services.ErrAlreadyGenerated
}

type stubTeamService struct{}

func (stubTeamService) GetTeam(_ context.Context, teamID string) (*services.TeamSummary, error) {
	if teamID != "A" {
		return nil, services.ErrTeamNotFound
	}
	return &services.TeamSummary{Team: &models.Team{ID: "A", TournamentID: "t1"}, AverageRating: 1000}, nil
}

func (stubTeamService) ListTournamentTeams(_ context.Context, tournamentID string) ([]services.TeamSummary, error) {
	return []services.TeamSummary{}, nil
}

type testServer struct {
	router    *chi.Mux
	hub       *brackets.Hub
	matches   *stubMatchService
	standings *stubStandingsService
	brackets  *stubBracketService
}

func newTestServer() *testServer {
	ts := &testServer{
		router:    chi.NewRouter(),
		hub:       brackets.NewHub(nil),
		matches:   &stubMatchService{match: &models.Match{ID: "m1", Status: models.StatusCompleted}},
		standings: &stubStandingsService{},
		brackets:  &stubBracketService{},
	}
	routes.SetupRoutes(ts.router, routes.Config{JWTSecret: secret, AllowedOrigins: []string{"*"}}, routes.Handlers{
		Match:     handlers.NewMatchHandler(ts.matches),
		Team:      handlers.NewTeamHandler(stubTeamService{}),
		Standings: handlers.NewStandingsHandler(ts.standings),
		Bracket:   handlers.NewBracketHandler(ts.brackets),
		WebSocket: handlers.NewWebSocketHandler(ts.hub, ts.brackets, []string{"*"}, nil),
	})
	return ts
}

func token(t *testing.T, userID string, role models.UserRole) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func (ts *testServer) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func TestCompleteMatch_Authorization(t *testing.T) {
	ts := newTestServer()
	body := `{"sets":[{"team1Games":6,"team2Games":3}]}`

	rec, _ := ts.do(t, http.MethodPost, "/matches/m1/complete", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/matches/m1/complete", body, token(t, "u-1", models.RolePlayer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, out := ts.do(t, http.MethodPost, "/matches/m1/complete", body, token(t, "u-2", models.RoleOrganizer))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.Set{{Team1Games: 6, Team2Games: 3}}, ts.matches.sets)
	rating, ok := out["rating"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 25.0, rating["deltaA"])
}

func TestCompleteMatch_ErrorMapping(t *testing.T) {
	staff := token(t, "u-2", models.RoleAdmin)
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"format mismatch", &scoring.FormatMismatchError{Format: models.FormatBestOfThree, Reason: "needs a deciding set"}, http.StatusUnprocessableEntity, "needs a deciding set"},
		{"tied set", &scoring.TiedSetError{SetIndex: 0, Set: models.Set{Team1Games: 6, Team2Games: 6}}, http.StatusUnprocessableEntity, "set 1 is tied at 6-6"},
		{"already completed", &scoring.InvalidTransitionError{From: models.StatusCompleted, Action: "complete"}, http.StatusConflict, ""},
		{"not found", services.ErrMatchNotFound, http.StatusNotFound, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer()
			ts.matches.err = tc.err
			rec, out := ts.do(t, http.MethodPost, "/matches/m1/complete", `{"sets":[]}`, staff)
			assert.Equal(t, tc.status, rec.Code)
			if tc.reason != "" {
				assert.Equal(t, tc.reason, out["reason"])
			}
		})
	}
}

func TestCompleteMatch_BadBody(t *testing.T) {
	ts := newTestServer()
	staff := token(t, "u-2", models.RoleAdmin)

	rec, _ := ts.do(t, http.MethodPost, "/matches/m1/complete", `{"sets":`, staff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/matches/m1/complete", `{"score":[]}`, staff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitProvisional_UsesCaller(t *testing.T) {
	ts := newTestServer()
	rec, _ := ts.do(t, http.MethodPost, "/matches/m1/provisional",
		`{"sets":[{"team1Games":6,"team2Games":4}]}`, token(t, "u-9", models.RolePlayer))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-9", ts.matches.submittedBy)
}

func TestGetMatch(t *testing.T) {
	ts := newTestServer()
	rec, out := ts.do(t, http.MethodGet, "/matches/m1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	match, ok := out["match"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "m1", match["id"])

	ts.matches.err = services.ErrMatchNotFound
	rec, _ = ts.do(t, http.MethodGet, "/matches/m1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetGroupStandings(t *testing.T) {
	ts := newTestServer()
	rec, _ := ts.do(t, http.MethodGet, "/groups/g1/standings", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.standings.table = []models.Standing{{GroupID: "g1", TeamID: "A", Points: 3, Position: 1}}
	rec, out := ts.do(t, http.MethodGet, "/groups/g1/standings", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows, ok := out["standings"].([]interface{})
	require.True(t, ok)
	assert.Len(t, rows, 1)
}

func TestTeamRoutes(t *testing.T) {
	ts := newTestServer()

	rec, out := ts.do(t, http.MethodGet, "/teams/A", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000.0, out["averageRating"])

	rec, _ = ts.do(t, http.MethodGet, "/teams/B", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = ts.do(t, http.MethodGet, "/tournaments/t1/teams", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, out, "teams")
}

func TestBracketRoutes(t *testing.T) {
	ts := newTestServer()
	staff := token(t, "u-2", models.RoleOrganizer)

	rec, _ := ts.do(t, http.MethodGet, "/tournaments/t1/bracket", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/tournaments/t1/knockout/generate", "", staff)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "t1", ts.brackets.knockout.TournamentID)

	rec, _ = ts.do(t, http.MethodPost, "/tournaments/t1/knockout/generate", `{"teamIds":["B","A"],"format":"singleSet"}`, staff)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"B", "A"}, ts.brackets.knockout.TeamIDs)
	assert.Equal(t, models.FormatSingleSet, ts.brackets.knockout.Format)

	rec, _ = ts.do(t, http.MethodPost, "/tournaments/t1/groups/g1/generate", `{"legs":2}`, staff)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "g1", ts.brackets.group.GroupID)
	assert.Equal(t, 2, ts.brackets.group.Legs)
}

func TestGenerateKnockout_EmptyChunkedBody(t *testing.T) {
	ts := newTestServer()

	// a reader of unknown length leaves ContentLength at -1, as with chunked uploads
	req := httptest.NewRequest(http.MethodPost, "/tournaments/t1/knockout/generate", struct{ io.Reader }{strings.NewReader("")})
	require.Equal(t, int64(-1), req.ContentLength)
	req.Header.Set("Authorization", "Bearer "+token(t, "u-2", models.RoleOrganizer))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "t1", ts.brackets.knockout.TournamentID)
	assert.Empty(t, ts.brackets.knockout.TeamIDs)
}

func TestWebSocket_ReceivesTournamentEvents(t *testing.T) {
	ts := newTestServer()
	go ts.hub.Run()
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/t1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	room := brackets.RoomForTournament("t1")
	require.Eventually(t, func() bool { return ts.hub.ClientCount(room) == 1 }, time.Second, 10*time.Millisecond)

	ts.hub.Publish("t1", brackets.EventMatchUpdated, map[string]string{"id": "m1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg brackets.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, brackets.EventMatchUpdated, msg.Type)
	assert.Equal(t, room, msg.RoomID)
}
