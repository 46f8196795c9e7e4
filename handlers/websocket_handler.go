package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/club-scoring/brackets"
	"github.com/Dosada05/club-scoring/services"
)

type WebSocketHandler struct {
	hub            *brackets.Hub
	bracketService services.BracketService
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

// NewWebSocketHandler accepts browser connections from allowedOrigins; "*" allows any origin.
// bracketService is optional and used to greet new clients with the current bracket.
func NewWebSocketHandler(hub *brackets.Hub, bracketService services.BracketService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub:            hub,
		bracketService: bracketService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.With(slog.String("component", "ws_handler")),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeWs godoc
// @Summary Subscribe to live events of a tournament
// @Description Pushes MATCH_UPDATED, LIVE_SCORE, STANDINGS_UPDATED, BRACKET_UPDATED and MATCHES_CREATED messages.
// @Tags live
// @Param tournamentID path string true "Tournament ID"
// @Router /ws/tournaments/{tournamentID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		h.logger.Warn("websocket upgrade failed", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: brackets.RoomForTournament(tournamentID),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("websocket client connected", slog.String("room", client.Room))
	h.greet(r, client, tournamentID)
}

func (h *WebSocketHandler) greet(r *http.Request, client *brackets.Client, tournamentID string) {
	if h.bracketService == nil {
		return
	}
	bracket, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		return
	}
	msg, err := json.Marshal(brackets.WebSocketMessage{
		Type:    brackets.EventBracketUpdated,
		Payload: bracket,
		RoomID:  client.Room,
	})
	if err != nil {
		h.logger.Error("failed to marshal bracket greeting", slog.Any("error", err))
		return
	}

	client.Mu.Lock()
	defer client.Mu.Unlock()
	if client.IsClosed {
		return
	}
	select {
	case client.Send <- msg:
	default:
	}
}
