package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/club-scoring/handlers"
	"github.com/Dosada05/club-scoring/middleware"
	"github.com/Dosada05/club-scoring/models"
)

type Config struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

type Handlers struct {
	Match     *handlers.MatchHandler
	Team      *handlers.TeamHandler
	Standings *handlers.StandingsHandler
	Bracket   *handlers.BracketHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, cfg Config, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(cfg.JWTSecret)
	staffOnly := middleware.Authorize(models.RoleAdmin, models.RoleOrganizer)

	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// websocket upgrades must not be wrapped by the timeout middleware
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", h.Match.GetMatch)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/start", h.Match.StartMatch)
				r.Post("/live", h.Match.UpdateLiveScore)
				r.Post("/provisional", h.Match.SubmitProvisional)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate, staffOnly)
				r.Post("/complete", h.Match.CompleteMatch)
				r.Post("/revert", h.Match.RevertMatch)
				r.Post("/provisional/confirm", h.Match.ConfirmProvisional)
				r.Post("/provisional/reject", h.Match.RejectProvisional)
			})
		})

		r.Get("/groups/{groupID}/standings", h.Standings.GetGroupStandings)
		r.Get("/teams/{teamID}", h.Team.GetTeam)

		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			r.Get("/bracket", h.Bracket.GetBracket)
			r.Get("/teams", h.Team.ListTournamentTeams)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, staffOnly)
				r.Post("/groups/{groupID}/generate", h.Bracket.GenerateGroupMatches)
				r.Post("/knockout/generate", h.Bracket.GenerateKnockout)
			})
		})
	})
}
