package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mauv0809/riichi-ledger/internal/club"
	"github.com/mauv0809/riichi-ledger/internal/config"
	"github.com/mauv0809/riichi-ledger/internal/notifier"
	"github.com/mauv0809/riichi-ledger/internal/proposal"
	"github.com/mauv0809/riichi-ledger/internal/pubsub"
	"github.com/mauv0809/riichi-ledger/internal/tournament"
)

func NewServer(store LedgerReader, proposals proposal.Service, tournaments tournament.Service, directory club.Directory, n notifier.Notifier, events pubsub.PubSubClient, metricsHandler http.Handler, cfg config.Config) *Server {
	if n == nil {
		n = notifier.NewLogNotifier()
	}
	server := &Server{
		Store:          store,
		Proposals:      proposals,
		Tournaments:    tournaments,
		Directory:      directory,
		Notifier:       n,
		PubSub:         events,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         chi.NewRouter(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))
	r.Use(paramsMiddleware)

	r.Get("/health", s.HealthCheckHandler())
	if s.MetricsHandler != nil {
		r.Handle("/metrics", s.MetricsHandler)
	}
	r.Post("/pubsub/round-activated", s.RoundActivatedPushHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(identityMiddleware(s.Cfg.JWTSecret))

		r.Post("/clubs/{clubID}/games", s.SubmitCreateHandler())
		r.Post("/games/{gameID}/proposals", s.SubmitEditHandler())
		r.Post("/proposals/{proposalID}/approve", s.ApproveHandler())
		r.Post("/proposals/{proposalID}/reject", s.RejectHandler())
		r.Post("/clubs/{clubID}/competitions/{competitionID}/rounds", s.CreateRoundHandler())
		r.Post("/clubs/{clubID}/competitions/{competitionID}/rounds/{roundID}/tables/{tableIndex}/result", s.SubmitTableResultHandler())
		r.Put("/clubs/{clubID}/members/{userID}", s.UpsertMemberHandler())
		r.Get("/clubs/{clubID}/leaderboard", s.LeaderboardHandler())
		r.Get("/clubs/{clubID}/leaderboard.xlsx", s.LeaderboardExportHandler())
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
