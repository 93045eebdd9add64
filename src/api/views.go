package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/rafa763/cs50-finance/src/api/handlers"
	"github.com/rafa763/cs50-finance/src/config"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	Port    string
}

func NewServer(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	handler, err := handlers.NewHandler(cfg, logger)
	if err != nil {
		return nil, err
	}
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handler,
		Port:    cfg.Service.Port,
	}
	server.InitRoutes()
	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Get("/alive", handlers.Healthcheck)

	s.Router.Route("/api", func(r chi.Router) {
		r.Post("/register", s.Handler.PostRegister)
		r.Post("/login", s.Handler.PostLogin)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(s.Handler.TokenAuth))
			r.Use(s.authenticator)

			r.Post("/logout", s.Handler.PostLogout)
			r.Get("/portfolio", s.Handler.GetPortfolio)
			r.Get("/quote/{symbol}", s.Handler.GetQuote)
			r.Post("/buy", s.Handler.PostBuy)
			r.Post("/sell", s.Handler.PostSell)
			r.Get("/history", s.Handler.GetHistory)
		})
	})
}

// authenticator rejects requests whose token failed verification or has
// been revoked by a logout.
func (s *Server) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if tokenID, ok := claims["jti"].(string); ok {
			revoked, err := s.Handler.Auth.IsTokenRevoked(r.Context(), tokenID)
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if revoked {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func NewHTTPServer(server *Server) *http.Server {
	corsHandler := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	httpServer := &http.Server{
		Addr:         ":" + server.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Handler:      corsHandler.Handler(server),
	}
	return httpServer
}
