package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sabflip/account-link/internal/config"
	"github.com/sabflip/account-link/internal/transport/http/handler"
	appmiddleware "github.com/sabflip/account-link/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Applied to the endpoints that write or call Roblox.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	healthH := handler.NewHealthHandler()
	verifyH := handler.NewVerificationHandler(deps.Verification)
	profileH := handler.NewProfileHandler(deps.Profile)

	r.Get("/health-check/{action}", healthH.Ping)

	r.Route("/api", func(r chi.Router) {
		r.Use(appmiddleware.Auth(deps.Identity))

		r.Get("/user-data", profileH.UserData)
		r.With(sensitiveRL.Limit).Post("/generate-code", verifyH.GenerateCode)
		r.With(sensitiveRL.Limit).Post("/verify-user", verifyH.VerifyUser)
	})

	return r
}
